// Package server contains the network frontends of the FusionEngine wire
// service: TCP and UDP listeners that feed incoming bytes through the
// streaming decoder, and an HTTP API for monitoring.
package server
