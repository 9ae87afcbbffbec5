// Package config loads and validates the YAML configuration for the
// FusionEngine wire service: listener addresses, decoder behavior, the HTTP
// monitoring API, and logging.
package config
