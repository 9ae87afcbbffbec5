// Package stream tracks per-source sessions across decoded frames: frame
// and byte counts, sequence number continuity diagnostics, and inactivity
// eviction. The codec itself does not enforce sequence continuity; this is
// the caller-side bookkeeping built on top of it.
package stream
