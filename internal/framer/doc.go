// Package framer implements the incremental FusionEngine stream codec: a
// decoder that consumes arbitrary byte chunks, recovers synchronization
// after corruption or interleaved non-protocol bytes, and emits validated
// frames; and an encoder that serializes payloads into well-formed frames.
package framer
