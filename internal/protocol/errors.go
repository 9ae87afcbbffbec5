package protocol

import "errors"

// Framing errors. The streaming decoder recovers from all of these locally;
// direct pack/unpack callers receive them wrapped with context.
var (
	// ErrBadSync reports that a buffer does not start with the two-byte
	// sync pattern.
	ErrBadSync = errors.New("protocol: sync bytes not found")

	// ErrShortBuffer reports that a buffer is too small to hold the
	// structure claimed to be at its offset.
	ErrShortBuffer = errors.New("protocol: buffer too short")

	// ErrCRCMismatch reports that a frame's bytes do not match the CRC
	// declared in its header.
	ErrCRCMismatch = errors.New("protocol: crc mismatch")

	// ErrPayloadTooLarge reports a header whose declared payload size
	// exceeds the configured ceiling. Such a header is treated as corrupt
	// framing even when the sync bytes matched.
	ErrPayloadTooLarge = errors.New("protocol: declared payload size exceeds maximum")
)
