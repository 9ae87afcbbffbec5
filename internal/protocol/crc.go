package protocol

import (
	"fmt"
	"hash/crc32"
)

// CRCOffset is the byte offset of the crc field within the header.
// The CRC protects every byte of the frame after that field, i.e.
// protocol_version through the end of the payload.
const (
	CRCOffset          = 4
	CRCProtectedOffset = 8
)

// Checksum computes the frame CRC over the protected byte range.
// The wire format uses CRC-32/ISO-HDLC (polynomial 0x04C11DB7 reflected,
// init and xorout 0xFFFFFFFF), verified bit-for-bit against reference
// captures. Callers pass frame[CRCProtectedOffset:].
func Checksum(protected []byte) uint32 {
	return crc32.ChecksumIEEE(protected)
}

// FrameChecksum computes the CRC for a complete frame buffer
// (header followed by payload).
func FrameChecksum(frame []byte) (uint32, error) {
	if len(frame) < HeaderSize {
		return 0, fmt.Errorf("frame too short for checksum: expected at least %d bytes, got %d: %w",
			HeaderSize, len(frame), ErrShortBuffer)
	}
	return Checksum(frame[CRCProtectedOffset:]), nil
}
