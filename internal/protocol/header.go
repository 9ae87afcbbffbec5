package protocol

import (
	"encoding/binary"
	"fmt"
)

// Protocol constants from the wire format specification
const (
	// Sync bytes marking the start of every frame (".1")
	SyncByte0 = 0x2E
	SyncByte1 = 0x31

	// HeaderSize is the fixed size of the message header in bytes
	HeaderSize = 24

	// ProtocolVersion is the version of the framing protocol itself
	ProtocolVersion = 2

	// DefaultMaxPayloadSize bounds the declared payload size a header may
	// carry before it is rejected as corrupt framing. It also bounds the
	// memory a decoder holds while waiting for a payload to arrive.
	DefaultMaxPayloadSize = 16384
)

// Header represents the 24-byte FusionEngine message header.
// Layout (little-endian):
// [Sync:2][Reserved:2][CRC:4][ProtoVer:1][MsgVer:1][MsgType:2][SeqNum:4][PayloadSize:4][SourceID:4]
type Header struct {
	Reserved        uint16 // Opaque, round-trips as written
	CRC             uint32 // CRC-32 over ProtocolVersion..end of payload
	ProtocolVersion uint8  // Framing protocol version
	MessageVersion  uint8  // Payload schema version for MessageType
	MessageType     uint16 // Selects a payload codec from the registry
	SequenceNumber  uint32 // Per-sender transmit counter
	PayloadSize     uint32 // Payload length following the header
	SourceID        uint32 // Opaque sender/channel tag
}

// FrameSize returns the total length of the frame described by the header.
func (h *Header) FrameSize() int {
	return HeaderSize + int(h.PayloadSize)
}

// Pack serializes the header followed by payload into one well-formed frame,
// computing the CRC over the protected range last. PayloadSize is set from
// len(payload); the CRC field is updated on the receiver as a side effect so
// the packed bytes and the in-memory header stay consistent.
func (h *Header) Pack(payload []byte) ([]byte, error) {
	if len(payload) > DefaultMaxPayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds maximum %d: %w",
			len(payload), DefaultMaxPayloadSize, ErrPayloadTooLarge)
	}

	h.PayloadSize = uint32(len(payload))

	frame := make([]byte, HeaderSize+len(payload))
	frame[0] = SyncByte0
	frame[1] = SyncByte1
	binary.LittleEndian.PutUint16(frame[2:4], h.Reserved)
	// frame[4:8] is the CRC, written below
	frame[8] = h.ProtocolVersion
	frame[9] = h.MessageVersion
	binary.LittleEndian.PutUint16(frame[10:12], h.MessageType)
	binary.LittleEndian.PutUint32(frame[12:16], h.SequenceNumber)
	binary.LittleEndian.PutUint32(frame[16:20], h.PayloadSize)
	binary.LittleEndian.PutUint32(frame[20:24], h.SourceID)
	copy(frame[HeaderSize:], payload)

	h.CRC = Checksum(frame[CRCProtectedOffset:])
	binary.LittleEndian.PutUint32(frame[CRCOffset:CRCOffset+4], h.CRC)

	return frame, nil
}

// UnpackHeader parses a header from buf at offset. It does not validate the
// sync bytes or the CRC; callers choose when to do so. Returns the parsed
// header and the number of bytes consumed.
func UnpackHeader(buf []byte, offset int) (*Header, int, error) {
	if offset < 0 || len(buf)-offset < HeaderSize {
		return nil, 0, fmt.Errorf("header needs %d bytes at offset %d, have %d: %w",
			HeaderSize, offset, len(buf)-offset, ErrShortBuffer)
	}

	b := buf[offset:]
	header := &Header{
		Reserved:        binary.LittleEndian.Uint16(b[2:4]),
		CRC:             binary.LittleEndian.Uint32(b[4:8]),
		ProtocolVersion: b[8],
		MessageVersion:  b[9],
		MessageType:     binary.LittleEndian.Uint16(b[10:12]),
		SequenceNumber:  binary.LittleEndian.Uint32(b[12:16]),
		PayloadSize:     binary.LittleEndian.Uint32(b[16:20]),
		SourceID:        binary.LittleEndian.Uint32(b[20:24]),
	}

	return header, HeaderSize, nil
}

// UnpackHeaderStrict parses a header and additionally requires the sync
// bytes to be present at offset.
func UnpackHeaderStrict(buf []byte, offset int) (*Header, int, error) {
	header, n, err := UnpackHeader(buf, offset)
	if err != nil {
		return nil, 0, err
	}
	if buf[offset] != SyncByte0 || buf[offset+1] != SyncByte1 {
		return nil, 0, fmt.Errorf("expected sync 0x%02X 0x%02X, got 0x%02X 0x%02X: %w",
			SyncByte0, SyncByte1, buf[offset], buf[offset+1], ErrBadSync)
	}
	return header, n, nil
}

// Validate checks the declared payload size against a ceiling. A value of
// maxPayloadSize <= 0 selects DefaultMaxPayloadSize.
func (h *Header) Validate(maxPayloadSize int) error {
	if maxPayloadSize <= 0 {
		maxPayloadSize = DefaultMaxPayloadSize
	}
	if int64(h.PayloadSize) > int64(maxPayloadSize) {
		return fmt.Errorf("declared payload size %d exceeds maximum %d: %w",
			h.PayloadSize, maxPayloadSize, ErrPayloadTooLarge)
	}
	return nil
}

// ValidateCRC recomputes the CRC over the received frame's protected range
// and compares it to the header's crc field. A mismatch means the frame's
// bytes do not match its header; it is not fatal to surrounding data.
func (h *Header) ValidateCRC(frame []byte) error {
	if len(frame) < h.FrameSize() {
		return fmt.Errorf("frame needs %d bytes for crc check, have %d: %w",
			h.FrameSize(), len(frame), ErrShortBuffer)
	}
	computed := Checksum(frame[CRCProtectedOffset:h.FrameSize()])
	if computed != h.CRC {
		return fmt.Errorf("computed 0x%08X, header declares 0x%08X: %w",
			computed, h.CRC, ErrCRCMismatch)
	}
	return nil
}

// String returns a human-readable representation of the header
func (h *Header) String() string {
	return fmt.Sprintf("Header{Type:%d, Version:%d/%d, Seq:%d, PayloadSize:%d, Source:%d, CRC:0x%08X}",
		h.MessageType, h.ProtocolVersion, h.MessageVersion,
		h.SequenceNumber, h.PayloadSize, h.SourceID, h.CRC)
}
