package message

import (
	"errors"
	"fmt"
)

// Well-known message type identifiers
const (
	TypePose        uint16 = 10000
	TypeVersionInfo uint16 = 13003
)

// ErrShortPayload reports a buffer too small for the payload layout a codec
// was asked to read or write.
var ErrShortPayload = errors.New("message: payload buffer too short")

// Payload is the contract a message type must satisfy to participate in the
// registry: report its packed size and serialize itself against a byte
// buffer at an offset. The schema version comes from the frame header so a
// codec can interpret variable layouts.
type Payload interface {
	// MessageType returns the numeric identifier carried in the frame header.
	MessageType() uint16

	// PackedSize returns the serialized length in bytes for the given
	// schema version.
	PackedSize(version uint8) int

	// Pack writes the payload into buf at offset and returns the number of
	// bytes written.
	Pack(buf []byte, offset int, version uint8) (int, error)

	// Unpack reads the payload from buf at offset and returns the number of
	// bytes consumed.
	Unpack(buf []byte, offset int, version uint8) (int, error)
}

// Raw carries the payload of an unrecognized message type as opaque bytes.
// It round-trips byte-for-byte so frames can be forwarded verbatim.
type Raw struct {
	Type  uint16
	Bytes []byte
}

// MessageType returns the numeric identifier this payload was carried under.
func (r *Raw) MessageType() uint16 {
	return r.Type
}

// PackedSize returns the opaque payload length; the version is irrelevant.
func (r *Raw) PackedSize(version uint8) int {
	return len(r.Bytes)
}

// Pack copies the opaque bytes into buf at offset.
func (r *Raw) Pack(buf []byte, offset int, version uint8) (int, error) {
	if offset < 0 || len(buf)-offset < len(r.Bytes) {
		return 0, fmt.Errorf("raw payload needs %d bytes at offset %d, have %d: %w",
			len(r.Bytes), offset, len(buf)-offset, ErrShortPayload)
	}
	copy(buf[offset:], r.Bytes)
	return len(r.Bytes), nil
}

// Unpack captures everything from offset to the end of buf as the payload.
func (r *Raw) Unpack(buf []byte, offset int, version uint8) (int, error) {
	if offset < 0 || offset > len(buf) {
		return 0, fmt.Errorf("raw payload offset %d outside buffer of %d bytes: %w",
			offset, len(buf), ErrShortPayload)
	}
	r.Bytes = append(r.Bytes[:0], buf[offset:]...)
	return len(r.Bytes), nil
}
