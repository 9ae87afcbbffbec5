package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// referenceFrame is a known-good 28-byte capture: message type 13002,
// sequence 0, 4-byte payload FF 0F 00 01.
var referenceFrame = []byte{
	0x2E, 0x31, // sync
	0x00, 0x00, // reserved
	0x0A, 0xCF, 0xEE, 0x8F, // crc
	0x02,       // protocol version
	0x00,       // message version
	0xCA, 0x32, // message type (13002)
	0x00, 0x00, 0x00, 0x00, // sequence number
	0x04, 0x00, 0x00, 0x00, // payload size
	0x00, 0x00, 0x00, 0x00, // source identifier
	0xFF, 0x0F, 0x00, 0x01, // payload
}

func TestUnpackHeaderReferenceFrame(t *testing.T) {
	header, consumed, err := UnpackHeader(referenceFrame, 0)
	if err != nil {
		t.Fatalf("UnpackHeader failed: %v", err)
	}

	if consumed != HeaderSize {
		t.Errorf("Expected %d bytes consumed, got %d", HeaderSize, consumed)
	}

	if header.MessageType != 13002 {
		t.Errorf("Expected message type 13002, got %d", header.MessageType)
	}

	if header.SequenceNumber != 0 {
		t.Errorf("Expected sequence number 0, got %d", header.SequenceNumber)
	}

	if header.PayloadSize != 4 {
		t.Errorf("Expected payload size 4, got %d", header.PayloadSize)
	}

	if header.SourceID != 0 {
		t.Errorf("Expected source identifier 0, got %d", header.SourceID)
	}

	if header.ProtocolVersion != ProtocolVersion {
		t.Errorf("Expected protocol version %d, got %d", ProtocolVersion, header.ProtocolVersion)
	}

	if header.CRC != 0x8FEECF0A {
		t.Errorf("Expected CRC 0x8FEECF0A, got 0x%08X", header.CRC)
	}
}

func TestChecksumReferenceFrame(t *testing.T) {
	got := Checksum(referenceFrame[CRCProtectedOffset:])
	if got != 0x8FEECF0A {
		t.Errorf("Expected checksum 0x8FEECF0A, got 0x%08X", got)
	}
}

func TestValidateCRCReferenceFrame(t *testing.T) {
	header, _, err := UnpackHeader(referenceFrame, 0)
	if err != nil {
		t.Fatalf("UnpackHeader failed: %v", err)
	}

	if err := header.ValidateCRC(referenceFrame); err != nil {
		t.Errorf("Expected valid CRC, got error: %v", err)
	}

	// Flip one payload byte inside the protected range
	corrupt := append([]byte(nil), referenceFrame...)
	corrupt[25] ^= 0x01

	err = header.ValidateCRC(corrupt)
	if !errors.Is(err, ErrCRCMismatch) {
		t.Errorf("Expected ErrCRCMismatch, got %v", err)
	}
}

func TestPackReproducesReferenceFrame(t *testing.T) {
	header := &Header{
		ProtocolVersion: ProtocolVersion,
		MessageVersion:  0,
		MessageType:     13002,
		SequenceNumber:  0,
		SourceID:        0,
	}

	frame, err := header.Pack([]byte{0xFF, 0x0F, 0x00, 0x01})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if !bytes.Equal(frame, referenceFrame) {
		t.Errorf("Packed frame does not match reference capture:\nexpected % X\ngot      % X",
			referenceFrame, frame)
	}

	if header.CRC != 0x8FEECF0A {
		t.Errorf("Expected CRC field updated to 0x8FEECF0A, got 0x%08X", header.CRC)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	original := &Header{
		Reserved:        0xBEEF,
		ProtocolVersion: ProtocolVersion,
		MessageVersion:  3,
		MessageType:     10000,
		SequenceNumber:  42,
		SourceID:        0xDEAD0001,
	}
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	frame, err := original.Pack(payload)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	decoded, _, err := UnpackHeaderStrict(frame, 0)
	if err != nil {
		t.Fatalf("UnpackHeaderStrict failed: %v", err)
	}

	if *decoded != *original {
		t.Errorf("Round-trip mismatch:\nexpected %+v\ngot      %+v", original, decoded)
	}

	if err := decoded.ValidateCRC(frame); err != nil {
		t.Errorf("Round-tripped frame failed CRC validation: %v", err)
	}
}

func TestUnpackHeaderShortBuffer(t *testing.T) {
	tests := []struct {
		name   string
		buf    []byte
		offset int
	}{
		{"empty buffer", nil, 0},
		{"partial header", referenceFrame[:HeaderSize-1], 0},
		{"offset past end", referenceFrame, len(referenceFrame) - 4},
		{"negative offset", referenceFrame, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := UnpackHeader(tt.buf, tt.offset)
			if !errors.Is(err, ErrShortBuffer) {
				t.Errorf("Expected ErrShortBuffer, got %v", err)
			}
		})
	}
}

func TestUnpackHeaderStrictBadSync(t *testing.T) {
	corrupt := append([]byte(nil), referenceFrame...)
	corrupt[0] = 0x00

	_, _, err := UnpackHeaderStrict(corrupt, 0)
	if !errors.Is(err, ErrBadSync) {
		t.Errorf("Expected ErrBadSync, got %v", err)
	}
}

func TestValidatePayloadCeiling(t *testing.T) {
	tests := []struct {
		name        string
		payloadSize uint32
		maxSize     int
		expectError bool
	}{
		{"within default ceiling", 4096, 0, false},
		{"at default ceiling", DefaultMaxPayloadSize, 0, false},
		{"above default ceiling", DefaultMaxPayloadSize + 1, 0, true},
		{"within custom ceiling", 100, 128, false},
		{"above custom ceiling", 129, 128, true},
		{"implausible size from mid-stream sync match", 0xFFFFFFFF, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &Header{PayloadSize: tt.payloadSize}
			err := header.Validate(tt.maxSize)
			if tt.expectError && !errors.Is(err, ErrPayloadTooLarge) {
				t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestReservedRoundTrip(t *testing.T) {
	header := &Header{Reserved: 0x1234, ProtocolVersion: ProtocolVersion, MessageType: 1}
	frame, err := header.Pack(nil)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	decoded, _, err := UnpackHeader(frame, 0)
	if err != nil {
		t.Fatalf("UnpackHeader failed: %v", err)
	}

	if decoded.Reserved != 0x1234 {
		t.Errorf("Expected reserved field 0x1234 to round-trip, got 0x%04X", decoded.Reserved)
	}
}

func TestFrameChecksumShortBuffer(t *testing.T) {
	_, err := FrameChecksum(referenceFrame[:10])
	if !errors.Is(err, ErrShortBuffer) {
		t.Errorf("Expected ErrShortBuffer, got %v", err)
	}
}
