package message

import (
	"math"
	"testing"
)

func TestPoseRoundTrip(t *testing.T) {
	original := &PoseMessage{
		TimeSeconds:    1234,
		TimeFractionNS: 567890123,
		LatDeg:         37.77446998,
		LonDeg:         -122.41716093,
		AltMeters:      -27.896,
		YawDeg:         190.0625,
		PitchDeg:       -1.25,
		RollDeg:        0.5,
	}

	buf := make([]byte, original.PackedSize(0))
	n, err := original.Pack(buf, 0, 0)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if n != 40 {
		t.Errorf("Expected 40 bytes written, got %d", n)
	}

	decoded := &PoseMessage{}
	if _, err := decoded.Unpack(buf, 0, 0); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	if *decoded != *original {
		t.Errorf("Round-trip mismatch:\nexpected %+v\ngot      %+v", original, decoded)
	}
}

func TestPoseInvalidAttitude(t *testing.T) {
	original := &PoseMessage{
		TimeSeconds: 1,
		LatDeg:      1.0,
		YawDeg:      math.NaN(),
		PitchDeg:    math.NaN(),
		RollDeg:     math.NaN(),
	}

	buf := make([]byte, original.PackedSize(0))
	if _, err := original.Pack(buf, 0, 0); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	// NaN angles travel as the 0x7FFF sentinel
	if buf[32] != 0xFF || buf[33] != 0x7F {
		t.Errorf("Expected yaw bytes FF 7F, got %02X %02X", buf[32], buf[33])
	}

	decoded := &PoseMessage{}
	if _, err := decoded.Unpack(buf, 0, 0); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	if !math.IsNaN(decoded.YawDeg) || !math.IsNaN(decoded.PitchDeg) || !math.IsNaN(decoded.RollDeg) {
		t.Errorf("Expected NaN attitude, got (%g, %g, %g)",
			decoded.YawDeg, decoded.PitchDeg, decoded.RollDeg)
	}
}

func TestPoseAttitudeOutOfRange(t *testing.T) {
	payload := &PoseMessage{YawDeg: 5000.0} // beyond 16-bit range at 1/16 degree
	buf := make([]byte, payload.PackedSize(0))
	if _, err := payload.Pack(buf, 0, 0); err == nil {
		t.Error("Expected range error for out-of-range attitude angle")
	}
}

func TestPoseShortBuffer(t *testing.T) {
	payload := &PoseMessage{}
	buf := make([]byte, 10)

	if _, err := payload.Pack(buf, 0, 0); err == nil {
		t.Error("Expected error packing into a short buffer")
	}
	if _, err := payload.Unpack(buf, 0, 0); err == nil {
		t.Error("Expected error unpacking from a short buffer")
	}
}

func TestVersionInfoRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload VersionInfoMessage
		version uint8
	}{
		{"version 0 firmware only", VersionInfoMessage{Firmware: "fw-2.1.0"}, 0},
		{"version 1 with engine", VersionInfoMessage{Firmware: "fw-2.1.0", Engine: "engine-0.17.3"}, 1},
		{"empty strings", VersionInfoMessage{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.payload.PackedSize(tt.version))
			n, err := tt.payload.Pack(buf, 0, tt.version)
			if err != nil {
				t.Fatalf("Pack failed: %v", err)
			}
			if n != tt.payload.PackedSize(tt.version) {
				t.Errorf("Expected %d bytes written, got %d", tt.payload.PackedSize(tt.version), n)
			}

			decoded := VersionInfoMessage{}
			n, err = decoded.Unpack(buf, 0, tt.version)
			if err != nil {
				t.Fatalf("Unpack failed: %v", err)
			}
			if n != len(buf) {
				t.Errorf("Expected %d bytes consumed, got %d", len(buf), n)
			}

			if decoded != tt.payload {
				t.Errorf("Round-trip mismatch:\nexpected %+v\ngot      %+v", tt.payload, decoded)
			}
		})
	}
}

func TestVersionInfoSchemaVersionChangesLayout(t *testing.T) {
	payload := VersionInfoMessage{Firmware: "fw", Engine: "engine"}

	if got := payload.PackedSize(0); got != 3 {
		t.Errorf("Expected version 0 size 3, got %d", got)
	}
	if got := payload.PackedSize(1); got != 10 {
		t.Errorf("Expected version 1 size 10, got %d", got)
	}

	// A version 0 reader must ignore the engine string entirely
	buf := make([]byte, payload.PackedSize(1))
	if _, err := payload.Pack(buf, 0, 1); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	decoded := VersionInfoMessage{Engine: "stale"}
	n, err := decoded.Unpack(buf, 0, 0)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected version 0 reader to consume 3 bytes, got %d", n)
	}
	if decoded.Firmware != "fw" || decoded.Engine != "" {
		t.Errorf("Expected firmware only, got %+v", decoded)
	}
}

func TestVersionInfoTruncated(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		version uint8
	}{
		{"empty buffer", nil, 0},
		{"firmware truncated", []byte{5, 'f', 'w'}, 0},
		{"engine length missing", []byte{2, 'f', 'w'}, 1},
		{"engine truncated", []byte{2, 'f', 'w', 9, 'e'}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := VersionInfoMessage{}
			if _, err := decoded.Unpack(tt.buf, 0, tt.version); err == nil {
				t.Error("Expected error for truncated payload")
			}
		})
	}
}
