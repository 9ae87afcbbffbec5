package fixed

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// sixteenth is the codec used for 16-bit attitude fields: scale 2^-4 with
// 0x7FFF reserved as the invalid pattern.
var sixteenth = Codec{Scale: 0.0625, Bits: 16, Invalid: 0x7FFF, HasInvalid: true}

func TestEncodeReferenceVectors(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected [2]byte // little-endian wire bytes
	}{
		{"10.0", 10.0, [2]byte{0xA0, 0x00}},
		{"160.0", 160.0, [2]byte{0x00, 0x0A}},
		{"10.0625", 10.0625, [2]byte{0xA1, 0x00}},
		{"10.07 rounds to 10.0625", 10.07, [2]byte{0xA1, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := sixteenth.EncodeInt16(tt.value)
			if err != nil {
				t.Fatalf("EncodeInt16(%g) failed: %v", tt.value, err)
			}

			var wire [2]byte
			binary.LittleEndian.PutUint16(wire[:], uint16(raw))
			if wire != tt.expected {
				t.Errorf("Expected bytes % X, got % X", tt.expected, wire)
			}
		})
	}
}

func TestDecodeSentinel(t *testing.T) {
	if got := sixteenth.DecodeInt16(0x7FFF); !math.IsNaN(got) {
		t.Errorf("Expected NaN for sentinel 0x7FFF, got %g", got)
	}

	// 0x8000 is not the sentinel; it decodes as -32768 * 2^-4
	got := sixteenth.DecodeInt16(-0x8000)
	if math.IsNaN(got) {
		t.Fatal("0x8000 decoded as NaN, expected a numeric value")
	}
	if got != -2048.0 {
		t.Errorf("Expected -2048.0, got %g", got)
	}
}

func TestSentinelComparesBitPattern(t *testing.T) {
	// Sentinel declared as the unsigned pattern 0x8000 must match the raw
	// int16 value -32768.
	codec := Codec{Scale: 0.0625, Bits: 16, Invalid: 0x8000, HasInvalid: true}
	if got := codec.DecodeInt16(-0x8000); !math.IsNaN(got) {
		t.Errorf("Expected NaN for bit pattern 0x8000, got %g", got)
	}
}

func TestEncodeNaN(t *testing.T) {
	raw, err := sixteenth.Encode(math.NaN())
	if err != nil {
		t.Fatalf("Encode(NaN) with sentinel failed: %v", err)
	}
	if raw != 0x7FFF {
		t.Errorf("Expected sentinel 0x7FFF for NaN, got 0x%04X", raw)
	}

	noSentinel := Codec{Scale: 0.0625, Bits: 16}
	if _, err := noSentinel.Encode(math.NaN()); err == nil {
		t.Error("Expected error encoding NaN without a sentinel")
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"positive overflow", 2048.0},   // 32768 at scale 2^-4
		{"negative overflow", -2048.1},  // below -32768
		{"large value", 1e12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sixteenth.Encode(tt.value)
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Expected ErrOutOfRange for %g, got %v", tt.value, err)
			}
		})
	}

	// Edge of range must succeed, not wrap
	raw, err := sixteenth.Encode(-2048.0)
	if err != nil {
		t.Fatalf("Encode(-2048.0) failed: %v", err)
	}
	if raw != -32768 {
		t.Errorf("Expected -32768, got %d", raw)
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	codec := Codec{Scale: 1.0, Bits: 16}

	tests := []struct {
		value    float64
		expected int64
	}{
		{0.5, 1},
		{-0.5, -1},
		{1.5, 2},
		{-1.5, -2},
		{2.4, 2},
	}

	for _, tt := range tests {
		raw, err := codec.Encode(tt.value)
		if err != nil {
			t.Fatalf("Encode(%g) failed: %v", tt.value, err)
		}
		if raw != tt.expected {
			t.Errorf("Encode(%g): expected %d, got %d", tt.value, tt.expected, raw)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []float64{0, 10.0, -10.0, 0.0625, -0.0625, 2047.9375, -2048.0}

	for _, v := range values {
		raw, err := sixteenth.Encode(v)
		if err != nil {
			t.Fatalf("Encode(%g) failed: %v", v, err)
		}
		got := sixteenth.Decode(raw)
		if got != v {
			t.Errorf("Round trip of %g gave %g", v, got)
		}
	}

	// NaN round-trips through the sentinel
	raw, err := sixteenth.Encode(math.NaN())
	if err != nil {
		t.Fatalf("Encode(NaN) failed: %v", err)
	}
	if got := sixteenth.Decode(raw); !math.IsNaN(got) {
		t.Errorf("Expected NaN round trip, got %g", got)
	}
}
