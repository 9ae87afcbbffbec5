package fixed

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange reports a domain value whose scaled representation does not
// fit in the declared integer width. Encoding fails rather than wrapping.
var ErrOutOfRange = errors.New("fixed: scaled value out of range")

// Codec describes one fixed-point field encoding: the scale applied on
// decode, the signed integer width in bits, and an optional reserved bit
// pattern representing "invalid".
type Codec struct {
	Scale      float64 // Positive multiplier, commonly a power of two
	Bits       int     // Signed integer width, 1..64
	Invalid    int64   // Reserved bit pattern decoded as NaN
	HasInvalid bool    // Whether Invalid is in use
}

// Encode converts a domain value to its raw integer representation.
// Rounding is half-away-from-zero on value/scale. A NaN value encodes to the
// invalid sentinel when one is declared and fails otherwise; a rounded value
// outside the representable range fails with ErrOutOfRange.
func (c Codec) Encode(value float64) (int64, error) {
	if math.IsNaN(value) {
		if c.HasInvalid {
			return c.Invalid, nil
		}
		return 0, fmt.Errorf("fixed: NaN has no encoding without an invalid sentinel")
	}

	scaled := math.Round(value / c.Scale)
	lo, hi := c.limits()
	if scaled < float64(lo) || scaled > float64(hi) {
		return 0, fmt.Errorf("value %g scales to %g outside [%d, %d]: %w",
			value, scaled, lo, hi, ErrOutOfRange)
	}

	return int64(scaled), nil
}

// Decode converts a raw integer representation back to the domain value.
// The sentinel comparison is on the raw bit pattern within the declared
// width, not the signed interpretation.
func (c Codec) Decode(raw int64) float64 {
	if c.HasInvalid && c.mask(raw) == c.mask(c.Invalid) {
		return math.NaN()
	}
	return float64(raw) * c.Scale
}

// EncodeInt16 is Encode narrowed to a 16-bit field.
func (c Codec) EncodeInt16(value float64) (int16, error) {
	raw, err := c.Encode(value)
	if err != nil {
		return 0, err
	}
	return int16(raw), nil
}

// DecodeInt16 decodes a 16-bit raw field, preserving the bit pattern for
// the sentinel comparison.
func (c Codec) DecodeInt16(raw int16) float64 {
	return c.Decode(int64(raw))
}

func (c Codec) limits() (int64, int64) {
	bits := c.Bits
	if bits <= 0 || bits > 64 {
		bits = 64
	}
	if bits == 64 {
		return math.MinInt64, math.MaxInt64
	}
	hi := int64(1)<<(bits-1) - 1
	return -hi - 1, hi
}

func (c Codec) mask(v int64) uint64 {
	bits := c.Bits
	if bits <= 0 || bits >= 64 {
		return uint64(v)
	}
	return uint64(v) & (1<<uint(bits) - 1)
}
