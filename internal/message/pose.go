package message

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/fixed"
)

// poseMessageSize is the fixed serialized size of a pose payload
const poseMessageSize = 40

// attitudeCodec encodes attitude angles as 16-bit fixed point at 1/16
// degree resolution, with 0x7FFF reserved for "invalid".
var attitudeCodec = fixed.Codec{Scale: 0.0625, Bits: 16, Invalid: 0x7FFF, HasInvalid: true}

// PoseMessage reports a navigation solution: solution time, geodetic
// position, and fixed-point attitude angles. Angles that are unavailable are
// NaN and travel as the attitude sentinel.
// Layout (40 bytes, little-endian):
// [TimeSec:4][TimeFracNS:4][Lat:8][Lon:8][Alt:8][Yaw:2][Pitch:2][Roll:2][Reserved:2]
type PoseMessage struct {
	TimeSeconds    uint32  // Solution time, whole seconds
	TimeFractionNS uint32  // Solution time, fractional nanoseconds
	LatDeg         float64 // Geodetic latitude in degrees
	LonDeg         float64 // Geodetic longitude in degrees
	AltMeters      float64 // Altitude above the ellipsoid in meters
	YawDeg         float64 // NaN when unavailable
	PitchDeg       float64 // NaN when unavailable
	RollDeg        float64 // NaN when unavailable
}

// MessageType returns the registry identifier for pose messages.
func (p *PoseMessage) MessageType() uint16 {
	return TypePose
}

// PackedSize returns the serialized size; the layout is the same for every
// schema version published so far.
func (p *PoseMessage) PackedSize(version uint8) int {
	return poseMessageSize
}

// Pack serializes the pose into buf at offset.
func (p *PoseMessage) Pack(buf []byte, offset int, version uint8) (int, error) {
	if offset < 0 || len(buf)-offset < poseMessageSize {
		return 0, fmt.Errorf("pose payload needs %d bytes at offset %d, have %d: %w",
			poseMessageSize, offset, len(buf)-offset, ErrShortPayload)
	}

	b := buf[offset:]
	binary.LittleEndian.PutUint32(b[0:4], p.TimeSeconds)
	binary.LittleEndian.PutUint32(b[4:8], p.TimeFractionNS)
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(p.LatDeg))
	binary.LittleEndian.PutUint64(b[16:24], math.Float64bits(p.LonDeg))
	binary.LittleEndian.PutUint64(b[24:32], math.Float64bits(p.AltMeters))

	angles := []float64{p.YawDeg, p.PitchDeg, p.RollDeg}
	for i, angle := range angles {
		raw, err := attitudeCodec.EncodeInt16(angle)
		if err != nil {
			return 0, fmt.Errorf("failed to encode attitude angle %g: %w", angle, err)
		}
		binary.LittleEndian.PutUint16(b[32+2*i:34+2*i], uint16(raw))
	}

	b[38] = 0
	b[39] = 0

	return poseMessageSize, nil
}

// Unpack deserializes the pose from buf at offset.
func (p *PoseMessage) Unpack(buf []byte, offset int, version uint8) (int, error) {
	if offset < 0 || len(buf)-offset < poseMessageSize {
		return 0, fmt.Errorf("pose payload needs %d bytes at offset %d, have %d: %w",
			poseMessageSize, offset, len(buf)-offset, ErrShortPayload)
	}

	b := buf[offset:]
	p.TimeSeconds = binary.LittleEndian.Uint32(b[0:4])
	p.TimeFractionNS = binary.LittleEndian.Uint32(b[4:8])
	p.LatDeg = math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
	p.LonDeg = math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))
	p.AltMeters = math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))

	p.YawDeg = attitudeCodec.DecodeInt16(int16(binary.LittleEndian.Uint16(b[32:34])))
	p.PitchDeg = attitudeCodec.DecodeInt16(int16(binary.LittleEndian.Uint16(b[34:36])))
	p.RollDeg = attitudeCodec.DecodeInt16(int16(binary.LittleEndian.Uint16(b[36:38])))

	return poseMessageSize, nil
}

// String returns a human-readable representation of the pose
func (p *PoseMessage) String() string {
	return fmt.Sprintf("Pose{Time:%d.%09d, LLA:(%.8f, %.8f, %.3f), YPR:(%.4f, %.4f, %.4f)}",
		p.TimeSeconds, p.TimeFractionNS, p.LatDeg, p.LonDeg, p.AltMeters,
		p.YawDeg, p.PitchDeg, p.RollDeg)
}
