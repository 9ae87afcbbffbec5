package message

import "fmt"

// maxVersionStringLen bounds the length-prefixed strings in a version info
// payload; the prefix is a single byte.
const maxVersionStringLen = 255

// VersionInfoMessage reports the software identifiers of the sender. Schema
// version 0 carries the firmware string only; version 1 added the engine
// string, so the packed layout depends on the message_version in the header.
// Layout: [FwLen:1][Firmware:FwLen] and, for version >= 1,
// [EngineLen:1][Engine:EngineLen].
type VersionInfoMessage struct {
	Firmware string
	Engine   string
}

// MessageType returns the registry identifier for version info messages.
func (v *VersionInfoMessage) MessageType() uint16 {
	return TypeVersionInfo
}

// PackedSize returns the serialized size for the given schema version.
func (v *VersionInfoMessage) PackedSize(version uint8) int {
	size := 1 + len(v.Firmware)
	if version >= 1 {
		size += 1 + len(v.Engine)
	}
	return size
}

// Pack serializes the version info into buf at offset.
func (v *VersionInfoMessage) Pack(buf []byte, offset int, version uint8) (int, error) {
	if len(v.Firmware) > maxVersionStringLen {
		return 0, fmt.Errorf("firmware string of %d bytes exceeds %d", len(v.Firmware), maxVersionStringLen)
	}
	if version >= 1 && len(v.Engine) > maxVersionStringLen {
		return 0, fmt.Errorf("engine string of %d bytes exceeds %d", len(v.Engine), maxVersionStringLen)
	}

	size := v.PackedSize(version)
	if offset < 0 || len(buf)-offset < size {
		return 0, fmt.Errorf("version payload needs %d bytes at offset %d, have %d: %w",
			size, offset, len(buf)-offset, ErrShortPayload)
	}

	b := buf[offset:]
	b[0] = byte(len(v.Firmware))
	copy(b[1:], v.Firmware)
	if version >= 1 {
		pos := 1 + len(v.Firmware)
		b[pos] = byte(len(v.Engine))
		copy(b[pos+1:], v.Engine)
	}

	return size, nil
}

// Unpack deserializes the version info from buf at offset.
func (v *VersionInfoMessage) Unpack(buf []byte, offset int, version uint8) (int, error) {
	if offset < 0 || len(buf)-offset < 1 {
		return 0, fmt.Errorf("version payload needs a length byte at offset %d: %w",
			offset, ErrShortPayload)
	}

	b := buf[offset:]
	fwLen := int(b[0])
	if len(b) < 1+fwLen {
		return 0, fmt.Errorf("firmware string claims %d bytes, have %d: %w",
			fwLen, len(b)-1, ErrShortPayload)
	}
	v.Firmware = string(b[1 : 1+fwLen])
	consumed := 1 + fwLen

	v.Engine = ""
	if version >= 1 {
		if len(b) < consumed+1 {
			return 0, fmt.Errorf("engine string length byte missing: %w", ErrShortPayload)
		}
		engineLen := int(b[consumed])
		if len(b) < consumed+1+engineLen {
			return 0, fmt.Errorf("engine string claims %d bytes, have %d: %w",
				engineLen, len(b)-consumed-1, ErrShortPayload)
		}
		v.Engine = string(b[consumed+1 : consumed+1+engineLen])
		consumed += 1 + engineLen
	}

	return consumed, nil
}

// String returns a human-readable representation of the version info
func (v *VersionInfoMessage) String() string {
	if v.Engine == "" {
		return fmt.Sprintf("VersionInfo{Firmware:%q}", v.Firmware)
	}
	return fmt.Sprintf("VersionInfo{Firmware:%q, Engine:%q}", v.Firmware, v.Engine)
}
