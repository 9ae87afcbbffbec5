package framer

import "log/slog"

// WarnPolicy selects which recoverable decode conditions are logged.
type WarnPolicy int

const (
	// WarnNone suppresses all decode warnings.
	WarnNone WarnPolicy = iota
	// WarnUnrecognized logs frames carrying an unregistered message type.
	WarnUnrecognized
	// WarnAll additionally logs CRC and framing failures.
	WarnAll
)

// String returns the configuration-file spelling of the policy.
func (p WarnPolicy) String() string {
	switch p {
	case WarnNone:
		return "none"
	case WarnUnrecognized:
		return "unrecognized"
	case WarnAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseWarnPolicy converts a configuration string to a WarnPolicy.
func ParseWarnPolicy(s string) (WarnPolicy, bool) {
	switch s {
	case "none", "":
		return WarnNone, true
	case "unrecognized":
		return WarnUnrecognized, true
	case "all":
		return WarnAll, true
	default:
		return WarnNone, false
	}
}

// Options configures a Decoder instance.
type Options struct {
	// MaxPayloadSize overrides the module payload ceiling; zero selects
	// protocol.DefaultMaxPayloadSize.
	MaxPayloadSize int

	// WarnPolicy controls warning log output for recoverable conditions.
	WarnPolicy WarnPolicy

	// IncludeRaw attaches the verbatim frame bytes to each emitted frame,
	// for callers that forward selected frames byte-for-byte.
	IncludeRaw bool

	// Logger receives decode warnings; nil disables logging regardless of
	// the warn policy.
	Logger *slog.Logger
}
