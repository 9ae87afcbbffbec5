package message

import "fmt"

// registry maps message types to payload factories. It is populated by
// Register calls from package init functions and never mutated afterwards,
// which makes it safe to share across concurrently running decoders.
var registry = make(map[uint16]func() Payload)

// Register adds a payload factory for a message type. It is intended to be
// called from init; registering the same type twice is a programming error.
func Register(messageType uint16, factory func() Payload) {
	if _, exists := registry[messageType]; exists {
		panic(fmt.Sprintf("message: type %d registered twice", messageType))
	}
	registry[messageType] = factory
}

// New returns a fresh payload value for the message type. The second return
// reports whether the type is registered; a miss is not an error, callers
// fall back to Raw.
func New(messageType uint16) (Payload, bool) {
	factory, ok := registry[messageType]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Registered reports whether a typed codec exists for the message type.
func Registered(messageType uint16) bool {
	_, ok := registry[messageType]
	return ok
}

func init() {
	Register(TypePose, func() Payload { return &PoseMessage{} })
	Register(TypeVersionInfo, func() Payload { return &VersionInfoMessage{} })
}
