package framer

import (
	"fmt"
	"sync"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/message"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

// Encoder serializes payloads into well-formed frames. Each instance owns
// its sequence counter; senders that track sequence numbers themselves use
// EncodeMessageAt instead.
type Encoder struct {
	sourceID uint32

	mu           sync.Mutex
	nextSequence uint32
	framesOut    uint64
}

// NewEncoder creates an encoder stamping frames with the given source
// identifier. Sequence numbers start at zero.
func NewEncoder(sourceID uint32) *Encoder {
	return &Encoder{sourceID: sourceID}
}

// EncodeMessage serializes a payload into one frame, assigning the next
// sequence number from the encoder's counter.
func (e *Encoder) EncodeMessage(payload message.Payload, version uint8) ([]byte, error) {
	e.mu.Lock()
	sequence := e.nextSequence
	e.mu.Unlock()

	frame, err := e.EncodeMessageAt(payload, version, sequence)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.nextSequence++
	e.mu.Unlock()
	return frame, nil
}

// EncodeMessageAt serializes a payload into one frame with a caller-supplied
// sequence number. The encoder's own counter is not advanced.
func (e *Encoder) EncodeMessageAt(payload message.Payload, version uint8, sequence uint32) ([]byte, error) {
	size := payload.PackedSize(version)
	if size > protocol.DefaultMaxPayloadSize {
		return nil, fmt.Errorf("payload of %d bytes exceeds maximum %d: %w",
			size, protocol.DefaultMaxPayloadSize, protocol.ErrPayloadTooLarge)
	}

	payloadBytes := make([]byte, size)
	if _, err := payload.Pack(payloadBytes, 0, version); err != nil {
		return nil, fmt.Errorf("failed to pack payload type %d: %w", payload.MessageType(), err)
	}

	header := &protocol.Header{
		ProtocolVersion: protocol.ProtocolVersion,
		MessageVersion:  version,
		MessageType:     payload.MessageType(),
		SequenceNumber:  sequence,
		SourceID:        e.sourceID,
	}

	frame, err := header.Pack(payloadBytes)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.framesOut++
	e.mu.Unlock()
	return frame, nil
}

// FramesEncoded returns the number of frames produced so far.
func (e *Encoder) FramesEncoded() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framesOut
}
