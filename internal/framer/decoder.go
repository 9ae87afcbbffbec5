package framer

import (
	"log/slog"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/message"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

// Frame is one validated header/payload pair emitted by the decoder.
type Frame struct {
	Header *protocol.Header

	// Payload is the typed payload when the message type is registered, or
	// a *message.Raw carrying the opaque bytes when it is not (or when the
	// registered codec rejected the bytes).
	Payload message.Payload

	// Raw holds the verbatim frame bytes (header and payload) when the
	// decoder was configured with IncludeRaw.
	Raw []byte
}

// Stats are cumulative per-decoder counters.
type Stats struct {
	FramesEmitted   uint64 `json:"frames_emitted"`
	BytesConsumed   uint64 `json:"bytes_consumed"`
	BytesSkipped    uint64 `json:"bytes_skipped"`
	CRCErrors       uint64 `json:"crc_errors"`
	SizeRejects     uint64 `json:"size_rejects"`
	UnknownTypes    uint64 `json:"unknown_types"`
	PayloadFallback uint64 `json:"payload_fallbacks"`
}

// Decoder incrementally decodes a FusionEngine byte stream. It owns a
// resident buffer that persists across Push calls; one logical stream maps
// to one Decoder instance, and instances share no mutable state. Error
// handling is local resynchronization: no framing failure stops the stream
// or escapes Push.
type Decoder struct {
	opts       Options
	maxPayload int
	buf        []byte
	stats      Stats
}

// NewDecoder creates a decoder for one logical stream.
func NewDecoder(opts Options) *Decoder {
	maxPayload := opts.MaxPayloadSize
	if maxPayload <= 0 {
		maxPayload = protocol.DefaultMaxPayloadSize
	}
	return &Decoder{
		opts:       opts,
		maxPayload: maxPayload,
		buf:        make([]byte, 0, protocol.HeaderSize+maxPayload),
	}
}

// Push appends chunk to the resident buffer and drives the parse state
// machine until no further progress is possible, returning the frames
// completed by this chunk in stream order. Chunking is irrelevant to the
// result: any split of the same bytes yields the same frames.
func (d *Decoder) Push(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	offset := 0

	for {
		// Scan for the sync pattern, silently discarding non-protocol bytes.
		start := offset
		for offset+1 < len(d.buf) &&
			!(d.buf[offset] == protocol.SyncByte0 && d.buf[offset+1] == protocol.SyncByte1) {
			offset++
		}
		if offset+1 >= len(d.buf) {
			// A trailing lone byte can only begin a frame if it matches
			// the first sync byte.
			if offset < len(d.buf) && d.buf[offset] != protocol.SyncByte0 {
				offset++
			}
			d.stats.BytesSkipped += uint64(offset - start)
			break
		}
		d.stats.BytesSkipped += uint64(offset - start)

		// Sync found; wait for a complete header.
		if len(d.buf)-offset < protocol.HeaderSize {
			break
		}
		header, _, err := protocol.UnpackHeader(d.buf, offset)
		if err != nil {
			// Unreachable given the length check above, but never let a
			// framing problem escape.
			offset++
			d.stats.BytesSkipped++
			continue
		}

		if err := header.Validate(d.maxPayload); err != nil {
			// The sync pattern likely occurred inside unrelated data.
			// Advance one byte and rescan so a real frame starting inside
			// the rejected header is not lost.
			d.warnFraming("rejected implausible header", header, err)
			d.stats.SizeRejects++
			offset++
			d.stats.BytesSkipped++
			continue
		}

		// Header plausible; wait for the full payload.
		frameSize := header.FrameSize()
		if len(d.buf)-offset < frameSize {
			break
		}

		frameBytes := d.buf[offset : offset+frameSize]
		if err := header.ValidateCRC(frameBytes); err != nil {
			d.warnFraming("discarded corrupt frame", header, err)
			d.stats.CRCErrors++
			offset++
			d.stats.BytesSkipped++
			continue
		}

		frames = append(frames, d.emit(header, frameBytes))
		offset += frameSize
		d.stats.BytesConsumed += uint64(frameSize)
	}

	// Retain only the undecided suffix. The suffix is bounded by one
	// frame's worth of bytes plus the sync lookahead.
	d.buf = append(d.buf[:0], d.buf[offset:]...)

	return frames
}

// Stats returns a snapshot of the decoder's counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Buffered returns the number of undecided bytes currently retained.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// emit builds the Frame for a CRC-validated frame buffer.
func (d *Decoder) emit(header *protocol.Header, frameBytes []byte) Frame {
	frame := Frame{Header: header}
	payloadBytes := frameBytes[protocol.HeaderSize:]

	payload, registered := message.New(header.MessageType)
	if registered {
		if _, err := payload.Unpack(frameBytes, protocol.HeaderSize, header.MessageVersion); err != nil {
			// The frame passed its CRC, so carry the bytes through even if
			// the registered codec cannot read this layout.
			d.warn(WarnAll, "typed payload decode failed, carrying raw bytes",
				slog.Uint64("message_type", uint64(header.MessageType)),
				slog.Uint64("message_version", uint64(header.MessageVersion)),
				slog.String("error", err.Error()),
			)
			d.stats.PayloadFallback++
			payload = nil
		}
	} else {
		d.warn(WarnUnrecognized, "unrecognized message type",
			slog.Uint64("message_type", uint64(header.MessageType)),
			slog.Uint64("sequence", uint64(header.SequenceNumber)),
		)
		d.stats.UnknownTypes++
	}

	if payload == nil {
		raw := &message.Raw{Type: header.MessageType}
		raw.Bytes = append(raw.Bytes, payloadBytes...)
		payload = raw
	}
	frame.Payload = payload

	if d.opts.IncludeRaw {
		frame.Raw = append(frame.Raw, frameBytes...)
	}

	d.stats.FramesEmitted++
	return frame
}

func (d *Decoder) warnFraming(msg string, header *protocol.Header, err error) {
	d.warn(WarnAll, msg,
		slog.Uint64("message_type", uint64(header.MessageType)),
		slog.Uint64("declared_payload_size", uint64(header.PayloadSize)),
		slog.String("error", err.Error()),
	)
}

func (d *Decoder) warn(minPolicy WarnPolicy, msg string, attrs ...slog.Attr) {
	if d.opts.Logger == nil || d.opts.WarnPolicy < minPolicy {
		return
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	d.opts.Logger.Warn(msg, args...)
}
