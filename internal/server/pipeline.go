package server

import (
	"log/slog"
	"sync"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/framer"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/metrics"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/stream"
)

// decodeSession wraps a streaming decoder with the bookkeeping needed to
// report per-push statistics deltas. TCP uses one per connection, UDP one
// per remote peer.
type decodeSession struct {
	mu   sync.Mutex
	dec  *framer.Decoder
	last framer.Stats
}

func newDecodeSession(opts framer.Options) *decodeSession {
	return &decodeSession{dec: framer.NewDecoder(opts)}
}

// ingest pushes a chunk of bytes through the decoder and returns the frames
// it completed plus the statistics delta for this push.
func (s *decodeSession) ingest(data []byte) ([]framer.Frame, framer.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := s.dec.Push(data)

	current := s.dec.Stats()
	delta := framer.Stats{
		FramesEmitted:   current.FramesEmitted - s.last.FramesEmitted,
		BytesConsumed:   current.BytesConsumed - s.last.BytesConsumed,
		BytesSkipped:    current.BytesSkipped - s.last.BytesSkipped,
		CRCErrors:       current.CRCErrors - s.last.CRCErrors,
		SizeRejects:     current.SizeRejects - s.last.SizeRejects,
		UnknownTypes:    current.UnknownTypes - s.last.UnknownTypes,
		PayloadFallback: current.PayloadFallback - s.last.PayloadFallback,
	}
	s.last = current

	return frames, delta
}

// FrameSink routes decoded frames into the source session tracker and the
// Prometheus metrics. Both listeners share one sink; it is safe for
// concurrent use.
type FrameSink struct {
	logger    *slog.Logger
	streamMgr *stream.Manager
	metrics   *metrics.Metrics
}

func NewFrameSink(logger *slog.Logger, streamMgr *stream.Manager, m *metrics.Metrics) *FrameSink {
	return &FrameSink{
		logger:    logger,
		streamMgr: streamMgr,
		metrics:   m,
	}
}

// consume records a batch of decoded frames and the decoder statistics
// delta that produced them.
func (fs *FrameSink) consume(frames []framer.Frame, delta framer.Stats) {
	if fs.metrics != nil {
		fs.metrics.BytesSkipped.Add(float64(delta.BytesSkipped))
		fs.metrics.CRCErrors.Add(float64(delta.CRCErrors))
		fs.metrics.SizeRejects.Add(float64(delta.SizeRejects))
		fs.metrics.UnknownTypes.Add(float64(delta.UnknownTypes))
	}

	for i := range frames {
		frame := &frames[i]
		header := frame.Header

		created, gap := fs.streamMgr.Record(header)

		if fs.metrics != nil {
			fs.metrics.RecordFrame(header.MessageType, header.FrameSize())
			if created {
				fs.metrics.SourcesSeen.Inc()
				fs.metrics.ActiveSources.Inc()
			}
			if gap {
				fs.metrics.SequenceGaps.Inc()
			}
		}

		fs.logger.Debug("Frame decoded",
			slog.Uint64("source_id", uint64(header.SourceID)),
			slog.Uint64("message_type", uint64(header.MessageType)),
			slog.Uint64("sequence", uint64(header.SequenceNumber)),
			slog.Int("payload_size", int(header.PayloadSize)),
		)
	}
}
