package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the FusionEngine wire service
type Metrics struct {
	// Decode metrics
	FramesDecoded   prometheus.Counter
	BytesConsumed   prometheus.Counter
	BytesSkipped    prometheus.Counter
	CRCErrors       prometheus.Counter
	SizeRejects     prometheus.Counter
	UnknownTypes    prometheus.Counter
	FrameSizeBytes  prometheus.Histogram
	FramesByType    *prometheus.CounterVec

	// Encode metrics
	FramesEncoded prometheus.Counter

	// Source metrics
	ActiveSources  prometheus.Gauge
	SourcesSeen    prometheus.Counter
	SourcesExpired prometheus.Counter
	SequenceGaps   prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		FramesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_frames_decoded_total",
			Help: "Total number of frames decoded and CRC-validated",
		}),
		BytesConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_bytes_consumed_total",
			Help: "Total bytes consumed as part of valid frames",
		}),
		BytesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_bytes_skipped_total",
			Help: "Total non-protocol or corrupt bytes discarded while scanning",
		}),
		CRCErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_crc_errors_total",
			Help: "Total frames discarded due to CRC mismatch",
		}),
		SizeRejects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_size_rejects_total",
			Help: "Total headers rejected for an implausible declared payload size",
		}),
		UnknownTypes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_unknown_type_total",
			Help: "Total valid frames carrying an unregistered message type",
		}),
		FrameSizeBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fusion_frame_size_bytes",
			Help:    "Size distribution of decoded frames",
			Buckets: prometheus.ExponentialBuckets(32, 2, 10), // 32 B to ~16 KiB
		}),
		FramesByType: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fusion_frames_by_type_total",
			Help: "Decoded frames partitioned by message type",
		}, []string{"message_type"}),

		FramesEncoded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_frames_encoded_total",
			Help: "Total frames serialized by the encoder",
		}),

		ActiveSources: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fusion_active_sources",
			Help: "Current number of sources with an active session",
		}),
		SourcesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_sources_seen_total",
			Help: "Total distinct source sessions created",
		}),
		SourcesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_sources_expired_total",
			Help: "Total source sessions removed after inactivity",
		}),
		SequenceGaps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusion_sequence_gaps_total",
			Help: "Total sequence number discontinuities observed across sources",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fusion_http_requests_total",
			Help: "Total HTTP API requests",
		}, []string{"method", "endpoint", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fusion_http_request_duration_seconds",
			Help:    "HTTP API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fusion_http_errors_total",
			Help: "Total HTTP API error responses",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordHTTPRequest records a completed HTTP API request
func (m *Metrics) RecordHTTPRequest(method, endpoint, status string, duration float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordHTTPError records an HTTP API error response
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}

// RecordFrame records a decoded frame against the size histogram and
// per-type counter
func (m *Metrics) RecordFrame(messageType uint16, frameSize int) {
	m.FramesDecoded.Inc()
	m.BytesConsumed.Add(float64(frameSize))
	m.FrameSizeBytes.Observe(float64(frameSize))
	m.FramesByType.WithLabelValues(strconv.FormatUint(uint64(messageType), 10)).Inc()
}
