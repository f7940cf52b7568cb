// Package observability provides Prometheus metrics and HTTP client
// instrumentation for calls to the Gemini API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/gemini-go/pkg/api"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Request modes used as the "mode" label.
const (
	ModeGenerate = "generate"
	ModeStream   = "stream"
)

var (
	// HTTPRequestsTotal counts outbound HTTP requests by status code and method.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_http_requests_total",
			Help: "Outbound HTTP requests",
		},
		[]string{"code", "method"},
	)

	// HTTPRequestDuration records outbound HTTP round-trip time in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_http_request_duration_seconds",
			Help:    "Outbound HTTP request duration",
			Buckets: LLMBuckets,
		},
		[]string{"code", "method"},
	)

	// HTTPInFlight tracks outbound requests awaiting response headers.
	HTTPInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_http_in_flight_requests",
			Help: "In-flight outbound HTTP requests",
		},
	)

	// RequestsTotal counts generateContent calls by model, mode, and outcome.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_requests_total",
			Help: "generateContent requests",
		},
		[]string{"model", "mode", "status"},
	)

	// RequestLatency records end-to-end generateContent latency in seconds,
	// including encode and decode.
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gemini_request_latency_seconds",
			Help:    "generateContent latency",
			Buckets: LLMBuckets,
		},
		[]string{"model", "mode"},
	)

	// TokensTotal counts tokens reported in usageMetadata by kind.
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "kind"},
	)

	// StreamChunksTotal counts decoded streaming chunks.
	StreamChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_stream_chunks_total",
			Help: "Streamed response chunks",
		},
		[]string{"model"},
	)

	// StreamsActive tracks open streaming responses.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gemini_streams_active",
			Help: "Active streaming responses",
		},
	)

	// DecodeErrorsTotal counts envelopes rejected while decoding typed text.
	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_decode_errors_total",
			Help: "Response decode failures",
		},
		[]string{"model"},
	)

	// HistoryOperationsTotal counts conversation history store calls.
	HistoryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gemini_history_operations_total",
			Help: "History store operations",
		},
		[]string{"backend", "op", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPInFlight,
		RequestsTotal,
		RequestLatency,
		TokensTotal,
		StreamChunksTotal,
		StreamsActive,
		DecodeErrorsTotal,
		HistoryOperationsTotal,
	)
}

// StatusLabel maps an error to the "status" label: "ok" for nil, the
// APIError type when one is in the chain, "error" otherwise.
func StatusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		return string(apiErr.Type)
	}
	return "error"
}

// ObserveRequest records the outcome and latency of one generateContent call.
func ObserveRequest(model, mode string, start time.Time, err error) {
	RequestsTotal.WithLabelValues(model, mode, StatusLabel(err)).Inc()
	RequestLatency.WithLabelValues(model, mode).Observe(time.Since(start).Seconds())
	if apiErr, ok := api.AsAPIError(err); ok && apiErr.Type == api.ErrorTypeDeserialization {
		DecodeErrorsTotal.WithLabelValues(model).Inc()
	}
}

// RecordUsage adds the token counts of u to TokensTotal. A nil u is ignored.
func RecordUsage(model string, u *api.UsageMetadata) {
	if u == nil {
		return
	}
	add := func(kind string, v *int32) {
		if v != nil && *v > 0 {
			TokensTotal.WithLabelValues(model, kind).Add(float64(*v))
		}
	}
	add("prompt", u.PromptTokenCount)
	add("candidates", u.CandidatesTokenCount)
	add("cached", u.CachedContentTokenCount)
	add("thoughts", u.ThoughtsTokenCount)
}

// ObserveHistory records one history store operation.
func ObserveHistory(backend, op string, err error) {
	HistoryOperationsTotal.WithLabelValues(backend, op, StatusLabel(err)).Inc()
}
