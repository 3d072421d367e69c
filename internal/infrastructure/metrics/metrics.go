package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Serper MCP metrics - using explicit registration
var (
	// Request counters
	RequestsTotal *prometheus.CounterVec

	// Tool call counters
	ToolCallsTotal *prometheus.CounterVec

	// Tool duration histogram
	ToolDuration *prometheus.HistogramVec

	// Payment gate decisions by mode and result
	PaymentDecisionsTotal *prometheus.CounterVec

	// Upstream retry attempts
	UpstreamRetriesTotal *prometheus.CounterVec

	// Upstream latency
	UpstreamLatency *prometheus.HistogramVec
)

// init creates and registers all metrics with the default registry
func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "Total number of MCP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	PaymentDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "payment_decisions_total",
			Help:      "Credential-selection outcomes per tool invocation",
		},
		[]string{"tool_name", "mode", "result"},
	)

	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "upstream_retries_total",
			Help:      "Upstream call retry attempts",
		},
		[]string{"endpoint"},
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serper",
			Subsystem: "mcp",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream Serper API response time in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"endpoint", "status"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(PaymentDecisionsTotal)
	prometheus.MustRegister(UpstreamRetriesTotal)
	prometheus.MustRegister(UpstreamLatency)
	log.Info().Msg("Serper MCP metrics registered with Prometheus")
}

// RecordRequest records an MCP request
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordPaymentDecision records a credential-selection outcome
func RecordPaymentDecision(toolName, mode, result string) {
	if mode == "" {
		mode = "none"
	}
	PaymentDecisionsTotal.WithLabelValues(toolName, mode, result).Inc()
}

// RecordUpstreamRetry records one retry attempt for an endpoint
func RecordUpstreamRetry(endpoint string) {
	UpstreamRetriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordUpstreamLatency records upstream response time
func RecordUpstreamLatency(endpoint, status string, durationSec float64) {
	UpstreamLatency.WithLabelValues(endpoint, status).Observe(durationSec)
}
