package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the chatbot backend.
type Metrics struct {
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	TokensTotal       *prometheus.CounterVec
	ContextTokens     *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbot_request_total",
			Help: "Total number of chat messages processed.",
		}, []string{"client", "provider", "status"}),

		RequestDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatbot_request_duration_ms",
			Help:    "Provider call duration in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		TokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbot_tokens_total",
			Help: "Total tokens reported by providers.",
		}, []string{"client", "provider", "direction"}),

		ContextTokens: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatbot_context_tokens",
			Help:    "Estimated token size of assembled context prompts.",
			Buckets: []float64{250, 500, 1000, 2000, 3000, 4000, 6000, 8000, 12000},
		}, []string{"client"}),

		RateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbot_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter or token budget.",
		}, []string{"client", "reason"}),
	}
}

// RecordRequest records metrics for a completed chat message. A nil
// receiver is a no-op.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	if m == nil {
		return
	}
	m.RequestTotal.WithLabelValues(labels.Client, labels.Provider, labels.Status).Inc()

	if labels.DurationMs > 0 {
		m.RequestDurationMs.WithLabelValues(labels.Provider).Observe(labels.DurationMs)
	}

	if labels.InputTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Client, labels.Provider, "input").Add(float64(labels.InputTokens))
	}
	if labels.OutputTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Client, labels.Provider, "output").Add(float64(labels.OutputTokens))
	}
}

func (m *Metrics) RecordContextTokens(client string, estimate int) {
	if m == nil {
		return
	}
	m.ContextTokens.WithLabelValues(client).Observe(float64(estimate))
}

func (m *Metrics) RecordRateLimitHit(client, reason string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(client, reason).Inc()
}

// RequestLabels holds the label values for recording a request.
type RequestLabels struct {
	Client       string
	Provider     string
	Status       string
	DurationMs   float64
	InputTokens  int
	OutputTokens int
}
