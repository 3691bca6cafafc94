package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the relay.
// A nil *Metrics is valid and records nothing, so components can be
// exercised in tests without touching the default registry.
type Metrics struct {
	Turns               *prometheus.CounterVec
	ProviderAttempts    *prometheus.CounterVec
	CompletionLatency   prometheus.Histogram
	FallbackExhausted   prometheus.Counter
	SendFailures        prometheus.Counter
	ReplyContextHits    prometheus.Counter
	ActiveConversations prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Inbound events by processing outcome.",
		}, []string{"outcome"}),
		ProviderAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Completion attempts by model and result.",
		}, []string{"model", "result"}),
		CompletionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Wall time of the whole model fallback loop.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		FallbackExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_exhausted_total",
			Help:      "Turns where every model in the hierarchy failed.",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Outbound message chunks that failed to send.",
		}),
		ReplyContextHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_context_hits_total",
			Help:      "Inbound replies whose target message was still cached.",
		}),
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Distinct user conversation records held in memory.",
		}),
	}
}

func (m *Metrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveProviderAttempt(model, result string) {
	if m == nil {
		return
	}
	m.ProviderAttempts.WithLabelValues(model, result).Inc()
}

func (m *Metrics) ObserveCompletionLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.CompletionLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveFallbackExhausted() {
	if m == nil {
		return
	}
	m.FallbackExhausted.Inc()
}

func (m *Metrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.SendFailures.Inc()
}

func (m *Metrics) ObserveReplyContextHit() {
	if m == nil {
		return
	}
	m.ReplyContextHits.Inc()
}

func (m *Metrics) SetActiveConversations(n int) {
	if m == nil {
		return
	}
	m.ActiveConversations.Set(float64(n))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
