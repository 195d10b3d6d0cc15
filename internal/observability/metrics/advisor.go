package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

const namespace = "advisor"

// AdvisorMetrics describes answering and recommendation outcomes. Every
// transport (HTTP, NATS, MCP) records into the same series.
type AdvisorMetrics struct {
	service string

	answersTotal       *prometheus.CounterVec
	gateRejectedTotal  *prometheus.CounterVec
	generativeTotal    *prometheus.CounterVec
	retrievedDocs      *prometheus.HistogramVec
	askDuration        *prometheus.HistogramVec
	recommendTotal     *prometheus.CounterVec
	breakerOpen        *prometheus.GaugeVec
	retryAttemptsTotal *prometheus.CounterVec
}

func newAdvisorMetrics(service string, registry *prometheus.Registry) *AdvisorMetrics {
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "answers_total",
			Help:      "Total answers by source and intent.",
		},
		[]string{"service", "endpoint", "source", "intent"},
	)
	gateRejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "gate_rejections_total",
			Help:      "Total questions rejected by the relevance gate.",
		},
		[]string{"service", "endpoint"},
	)
	generativeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generative",
			Name:      "outcomes_total",
			Help:      "Generative fallback outcomes (ok, no_answer, unavailable, skipped).",
		},
		[]string{"service", "endpoint", "status"},
	)
	retrievedDocs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "retrieved_documents",
			Help:      "Distribution of candidate documents per answered question.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 8},
		},
		[]string{"service", "endpoint"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Question answering duration in seconds by source.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "source"},
	)
	recommendTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Total recommendation and comparison requests.",
		},
		[]string{"service", "endpoint", "kind"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_open",
			Help:      "1 when the circuit breaker for an operation is open.",
		},
		[]string{"service", "operation"},
	)
	retryAttemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retry_attempts_total",
			Help:      "Total retries of upstream calls.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		answersTotal,
		gateRejectedTotal,
		generativeTotal,
		retrievedDocs,
		askDuration,
		recommendTotal,
		breakerOpen,
		retryAttemptsTotal,
	)

	return &AdvisorMetrics{
		service:            service,
		answersTotal:       answersTotal,
		gateRejectedTotal:  gateRejectedTotal,
		generativeTotal:    generativeTotal,
		retrievedDocs:      retrievedDocs,
		askDuration:        askDuration,
		recommendTotal:     recommendTotal,
		breakerOpen:        breakerOpen,
		retryAttemptsTotal: retryAttemptsTotal,
	}
}

func (m *AdvisorMetrics) RecordAnswer(endpoint string, answer *domain.Answer, duration time.Duration) {
	if answer == nil {
		return
	}
	intent := string(answer.Intent)
	if intent == "" {
		intent = "none"
	}
	source := string(answer.Source)

	m.answersTotal.WithLabelValues(m.service, endpoint, source, intent).Inc()
	m.retrievedDocs.WithLabelValues(m.service, endpoint).Observe(float64(len(answer.Documents)))
	m.askDuration.WithLabelValues(m.service, endpoint, source).Observe(duration.Seconds())

	switch {
	case answer.Source == domain.SourceGate:
		m.gateRejectedTotal.WithLabelValues(m.service, endpoint).Inc()
	case answer.Source == domain.SourceGenerative:
		m.generativeTotal.WithLabelValues(m.service, endpoint, string(domain.GenerationOK)).Inc()
	case answer.FallbackReason != "":
		m.generativeTotal.WithLabelValues(m.service, endpoint, answer.FallbackReason).Inc()
	case answer.Source == domain.SourceDeterministic:
		m.generativeTotal.WithLabelValues(m.service, endpoint, "skipped").Inc()
	}
}

// RecordRecommend counts recommend, compare and plan requests by kind.
func (m *AdvisorMetrics) RecordRecommend(endpoint, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.recommendTotal.WithLabelValues(m.service, endpoint, kind).Inc()
}

// BreakerStateChanged and RetryAttempted make AdvisorMetrics a
// resilience.StateObserver.
func (m *AdvisorMetrics) BreakerStateChanged(operation string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(value)
}

func (m *AdvisorMetrics) RetryAttempted(operation string) {
	m.retryAttemptsTotal.WithLabelValues(m.service, operation).Inc()
}
