package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	quizRequestsTotal  *prometheus.CounterVec
	quizLatencySeconds *prometheus.HistogramVec
	quizErrorsTotal    *prometheus.CounterVec
	evaluationsTotal   *prometheus.CounterVec
	escalationsTotal   *prometheus.CounterVec
	circuitState       *prometheus.GaugeVec
)

// RegisterMetrics initialises the Prometheus collectors used by the quiz evaluation API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		quizRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_requests_total",
			Help: "Total number of quiz API requests served.",
		}, []string{"method", "route", "status"})

		quizLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quiz_latency_seconds",
			Help:    "Latency distribution for quiz API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		quizErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_errors_total",
			Help: "Total number of error responses returned by quiz endpoints.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "quiz",
			Name:      "evaluations_total",
			Help:      "Answer evaluations by deciding strategy and verdict.",
		}, []string{"strategy", "correct"})

		escalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "quiz",
			Name:      "escalations_total",
			Help:      "Negative deterministic results by escalation outcome.",
		}, []string{"outcome"})

		circuitState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gema",
			Subsystem: "quiz",
			Name:      "circuit_state",
			Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open).",
		}, []string{"breaker"})

		prometheus.MustRegister(quizRequestsTotal, quizLatencySeconds, quizErrorsTotal, evaluationsTotal, escalationsTotal, circuitState)
	})
}

// QuizRequests exposes the counter for quiz requests.
func QuizRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return quizRequestsTotal
}

// QuizLatency exposes the latency histogram for quiz requests.
func QuizLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return quizLatencySeconds
}

// QuizErrors exposes the counter for quiz error responses.
func QuizErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return quizErrorsTotal
}

// Evaluations exposes the evaluation counter.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}

// Escalations exposes the escalation outcome counter.
func Escalations() *prometheus.CounterVec {
	RegisterMetrics()
	return escalationsTotal
}

// CircuitState exposes the circuit breaker gauge.
func CircuitState() *prometheus.GaugeVec {
	RegisterMetrics()
	return circuitState
}
