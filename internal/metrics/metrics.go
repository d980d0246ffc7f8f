package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Attribution metrics
	explanationsTotal  *prometheus.CounterVec
	explainDuration    prometheus.Histogram
	analyzerOutcomes   *prometheus.CounterVec
	validationsTotal   *prometheus.CounterVec
	validationDuration prometheus.Histogram
	validationAccuracy *prometheus.GaugeVec
	skippedSteps       *prometheus.CounterVec
	jobsActive         *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.explanationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_explanations_total",
			Help: "Total number of movement explanations produced",
		},
		[]string{"movement"},
	)
	r.explainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compass_explain_duration_seconds",
			Help:    "Explanation latency in seconds, including feed fetches",
			Buckets: prometheus.DefBuckets,
		},
	)
	r.analyzerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_analyzer_outcomes_total",
			Help: "Analyzer runs by factor type and outcome",
		},
		[]string{"factor", "outcome"},
	)
	r.validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_validations_total",
			Help: "Total number of validation runs",
		},
		[]string{"status"},
	)
	r.validationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compass_validation_duration_seconds",
			Help:    "Validation run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.validationAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "compass_validation_accuracy",
			Help: "Accuracy rate of the last completed validation run",
		},
		[]string{"coin"},
	)
	r.skippedSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_validation_skipped_steps_total",
			Help: "Replay steps skipped because the engine failed",
		},
		[]string{"coin"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "compass_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.explanationsTotal)
	reg.MustRegister(r.explainDuration)
	reg.MustRegister(r.analyzerOutcomes)
	reg.MustRegister(r.validationsTotal)
	reg.MustRegister(r.validationDuration)
	reg.MustRegister(r.validationAccuracy)
	reg.MustRegister(r.skippedSteps)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordExplanation records a produced explanation.
func (r *Registry) RecordExplanation(movement string, duration float64) {
	r.explanationsTotal.WithLabelValues(movement).Inc()
	r.explainDuration.Observe(duration)
}

// RecordAnalyzer records one analyzer run. Safe for concurrent use.
func (r *Registry) RecordAnalyzer(factorType, outcome string) {
	r.analyzerOutcomes.WithLabelValues(factorType, outcome).Inc()
}

// RecordValidation records a finished validation run. Accuracy and skipped
// steps are only tracked for runs that produced a report.
func (r *Registry) RecordValidation(coin, status string, duration, accuracy float64, skipped int) {
	r.validationsTotal.WithLabelValues(status).Inc()
	r.validationDuration.Observe(duration)
	if status == StatusFailed {
		return
	}
	r.validationAccuracy.WithLabelValues(coin).Set(accuracy)
	if skipped > 0 {
		r.skippedSteps.WithLabelValues(coin).Add(float64(skipped))
	}
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

// Validation run statuses.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
