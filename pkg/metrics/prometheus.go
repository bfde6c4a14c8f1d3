// Package metrics provides Prometheus metrics for the hackathon service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the hackathon service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Core business metrics
	operations         *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	participantsJoined prometheus.Counter
	participantsLeft   prometheus.Counter
	documentsSubmitted prometheus.Counter
	invitations        *prometheus.CounterVec
	votesCast          prometheus.Counter
	evaluationsWritten prometheus.Counter
	rankingsFinalized  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryRecords   *prometheus.GaugeVec
	repositoryTxLatency *prometheus.HistogramVec
	repositoryTxErrors  *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByKind      *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hackathon",
		subsystem:        "core",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.operations = m.counterVec("operations_total",
		"Total number of core operations by outcome", "operation", "outcome")
	m.operationLatency = m.histogramVec("operation_latency_milliseconds",
		"Histogram of core operation latency in milliseconds", "operation")
	m.participantsJoined = m.counter("participants_joined_total",
		"Total number of participants that joined a team")
	m.participantsLeft = m.counter("participants_left_total",
		"Total number of participants that left a team")
	m.documentsSubmitted = m.counter("documents_submitted_total",
		"Total number of documents submitted by teams")
	m.invitations = m.counterVec("invitations_total",
		"Total number of judge invitation transitions by resulting status", "status")
	m.votesCast = m.counter("votes_cast_total",
		"Total number of judge votes cast")
	m.evaluationsWritten = m.counter("evaluations_written_total",
		"Total number of document evaluations written")
	m.rankingsFinalized = m.counter("rankings_finalized_total",
		"Total number of hackathons that reached a final ranking")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"HTTP request duration in seconds", "endpoint", "method", "status_code")

	m.repositoryRecords = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "repository_records",
		Help:        "Number of stored records by kind",
		ConstLabels: m.customLabels,
	}, []string{"kind"})
	m.repositoryTxLatency = m.histogramVec("repository_tx_latency_milliseconds",
		"Histogram of repository transaction latency in milliseconds", "mode")
	m.repositoryTxErrors = m.counterVec("repository_tx_errors_total",
		"Total number of failed repository transactions", "mode")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")
	m.errorRateByKind = m.counterVec("errors_by_kind_total",
		"Domain errors returned to callers by kind", "kind")

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.customLabels,
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.customLabels,
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.customLabels,
	})
}

// RecordOperation counts one core operation with its outcome ("ok" or an
// error kind) and observes its latency.
func RecordOperation(operation, outcome string, latencyMs float64) {
	globalManager.operations.WithLabelValues(operation, outcome).Inc()
	globalManager.operationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordParticipantJoined increments the joined participants counter.
func RecordParticipantJoined() {
	globalManager.participantsJoined.Inc()
}

// RecordParticipantLeft increments the departed participants counter.
func RecordParticipantLeft() {
	globalManager.participantsLeft.Inc()
}

// RecordDocumentSubmitted increments the submitted documents counter.
func RecordDocumentSubmitted() {
	globalManager.documentsSubmitted.Inc()
}

// RecordInvitation counts an invitation reaching status.
func RecordInvitation(status string) {
	globalManager.invitations.WithLabelValues(status).Inc()
}

// RecordVoteCast increments the votes counter.
func RecordVoteCast() {
	globalManager.votesCast.Inc()
}

// RecordEvaluationWritten increments the evaluations counter.
func RecordEvaluationWritten() {
	globalManager.evaluationsWritten.Inc()
}

// RecordRankingFinalized increments the finalized rankings counter.
func RecordRankingFinalized() {
	globalManager.rankingsFinalized.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateRepositoryRecords sets the number of stored records of kind.
func UpdateRepositoryRecords(kind string, count int) {
	globalManager.repositoryRecords.WithLabelValues(kind).Set(float64(count))
}

// RecordRepositoryTx observes a repository transaction ("read" or "write").
func RecordRepositoryTx(mode string, latencyMs float64, failed bool) {
	globalManager.repositoryTxLatency.WithLabelValues(mode).Observe(latencyMs)
	if failed {
		globalManager.repositoryTxErrors.WithLabelValues(mode).Inc()
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByKind records a domain error returned to a caller.
func RecordErrorByKind(kind string) {
	globalManager.errorRateByKind.WithLabelValues(kind).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
