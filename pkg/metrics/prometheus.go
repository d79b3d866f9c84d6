// Package metrics provides Prometheus metrics for the profrate service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache names used as label values.
const (
	CacheIdentity = "identity"
	CacheScore    = "score"
	CacheToken    = "token"
)

// Upstream outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Manager manages all Prometheus metrics for the profrate service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Cache Metrics - What the controller exists for
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	recordsTotal    prometheus.Gauge
	identitiesTotal prometheus.Gauge

	// Scoring Metrics
	scoresComputed    prometheus.Counter
	scoresUnpublished *prometheus.CounterVec

	// Upstream Metrics - Review site search, ratings and token calls
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRateLimited     *prometheus.CounterVec

	// Prefetch Metrics - Queue and worker pipeline
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	prefetchEnqueued        prometheus.Counter
	prefetchDropped         prometheus.Counter
	prefetchProcessed       prometheus.Counter
	prefetchFailed          prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
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
		namespace:        "profrate",
		subsystem:        "rmp",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.NewRegistry(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.cacheHits = auto.NewCounterVec(m.counterOpts("cache_hits_total", "Cache hits by cache"), []string{"cache"})
	m.cacheMisses = auto.NewCounterVec(m.counterOpts("cache_misses_total", "Cache misses by cache"), []string{"cache"})
	m.recordsTotal = auto.NewGauge(m.gaugeOpts("records_total", "Professor records held in memory"))
	m.identitiesTotal = auto.NewGauge(m.gaugeOpts("identities_total", "Distinct names held in the identity index"))

	m.scoresComputed = auto.NewCounter(m.counterOpts("scores_computed_total", "Professor scores computed from fetched ratings"))
	m.scoresUnpublished = auto.NewCounterVec(
		m.counterOpts("scores_unpublished_total", "Windowed scores withheld for insufficient weight"),
		[]string{"window"},
	)

	m.upstreamCalls = auto.NewCounterVec(
		m.counterOpts("upstream_calls_total", "Upstream calls by operation and outcome"),
		[]string{"operation", "outcome"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_latency_milliseconds", "Upstream call latency in milliseconds"),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRateLimited = auto.NewCounterVec(
		m.counterOpts("http_rate_limited_total", "Requests rejected by the inbound limiter"),
		[]string{"endpoint"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("prefetch_queue_size", "Names waiting in the prefetch queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("prefetch_queue_capacity", "Capacity of the prefetch queue"))
	m.prefetchEnqueued = auto.NewCounter(m.counterOpts("prefetch_enqueued_total", "Names accepted by the prefetch queue"))
	m.prefetchDropped = auto.NewCounter(m.counterOpts("prefetch_dropped_total", "Names rejected by a full or closed prefetch queue"))
	m.prefetchProcessed = auto.NewCounter(m.counterOpts("prefetch_processed_total", "Names warmed successfully"))
	m.prefetchFailed = auto.NewCounter(m.counterOpts("prefetch_failed_total", "Names that could not be warmed"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("prefetch_worker_count", "Running prefetch workers"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("prefetch_processing_latency_milliseconds", "Time to warm a single name in milliseconds"),
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that ended in an error"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap memory in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// RecordCacheHit increments the hit counter for cache.
func RecordCacheHit(cache string) {
	globalManager.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for cache.
func RecordCacheMiss(cache string) {
	globalManager.cacheMisses.WithLabelValues(cache).Inc()
}

// UpdateRecordCount sets the number of professor records.
func UpdateRecordCount(count int) {
	globalManager.recordsTotal.Set(float64(count))
}

// UpdateIdentityCount sets the number of indexed names.
func UpdateIdentityCount(count int) {
	globalManager.identitiesTotal.Set(float64(count))
}

// RecordScoreComputed increments the computed scores counter.
func RecordScoreComputed() {
	globalManager.scoresComputed.Inc()
}

// RecordScoreUnpublished counts a window whose weight fell below its threshold.
func RecordScoreUnpublished(window string) {
	globalManager.scoresUnpublished.WithLabelValues(window).Inc()
}

// RecordUpstreamCall records the outcome and latency of one upstream call.
func RecordUpstreamCall(operation, outcome string, latencyMs float64) {
	globalManager.upstreamCalls.WithLabelValues(operation, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the inbound limiter.
func RecordRateLimited(endpoint string) {
	globalManager.httpRateLimited.WithLabelValues(endpoint).Inc()
}

// Prefetch Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordPrefetchEnqueued increments the enqueued counter.
func RecordPrefetchEnqueued() {
	globalManager.prefetchEnqueued.Inc()
}

// RecordPrefetchDropped increments the dropped counter.
func RecordPrefetchDropped() {
	globalManager.prefetchDropped.Inc()
}

// RecordPrefetchProcessed increments the processed counter.
func RecordPrefetchProcessed() {
	globalManager.prefetchProcessed.Inc()
}

// RecordPrefetchFailed increments the failed counter.
func RecordPrefetchFailed() {
	globalManager.prefetchFailed.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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
