// Package metrics provides Prometheus metrics for the pitwall reconciliation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Normalization
	recordsNormalized  *prometheus.CounterVec
	recordsSkipped     prometheus.Counter
	unresolvedDrivers  prometheus.Counter
	malformedPositions prometheus.Counter
	normalizeLatency   prometheus.Histogram

	// Identity resolution
	identityResolutions *prometheus.CounterVec

	// Portrait cascade
	portraitCandidates   prometheus.Counter
	portraitFailures     prometheus.Counter
	portraitPlaceholders prometheus.Counter
	portraitIdentities   prometheus.Gauge
	portraitMemoized     prometheus.Gauge

	// Upstream feeds
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec

	// Refresh pipeline
	refreshEnqueued  prometheus.Counter
	refreshRejected  prometheus.Counter
	refreshProcessed *prometheus.CounterVec
	queueSize        prometheus.Gauge
	workerCount      prometheus.Gauge
	storedFeeds      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitwall",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
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
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.recordsNormalized = m.counterVec("records_normalized_total",
		"Upstream records turned into canonical entries, by upstream shape", "shape")
	m.recordsSkipped = m.counter("records_skipped_total",
		"Upstream records matching neither known shape")
	m.unresolvedDrivers = m.counter("unresolved_drivers_total",
		"Canonical entries emitted without a roster identity")
	m.malformedPositions = m.counter("malformed_positions_total",
		"Records whose position could not be parsed and fell back to the sentinel")
	m.normalizeLatency = m.histogram("normalize_latency_milliseconds",
		"Time spent normalizing one upstream list", m.histogramBuckets)

	m.identityResolutions = m.counterVec("identity_resolutions_total",
		"Identity resolutions by matching strategy", "strategy")

	m.portraitCandidates = m.counter("portrait_candidates_total",
		"Portrait URLs handed out to renderers")
	m.portraitFailures = m.counter("portrait_failures_total",
		"Portrait load failures reported by renderers")
	m.portraitPlaceholders = m.counter("portrait_placeholders_total",
		"Identities whose cascade ended on the placeholder")
	m.portraitIdentities = m.gauge("portrait_identities",
		"Identities with portrait resolution state")
	m.portraitMemoized = m.gauge("portrait_memoized_failures",
		"Distinct portrait URLs memoized as failing")

	m.upstreamLatency = m.histogramVec("upstream_fetch_latency_milliseconds",
		"Upstream feed fetch latency", "feed")
	m.upstreamErrors = m.counterVec("upstream_fetch_errors_total",
		"Upstream feed fetch failures by reason", "feed", "reason")

	m.refreshEnqueued = m.counter("refresh_jobs_enqueued_total", "Refresh jobs accepted into the queue")
	m.refreshRejected = m.counter("refresh_jobs_rejected_total", "Refresh jobs rejected by backpressure")
	m.refreshProcessed = m.counterVec("refresh_jobs_processed_total",
		"Refresh jobs processed by outcome", "outcome")
	m.queueSize = m.gauge("queue_size", "Current refresh queue length")
	m.workerCount = m.gauge("worker_count", "Refresh workers running")
	m.storedFeeds = m.gauge("stored_feeds", "Feed keys with a canonical list in the store")

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.httpErrors = m.counterVec("http_errors_total",
		"HTTP error responses by endpoint and error type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordNormalized counts canonical entries produced from the given shape.
func RecordNormalized(shape string, n int) {
	if n <= 0 {
		return
	}
	globalManager.recordsNormalized.WithLabelValues(shape).Add(float64(n))
}

// RecordSkipped counts unrecognized upstream records.
func RecordSkipped(n int) {
	if n > 0 {
		globalManager.recordsSkipped.Add(float64(n))
	}
}

// RecordUnresolved counts entries that carry no roster identity.
func RecordUnresolved(n int) {
	if n > 0 {
		globalManager.unresolvedDrivers.Add(float64(n))
	}
}

// RecordMalformedPositions counts entries whose position fell back to the sentinel.
func RecordMalformedPositions(n int) {
	if n > 0 {
		globalManager.malformedPositions.Add(float64(n))
	}
}

// RecordNormalizeLatency observes one normalization pass.
func RecordNormalizeLatency(latencyMs float64) {
	globalManager.normalizeLatency.Observe(latencyMs)
}

// RecordIdentityResolution counts a resolution by the strategy that matched.
func RecordIdentityResolution(strategy string) {
	globalManager.identityResolutions.WithLabelValues(strategy).Inc()
}

// RecordPortraitCandidate counts a portrait URL handed to a renderer.
func RecordPortraitCandidate() {
	globalManager.portraitCandidates.Inc()
}

// RecordPortraitFailure counts a reported portrait load failure.
func RecordPortraitFailure() {
	globalManager.portraitFailures.Inc()
}

// RecordPortraitPlaceholder counts an identity reaching the placeholder.
func RecordPortraitPlaceholder() {
	globalManager.portraitPlaceholders.Inc()
}

// UpdatePortraitState sets the portrait cache gauges.
func UpdatePortraitState(identities, memoized int) {
	globalManager.portraitIdentities.Set(float64(identities))
	globalManager.portraitMemoized.Set(float64(memoized))
}

// RecordUpstreamLatency observes an upstream fetch.
func RecordUpstreamLatency(feed string, latencyMs float64) {
	globalManager.upstreamLatency.WithLabelValues(feed).Observe(latencyMs)
}

// RecordUpstreamError counts an upstream fetch failure.
func RecordUpstreamError(feed, reason string) {
	globalManager.upstreamErrors.WithLabelValues(feed, reason).Inc()
}

// RecordRefreshEnqueued counts an accepted refresh job.
func RecordRefreshEnqueued() {
	globalManager.refreshEnqueued.Inc()
}

// RecordRefreshRejected counts a refresh job rejected by backpressure.
func RecordRefreshRejected() {
	globalManager.refreshRejected.Inc()
}

// RecordRefreshProcessed counts a finished refresh job ("ok" or "failed").
func RecordRefreshProcessed(outcome string) {
	globalManager.refreshProcessed.WithLabelValues(outcome).Inc()
}

// UpdateQueueSize sets the refresh queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the number of running refresh workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateStoredFeeds sets the number of feed keys held in the store.
func UpdateStoredFeeds(count int) {
	globalManager.storedFeeds.Set(float64(count))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an HTTP error response.
func RecordHTTPError(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets heap usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
