// Package metrics provides Prometheus metrics for the SignConnect service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submit outcomes.
const (
	OutcomeRecognized   = "recognized"
	OutcomeUnrecognized = "unrecognized"
	OutcomeEmpty        = "empty"
)

// Manager manages all Prometheus metrics for the SignConnect service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Playback Metrics
	submits             *prometheus.CounterVec
	framesPublished     prometheus.Counter
	activePlaybacks     prometheus.Gauge
	playbackInterrupted prometheus.Counter
	playbackCompleted   prometheus.Counter

	// Session Metrics
	activeSessions   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	sessionsEvicted  *prometheus.CounterVec
	sessionsRejected prometheus.Counter

	// Stream Metrics
	streamSubscribers    prometheus.Gauge
	streamFramesEnqueued prometheus.Counter
	streamFramesDropped  *prometheus.CounterVec
	streamFramesSent     prometheus.Counter
	streamSendErrors     prometheus.Counter

	// Token Metrics
	tokensIssued prometheus.Counter
	tokenErrors  *prometheus.CounterVec

	// External Service Metrics
	externalCalls   *prometheus.CounterVec
	externalLatency *prometheus.HistogramVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

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

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "signconnect",
		subsystem:        "",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
		})
	}
	histogramVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: constLabels,
			Buckets: m.histogramBuckets,
		}, labels)
	}

	// Playback
	m.submits = counterVec("playback_submits_total", "Submitted texts by outcome (recognized, unrecognized, empty)", "outcome")
	m.framesPublished = counter("playback_frames_published_total", "Pose changes published by playback controllers")
	m.activePlaybacks = gauge("playback_active", "Controllers currently playing a sign")
	m.playbackInterrupted = counter("playback_interrupted_total", "Playbacks cancelled by a newer submission or teardown")
	m.playbackCompleted = counter("playback_completed_total", "Playbacks that returned to the default pose")

	// Sessions
	m.activeSessions = gauge("sessions_active", "Sessions currently held in memory")
	m.sessionsCreated = counter("sessions_created_total", "Sessions created")
	m.sessionsEvicted = counterVec("sessions_evicted_total", "Sessions torn down by reason (deleted, idle, shutdown)", "reason")
	m.sessionsRejected = counter("sessions_rejected_total", "Session creations rejected because the store is full")

	// Streams
	m.streamSubscribers = gauge("stream_subscribers", "Open stream subscriptions")
	m.streamFramesEnqueued = counter("stream_frames_enqueued_total", "Frames queued for stream subscribers")
	m.streamFramesDropped = counterVec("stream_frames_dropped_total", "Frames dropped before reaching a subscriber", "reason")
	m.streamFramesSent = counter("stream_frames_sent_total", "Frames written to stream sinks")
	m.streamSendErrors = counter("stream_send_errors_total", "Stream sink write failures")

	// Tokens
	m.tokensIssued = counter("tokens_issued_total", "Video call access tokens issued")
	m.tokenErrors = counterVec("token_errors_total", "Token issuance failures by reason", "reason")

	// External services
	m.externalCalls = counterVec("external_calls_total", "Calls to external services by service and outcome", "service", "outcome")
	m.externalLatency = histogramVec("external_call_latency_milliseconds", "External service call latency in milliseconds", "service")

	// HTTP
	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	// Errors
	m.errorRateByComponent = counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = histogramVec("error_latency_milliseconds", "Latency of failed operations in milliseconds", "component", "error_type")

	// System
	m.systemMemoryUsage = gauge("system_memory_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("system_gc_pause_milliseconds"),
		Help: "Average GC pause in milliseconds", ConstLabels: constLabels, Buckets: m.histogramBuckets,
	})
}

// Playback.

// RecordSubmit counts a submission by outcome.
func RecordSubmit(outcome string) {
	if globalManager.enabled {
		globalManager.submits.WithLabelValues(outcome).Inc()
	}
}

// RecordFramePublished counts a published pose change.
func RecordFramePublished() {
	if globalManager.enabled {
		globalManager.framesPublished.Inc()
	}
}

// AddActivePlaybacks moves the active playback gauge by delta.
func AddActivePlaybacks(delta int) {
	if globalManager.enabled {
		globalManager.activePlaybacks.Add(float64(delta))
	}
}

// RecordPlaybackInterrupted counts a cancelled playback.
func RecordPlaybackInterrupted() {
	if globalManager.enabled {
		globalManager.playbackInterrupted.Inc()
	}
}

// RecordPlaybackCompleted counts a playback that reached the default pose.
func RecordPlaybackCompleted() {
	if globalManager.enabled {
		globalManager.playbackCompleted.Inc()
	}
}

// Sessions.

// UpdateActiveSessions sets the active session gauge.
func UpdateActiveSessions(count int) {
	if globalManager.enabled {
		globalManager.activeSessions.Set(float64(count))
	}
}

// RecordSessionCreated counts a created session.
func RecordSessionCreated() {
	if globalManager.enabled {
		globalManager.sessionsCreated.Inc()
	}
}

// RecordSessionEvicted counts a torn down session.
func RecordSessionEvicted(reason string) {
	if globalManager.enabled {
		globalManager.sessionsEvicted.WithLabelValues(reason).Inc()
	}
}

// RecordSessionRejected counts a creation refused for capacity.
func RecordSessionRejected() {
	if globalManager.enabled {
		globalManager.sessionsRejected.Inc()
	}
}

// Streams.

// AddStreamSubscribers moves the subscriber gauge by delta.
func AddStreamSubscribers(delta int) {
	if globalManager.enabled {
		globalManager.streamSubscribers.Add(float64(delta))
	}
}

// RecordStreamFrameEnqueued counts a frame accepted by a subscriber queue.
func RecordStreamFrameEnqueued() {
	if globalManager.enabled {
		globalManager.streamFramesEnqueued.Inc()
	}
}

// RecordStreamFrameDropped counts a frame a subscriber queue refused.
func RecordStreamFrameDropped(reason string) {
	if globalManager.enabled {
		globalManager.streamFramesDropped.WithLabelValues(reason).Inc()
	}
}

// RecordStreamFrameSent counts a frame written to a sink.
func RecordStreamFrameSent() {
	if globalManager.enabled {
		globalManager.streamFramesSent.Inc()
	}
}

// RecordStreamSendError counts a failed sink write.
func RecordStreamSendError() {
	if globalManager.enabled {
		globalManager.streamSendErrors.Inc()
	}
}

// Tokens.

// RecordTokenIssued counts an issued token.
func RecordTokenIssued() {
	if globalManager.enabled {
		globalManager.tokensIssued.Inc()
	}
}

// RecordTokenError counts a failed issuance.
func RecordTokenError(reason string) {
	if globalManager.enabled {
		globalManager.tokenErrors.WithLabelValues(reason).Inc()
	}
}

// External services.

// RecordExternalCall records one call to an external service.
func RecordExternalCall(service, outcome string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.externalCalls.WithLabelValues(service, outcome).Inc()
		globalManager.externalLatency.WithLabelValues(service).Observe(latencyMs)
	}
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// Errors.

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// System.

// UpdateSystemMemoryUsage sets allocated memory.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager.enabled {
		globalManager.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if globalManager.enabled {
		globalManager.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if globalManager.enabled {
		globalManager.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
