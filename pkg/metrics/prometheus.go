// Package metrics provides Prometheus metrics for the Kairosync service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Defaults for NewManager.
const (
	DefaultNamespace = "kairosync"
	DefaultSubsystem = "sync"
)

// Manager manages all Prometheus metrics for the Kairosync service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Event lifecycle
	eventsSaved         prometheus.Counter
	eventsDeleted       prometheus.Counter
	draftsCreated       *prometheus.CounterVec
	draftsDuplicateSave prometheus.Counter
	storedEvents        prometheus.Gauge

	// Timeline
	goldenLookups *prometheus.CounterVec
	liveTicks     prometheus.Counter
	gestureEnds   *prometheus.CounterVec
	selectedUTC   prometheus.Gauge

	// Store latency
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// MCP
	mcpToolCalls *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

var initMu sync.Mutex

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegisterer(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before any handler serves.
func Init(opts ...Option) {
	initMu.Lock()
	defer initMu.Unlock()
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithRegisterer(reg))...)
	customRegistry = reg
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      DefaultNamespace,
		subsystem:      DefaultSubsystem,
		latencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		enabled:        true,
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}

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
		Buckets:     m.latencyBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.eventsSaved = auto.NewCounter(m.counterOpts("events_saved_total", "Total number of calendar events saved or replaced"))
	m.eventsDeleted = auto.NewCounter(m.counterOpts("events_deleted_total", "Total number of calendar events deleted"))
	m.draftsCreated = auto.NewCounterVec(m.counterOpts("drafts_created_total", "Total number of drafts opened by event type"), []string{"type"})
	m.draftsDuplicateSave = auto.NewCounter(m.counterOpts("drafts_duplicate_save_total", "Total number of repeated saves of an already saved draft"))
	m.storedEvents = auto.NewGauge(m.gaugeOpts("stored_events", "Current number of saved calendar events"))

	m.goldenLookups = auto.NewCounterVec(m.counterOpts("golden_lookups_total", "Golden window checks by kind and result"), []string{"kind", "result"})
	m.liveTicks = auto.NewCounter(m.counterOpts("live_ticks_total", "Total number of live clock ticks"))
	m.gestureEnds = auto.NewCounterVec(m.counterOpts("gesture_ends_total", "Completed pointer gestures by mapper"), []string{"mapper"})
	m.selectedUTC = auto.NewGauge(m.gaugeOpts("selected_utc_minutes", "Currently selected UTC minute of the shared timeline"))

	m.storeUpdateLatency = auto.NewHistogram(m.histogramOpts("store_update_latency_milliseconds", "Event store write latency in milliseconds"))
	m.storeQueryLatency = auto.NewHistogram(m.histogramOpts("store_query_latency_milliseconds", "Event store read latency in milliseconds"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"})

	m.mcpToolCalls = auto.NewCounterVec(m.counterOpts("mcp_tool_calls_total", "MCP tool invocations by tool and outcome"), []string{"tool", "status"})

	m.errorRateByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total", "Errors by component and type"), []string{"component", "error_type"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "Errors by HTTP endpoint"), []string{"endpoint", "method", "error_type"})
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled }

func active() bool { return globalManager != nil && globalManager.enabled }

// RecordEventSaved increments the saved events counter.
func RecordEventSaved() {
	if active() {
		globalManager.eventsSaved.Inc()
	}
}

// RecordEventDeleted increments the deleted events counter.
func RecordEventDeleted() {
	if active() {
		globalManager.eventsDeleted.Inc()
	}
}

// RecordDraftCreated counts a new draft of the given event type.
func RecordDraftCreated(eventType string) {
	if active() {
		globalManager.draftsCreated.WithLabelValues(eventType).Inc()
	}
}

// RecordDraftDuplicateSave counts a save of a draft that was already saved.
func RecordDraftDuplicateSave() {
	if active() {
		globalManager.draftsDuplicateSave.Inc()
	}
}

// UpdateStoredEvents sets the stored events gauge.
func UpdateStoredEvents(count int) {
	if active() {
		globalManager.storedEvents.Set(float64(count))
	}
}

// RecordGoldenLookup counts a golden window check. kind is "at" or "next".
func RecordGoldenLookup(kind string, hit bool) {
	if !active() {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	globalManager.goldenLookups.WithLabelValues(kind, result).Inc()
}

// RecordLiveTick counts one live clock tick.
func RecordLiveTick() {
	if active() {
		globalManager.liveTicks.Inc()
	}
}

// RecordGestureEnd counts a finished gesture. mapper is "helix" or "dial".
func RecordGestureEnd(mapper string) {
	if active() {
		globalManager.gestureEnds.WithLabelValues(mapper).Inc()
	}
}

// UpdateSelectedUTC sets the selected timeline minute gauge.
func UpdateSelectedUTC(minutes float64) {
	if active() {
		globalManager.selectedUTC.Set(minutes)
	}
}

// RecordStoreUpdateLatency records event store write latency in milliseconds.
func RecordStoreUpdateLatency(latencyMs float64) {
	if active() {
		globalManager.storeUpdateLatency.Observe(latencyMs)
	}
}

// RecordStoreQueryLatency records event store read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	if active() {
		globalManager.storeQueryLatency.Observe(latencyMs)
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if active() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if active() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordMCPToolCall counts an MCP tool call. status is "ok" or "error".
func RecordMCPToolCall(tool, status string) {
	if active() {
		globalManager.mcpToolCalls.WithLabelValues(tool, status).Inc()
	}
}

// RecordErrorByComponent records errors by component and type.
func RecordErrorByComponent(component, errorType string) {
	if active() {
		globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if active() {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// GetRegistry returns the registry the global manager records into.
func GetRegistry() *prometheus.Registry {
	initMu.Lock()
	defer initMu.Unlock()
	return customRegistry
}
