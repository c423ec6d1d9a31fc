// Package metrics provides Prometheus metrics for the campaign author-time board.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Viewer HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Upstream web API
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	tokenRefreshes   prometheus.Counter

	// Fetch runs
	fetchRuns        *prometheus.CounterVec
	fetchRunDuration prometheus.Histogram
	tracksFetched    prometheus.Counter
	exportedRows     prometheus.Gauge

	// Table and filter
	tableRows     prometheus.Gauge
	tableColumns  *prometheus.GaugeVec
	filterLatency prometheus.Histogram
	filteredRows  prometheus.Gauge

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// MillisecondBuckets are the default latency buckets; every latency is recorded in ms.
var MillisecondBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000} //nolint:gochecknoglobals // shared defaults

// Init replaces the global manager with one built from opts on a fresh custom
// registry. Call it once at startup, before GetRegistry is handed to a handler
// and before RegisterRuntimeCollectors.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	runtimeOnce = sync.Once{}
	globalManager = NewManager(append(opts, WithPrometheusRegistry(customRegistry))...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "atdiff",
		subsystem:        "board",
		histogramBuckets: MillisecondBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of viewer HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "Viewer HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "upstream_requests_total",
		Help:        "Requests sent to the game web API by endpoint and status",
		ConstLabels: labels,
	}, []string{"endpoint", "status_code"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "upstream_latency_milliseconds",
		Help:        "Game web API round trip latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	}, []string{"endpoint"})

	m.tokenRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "token_refreshes_total",
		Help:        "Access token refreshes performed before a fetch call",
		ConstLabels: labels,
	})

	m.fetchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_runs_total",
		Help:        "Completed fetch runs by result",
		ConstLabels: labels,
	}, []string{"result"})

	m.fetchRunDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_run_duration_milliseconds",
		Help:        "Wall time of a fetch run in milliseconds",
		Buckets:     []float64{100, 500, 1000, 5000, 15000, 30000, 60000, 120000, 300000},
		ConstLabels: labels,
	})

	m.tracksFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "tracks_fetched_total",
		Help:        "Tracks whose metadata and leaderboard times were fetched",
		ConstLabels: labels,
	})

	m.exportedRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "exported_rows",
		Help:        "Rows written by the last export",
		ConstLabels: labels,
	})

	m.tableRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_rows",
		Help:        "Rows in the table loaded by the viewer",
		ConstLabels: labels,
	})

	m.tableColumns = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "table_columns",
		Help:        "Loaded table columns by inferred kind",
		ConstLabels: labels,
	}, []string{"kind"})

	m.filterLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "filter_latency_milliseconds",
		Help:        "Time spent filtering the table for one request",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		ConstLabels: labels,
	})

	m.filteredRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "filtered_rows",
		Help:        "Rows returned by the most recent filter",
		ConstLabels: labels,
	})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and type",
		ConstLabels: labels,
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Viewer HTTP errors by endpoint, method and type",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type"})
}

// RecordHTTPRequest records a viewer HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordUpstreamRequest records one call to the game web API.
func (m *Manager) RecordUpstreamRequest(endpoint, statusCode string, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, statusCode).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordTokenRefresh counts an access token refresh.
func (m *Manager) RecordTokenRefresh() {
	if !m.enabled {
		return
	}
	m.tokenRefreshes.Inc()
}

// RecordFetchRun records the outcome and duration of a fetch run.
func (m *Manager) RecordFetchRun(result string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.fetchRuns.WithLabelValues(result).Inc()
	m.fetchRunDuration.Observe(durationMs)
}

// RecordTrackFetched counts one fully fetched track.
func (m *Manager) RecordTrackFetched() {
	if !m.enabled {
		return
	}
	m.tracksFetched.Inc()
}

// UpdateExportedRows sets the row count of the last export.
func (m *Manager) UpdateExportedRows(count int) {
	if !m.enabled {
		return
	}
	m.exportedRows.Set(float64(count))
}

// UpdateTableShape sets the loaded table row count and the per-kind column counts.
func (m *Manager) UpdateTableShape(rows int, columnsByKind map[string]int) {
	if !m.enabled {
		return
	}
	m.tableRows.Set(float64(rows))
	for kind, n := range columnsByKind {
		m.tableColumns.WithLabelValues(kind).Set(float64(n))
	}
}

// RecordFilter records the latency and result size of a filter call.
func (m *Manager) RecordFilter(latencyMs float64, rows int) {
	if !m.enabled {
		return
	}
	m.filterLatency.Observe(latencyMs)
	m.filteredRows.Set(float64(rows))
}

// RecordErrorByComponent counts an error raised by a component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if !m.enabled {
		return
	}
	m.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint counts a viewer HTTP error.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !m.enabled {
		return
	}
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// Package-level helpers delegate to the global manager.

// RecordHTTPRequest records a viewer HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordUpstreamRequest records one call to the game web API.
func RecordUpstreamRequest(endpoint, statusCode string, latencyMs float64) {
	globalManager.RecordUpstreamRequest(endpoint, statusCode, latencyMs)
}

// RecordTokenRefresh counts an access token refresh.
func RecordTokenRefresh() { globalManager.RecordTokenRefresh() }

// RecordFetchRun records the outcome and duration of a fetch run.
func RecordFetchRun(result string, durationMs float64) {
	globalManager.RecordFetchRun(result, durationMs)
}

// RecordTrackFetched counts one fully fetched track.
func RecordTrackFetched() { globalManager.RecordTrackFetched() }

// UpdateExportedRows sets the row count of the last export.
func UpdateExportedRows(count int) { globalManager.UpdateExportedRows(count) }

// UpdateTableShape sets the loaded table shape.
func UpdateTableShape(rows int, columnsByKind map[string]int) {
	globalManager.UpdateTableShape(rows, columnsByKind)
}

// RecordFilter records the latency and result size of a filter call.
func RecordFilter(latencyMs float64, rows int) { globalManager.RecordFilter(latencyMs, rows) }

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.RecordErrorByComponent(component, errorType)
}

// RecordErrorByEndpoint counts a viewer HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.RecordErrorByEndpoint(endpoint, method, errorType)
}

var runtimeOnce sync.Once //nolint:gochecknoglobals // guards runtime collector registration

// RegisterRuntimeCollectors adds Go runtime and process metrics to the custom registry.
// Later calls are no-ops.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
