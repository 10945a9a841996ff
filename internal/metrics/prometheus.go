package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the prediction service

var (
	// Refresh metrics
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dugout_refresh_total",
			Help: "Total number of refresh executions",
		},
		[]string{"trigger", "status"},
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dugout_refresh_duration_seconds",
			Help:    "Duration of refresh executions in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
	)

	RefreshCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dugout_refresh_coalesced_total",
			Help: "Total number of refresh triggers rejected because one was already running",
		},
	)

	LastSuccessfulRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dugout_last_successful_refresh_timestamp",
			Help: "Timestamp of last successful refresh",
		},
	)

	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dugout_queries_total",
			Help: "Total number of win probability queries",
		},
		[]string{"result"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dugout_query_duration_seconds",
			Help:    "Duration of win probability queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Snapshot cache metrics
	SnapshotReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dugout_snapshot_reads_total",
			Help: "Total number of snapshot slot reads by observed state",
		},
		[]string{"state"},
	)

	// Redis cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dugout_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dugout_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dugout_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dugout_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dugout_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dugout_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dugout_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordRefresh records a refresh execution
func RecordRefresh(trigger, status string, duration float64) {
	RefreshTotal.WithLabelValues(trigger, status).Inc()
	RefreshDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// RecordQuery records a win probability query
func RecordQuery(result string, duration float64) {
	QueriesTotal.WithLabelValues(result).Inc()
	QueryDuration.Observe(duration)
}

// RecordSnapshotRead records the state observed by a snapshot read
func RecordSnapshotRead(state string) {
	SnapshotReadsTotal.WithLabelValues(state).Inc()
}

// RecordCacheHit records a response cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a response cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
