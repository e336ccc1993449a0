package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Analysis metrics
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainsight_analysis_duration_seconds",
			Help:    "Full analysis pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"ticker"},
	)

	AnalysisRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"ticker", "status"}, // status: success|error
	)

	AnomalyGrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_anomaly_grades_total",
			Help: "Total anomaly comparisons by grade",
		},
		[]string{"grade"}, // grade: none|low|medium|high
	)

	// Provider metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_provider_calls_total",
			Help: "Total number of market data provider calls",
		},
		[]string{"provider", "status"}, // status: success|error|rate_limited
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainsight_provider_latency_seconds",
			Help:    "Provider fetch latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// Cache metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_cache_requests_total",
			Help: "Total snapshot cache lookups",
		},
		[]string{"result"}, // result: hit|miss|bypass
	)

	CacheDedupedFetches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chainsight_cache_deduped_fetches_total",
			Help: "Concurrent fetches collapsed onto an in-flight request",
		},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainsight_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainsight_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Embedding metrics
	EmbeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_embedding_calls_total",
			Help: "Total embedding generation calls",
		},
		[]string{"model", "status"}, // status: success|error
	)

	// Database metrics
	DBQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainsight_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"database", "operation", "status"}, // database: postgres|redis
	)

	DBQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainsight_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"database", "operation"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	// Analysis metrics
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisRuns)
	prometheus.MustRegister(AnomalyGrades)

	// Provider metrics
	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(ProviderLatency)

	// Cache metrics
	prometheus.MustRegister(CacheRequests)
	prometheus.MustRegister(CacheDedupedFetches)

	// Worker metrics
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	// Embedding metrics
	prometheus.MustRegister(EmbeddingCalls)

	// Database metrics
	prometheus.MustRegister(DBQueries)
	prometheus.MustRegister(DBQueryDuration)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysisDuration records one analysis pipeline run
func ObserveAnalysisDuration(ticker string, duration time.Duration) {
	AnalysisDuration.WithLabelValues(ticker).Observe(duration.Seconds())
}

// RecordAnalysisRun records the outcome of an analysis run
func RecordAnalysisRun(ticker string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AnalysisRuns.WithLabelValues(ticker, status).Inc()
}

// RecordAnomalyGrade records one anomaly comparison by grade
func RecordAnomalyGrade(grade string) {
	AnomalyGrades.WithLabelValues(grade).Inc()
}

// RecordProviderCall records a market data provider call
func RecordProviderCall(provider string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderCalls.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(latency.Seconds())
}

// RecordCacheRequest records a snapshot cache lookup result
func RecordCacheRequest(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordEmbeddingCall records an embedding generation call
func RecordEmbeddingCall(model string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EmbeddingCalls.WithLabelValues(model, status).Inc()
}

// RecordDBQuery records a database query
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	DBQueries.WithLabelValues(database, operation, status).Inc()
	DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
}
