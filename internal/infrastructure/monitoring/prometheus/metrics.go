package prometheus

import (
	"fmt"
	"time"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Matching Layer
	RecordsProcessedTotal CounterVec
	MatchOutcomesTotal    CounterVec
	BatchDuration         HistogramVec
	BatchSize             HistogramVec
	FragmentsPerRecord    HistogramVec
	CandidatesPerFragment HistogramVec

	// Vocabulary Layer
	VocabularySize            GaugeVec
	VocabularyRefreshesTotal  CounterVec
	VocabularyRefreshDuration HistogramVec

	// Job Layer
	JobsSubmittedTotal CounterVec
	JobsProcessedTotal CounterVec
	JobProcessDuration HistogramVec

	// Infrastructure Layer
	DBQueryDuration  HistogramVec
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// System Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default Buckets
var (
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultBatchDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300}
	DefaultBatchSizeBuckets     = []float64{1, 10, 50, 100, 500, 1000, 5000, 10000}
	DefaultCountBuckets         = []float64{0, 1, 2, 3, 5, 10, 20, 50}
	DefaultDBDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers all metrics and returns the AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Matching
	m.RecordsProcessedTotal = collector.RegisterCounter("records_processed_total", "Input records processed", "source")
	m.MatchOutcomesTotal = collector.RegisterCounter("match_outcomes_total", "Fragment match outcomes", "outcome")
	m.BatchDuration = collector.RegisterHistogram("batch_duration_seconds", "Match batch duration", DefaultBatchDurationBuckets, "source")
	m.BatchSize = collector.RegisterHistogram("batch_size_records", "Records per match batch", DefaultBatchSizeBuckets, "source")
	m.FragmentsPerRecord = collector.RegisterHistogram("fragments_per_record", "Fragments produced per record", DefaultCountBuckets)
	m.CandidatesPerFragment = collector.RegisterHistogram("candidates_per_fragment", "Threshold-passing candidates per fragment", DefaultCountBuckets)

	// Vocabulary
	m.VocabularySize = collector.RegisterGauge("vocabulary_size_entries", "Loaded reference vocabulary entries", "source")
	m.VocabularyRefreshesTotal = collector.RegisterCounter("vocabulary_refreshes_total", "Vocabulary refresh attempts", "source", "status")
	m.VocabularyRefreshDuration = collector.RegisterHistogram("vocabulary_refresh_duration_seconds", "Vocabulary refresh duration", DefaultHTTPDurationBuckets, "source")

	// Jobs
	m.JobsSubmittedTotal = collector.RegisterCounter("jobs_submitted_total", "Match jobs submitted", "status")
	m.JobsProcessedTotal = collector.RegisterCounter("jobs_processed_total", "Match jobs processed", "status")
	m.JobProcessDuration = collector.RegisterHistogram("job_process_duration_seconds", "Match job processing duration", DefaultBatchDurationBuckets)

	// Infrastructure
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "db", "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")

	// System Health
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

// Helpers

// Match outcome label values for MatchOutcomesTotal.
const (
	OutcomeExact       = "exact"
	OutcomeContainment = "containment"
	OutcomeDistance    = "distance"
	OutcomeNone        = "none"
)

func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordBatch(metrics *AppMetrics, source string, records int, duration time.Duration) {
	metrics.RecordsProcessedTotal.WithLabelValues(source).Add(float64(records))
	metrics.BatchSize.WithLabelValues(source).Observe(float64(records))
	metrics.BatchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

func RecordDBQuery(metrics *AppMetrics, db, operation string, duration time.Duration, err error) {
	metrics.DBQueryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(db, "query_error").Inc()
	}
}

func RecordCacheAccess(metrics *AppMetrics, cache string, hit bool) {
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(metrics *AppMetrics, component, errorCode string) {
	metrics.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}
