package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.RecordsProcessedTotal)
	assert.NotNil(t, m.MatchOutcomesTotal)
	assert.NotNil(t, m.BatchDuration)
	assert.NotNil(t, m.FragmentsPerRecord)
	assert.NotNil(t, m.CandidatesPerFragment)
	assert.NotNil(t, m.VocabularySize)
	assert.NotNil(t, m.VocabularyRefreshesTotal)
	assert.NotNil(t, m.JobsSubmittedTotal)
	assert.NotNil(t, m.JobsProcessedTotal)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest_AllMetricsUpdated(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "POST", "/api/v1/match", 200, 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/api/v1/match",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/api/v1/match"} 1`)
}

func TestRecordBatch(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordBatch(m, "http", 42, 250*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_records_processed_total{source="http"} 42`)
	assert.Contains(t, output, `test_unit_batch_size_records_count{source="http"} 1`)
	assert.Contains(t, output, `test_unit_batch_duration_seconds_count{source="http"} 1`)
}

func TestMatchOutcomeCounters(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.MatchOutcomesTotal.WithLabelValues(OutcomeExact).Inc()
	m.MatchOutcomesTotal.WithLabelValues(OutcomeContainment).Inc()
	m.MatchOutcomesTotal.WithLabelValues(OutcomeDistance).Inc()
	m.MatchOutcomesTotal.WithLabelValues(OutcomeNone).Add(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_match_outcomes_total{outcome="exact"} 1`)
	assert.Contains(t, output, `test_unit_match_outcomes_total{outcome="containment"} 1`)
	assert.Contains(t, output, `test_unit_match_outcomes_total{outcome="distance"} 1`)
	assert.Contains(t, output, `test_unit_match_outcomes_total{outcome="none"} 2`)
}

func TestRecordDBQuery_Success(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "select", 10*time.Millisecond, nil)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="select"} 1`)
}

func TestRecordDBQuery_Error(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordDBQuery(m, "postgres", "insert", 5*time.Millisecond, errors.New("db error"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_db_query_duration_seconds_count{db="postgres",operation="insert"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="postgres",error_code="query_error"} 1`)
}

func TestRecordCacheAccess_HitAndMiss(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordCacheAccess(m, "redis", true)
	RecordCacheAccess(m, "redis", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{cache="redis"} 1`)
	assert.Contains(t, output, `test_unit_cache_misses_total{cache="redis"} 1`)
}

func TestRecordError(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordError(m, "matcher", "MAT_001")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_errors_total{component="matcher",error_code="MAT_001"} 1`)
}

func TestDefaultBuckets(t *testing.T) {
	assert.NotNil(t, DefaultHTTPDurationBuckets)
	assert.NotNil(t, DefaultBatchDurationBuckets)
	assert.NotNil(t, DefaultBatchSizeBuckets)
	assert.NotNil(t, DefaultCountBuckets)
	assert.NotNil(t, DefaultDBDurationBuckets)
}

func TestConcurrentMetricRecording(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				RecordHTTPRequest(m, "GET", "/path", 200, time.Millisecond)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
