package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.ObserveRun("succeeded", 120*time.Millisecond)
	m.ObserveRun("failed", time.Second)
	m.ObserveRun("succeeded", time.Millisecond)
	m.AddRows(StageLoad, 10)
	m.AddRows(StageClean, 9)
	m.PublishFailed("sheets")
	m.Downloaded("category")
	m.Downloaded("category")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineRuns.WithLabelValues("failed")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.rowsProcessed.WithLabelValues(StageLoad)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishFailures.WithLabelValues("sheets")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.downloads.WithLabelValues("category")))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.ObserveRun("succeeded", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `orderboard_pipeline_runs_total{status="succeeded"} 1`)
	assert.Contains(t, string(body), "orderboard_pipeline_duration_seconds_bucket")
}
