package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	//** Arrange
	metrics := New()

	//** Act
	metrics.ObserveGeneration("greedy", "complete", 20*time.Millisecond, 4)
	metrics.ObserveGeneration("greedy", "incomplete", 10*time.Millisecond, 1)
	metrics.RecordFallback()
	metrics.RecordRepair(1, 2, 0)

	//** Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.generations.WithLabelValues("greedy", "complete")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.sessionsScheduled))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.repairs.WithLabelValues("moved")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	metrics := New()
	metrics.ObserveHTTPRequest(http.MethodPost, "/timetables", http.StatusOK, time.Millisecond)

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), "http_requests_total"))
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.ObserveGeneration("fd", "complete", time.Second, 1)
		metrics.RecordFallback()
		metrics.RecordRepair(0, 0, 0)
		metrics.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})

	recorder := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}
