package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceRecordsRenders(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRender(ArtifactCard, nil, 20*time.Millisecond)
	m.ObserveRender(ArtifactCard, errors.New("boom"), time.Millisecond)
	m.RecordCacheLookup(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderTotal.WithLabelValues(ArtifactCard, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderTotal.WithLabelValues(ArtifactCard, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `render_total{artifact="carnet",outcome="success"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveRender(ArtifactCertificate, nil, time.Second)
	m.ObserveHTTPRequest("GET", "/", 200, time.Second)
	m.RecordCacheLookup(false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
