package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshOutcome(t *testing.T) {
	m := New()
	m.RefreshOutcome(OutcomeRotated)
	m.RefreshOutcome(OutcomeRotated)
	m.RefreshOutcome(OutcomeInvalid)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeRotated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.refreshTotal.WithLabelValues(OutcomeCoalesced)))
}

func TestReaperRun(t *testing.T) {
	m := New()
	m.ReaperRun(5, nil)
	m.ReaperRun(3, nil)
	m.ReaperRun(0, errors.New("db down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reaperRuns.WithLabelValues(ReaperOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reaperRuns.WithLabelValues(ReaperError)))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.reapedTokens))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RefreshOutcome(OutcomeRotated)
	m.ReaperRun(1, nil)
	m.CacheError(CacheSession)
	m.ObserveHTTPRequest("POST", "/token", 200, time.Millisecond)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.CacheError(CacheNegative)
	m.ObserveHTTPRequest("POST", "/token", 401, 2*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gophauth_cache_errors_total{cache="negative"} 1`)
	assert.Contains(t, string(body), "gophauth_http_request_duration_seconds")
}
