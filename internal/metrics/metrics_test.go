package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.Source("weather", "", 20*time.Millisecond)
	m.Source("news", "auth", time.Millisecond)
	m.Source("news", "auth", time.Millisecond)
	m.Channel("email", errors.New("smtp down"))
	m.Channel("console", nil)
	m.Run(time.Unix(1000, 0), 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sourceResults.WithLabelValues("weather", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sourceResults.WithLabelValues("news", "auth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelResults.WithLabelValues("email", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelResults.WithLabelValues("console", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal))
	assert.Equal(t, 1002.0, testutil.ToFloat64(m.lastRunUnixTime))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Source("weather", "", time.Second)
		m.Channel("email", nil)
		m.Run(time.Now(), time.Second)
	})

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerExposesWrappedRoutes(t *testing.T) {
	m := New()
	h := m.WrapHandler("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `briefing_http_requests_total{route="/healthz",status="418"} 1`), body)
}
