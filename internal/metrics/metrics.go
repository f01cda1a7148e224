// Package metrics exposes Prometheus counters for briefing runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal       prometheus.Counter
	runDuration     prometheus.Histogram
	sourceResults   *prometheus.CounterVec
	sourceDuration  *prometheus.HistogramVec
	channelResults  *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	lastRunUnixTime prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "briefing_runs_total",
			Help: "Total briefing runs generated for delivery.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "briefing_run_duration_seconds",
			Help:    "Histogram of full briefing generation time.",
			Buckets: prometheus.DefBuckets,
		}),
		sourceResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_source_results_total",
			Help: "Source fetch outcomes by source and result (ok or an error kind).",
		}, []string{"source", "result"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "briefing_source_duration_seconds",
			Help:    "Histogram of source fetch durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		channelResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_channel_results_total",
			Help: "Delivery outcomes by channel and result.",
		}, []string{"channel", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "briefing_http_requests_total",
			Help: "Status server requests by route and status.",
		}, []string{"route", "status"}),
		lastRunUnixTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "briefing_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run.",
		}),
	}

	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.sourceResults,
		m.sourceDuration,
		m.channelResults,
		m.httpRequests,
		m.lastRunUnixTime,
	)
	return m
}

// Run records a finished briefing generation.
func (m *Metrics) Run(started time.Time, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.Inc()
	m.runDuration.Observe(duration.Seconds())
	m.lastRunUnixTime.Set(float64(started.Add(duration).Unix()))
}

// Source records one source outcome. An empty result means success.
func (m *Metrics) Source(source, result string, duration time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "ok"
	}
	m.sourceResults.WithLabelValues(source, result).Inc()
	m.sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// Channel records one delivery attempt.
func (m *Metrics) Channel(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.channelResults.WithLabelValues(channel, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts requests served by next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		}
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
