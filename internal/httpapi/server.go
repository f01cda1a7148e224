// Package httpapi is the status listener that runs next to the scheduler.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"dailybriefing/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Briefer produces briefings on demand and reports on scheduled runs.
type Briefer interface {
	// Preview generates and renders a briefing without delivering it.
	Preview(ctx context.Context) string
	// LastRun is the most recent delivered run; zero when none has happened.
	LastRun() (runID string, at time.Time)
}

type Server struct {
	HTTP    *http.Server
	Log     logrus.FieldLogger
	briefer Briefer
	next    func() time.Time
	started time.Time
}

// NewServer wires the routes. next reports the upcoming scheduled run and may
// be nil. Access logs go to accessLog.
func NewServer(addr string, b Briefer, next func() time.Time, m *metrics.Metrics, log logrus.FieldLogger, accessLog io.Writer) *Server {
	s := &Server{Log: log, briefer: b, next: next, started: time.Now()}
	s.HTTP = &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(accessLog, s.Router(m)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Router(m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/healthz", m.WrapHandler("/healthz", http.HandlerFunc(s.health))).Methods("GET")
	r.Handle("/briefing/preview", m.WrapHandler("/briefing/preview", http.HandlerFunc(s.preview))).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	return r
}

// Start blocks serving until Stop; http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.Log.WithField("addr", s.HTTP.Addr).Info("status server starting")
	if err := s.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("status server stopping")
	return s.HTTP.Shutdown(ctx)
}

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	LastRunID string `json:"last_run_id,omitempty"`
	LastRunAt string `json:"last_run_at,omitempty"`
	NextRunAt string `json:"next_run_at,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Truncate(time.Second).String(),
	}
	if id, at := s.briefer.LastRun(); !at.IsZero() {
		resp.LastRunID = id
		resp.LastRunAt = at.Format(time.RFC3339)
	}
	if s.next != nil {
		if next := s.next(); !next.IsZero() {
			resp.NextRunAt = next.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	text := s.briefer.Preview(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
