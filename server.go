package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatusServer exposes metrics and the lifecycle state over HTTP.  It only
// reads state; it never calls into the controller, so it cannot disturb the
// cooperative loop.
type StatusServer struct {
	addr        string
	tokenHash   string
	controller  string
	lifecycle   interface{ Phase() Phase }
	polls       interface{ Stats() PollStats }
	expirations *atomic.Uint64
	gatherer    prometheus.Gatherer
	logger      zerolog.Logger
	started     time.Time
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Phase               string  `json:"phase"`
	Controller          string  `json:"controller"`
	Polls               uint64  `json:"polls"`
	LastPoll            *string `json:"last_poll,omitempty"`
	LastPollDurationUS  int64   `json:"last_poll_duration_us"`
	WatchdogExpirations uint64  `json:"watchdog_expirations"`
	UptimeSeconds       int64   `json:"uptime_s"`
}

// Handler builds the router.
func (s *StatusServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/status", requireToken(s.tokenHash, s.handleStatus))
	return r
}

// handleStatus returns the lifecycle phase and poll counters.
func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.polls.Stats()
	resp := StatusResponse{
		Phase:              s.lifecycle.Phase().String(),
		Controller:         s.controller,
		Polls:              stats.Polls,
		LastPollDurationUS: stats.LastDuration.Microseconds(),
		UptimeSeconds:      int64(time.Since(s.started).Seconds()),
	}
	if !stats.LastPoll.IsZero() {
		ts := stats.LastPoll.UTC().Format(time.RFC3339Nano)
		resp.LastPoll = &ts
	}
	if s.expirations != nil {
		resp.WatchdogExpirations = s.expirations.Load()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (s *StatusServer) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
