package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStatusServer(t *testing.T, tokenHash string) (*StatusServer, *Dispatcher) {
	t.Helper()
	reg := prometheus.NewRegistry()
	ic := Instrument(IdleController{}, NewMetrics(reg), zerolog.Nop())
	d := NewDispatcher(ic)
	var expirations atomic.Uint64
	expirations.Store(2)
	return &StatusServer{
		tokenHash:   tokenHash,
		controller:  "idle",
		lifecycle:   d,
		polls:       ic,
		expirations: &expirations,
		gatherer:    reg,
		logger:      zerolog.Nop(),
		started:     time.Now(),
	}, d
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusReportsLifecycle(t *testing.T) {
	srv, d := newTestStatusServer(t, "")
	h := srv.Handler()

	rec := get(t, h, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var before StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&before))
	assert.Equal(t, "uninitialized", before.Phase)
	assert.Nil(t, before.LastPoll)

	d.OnStartup()
	d.OnTick()
	d.OnTick()

	rec = get(t, h, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var after StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.Equal(t, "running", after.Phase)
	assert.Equal(t, "idle", after.Controller)
	assert.Equal(t, uint64(2), after.Polls)
	assert.NotNil(t, after.LastPoll)
	assert.Equal(t, uint64(2), after.WatchdogExpirations)
}

func TestStatusNamesPollDuration(t *testing.T) {
	srv, d := newTestStatusServer(t, "")
	d.OnStartup()
	d.OnTick()

	rec := get(t, srv.Handler(), "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Contains(t, raw, "last_poll_duration_us")
	assert.NotContains(t, raw, "last_poll_us")
}

func TestServeStopsWhenContextEnds(t *testing.T) {
	srv, _ := newTestStatusServer(t, "")
	srv.addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("status server did not shut down")
	}
}

func TestStatusRequiresTokenWhenConfigured(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	srv, _ := newTestStatusServer(t, string(hash))
	h := srv.Handler()

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/status", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/status", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/status", "s3cret").Code)

	// Health and metrics stay open for scrapers.
	assert.Equal(t, http.StatusNoContent, get(t, h, "/healthz", "").Code)
}

func TestMetricsEndpointExportsControllerCounters(t *testing.T) {
	srv, d := newTestStatusServer(t, "")
	d.OnStartup()
	d.OnTick()

	rec := get(t, srv.Handler(), "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gluectl_controller_polls_total 1")
	assert.Contains(t, string(body), "gluectl_controller_initialize_total 1")
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := bearerToken(req)
	assert.False(t, ok)

	req.Header.Set("Authorization", "bearer  abc ")
	tok, ok := bearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	req.Header.Set("Authorization", "Basic abc")
	_, ok = bearerToken(req)
	assert.False(t, ok)
}
