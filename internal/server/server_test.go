package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/preston-bernstein/match-overlay/internal/config"
	"github.com/preston-bernstein/match-overlay/internal/hostloop"
	"github.com/preston-bernstein/match-overlay/internal/metrics"
	"github.com/preston-bernstein/match-overlay/internal/overlay"
	"github.com/preston-bernstein/match-overlay/internal/stream"
	"github.com/preston-bernstein/match-overlay/internal/teststubs"
	"github.com/preston-bernstein/match-overlay/internal/testutil"
)

type stubLoop struct {
	mu         sync.Mutex
	startCalls int
	stopCalls  int
	err        error
}

func (l *stubLoop) Start(ctx context.Context) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startCalls++
}

func (l *stubLoop) Stop(ctx context.Context) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopCalls++
	return l.err
}

func (l *stubLoop) Status() hostloop.Status {
	return hostloop.Status{}
}

type stubHTTPServer struct {
	handler       http.Handler
	listenErr     error
	shutdownCalls int
	shutdownErr   error
}

func (s *stubHTTPServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	return http.ErrServerClosed
}

func (s *stubHTTPServer) Shutdown(ctx context.Context) error {
	_ = ctx
	s.shutdownCalls++
	return s.shutdownErr
}

func (s *stubHTTPServer) Addr() string {
	return ":0"
}

func (s *stubHTTPServer) Handler() http.Handler {
	return s.handler
}

type blockingHTTPServer struct {
	shutdownCalls int
	unblock       chan struct{}
}

func (s *blockingHTTPServer) ListenAndServe() error { return nil }
func (s *blockingHTTPServer) Addr() string          { return ":0" }
func (s *blockingHTTPServer) Handler() http.Handler { return http.NewServeMux() }

func (s *blockingHTTPServer) Shutdown(ctx context.Context) error {
	s.shutdownCalls++
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.unblock:
		return nil
	}
}

// scoringServer fakes the scoring server's HTTP endpoints.
func scoringServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	text := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { _, _ = io.WriteString(w, body) }
	}
	mux.HandleFunc("/", text("scoring 1.4.0"))
	mux.HandleFunc("/match/leftTeamId", text("1"))
	mux.HandleFunc("/match/rightTeamId", text("2"))
	mux.HandleFunc("/overlay/switchTVs", text("false"))
	mux.HandleFunc("/defaultMatchLength", text("600"))
	mux.HandleFunc("/score/matchScore", text(`{"left":5,"right":3}`))
	mux.HandleFunc("/teams/team", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ID == 1 {
			_, _ = io.WriteString(w, `{"id":1,"name":"Lions","colorBright":"ffcc00","colorDark":"332200","members":["a"]}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":2,"name":"Owls","colorBright":"3366ff","colorDark":"001133","members":["b"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testRig struct {
	srv     *Server
	overlay *teststubs.StubPeer
	time    *teststubs.StubPeer
	dialer  *teststubs.StubDialer
	http    *stubHTTPServer
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	scoring := scoringServer(t)
	wsBase := testutil.WebSocketURL(scoring.URL)

	rig := &testRig{
		overlay: teststubs.NewStubPeer(stream.StateOpen),
		time:    teststubs.NewStubPeer(stream.StateOpen),
	}
	rig.dialer = &teststubs.StubDialer{Peers: map[string]*teststubs.StubPeer{
		wsBase + "/overlay/stream": rig.overlay,
		wsBase + "/stream/time":    rig.time,
	}}

	cfg := config.Config{
		API:          config.APIConfig{BaseURL: scoring.URL},
		TickInterval: time.Millisecond,
		StatusPort:   "0",
	}
	srv, err := newServer(cfg, nil, deps{dialer: rig.dialer, recorder: metrics.NewRecorder()})
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	rig.http = &stubHTTPServer{handler: srv.httpServer.Handler()}
	srv.httpServer = rig.http
	rig.srv = srv
	return rig
}

func getState(t *testing.T, h http.Handler) overlay.State {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /state, got %d", rr.Code)
	}
	var body struct {
		Overlay overlay.State `json:"overlay"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return body.Overlay
}

func runInBackground(ctx context.Context, cancel context.CancelFunc, srv *Server) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New(config.Config{API: config.APIConfig{BaseURL: "ftp://scoring"}}, nil)
	if err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestNewConstructsServer(t *testing.T) {
	srv, err := New(config.Config{
		API:        config.APIConfig{BaseURL: "http://127.0.0.1:4444"},
		StatusPort: "0",
		Metrics:    config.MetricsConfig{Enabled: false},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if srv.Handler() == nil {
		t.Fatalf("expected server with handler")
	}

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected /ready to be 503 before streams start, got %d", rr.Code)
	}
	if got := srv.dispatcher.Active(); got {
		t.Fatalf("expected idle dispatcher")
	}
}

func TestRunDrivesOverlayFromStreams(t *testing.T) {
	rig := newTestRig(t)
	rig.overlay.Push("SHOW_LEFT", "SHOW_TIME")
	rig.time.Push("42")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runInBackground(ctx, cancel, rig.srv)

	deadline := time.Now().Add(2 * time.Second)
	var state overlay.State
	for time.Now().Before(deadline) {
		state = getState(t, rig.srv.Handler())
		if state.Match != nil && state.ClockSeconds == 42 && state.Score.Left == 5 && state.MatchLength == 600 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if state.Match == nil || state.Match.Left.Name != "Lions" || state.Match.Right.Name != "Owls" {
		t.Fatalf("expected match resolved, got %+v", state)
	}
	if !state.LeftVisible || !state.TimeVisible || state.RightVisible {
		t.Fatalf("unexpected panel visibility %+v", state)
	}

	rr := httptest.NewRecorder()
	rig.srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready while streams are open, got %d", rr.Code)
	}

	cancel()
	waitDone(t, done)

	if rig.overlay.Closes != 1 || rig.time.Closes != 1 {
		t.Fatalf("expected both streams closed once, got %d/%d", rig.overlay.Closes, rig.time.Closes)
	}
	if rig.http.shutdownCalls != 1 {
		t.Fatalf("expected status server shutdown once, got %d", rig.http.shutdownCalls)
	}
}

func TestRunStopsWhenStreamCloses(t *testing.T) {
	rig := newTestRig(t)
	rig.time.SetState(stream.StateClosed)
	rig.time.Code = 1006

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runInBackground(ctx, cancel, rig.srv)

	waitDone(t, done)
	if rig.srv.dispatcher.Active() {
		t.Fatalf("expected dispatcher stopped")
	}
}

func TestRunStopsWhenStreamsCannotOpen(t *testing.T) {
	rig := newTestRig(t)
	rig.dialer.Errs = map[string]error{}
	for addr := range rig.dialer.Peers {
		rig.dialer.Errs[addr] = errors.New("bad address")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runInBackground(ctx, cancel, rig.srv)

	waitDone(t, done)
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	rig := newTestRig(t)
	loop := &stubLoop{err: errors.New("stop failure")}
	rig.srv.loop = loop

	rig.srv.gracefulShutdown()

	if loop.stopCalls != 1 {
		t.Fatalf("expected loop Stop to be called once, got %d", loop.stopCalls)
	}
	if rig.http.shutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", rig.http.shutdownCalls)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	rig := newTestRig(t)
	rig.srv.loop = &stubLoop{}
	blocking := &blockingHTTPServer{unblock: make(chan struct{})}
	rig.srv.httpServer = blocking

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	start := time.Now()
	rig.srv.gracefulShutdown()

	if blocking.shutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.shutdownCalls)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	rig := newTestRig(t)
	rig.http.listenErr = errors.New("listen failure")

	stopCalled := make(chan struct{})
	rig.srv.startServer(func() { close(stopCalled) })

	select {
	case <-stopCalled:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}
}

func TestBuildMetricsSuccessPathSetsServerAndShutdown(t *testing.T) {
	orig := metricsSetup
	defer func() { metricsSetup = orig }()
	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		return metrics.NewRecorder(), http.NewServeMux(), func(context.Context) error { return nil }, nil
	}

	rec, srv, stop := buildMetrics(config.Config{
		Metrics: config.MetricsConfig{Enabled: true, Port: "9999"},
	}, nil, nil)

	if rec == nil || srv == nil || stop == nil {
		t.Fatalf("expected recorder, server, and shutdown to be set on success")
	}
	if srv.Addr() != ":9999" {
		t.Fatalf("expected metrics addr :9999, got %s", srv.Addr())
	}
}

func TestBuildMetricsFallsBackOnSetupFailure(t *testing.T) {
	orig := metricsSetup
	defer func() { metricsSetup = orig }()
	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		return nil, nil, nil, errors.New("fail")
	}

	rec, srv, stop := buildMetrics(config.Config{Metrics: config.MetricsConfig{Enabled: true}}, nil, nil)
	if rec == nil {
		t.Fatalf("expected fallback recorder")
	}
	if srv != nil || stop != nil {
		t.Fatalf("expected no metrics server after setup failure")
	}
}

func TestBuildMetricsUsesInjectedRecorder(t *testing.T) {
	injected := metrics.NewRecorder()
	rec, srv, stop := buildMetrics(config.Config{Metrics: config.MetricsConfig{Enabled: true}}, nil, injected)
	if rec != injected || srv != nil || stop != nil {
		t.Fatalf("expected injected recorder to be used as-is")
	}
}
