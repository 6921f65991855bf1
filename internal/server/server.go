package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/preston-bernstein/match-overlay/internal/api"
	"github.com/preston-bernstein/match-overlay/internal/config"
	"github.com/preston-bernstein/match-overlay/internal/hostloop"
	httpserver "github.com/preston-bernstein/match-overlay/internal/http"
	"github.com/preston-bernstein/match-overlay/internal/http/handlers"
	"github.com/preston-bernstein/match-overlay/internal/http/middleware"
	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/metrics"
	"github.com/preston-bernstein/match-overlay/internal/overlay"
	"github.com/preston-bernstein/match-overlay/internal/stream"
)

var metricsSetup = metrics.Setup

// Server runs the overlay process: scoring client, streams, host loop and status surface.
type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	client        *api.Client
	overlay       *overlay.Overlay
	dispatcher    *stream.Dispatcher
	loop          HostLoop
	httpServer    httpServer
	metricsServer httpServer
	metricsStop   func(context.Context) error

	stopMu sync.Mutex
	stop   context.CancelFunc
}

// deps lets tests swap the network edges.
type deps struct {
	dialer     stream.Dialer
	httpClient *http.Client
	recorder   *metrics.Recorder
}

// New wires every component from cfg. It fails only when the scoring server address is unusable.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServer(cfg, logger, deps{})
}

func newServer(cfg config.Config, logger *slog.Logger, d deps) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, d.recorder)

	client, err := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: d.httpClient,
		Logger:     logger,
		Metrics:    recorder,
	})
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(context.Background())
		}
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		client:        client,
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
	}
	s.overlay = overlay.New(overlay.Config{Source: client, Logger: logger})
	s.dispatcher = stream.New(stream.Config{
		OverlayURL: client.OverlayStreamAddress(),
		TimeURL:    client.TimeStreamAddress(),
		Dialer:     d.dialer,
		Logger:     logger,
		Metrics:    recorder,
		OnStop:     s.streamsStopped,
	}, s.overlay)
	loop := hostloop.New(cfg.TickInterval, logger, recorder, s.dispatcher, s.overlay)
	s.loop = loop

	h := handlers.NewHandler(s.overlay, s.dispatcher.Active, loop.Status, logger)
	s.httpServer = buildHTTPServer(cfg, h, logger, recorder)
	return s, nil
}

func buildHTTPServer(cfg config.Config, h *handlers.Handler, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	router := httpserver.NewRouter(h)
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)
	return newNetHTTPServer(":"+cfg.StatusPort, wrapped)
}

// Run starts the status surface, primes the overlay, opens the streams and ticks until ctx ends.
// stop is invoked when the streams close or a listener fails.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.stopMu.Lock()
	s.stop = stop
	s.stopMu.Unlock()

	s.startMetrics()
	s.startServer(stop)
	s.probe(ctx)

	s.overlay.Refresh(ctx)
	if err := s.dispatcher.Start(); err != nil {
		logging.Error(s.logger, "unable to start streams", err)
	}
	s.loop.Start(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

// probe logs whether the scoring server answers; the overlay runs either way.
func (s *Server) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	version, err := s.client.ServerVersion(probeCtx)
	if err != nil {
		logging.Warn(s.logger, "scoring server unreachable",
			logging.FieldEndpoint, s.client.BaseURL(),
			"error", err,
		)
		return
	}
	logging.Info(s.logger, "scoring server reachable",
		logging.FieldEndpoint, s.client.BaseURL(),
		"server_version", version,
	)
}

func (s *Server) streamsStopped() {
	s.stopMu.Lock()
	stop := s.stop
	s.stopMu.Unlock()
	logging.Warn(s.logger, "streams stopped")
	if stop != nil {
		stop()
	}
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "status server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("status", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.loop.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop host loop", err)
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	if s.overlay != nil {
		s.overlay.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}
	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = newNetHTTPServer(":"+recCfg.Port, handler)
	}
	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the status HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
