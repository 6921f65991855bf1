package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/preston-bernstein/match-overlay/internal/config"
	"github.com/preston-bernstein/match-overlay/internal/logging"
	"github.com/preston-bernstein/match-overlay/internal/server"
)

const appVersion = "dev"

func main() {
	if os.Getenv("SKIP_OVERLAY_RUN") == "1" {
		return
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "match-overlay",
		Version: appVersion,
	})
	logger.Info("configuration loaded",
		logging.FieldEndpoint, cfg.API.BaseURL,
		logging.FieldPath, cfg.APIConfigPath,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logging.Error(logger, "unable to build overlay", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.Run(ctx, stop)
	return nil
}
