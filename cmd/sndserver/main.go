package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SPODhub/mpc3000-snd-player/internal/api"
	"github.com/SPODhub/mpc3000-snd-player/internal/config"
	"github.com/SPODhub/mpc3000-snd-player/internal/logging"
	"github.com/SPODhub/mpc3000-snd-player/internal/session"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		// Use stderr before logger is initialized
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize structured logger
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting sndserver", "version", "0.1.0")

	// Warn if bearer token auth is disabled
	if cfg.AuthDisabled() {
		logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
	}

	// Log loaded configuration (without sensitive values)
	logger.Info("configuration loaded",
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"http_port", cfg.HTTPPort,
		"max_upload_bytes", cfg.MaxUploadBytes,
		"session_ttl", cfg.SessionTTL,
		"session_capacity", cfg.SessionCapacity,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	// Session manager owns one disk builder per client
	sessions := session.NewManager(cfg.SessionCapacity, cfg.SessionTTL, logger)
	sessions.Start()
	defer sessions.Stop()

	// HTTP API server
	server := api.New(cfg, logger, sessions)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
