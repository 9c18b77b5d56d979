// Package main is the entry point for the ReWear API server.
//
// main() stays minimal: load configuration, build the shared
// dependencies (logger, assistant client), then hand off to
// internal/server which owns everything else.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Losthero1640/rewear/internal/assistant"
	"github.com/Losthero1640/rewear/internal/config"
	"github.com/Losthero1640/rewear/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		logger.Error("failed to create data directory",
			slog.String("dir", filepath.Dir(cfg.Storage.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The assistant is optional: if its health probe fails the server still
	// starts and assistant-backed routes answer with canned fallbacks. The
	// watcher re-probes so an assistant restart is picked up without ours.
	ai := assistant.New(cfg.Assistant.URL, cfg.Assistant.RequestTimeout, cfg.Assistant.HealthTimeout, logger)
	if ai.CheckAvailability(context.Background()) {
		logger.Info("assistant service available", slog.String("url", cfg.Assistant.URL))
	} else {
		logger.Warn("assistant service unavailable, running with fallback replies",
			slog.String("url", cfg.Assistant.URL),
		)
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go ai.WatchAvailability(watchCtx, cfg.Assistant.HealthInterval)

	srv, err := server.New(cfg, ai, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
