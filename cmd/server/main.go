// Package main is the entry point for the StoreLink server.
//
// main only reads configuration, builds the logger and starts the server.
// Everything else lives under internal/.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/storelink/internal/config"
	"github.com/sakif/storelink/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("STORELINK_CONFIG"), "path to a config file (yaml, toml or json)")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Human-readable text at Debug while developing, JSON at Info otherwise.
	var logHandler slog.Handler
	if cfg.Server.Debug {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	if cfg.UsesDevSecret() {
		logger.Warn("SECRET_KEY not set, using the development key; sessions are forgeable")
	}

	// === 3. DATABASE DIRECTORY ===
	// The SQLite file is created on first start, but its directory is not.
	if cfg.DB.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.DB.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. START ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
