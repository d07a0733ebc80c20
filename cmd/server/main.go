// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package main is the entry point for the Relog server.
//
// Relog is a self-hosted tracker for recurring personal events (watering
// the plants, changing a filter, backing up the NAS). Users log
// occurrences against named events, attach labels, and get flagged when
// an event's newest occurrence is older than its warning threshold.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, config.yaml and
//     environment variables (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Database: DuckDB holding users, events, labels and associations
//  4. Session store: BadgerDB with TTL-backed revocable sessions
//  5. Services: id codec registry, auth, tracker, WebSocket hub
//  6. Supervision: suture tree running the janitor, the hub and the
//     HTTP server as restartable services
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in
// defaults. See internal/config for the full surface. The minimum for
// production is:
//
//	export ENVIRONMENT=production
//	export JWT_SECRET=$(openssl rand -hex 32)
//	export CODEC_SALT=some-stable-salt
//	export DUCKDB_PATH=/data/relog.duckdb
//	./relog
//
// Changing CODEC_SALT after deployment invalidates every public id
// previously handed to clients; pick it once.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests (10s timeout),
// closes WebSocket clients, and checkpoints the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relogapp/relog/internal/api"
	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/database"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/supervisor"
	"github.com/relogapp/relog/internal/supervisor/services"
	"github.com/relogapp/relog/internal/tracker"
	ws "github.com/relogapp/relog/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("registration_open", cfg.Security.RegistrationOpen).
		Msg("Starting Relog")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows all origins; restrict security.cors_origins in production")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	sessions, err := auth.OpenBadgerSessionStore(cfg.Security.SessionStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	jwtManager, err := auth.NewJWTManager(&cfg.Security, cfg.IsProduction())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	codec := idcodec.NewRegistry(idcodec.Config{
		Salt:      cfg.Codec.Salt,
		MinLength: cfg.Codec.MinLength,
	})

	authSvc := auth.NewService(db, sessions, jwtManager, &cfg.Security)
	trackerSvc := tracker.New(db, codec)

	var hub *ws.Hub
	if cfg.WebSocket.Enabled {
		hub = ws.NewHub()
	} else {
		logging.Info().Msg("Realtime change feed disabled")
	}

	handler := api.NewHandler(trackerSvc, authSvc, db, db, codec, hub, cfg)
	defer handler.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, authSvc, cfg),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMaintenanceService(services.NewJanitorService(sessions, authSvc, 10*time.Minute))
	if hub != nil {
		tree.AddRealtimeService(services.NewWebSocketHubService(hub))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
