// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Command server runs the Trinity API: group content supply backed by a TMDB
// compatible catalog, vote ingestion, and consensus detection over a NATS
// JetStream change stream.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment). A missing
//     catalog API key is fatal.
//  2. Logging.
//  3. Badger store.
//  4. Circuit breaker, catalog client, selector, content cache.
//  5. NATS (optional): embedded server or external cluster, stream,
//     publishers and subscribers.
//  6. Consensus detector with its notification fan-out.
//  7. HTTP API.
//  8. Supervisor tree, until SIGINT or SIGTERM.
//
// Minimal run:
//
//	export TMDB_API_KEY=...
//	export STORE_PATH=/var/lib/trinity
//	./server
//
// With an embedded NATS server:
//
//	export NATS_ENABLED=true NATS_EMBEDDED=true NATS_STORE_DIR=/var/lib/trinity/nats
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("store", storeLabel(cfg)).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("nats_embedded", cfg.NATS.EmbeddedServer).
		Int("port", cfg.Server.Port).
		Msg("Starting Trinity")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	if err := app.tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}
	logging.Info().Msg("Shutdown signal received, stopping")

	if report, err := app.tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
	logging.Info().Msg("Trinity stopped")
}

func storeLabel(cfg *config.Config) string {
	if cfg.Store.InMemory {
		return "in-memory"
	}
	return cfg.Store.Path
}
