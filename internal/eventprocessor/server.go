// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/trinity/internal/logging"
)

// startupTimeout bounds how long NewEmbeddedServer waits for the listener.
const startupTimeout = 30 * time.Second

// EmbeddedServer is an in-process NATS server with JetStream on.
type EmbeddedServer struct {
	ns *server.Server
}

// NewEmbeddedServer starts the server and returns once it accepts clients.
func NewEmbeddedServer(cfg ServerConfig) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName:         "trinity",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		MaxPayload:         1 << 20,
		NoLog:              true,
		NoSigs:             true,
	})
	if err != nil {
		return nil, fmt.Errorf("configure embedded nats: %w", err)
	}
	go ns.Start()

	if !ns.ReadyForConnections(startupTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded nats not ready after %s", startupTimeout)
	}
	if !ns.JetStreamEnabled() {
		ns.Shutdown()
		return nil, errors.New("embedded nats started without jetstream")
	}
	logging.Info().Str("url", ns.ClientURL()).Str("store_dir", cfg.StoreDir).Msg("embedded nats started")
	return &EmbeddedServer{ns: ns}, nil
}

// ClientURL is the address clients connect to.
func (s *EmbeddedServer) ClientURL() string { return s.ns.ClientURL() }

// IsRunning reports whether the server is still serving.
func (s *EmbeddedServer) IsRunning() bool { return s.ns.Running() }

// Shutdown stops the server and waits for it unless ctx ends first.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.ns.Shutdown()
	done := make(chan struct{})
	go func() {
		s.ns.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
