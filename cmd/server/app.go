// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/trinity/internal/api"
	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/circuitbreaker"
	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/contentcache"
	"github.com/tomtom215/trinity/internal/eventprocessor"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/notify"
	"github.com/tomtom215/trinity/internal/selector"
	"github.com/tomtom215/trinity/internal/store"
	"github.com/tomtom215/trinity/internal/supervisor"
	"github.com/tomtom215/trinity/internal/supervisor/services"
	"github.com/tomtom215/trinity/internal/websocket"
)

// app owns everything that outlives the supervisor tree.
type app struct {
	store      *store.Store
	components *eventprocessor.Components // nil without NATS
	handler    http.Handler
	tree       *supervisor.Tree
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	if a.store, err = store.Open(store.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory}); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	breaker := circuitbreaker.New[*catalog.Page](circuitbreaker.Config{
		Name:             "catalog",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		CoolDown:         cfg.Breaker.CoolDown,
		CallTimeout:      cfg.Breaker.CallTimeout,
	})
	cat, err := catalog.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL, cfg.Catalog.Language,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithRateLimit(cfg.Catalog.RequestsPerSecond, cfg.Catalog.Burst),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	sel := selector.New(cat, breaker, selector.Config{
		MaxPages:          cfg.Selector.MaxPages,
		MinOverviewLength: cfg.Selector.MinOverviewLength,
		AllowedLanguages:  cfg.Selector.AllowedLanguages,
	})
	cacheCfg := contentcache.DefaultConfig()
	if cfg.Cache.TTL > 0 {
		cacheCfg.TTL = cfg.Cache.TTL
	}
	if cfg.Cache.BatchSize > 0 {
		cacheCfg.BatchSize = cfg.Cache.BatchSize
	}
	content := contentcache.NewService(contentcache.New(a.store, sel, cacheCfg), cfg.Cache.MaxCount)

	hub := websocket.NewHub()
	sinks := notify.Fanout{notify.LogPublisher{}}
	var changes api.ChangePublisher

	checks := []api.HealthCheck{{Name: "store", Check: a.store.Ping}}

	if cfg.NATS.Enabled {
		if a.components, err = eventprocessor.Setup(ctx, eventprocessor.SettingsFromConfig(cfg)); err != nil {
			return nil, fmt.Errorf("nats: %w", err)
		}
		s := a.components.Settings
		sinks = append(sinks, notify.NewNATSPublisher(a.components.Publisher, s.ConsensusSubject))
		changes = eventprocessor.NewTallyPublisher(a.components.Publisher, s.TallySubject)
		checks = append(checks, api.HealthCheck{Name: "nats", Check: func(context.Context) error {
			return a.components.Healthy()
		}})
	} else {
		// Without a stream the relay is not running, so notify local
		// listeners directly.
		sinks = append(sinks, notify.NewHubPublisher(hub))
	}

	detector := consensus.NewDetector(a.store, a.store, sinks)

	handler := api.NewHandler(api.Deps{
		Content:        content,
		Batches:        content,
		Events:         detector,
		Groups:         a.store,
		Changes:        changes,
		Breaker:        breaker,
		Hub:            hub,
		Checks:         checks,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(cfg.Server))
	a.handler = api.NewRouter(handler, mw, cfg.Server.Timeout).Setup()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	a.tree = supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	a.tree.AddData(store.NewGCService(a.store, cfg.Store.GCInterval))
	a.tree.AddMessaging(services.NewWebSocketHubService(hub))
	if a.components != nil {
		s := a.components.Settings
		a.tree.AddMessaging(eventprocessor.NewBatchConsumer(a.components.TallySubscriber, detector, s.Batch))
		a.tree.AddMessaging(websocket.NewRelay(hub, a.components.RelaySubscriber, s.ConsensusSubject))
	}
	a.tree.AddAPI(services.NewHTTPServerService(server, addr, 10*time.Second))

	return a, nil
}

// Close releases NATS before the store so in-flight acks still see it.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.components != nil {
		if err := a.components.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("nats: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	return errors.Join(errs...)
}
