// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/trinity/internal/middleware"
)

// Router binds the handler to chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	timeout       time.Duration
}

// NewRouter builds a Router. timeout bounds every non-websocket request;
// 0 means 30s.
func NewRouter(handler *Handler, mw *ChiMiddleware, timeout time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Router{handler: handler, chiMiddleware: mw, timeout: timeout}
}

// Setup returns the complete HTTP handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		timeout := chimiddleware.Timeout(router.timeout)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			// Long-lived; no request timeout.
			r.Get("/ws", router.handler.GroupWebSocket)

			r.With(timeout).Get("/", router.handler.GetGroup)
			r.With(timeout, router.chiMiddleware.RateLimitGroup()).Post("/content", router.handler.GroupContent)
			r.With(timeout).Post("/votes", router.handler.RecordVote)
		})

		r.With(timeout).Post("/events/tally", router.handler.ProcessTallyBatch)

		r.Route("/admin", func(r chi.Router) {
			r.Use(timeout)
			r.Post("/groups", router.handler.CreateGroup)
			r.Get("/groups/{groupID}/content", router.handler.ContentBatchStatus)
			r.Delete("/groups/{groupID}/content", router.handler.ContentBatchInvalidate)
			r.Get("/circuit-breaker", router.handler.CircuitBreakerStatus)
			r.Post("/circuit-breaker/reset", router.handler.CircuitBreakerReset)
		})
	})

	return r
}
