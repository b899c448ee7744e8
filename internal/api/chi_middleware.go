// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/middleware"
)

// ChiMiddlewareConfig holds CORS and rate limit settings.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// GroupContentPerMinute limits content requests per group id; 0 disables.
	GroupContentPerMinute int
}

// DefaultChiMiddlewareConfig allows no cross-origin callers until origins are
// configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:    []string{},
		CORSAllowedMethods:    []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders:    []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:            86400,
		RateLimitRequests:     100,
		RateLimitWindow:       time.Minute,
		GroupContentPerMinute: 30,
	}
}

// ChiMiddlewareConfigFromServer maps the server config section.
func ChiMiddlewareConfigFromServer(s config.ServerConfig) *ChiMiddlewareConfig {
	c := DefaultChiMiddlewareConfig()
	if s.CORSOrigins != nil {
		c.CORSAllowedOrigins = s.CORSOrigins
	}
	if s.RateLimitReqs > 0 {
		c.RateLimitRequests = s.RateLimitReqs
	} else {
		c.RateLimitDisabled = true
	}
	if s.RateLimitWindow > 0 {
		c.RateLimitWindow = s.RateLimitWindow
	}
	c.GroupContentPerMinute = s.GroupContentPerMinute
	return c
}

// ChiMiddleware builds the configured middleware once.
type ChiMiddleware struct {
	config       *ChiMiddlewareConfig
	cors         func(http.Handler) http.Handler
	groupLimiter func(http.Handler) http.Handler
}

// NewChiMiddleware uses the defaults when config is nil.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	groupLimiter := func(next http.Handler) http.Handler { return next }
	if config.GroupContentPerMinute > 0 {
		groupLimiter = httprate.Limit(
			config.GroupContentPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(groupKey),
			httprate.WithLimitHandler(rateLimited),
		)
	}
	return &ChiMiddleware{
		config: config,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: config.CORSAllowedOrigins,
			AllowedMethods: config.CORSAllowedMethods,
			AllowedHeaders: config.CORSAllowedHeaders,
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         config.CORSMaxAge,
		}),
		groupLimiter: groupLimiter,
	}
}

// CORS is global so OPTIONS preflight reaches it before routing.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits per client IP.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

// RateLimitGroup limits content requests per group. The limiter is shared
// by every route it wraps.
func (m *ChiMiddleware) RateLimitGroup() func(http.Handler) http.Handler {
	return m.groupLimiter
}

func groupKey(r *http.Request) (string, error) {
	return "group:" + chi.URLParam(r, "groupID"), nil
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
}

// APISecurityHeaders sets the headers every JSON response carries.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
