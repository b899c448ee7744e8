// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package middleware provides the HTTP middleware shared by the API router.

All middleware use the chi signature func(http.Handler) http.Handler:

  - RequestID: X-Request-ID propagation plus request and correlation ids on
    the logging context
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request counter and latency histogram labelled by the
    chi route pattern, so path parameters do not explode cardinality

Order in the router:

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
