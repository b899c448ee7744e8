// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package metrics holds the Prometheus instrumentation for Trinity. All
// collectors register with the default registry through promauto and are
// exposed by the API on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Consensus detector
	ConsensusOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consensus_events_total",
			Help: "Change events processed by the consensus detector, by outcome",
		},
		[]string{"outcome"}, // skipped, malformed, already-processed, consensus-pending, consensus-triggered, failed
	)

	ConsensusBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consensus_batch_duration_seconds",
			Help:    "Time to process one change-event batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	ConsensusBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consensus_batch_size",
			Help:    "Number of events per processed batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consensus_notifications_total",
			Help: "Consensus notifications by sink and result",
		},
		[]string{"sink", "result"}, // result: success, failure
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Calls through the circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Catalog client
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Upstream catalog request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"media_type", "status"},
	)

	// Selector
	SelectorItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_items_total",
			Help: "Candidate items returned by the selector, by tier",
		},
		[]string{"tier"},
	)

	SelectorFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selector_filtered_total",
			Help: "Raw catalog items dropped by content filters, by reason",
		},
		[]string{"reason"}, // excluded, language, overview, adult, duplicate
	)

	SelectorFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selector_fallbacks_total",
			Help: "Selections that used built-in default items",
		},
	)

	// Content cache
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_cache_requests_total",
			Help: "Content batch lookups by result",
		},
		[]string{"result"}, // hit, miss, expired, insufficient, store_error
	)

	CacheRefills = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_refills_total",
			Help: "Upstream refills performed by the content cache",
		},
	)

	CacheCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "content_cache_coalesced_total",
			Help: "Requests that shared another caller's in-flight refill",
		},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Active consensus listener connections",
		},
	)
)

// RecordConsensusOutcome counts one processed change event.
func RecordConsensusOutcome(outcome string) {
	ConsensusOutcomes.WithLabelValues(outcome).Inc()
}

// RecordConsensusBatch observes a completed batch.
func RecordConsensusBatch(size int, duration time.Duration) {
	ConsensusBatchSize.Observe(float64(size))
	ConsensusBatchDuration.Observe(duration.Seconds())
}

// RecordNotification counts one delivery attempt to a sink.
func RecordNotification(sink string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	NotificationsTotal.WithLabelValues(sink, result).Inc()
}

// RecordCatalogRequest observes one upstream request. status is the HTTP
// status code, or 0 for transport errors.
func RecordCatalogRequest(mediaType string, status int, duration time.Duration) {
	label := strconv.Itoa(status)
	if status == 0 {
		label = "error"
	}
	CatalogRequestDuration.WithLabelValues(mediaType, label).Observe(duration.Seconds())
}

// RecordSelectorItems counts returned items for a tier.
func RecordSelectorItems(tier, count int) {
	if count > 0 {
		SelectorItems.WithLabelValues(strconv.Itoa(tier)).Add(float64(count))
	}
}

// RecordSelectorFiltered counts one raw item dropped for reason.
func RecordSelectorFiltered(reason string) {
	SelectorFiltered.WithLabelValues(reason).Inc()
}

// RecordCacheRequest counts one cache lookup.
func RecordCacheRequest(result string) {
	CacheRequests.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
