// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package config loads Trinity configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration marks configuration that is missing or invalid. The
// process must not start when Load returns it.
var ErrConfiguration = errors.New("configuration failure")

// Config is the root configuration.
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Selector  SelectorConfig  `koanf:"selector"`
	Cache     CacheConfig     `koanf:"cache"`
	Consensus ConsensusConfig `koanf:"consensus"`
	NATS      NATSConfig      `koanf:"nats"`
	Store     StoreConfig     `koanf:"store"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// CatalogConfig describes the upstream TMDB-compatible catalog.
type CatalogConfig struct {
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"` // required
	Language string `koanf:"language"`

	// Timeout bounds a single upstream request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst shape the client-side token bucket.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// BreakerConfig controls the catalog circuit breaker.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	CoolDown         time.Duration `koanf:"cool_down"`
	CallTimeout      time.Duration `koanf:"call_timeout"`
}

// SelectorConfig holds the content filter and pagination rules.
type SelectorConfig struct {
	MaxPages          int      `koanf:"max_pages"`
	MinOverviewLength int      `koanf:"min_overview_length"`
	AllowedLanguages  []string `koanf:"allowed_languages"`
}

// CacheConfig controls per-group content batches.
type CacheConfig struct {
	TTL       time.Duration `koanf:"ttl"`
	BatchSize int           `koanf:"batch_size"`
	MaxCount  int           `koanf:"max_count"`
}

// ConsensusConfig controls the change-event batch consumer.
type ConsensusConfig struct {
	BatchSize int           `koanf:"batch_size"`
	Linger    time.Duration `koanf:"linger"`
}

// NATSConfig configures the change stream and notification topics.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`

	StreamName       string        `koanf:"stream_name"`
	TallySubject     string        `koanf:"tally_subject"`
	ConsensusSubject string        `koanf:"consensus_subject"`
	StreamMaxAge     time.Duration `koanf:"stream_max_age"`

	DurableName string        `koanf:"durable_name"`
	QueueGroup  string        `koanf:"queue_group"`
	AckWait     time.Duration `koanf:"ack_wait"`
	MaxDeliver  int           `koanf:"max_deliver"`

	// Subscribers is the number of concurrent deliveries the tally consumer
	// accepts, which bounds its batch size.
	Subscribers int `koanf:"subscribers"`
}

// StoreConfig points at the badger directory.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// GroupContentPerMinute limits content requests per group.
	GroupContentPerMinute int `koanf:"group_content_per_minute"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
