// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trinity/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults returns the built-in configuration without reading any source.
// The catalog API key is empty, so the result does not pass Validate.
func Defaults() *Config { return defaultConfig() }

func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Language:          "en-US",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             10,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			CoolDown:         30 * time.Second,
			CallTimeout:      5 * time.Second,
		},
		Selector: SelectorConfig{
			MaxPages:          5,
			MinOverviewLength: 20,
			AllowedLanguages:  []string{"en", "es", "fr", "it", "de", "pt", "ja", "ko"},
		},
		Cache: CacheConfig{
			TTL:       6 * time.Hour,
			BatchSize: 30,
			MaxCount:  50,
		},
		Consensus: ConsensusConfig{
			BatchSize: 100,
		},
		NATS: NATSConfig{
			Enabled:          true,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   true,
			StoreDir:         "/data/nats/jetstream",
			StreamName:       "VOTE_TALLY",
			TallySubject:     "vote_tally.changes",
			ConsensusSubject: "consensus.reached",
			StreamMaxAge:     24 * time.Hour,
			DurableName:      "consensus-detector",
			QueueGroup:       "detectors",
			AckWait:          30 * time.Second,
			MaxDeliver:       5,
			Subscribers:      16,
		},
		Store: StoreConfig{
			Path:       "/data/trinity",
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Host:                  "0.0.0.0",
			Port:                  8080,
			Timeout:               30 * time.Second,
			CORSOrigins:           []string{"*"},
			RateLimitReqs:         100,
			RateLimitWindow:       time.Minute,
			GroupContentPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// sliceConfigPaths are split on commas when they arrive as env strings.
var sliceConfigPaths = []string{
	"selector.allowed_languages",
	"server.cors_origins",
}

// envMappings maps lowercased environment names to koanf paths. Unmapped
// variables are ignored.
var envMappings = map[string]string{
	"tmdb_base_url":            "catalog.base_url",
	"tmdb_api_key":             "catalog.api_key",
	"tmdb_language":            "catalog.language",
	"tmdb_timeout":             "catalog.timeout",
	"tmdb_requests_per_second": "catalog.requests_per_second",
	"tmdb_burst":               "catalog.burst",

	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_cool_down":         "breaker.cool_down",
	"breaker_call_timeout":      "breaker.call_timeout",

	"selector_max_pages":           "selector.max_pages",
	"selector_min_overview_length": "selector.min_overview_length",
	"selector_allowed_languages":   "selector.allowed_languages",

	"cache_ttl":        "cache.ttl",
	"cache_batch_size": "cache.batch_size",
	"cache_max_count":  "cache.max_count",

	"consensus_batch_size": "consensus.batch_size",
	"consensus_linger":     "consensus.linger",

	"nats_enabled":           "nats.enabled",
	"nats_url":               "nats.url",
	"nats_embedded":          "nats.embedded_server",
	"nats_store_dir":         "nats.store_dir",
	"nats_stream_name":       "nats.stream_name",
	"nats_tally_subject":     "nats.tally_subject",
	"nats_consensus_subject": "nats.consensus_subject",
	"nats_stream_max_age":    "nats.stream_max_age",
	"nats_durable_name":      "nats.durable_name",
	"nats_queue_group":       "nats.queue_group",
	"nats_ack_wait":          "nats.ack_wait",
	"nats_max_deliver":       "nats.max_deliver",
	"nats_subscribers":       "nats.subscribers",

	"store_path":        "store.path",
	"store_in_memory":   "store.in_memory",
	"store_gc_interval": "store.gc_interval",

	"http_host":                "server.host",
	"http_port":                "server.port",
	"http_timeout":             "server.timeout",
	"cors_origins":             "server.cors_origins",
	"rate_limit_reqs":          "server.rate_limit_reqs",
	"rate_limit_window":        "server.rate_limit_window",
	"group_content_per_minute": "server.group_content_per_minute",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load builds the configuration: struct defaults, then the config file,
// then environment variables. Any validation problem wraps ErrConfiguration.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
