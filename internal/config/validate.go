// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/trinity/internal/logging"
)

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateSelector(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateConsensus(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCatalog() error {
	if strings.TrimSpace(c.Catalog.APIKey) == "" {
		return fmt.Errorf("TMDB_API_KEY is required")
	}
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TMDB_BASE_URL must be an absolute URL, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("TMDB_TIMEOUT must be positive")
	}
	if c.Catalog.RequestsPerSecond <= 0 || c.Catalog.Burst < 1 {
		return fmt.Errorf("TMDB_REQUESTS_PER_SECOND must be positive and TMDB_BURST at least 1")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Breaker.CoolDown <= 0 {
		return fmt.Errorf("BREAKER_COOL_DOWN must be positive")
	}
	if c.Breaker.CallTimeout <= 0 {
		return fmt.Errorf("BREAKER_CALL_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSelector() error {
	if c.Selector.MaxPages < 1 {
		return fmt.Errorf("SELECTOR_MAX_PAGES must be at least 1")
	}
	if c.Selector.MinOverviewLength < 0 {
		return fmt.Errorf("SELECTOR_MIN_OVERVIEW_LENGTH cannot be negative")
	}
	if len(c.Selector.AllowedLanguages) == 0 {
		return fmt.Errorf("SELECTOR_ALLOWED_LANGUAGES must list at least one language")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.BatchSize < 1 {
		return fmt.Errorf("CACHE_BATCH_SIZE must be at least 1")
	}
	if c.Cache.MaxCount < 1 || c.Cache.MaxCount > 100 {
		return fmt.Errorf("CACHE_MAX_COUNT must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateConsensus() error {
	if c.Consensus.BatchSize < 1 {
		return fmt.Errorf("CONSENSUS_BATCH_SIZE must be at least 1")
	}
	if c.Consensus.Linger < 0 {
		return fmt.Errorf("CONSENSUS_LINGER must not be negative")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.NATS.StreamName == "" || c.NATS.TallySubject == "" || c.NATS.ConsensusSubject == "" {
		return fmt.Errorf("NATS_STREAM_NAME, NATS_TALLY_SUBJECT and NATS_CONSENSUS_SUBJECT are required")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	if c.NATS.Subscribers < 1 || c.NATS.Subscribers > 1000 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 1000")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 || c.Server.GroupContentPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_REQS and GROUP_CONTENT_PER_MINUTE cannot be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	}
	return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
}
