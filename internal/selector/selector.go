// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package selector turns catalog discover pages into tiered candidate lists.
//
// Tiers are filled strictly in order. Tier 1 holds items matching every
// requested genre, tier 2 items matching any of them, tier 3 generic popular
// items. Each tier is shuffled on its own and tiers are never interleaved.
// When the circuit breaker reports the catalog unavailable, selection stops
// calling upstream and tops the result up with built-in defaults. Select
// never fails.
package selector

import (
	"context"
	"slices"

	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/circuitbreaker"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// Config holds the selection rules.
type Config struct {
	MaxPages          int // page ceiling per tier
	MinOverviewLength int
	AllowedLanguages  []string
}

// DefaultConfig mirrors the config package defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages:          5,
		MinOverviewLength: 20,
		AllowedLanguages:  []string{"en", "es", "fr", "it", "de", "pt", "ja", "ko"},
	}
}

// Request is one selection.
type Request struct {
	MediaType   models.MediaType
	GenreIDs    []int
	ExcludeIDs  []string
	TargetCount int
}

// Breaker is the circuit breaker type guarding catalog pages.
type Breaker = circuitbreaker.Breaker[*catalog.Page]

// Selector is safe for concurrent use.
type Selector struct {
	catalog  catalog.Discoverer
	breaker  *Breaker
	cfg      Config
	base     Filter
	shuffle  ShuffleFunc
	defaults func(models.MediaType) []models.CandidateItem
}

// Option configures a Selector.
type Option func(*Selector)

// WithShuffle replaces the per-tier shuffle.
func WithShuffle(fn ShuffleFunc) Option {
	return func(s *Selector) {
		if fn != nil {
			s.shuffle = fn
		}
	}
}

// WithDefaults replaces the built-in fallback items.
func WithDefaults(fn func(models.MediaType) []models.CandidateItem) Option {
	return func(s *Selector) {
		if fn != nil {
			s.defaults = fn
		}
	}
}

// New builds a Selector. The breaker is owned by the caller so one instance
// can be shared and inspected per process.
func New(cat catalog.Discoverer, breaker *Breaker, cfg Config, opts ...Option) *Selector {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	s := &Selector{
		catalog:  cat,
		breaker:  breaker,
		cfg:      cfg,
		base:     NewFilter(cfg.MinOverviewLength, cfg.AllowedLanguages, nil),
		shuffle:  RandomShuffle,
		defaults: Defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tierQuery is one step of the selection plan.
type tierQuery struct {
	tier   models.Tier
	genres []int
	mode   catalog.GenreMode
}

// plan lists the tiers to try for a genre filter. Without genres only the
// popular tier applies; with one genre the any-match tier would repeat the
// all-match query, so it is skipped.
func plan(genres []int) []tierQuery {
	popular := tierQuery{tier: models.TierPopular}
	switch len(genres) {
	case 0:
		return []tierQuery{popular}
	case 1:
		return []tierQuery{{tier: models.TierAllGenres, genres: genres, mode: catalog.MatchAll}, popular}
	default:
		return []tierQuery{
			{tier: models.TierAllGenres, genres: genres, mode: catalog.MatchAll},
			{tier: models.TierAnyGenre, genres: genres, mode: catalog.MatchAny},
			popular,
		}
	}
}

// Select returns up to req.TargetCount candidates.
func (s *Selector) Select(ctx context.Context, req Request) []models.CandidateItem {
	if req.TargetCount <= 0 {
		return []models.CandidateItem{}
	}

	genres := slices.Clone(req.GenreIDs)
	slices.Sort(genres)
	genres = slices.Compact(genres)

	filter := s.base.WithExclusions(req.ExcludeIDs)
	seen := make(map[string]struct{})
	pools := make([][]models.CandidateItem, 0, 4)
	collected := 0
	fallback := false

	for _, tq := range plan(genres) {
		need := req.TargetCount - collected
		if need <= 0 {
			break
		}
		pool, ok := s.collect(ctx, req.MediaType, tq, need, filter, seen)
		pools = append(pools, pool)
		collected += len(pool)
		if !ok {
			fallback = true
			break
		}
	}

	if fallback {
		metrics.SelectorFallbacks.Inc()
		defaults := s.fallbackPool(req.MediaType, filter, seen)
		pools = append(pools, defaults)
		logging.Ctx(ctx).Warn().
			Str("media_type", string(req.MediaType)).
			Int("collected", collected).
			Int("defaults", len(defaults)).
			Msg("catalog unavailable, serving default items")
	}

	items := Rank(pools, req.TargetCount, s.shuffle)
	recordTiers(items)
	return items
}

// collect pages through one tier until need items are gathered, the page
// ceiling or the last upstream page is reached. ok is false when the breaker
// signalled fallback; the items gathered before that are still returned.
func (s *Selector) collect(ctx context.Context, mt models.MediaType, tq tierQuery, need int,
	filter Filter, seen map[string]struct{}) (pool []models.CandidateItem, ok bool) {
	for page := 1; page <= s.cfg.MaxPages; page++ {
		q := catalog.DiscoverQuery{MediaType: mt, GenreIDs: tq.genres, Mode: tq.mode, Page: page}
		res := s.breaker.Call(ctx, func(ctx context.Context) (*catalog.Page, error) {
			return s.catalog.Discover(ctx, q)
		})
		if res.Fallback {
			logging.Ctx(ctx).Debug().Err(res.Cause).Int("tier", int(tq.tier)).Int("page", page).
				Msg("catalog call short-circuited")
			return pool, false
		}
		if res.Value == nil || len(res.Value.Results) == 0 {
			return pool, true
		}

		for _, raw := range res.Value.Results {
			item, reason := filter.Materialize(raw, tq.tier)
			if reason == "" {
				if _, dup := seen[item.ExternalID]; dup {
					reason = RejectDuplicate
				}
			}
			if reason != "" {
				metrics.RecordSelectorFiltered(reason)
				continue
			}
			seen[item.ExternalID] = struct{}{}
			pool = append(pool, item)
		}

		if len(pool) >= need || page >= res.Value.TotalPages {
			break
		}
	}
	return pool, true
}

// fallbackPool filters the built-in defaults like catalog items.
func (s *Selector) fallbackPool(mt models.MediaType, filter Filter, seen map[string]struct{}) []models.CandidateItem {
	defaults := s.defaults(mt)
	out := make([]models.CandidateItem, 0, len(defaults))
	for _, item := range defaults {
		if _, dup := seen[item.ExternalID]; dup {
			continue
		}
		if filter.Check(item) != "" {
			continue
		}
		item.Tier = models.TierPopular
		item.Synthetic = true
		seen[item.ExternalID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func recordTiers(items []models.CandidateItem) {
	var counts [4]int
	for _, it := range items {
		if it.Tier >= models.TierAllGenres && it.Tier <= models.TierPopular {
			counts[it.Tier]++
		}
	}
	for tier := 1; tier <= 3; tier++ {
		metrics.RecordSelectorItems(tier, counts[tier])
	}
}
