// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package contentcache serves candidate items from per-group batches so a
// voting session does not hit the catalog on every swipe.
//
// A batch is keyed by (group, filter signature). Requests are served from
// the batch cursor until it runs short or the batch ages past its TTL; the
// batch is then replaced by a fresh selection. Refills for one key are
// coalesced with singleflight, refills for different keys run in parallel.
package contentcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/selector"
	"github.com/tomtom215/trinity/internal/store"
)

// BatchStore persists batches. *store.Store satisfies it.
type BatchStore interface {
	ConsumeBatch(ctx context.Context, groupID, sigKey string, count int,
		exclude map[string]struct{}, now time.Time, ttl time.Duration) ([]models.CandidateItem, error)
	ConsumeAvailable(ctx context.Context, groupID, sigKey string, count int,
		exclude map[string]struct{}, now time.Time, ttl time.Duration) ([]models.CandidateItem, error)
	SaveBatch(ctx context.Context, batch *models.CachedContentBatch, ttl time.Duration) error
	LoadBatch(ctx context.Context, groupID, sigKey string) (*models.CachedContentBatch, error)
	DeleteBatch(ctx context.Context, groupID, sigKey string) error
}

// Selector produces fresh candidates. *selector.Selector satisfies it.
type Selector interface {
	Select(ctx context.Context, req selector.Request) []models.CandidateItem
}

// Config controls batch sizing and expiry.
type Config struct {
	TTL           time.Duration
	BatchSize     int
	RefillTimeout time.Duration
}

// DefaultConfig returns a 6h TTL and 30 item batches.
func DefaultConfig() Config {
	return Config{TTL: 6 * time.Hour, BatchSize: 30, RefillTimeout: 20 * time.Second}
}

// Cache is safe for concurrent use.
type Cache struct {
	store    BatchStore
	selector Selector
	cfg      Config
	flight   singleflight.Group
	now      func() time.Time
}

// New builds a Cache.
func New(bs BatchStore, sel Selector, cfg Config) *Cache {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 30
	}
	if cfg.RefillTimeout <= 0 {
		cfg.RefillTimeout = 20 * time.Second
	}
	return &Cache{store: bs, selector: sel, cfg: cfg, now: time.Now}
}

// GetBatch serves count items for the group, never repeating an excluded id.
// The error is non-nil only when ctx ends while waiting on a refill.
func (c *Cache) GetBatch(ctx context.Context, groupID string, sig models.FilterSignature,
	excludeIDs []string, count int) ([]models.CandidateItem, error) {
	if count <= 0 {
		return []models.CandidateItem{}, nil
	}
	log := logging.Ctx(ctx).With().Str("group_id", groupID).Str("signature", sig.Key()).Logger()
	exclude := toSet(excludeIDs)

	items, err := c.store.ConsumeBatch(ctx, groupID, sig.Key(), count, exclude, c.now(), c.cfg.TTL)
	switch {
	case err == nil:
		metrics.RecordCacheRequest("hit")
		return items, nil
	case errors.Is(err, store.ErrBatchNotFound), errors.Is(err, store.ErrBatchInsufficient):
		metrics.RecordCacheRequest("miss")
		log.Debug().Err(err).Msg("content batch miss")
	default:
		metrics.RecordCacheRequest("degraded")
		log.Warn().Err(err).Msg("batch store unavailable, selecting directly")
		return c.selectDirect(ctx, sig, excludeIDs, count), nil
	}

	batch, shared, err := c.refill(ctx, groupID, sig, excludeIDs, count)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The selection is usable even if saving it failed, but callers that
		// shared it would all serve the same items.
		log.Warn().Err(err).Msg("content batch refill not persisted")
		if batch == nil || shared {
			return c.selectDirect(ctx, sig, excludeIDs, count), nil
		}
		return pick(batch.Items, exclude, count), nil
	}

	items, err = c.store.ConsumeBatch(ctx, groupID, sig.Key(), count, exclude, c.now(), c.cfg.TTL)
	if err == nil {
		return items, nil
	}
	served, err := c.store.ConsumeAvailable(ctx, groupID, sig.Key(), count, exclude, c.now(), c.cfg.TTL)
	if err != nil {
		log.Warn().Err(err).Msg("fresh content batch unreadable")
		if shared {
			return c.selectDirect(ctx, sig, excludeIDs, count), nil
		}
		return pick(batch.Items, exclude, count), nil
	}
	if len(served) == count || !shared {
		// Without a shared refill a short batch means the selection itself
		// came up short.
		log.Debug().Int("selected", len(batch.Items)).Int("served", len(served)).Msg("serving short content batch")
		return served, nil
	}

	// The callers that shared the refill drained it. Refill once more
	// without anything the shared selection offered.
	log.Debug().Int("served", len(served)).Int("wanted", count).Msg("shared content batch drained, refilling again")
	more, err := c.topUp(ctx, groupID, sig, excludeIDs, batch.Items, count-len(served))
	if err != nil {
		return nil, err
	}
	return append(served, more...), nil
}

// topUp serves want items from a second refill that excludes every item of
// the drained batch.
func (c *Cache) topUp(ctx context.Context, groupID string, sig models.FilterSignature,
	excludeIDs []string, drained []models.CandidateItem, want int) ([]models.CandidateItem, error) {
	seen := make([]string, 0, len(excludeIDs)+len(drained))
	seen = append(seen, excludeIDs...)
	for _, it := range drained {
		seen = append(seen, it.ExternalID)
	}
	exclude := toSet(seen)

	next, _, err := c.refill(ctx, groupID, sig, seen, want)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logging.Ctx(ctx).Warn().Err(err).Str("group_id", groupID).Msg("content batch top-up not persisted")
		return c.selectDirect(ctx, sig, seen, want), nil
	}
	items, err := c.store.ConsumeAvailable(ctx, groupID, sig.Key(), want, exclude, c.now(), c.cfg.TTL)
	if err != nil {
		return pick(next.Items, exclude, want), nil
	}
	return items, nil
}

// refill replaces the stored batch. Concurrent callers for the same key wait
// for one selection and shared reports whether this caller was one of
// several. The selection runs detached from the caller's cancellation so one
// departing caller does not fail the others.
func (c *Cache) refill(ctx context.Context, groupID string, sig models.FilterSignature,
	excludeIDs []string, count int) (batch *models.CachedContentBatch, shared bool, err error) {
	size := max(count, c.cfg.BatchSize)
	flightKey := groupID + "|" + sig.Key()

	ch := c.flight.DoChan(flightKey, func() (any, error) {
		metrics.CacheRefills.Inc()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefillTimeout)
		defer cancel()

		items := c.selector.Select(rctx, selector.Request{
			MediaType:   sig.MediaType,
			GenreIDs:    sig.GenreIDs,
			ExcludeIDs:  excludeIDs,
			TargetCount: size,
		})
		batch := &models.CachedContentBatch{
			GroupID:   groupID,
			Signature: sig,
			Items:     items,
			FetchedAt: c.now().UTC(),
		}
		return batch, c.store.SaveBatch(rctx, batch, c.cfg.TTL)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CacheCoalesced.Inc()
		}
		batch, _ = res.Val.(*models.CachedContentBatch)
		return batch, res.Shared, res.Err
	}
}

// ErrNoBatch reports that no live batch is stored for a key.
var ErrNoBatch = errors.New("no content batch")

// BatchStatus describes a stored batch without consuming from it.
type BatchStatus struct {
	GroupID   string    `json:"group_id"`
	Signature string    `json:"signature"`
	Size      int       `json:"size"`
	Remaining int       `json:"remaining"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Status reports the stored batch. Expired batches count as absent.
func (c *Cache) Status(ctx context.Context, groupID string, sig models.FilterSignature) (*BatchStatus, error) {
	b, err := c.store.LoadBatch(ctx, groupID, sig.Key())
	if errors.Is(err, store.ErrBatchNotFound) || (err == nil && b.Expired(c.now(), c.cfg.TTL)) {
		return nil, fmt.Errorf("%w for %s %s", ErrNoBatch, groupID, sig.Key())
	}
	if err != nil {
		return nil, err
	}
	return &BatchStatus{
		GroupID:   groupID,
		Signature: sig.Key(),
		Size:      len(b.Items),
		Remaining: b.Remaining(),
		FetchedAt: b.FetchedAt,
		ExpiresAt: b.FetchedAt.Add(c.cfg.TTL),
	}, nil
}

// Invalidate drops the stored batch so the next request refills.
func (c *Cache) Invalidate(ctx context.Context, groupID string, sig models.FilterSignature) error {
	if err := c.store.DeleteBatch(ctx, groupID, sig.Key()); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("group_id", groupID).Str("signature", sig.Key()).Msg("content batch invalidated")
	return nil
}

func (c *Cache) selectDirect(ctx context.Context, sig models.FilterSignature, excludeIDs []string, count int) []models.CandidateItem {
	return c.selector.Select(ctx, selector.Request{
		MediaType:   sig.MediaType,
		GenreIDs:    sig.GenreIDs,
		ExcludeIDs:  excludeIDs,
		TargetCount: count,
	})
}

func pick(items []models.CandidateItem, exclude map[string]struct{}, count int) []models.CandidateItem {
	out := make([]models.CandidateItem, 0, min(count, len(items)))
	for _, it := range items {
		if len(out) == count {
			break
		}
		if _, skip := exclude[it.ExternalID]; !skip {
			out = append(out, it)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
