// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/models"
)

// ErrBatchNotFound is returned by LoadBatch for absent or expired batches.
var ErrBatchNotFound = errors.New("content batch not found")

func batchKey(groupID, sigKey string) []byte {
	return key(batchPrefix, groupID, sigKey)
}

// SaveBatch replaces the batch for its (group, signature). Badger drops the
// entry once ttl elapses.
func (s *Store) SaveBatch(ctx context.Context, batch *models.CachedContentBatch, ttl time.Duration) error {
	k := batchKey(batch.GroupID, batch.Signature.Key())
	return s.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, k, batch, ttl)
	})
}

// LoadBatch reads a batch without changing it.
func (s *Store) LoadBatch(ctx context.Context, groupID, sigKey string) (*models.CachedContentBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var batch models.CachedContentBatch
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, batchKey(groupID, sigKey), &batch)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	return &batch, nil
}

// UpdateBatch reads the batch (nil when absent), lets fn modify it and writes
// it back if fn reports a change, all in one transaction. The remaining TTL
// of the entry is kept. fn may run more than once on conflict.
func (s *Store) UpdateBatch(ctx context.Context, groupID, sigKey string,
	fn func(*models.CachedContentBatch) (bool, error)) error {
	k := batchKey(groupID, sigKey)
	return s.update(ctx, func(txn *badger.Txn) error {
		var (
			batch *models.CachedContentBatch
			ttl   time.Duration
		)
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			batch = &models.CachedContentBatch{}
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, batch) }); err != nil {
				return err
			}
			if exp := item.ExpiresAt(); exp > 0 {
				ttl = time.Until(time.Unix(int64(exp), 0))
				if ttl <= 0 {
					batch = nil // expired between read and write
				}
			}
		}

		changed, err := fn(batch)
		if err != nil || !changed || batch == nil {
			return err
		}
		return setJSON(txn, k, batch, ttl)
	})
}

// DeleteBatch removes a batch; absent batches are not an error.
func (s *Store) DeleteBatch(ctx context.Context, groupID, sigKey string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		err := txn.Delete(batchKey(groupID, sigKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// ErrBatchInsufficient is returned by ConsumeBatch when a fresh batch has
// fewer than the requested number of servable items.
var ErrBatchInsufficient = errors.New("content batch has too few items left")

// ConsumeBatch atomically serves count items from the stored batch and
// advances its cursor. Batches older than ttl at now count as absent.
func (s *Store) ConsumeBatch(ctx context.Context, groupID, sigKey string, count int,
	exclude map[string]struct{}, now time.Time, ttl time.Duration) ([]models.CandidateItem, error) {
	var served []models.CandidateItem
	err := s.UpdateBatch(ctx, groupID, sigKey, func(b *models.CachedContentBatch) (bool, error) {
		served = nil
		if b == nil || b.Expired(now, ttl) {
			return false, ErrBatchNotFound
		}
		items, ok := b.Take(count, exclude)
		if !ok {
			return false, ErrBatchInsufficient
		}
		served = items
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return served, nil
}

// ConsumeAvailable is ConsumeBatch for a batch that may run short: it serves
// whatever is left, up to count, and never reports ErrBatchInsufficient.
func (s *Store) ConsumeAvailable(ctx context.Context, groupID, sigKey string, count int,
	exclude map[string]struct{}, now time.Time, ttl time.Duration) ([]models.CandidateItem, error) {
	var served []models.CandidateItem
	err := s.UpdateBatch(ctx, groupID, sigKey, func(b *models.CachedContentBatch) (bool, error) {
		served = nil
		if b == nil || b.Expired(now, ttl) {
			return false, ErrBatchNotFound
		}
		before := b.ExhaustedIndex
		served = b.TakeAvailable(count, exclude)
		return b.ExhaustedIndex != before, nil
	})
	if err != nil {
		return nil, err
	}
	return served, nil
}
