// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trinity/internal/logging"
)

// GCService periodically reclaims badger value-log space. It implements
// suture.Service.
type GCService struct {
	db           *badger.DB
	interval     time.Duration
	discardRatio float64
}

// NewGCService returns a GC loop for s. An interval <= 0 means 5 minutes.
func NewGCService(s *Store, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GCService{db: s.db, interval: interval, discardRatio: 0.5}
}

// Serve runs until ctx is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.RunOnce(); err != nil {
				if errors.Is(err, badger.ErrGCInMemoryMode) {
					logging.Debug().Msg("badger in-memory mode, value log GC disabled")
					<-ctx.Done()
					return ctx.Err()
				}
				logging.Warn().Err(err).Msg("badger value log GC failed")
			}
		}
	}
}

// RunOnce rewrites value-log files until badger reports nothing to collect.
func (g *GCService) RunOnce() error {
	rewrites := 0
	for {
		err := g.db.RunValueLogGC(g.discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return err
		}
		rewrites++
	}
	if rewrites > 0 {
		logging.Debug().Int("rewrites", rewrites).Msg("badger value log GC complete")
	}
	return nil
}

// String implements fmt.Stringer for suture logs.
func (g *GCService) String() string { return "badger-gc" }
