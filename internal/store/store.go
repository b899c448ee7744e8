// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package store is the durable key-value layer, backed by BadgerDB.
//
// Every state change that must not happen twice is a read-check-write inside
// one badger transaction. Badger's serializable snapshot isolation rejects
// the later of two conflicting commits with badger.ErrConflict; callers here
// retry, re-read the now-current value and fail the precondition cleanly.
// That conditional write is the only concurrency control in the system.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/logging"
)

var (
	ErrGroupNotFound     = errors.New("group not found")
	ErrGroupExists       = errors.New("group already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateVote     = errors.New("voter already voted on this item")
	ErrInvalidVote       = errors.New("invalid vote")
	ErrTooManyConflicts  = errors.New("transaction conflict retries exhausted")
)

const (
	groupPrefix = "group/"
	tallyPrefix = "tally/"
	votePrefix  = "vote/"
	batchPrefix = "batch/"

	maxConflictRetries = 8
)

// Options configures Open.
type Options struct {
	Path     string
	InMemory bool
}

// Store wraps a badger database. It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the database.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{}).WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// New wraps an already open database, e.g. one shared with other components.
func New(db *badger.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database closed")
	}
	return nil
}

// DB exposes the underlying handle for maintenance tasks.
func (s *Store) DB() *badger.DB { return s.db }

// key joins escaped parts so ids may contain the separator.
func key(prefix string, parts ...string) []byte {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return []byte(prefix + strings.Join(escaped, "/"))
}

// update runs fn in a read-write transaction and retries on conflict. fn
// must be safe to run more than once.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		logging.Debug().Int("attempt", attempt+1).Msg("badger transaction conflict, retrying")
	}
	return ErrTooManyConflicts
}

// getJSON reads key into v; it returns badger.ErrKeyNotFound when absent.
func getJSON(txn *badger.Txn, k []byte, v any) error {
	item, err := txn.Get(k)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, k []byte, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", k, err)
	}
	e := badger.NewEntry(k, data)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return txn.SetEntry(e)
}

// badgerLogger routes badger's logs through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any) {
	logging.Error().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Warningf(f string, v ...any) {
	logging.Warn().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(f string, v ...any) {
	logging.Info().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Debugf(f string, v ...any) {
	logging.Debug().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
