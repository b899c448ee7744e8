// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trinity/internal/models"
)

// CreateGroup stores a new group in VOTING.
func (s *Store) CreateGroup(ctx context.Context, groupID string, memberCount int) (*models.GroupConsensusState, error) {
	if groupID == "" || memberCount < 1 {
		return nil, fmt.Errorf("create group: id required and member count must be positive")
	}
	now := s.now().UTC()
	state := &models.GroupConsensusState{
		GroupID:     groupID,
		MemberCount: memberCount,
		Status:      models.StatusVoting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	k := key(groupPrefix, groupID)
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err == nil {
			return ErrGroupExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, k, state, 0)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// GetGroup loads a group's consensus state.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.GroupConsensusState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var state models.GroupConsensusState
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key(groupPrefix, groupID), &state)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", groupID, err)
	}
	return &state, nil
}

// TransitionStatus moves a group from expected to next, setting the agreed
// item, only if the stored status still equals expected. It reports whether
// this call performed the transition. A false result with a nil error means
// another writer got there first.
func (s *Store) TransitionStatus(ctx context.Context, groupID string, expected, next models.GroupStatus, agreedItemID string) (bool, error) {
	if expected != models.StatusVoting || !next.Terminal() {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, next)
	}
	if next == models.StatusConsensusReached && agreedItemID == "" {
		return false, fmt.Errorf("%w: consensus requires an agreed item", ErrInvalidTransition)
	}

	k := key(groupPrefix, groupID)
	var swapped bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		swapped = false
		var state models.GroupConsensusState
		if err := getJSON(txn, k, &state); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		if state.Status != expected {
			return nil
		}
		state.Status = next
		if next == models.StatusConsensusReached {
			state.AgreedItemID = agreedItemID
		}
		state.UpdatedAt = s.now().UTC()
		swapped = true
		return setJSON(txn, k, &state, 0)
	})
	if err != nil {
		return false, err
	}
	return swapped, nil
}

// CancelGroup moves a VOTING group to CANCELLED.
func (s *Store) CancelGroup(ctx context.Context, groupID string) (bool, error) {
	return s.TransitionStatus(ctx, groupID, models.StatusVoting, models.StatusCancelled, "")
}
