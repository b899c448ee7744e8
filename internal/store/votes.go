// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/trinity/internal/models"
)

// RecordVote writes an immutable vote and bumps the item's tally in one
// transaction. The returned change event carries the tally before and after.
func (s *Store) RecordVote(ctx context.Context, vote models.VoteRecord) (models.ChangeEvent, error) {
	if vote.GroupID == "" || vote.ItemID == "" || vote.VoterID == "" || !vote.Choice.Valid() {
		return models.ChangeEvent{}, fmt.Errorf("%w: %+v", ErrInvalidVote, vote)
	}
	if vote.VotedAt.IsZero() {
		vote.VotedAt = s.now().UTC()
	}

	voteKey := key(votePrefix, vote.GroupID, vote.ItemID, vote.VoterID)
	tallyKey := key(tallyPrefix, vote.GroupID, vote.ItemID)

	var event models.ChangeEvent
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(voteKey); err == nil {
			return ErrDuplicateVote
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		tally := models.VoteTally{GroupID: vote.GroupID, ItemID: vote.ItemID}
		if err := getJSON(txn, tallyKey, &tally); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		old := tally.Image()

		switch vote.Choice {
		case models.ChoiceYes:
			tally.YesCount++
		case models.ChoiceNo:
			tally.NoCount++
		case models.ChoiceSkip:
			tally.SkipCount++
		}
		tally.UpdatedAt = vote.VotedAt

		if err := setJSON(txn, voteKey, &vote, 0); err != nil {
			return err
		}
		if err := setJSON(txn, tallyKey, &tally, 0); err != nil {
			return err
		}
		event = models.ChangeEvent{
			EventID:    uuid.NewString(),
			EntityKind: models.EntityKindVoteTally,
			GroupID:    vote.GroupID,
			ItemID:     vote.ItemID,
			NewImage:   tally.Image(),
			OldImage:   old,
		}
		return nil
	})
	if err != nil {
		return models.ChangeEvent{}, err
	}
	return event, nil
}

// GetTally returns the tally for an item; an item without votes has a zero tally.
func (s *Store) GetTally(ctx context.Context, groupID, itemID string) (*models.VoteTally, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tally := models.VoteTally{GroupID: groupID, ItemID: itemID}
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key(tallyPrefix, groupID, itemID), &tally)
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("get tally: %w", err)
	}
	return &tally, nil
}

// YesVoters lists, sorted, the voters who voted YES on an item.
func (s *Store) YesVoters(ctx context.Context, groupID, itemID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := append(key(votePrefix, groupID, itemID), '/')
	voters := []string{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 32, Prefix: prefix})
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var v models.VoteRecord
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
				return err
			}
			if v.Choice == models.ChoiceYes {
				voters = append(voters, v.VoterID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list yes voters: %w", err)
	}
	sort.Strings(voters)
	return voters, nil
}
