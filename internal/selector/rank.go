// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package selector

import (
	"math/rand/v2"
	"slices"

	"github.com/tomtom215/trinity/internal/models"
)

// ShuffleFunc reorders a tier in place.
type ShuffleFunc func([]models.CandidateItem)

// RandomShuffle is the production ShuffleFunc.
func RandomShuffle(items []models.CandidateItem) {
	rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
}

// NoShuffle keeps upstream order; used by tests.
func NoShuffle([]models.CandidateItem) {}

// Rank concatenates pools in priority order, shuffling inside each pool, and
// stops at target items. An id already taken from an earlier pool is skipped.
// Pools are not modified.
func Rank(pools [][]models.CandidateItem, target int, shuffle ShuffleFunc) []models.CandidateItem {
	if target <= 0 {
		return []models.CandidateItem{}
	}
	if shuffle == nil {
		shuffle = NoShuffle
	}

	out := make([]models.CandidateItem, 0, target)
	taken := make(map[string]struct{}, target)
	for _, pool := range pools {
		if len(out) == target {
			break
		}
		tier := slices.Clone(pool)
		shuffle(tier)
		for _, item := range tier {
			if _, dup := taken[item.ExternalID]; dup {
				continue
			}
			taken[item.ExternalID] = struct{}{}
			out = append(out, item)
			if len(out) == target {
				break
			}
		}
	}
	return out
}
