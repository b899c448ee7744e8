// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MediaType selects the catalog the candidates come from.
type MediaType string

const (
	MediaMovie MediaType = "MOVIE"
	MediaTV    MediaType = "TV"
)

// ParseMediaType accepts MOVIE/TV in any case.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MOVIE", "MOVIES":
		return MediaMovie, nil
	case "TV", "SERIES":
		return MediaTV, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// Tier is the priority bucket an item was drawn from.
type Tier int

const (
	TierAllGenres Tier = 1 // every requested genre matched
	TierAnyGenre  Tier = 2 // at least one requested genre matched
	TierPopular   Tier = 3 // generic popular items and built-in defaults
)

// CandidateItem is a catalog entry that passed every content filter.
type CandidateItem struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Overview   string `json:"overview"`
	Genres     []int  `json:"genres"`
	PosterRef  string `json:"poster_ref"`
	Language   string `json:"language"`
	Tier       Tier   `json:"tier"`
	Synthetic  bool   `json:"synthetic,omitempty"` // built-in default, not from the catalog
}

// MaxSignatureGenres bounds the genre filter of a signature.
const MaxSignatureGenres = 2

// ErrInvalidSignature is returned for signatures that cannot be built.
var ErrInvalidSignature = errors.New("invalid filter signature")

// FilterSignature is the cache key derived from media type and genre set.
// Genres are kept sorted and unique, so equal sets give equal signatures.
type FilterSignature struct {
	MediaType MediaType `json:"media_type"`
	GenreIDs  []int     `json:"genre_ids"`
}

// NewFilterSignature normalizes genres and enforces the genre limit.
func NewFilterSignature(mediaType MediaType, genreIDs []int) (FilterSignature, error) {
	if mediaType != MediaMovie && mediaType != MediaTV {
		return FilterSignature{}, fmt.Errorf("%w: media type %q", ErrInvalidSignature, mediaType)
	}
	genres := slices.Clone(genreIDs)
	slices.Sort(genres)
	genres = slices.Compact(genres)
	if len(genres) > MaxSignatureGenres {
		return FilterSignature{}, fmt.Errorf("%w: %d genres, at most %d allowed",
			ErrInvalidSignature, len(genres), MaxSignatureGenres)
	}
	for _, g := range genres {
		if g <= 0 {
			return FilterSignature{}, fmt.Errorf("%w: genre id %d", ErrInvalidSignature, g)
		}
	}
	if genres == nil {
		genres = []int{}
	}
	return FilterSignature{MediaType: mediaType, GenreIDs: genres}, nil
}

// Key renders the signature as a stable string, e.g. "MOVIE:12,28".
func (s FilterSignature) Key() string {
	parts := make([]string, len(s.GenreIDs))
	for i, g := range s.GenreIDs {
		parts[i] = strconv.Itoa(g)
	}
	return string(s.MediaType) + ":" + strings.Join(parts, ",")
}

// Equal compares media type and genre sets.
func (s FilterSignature) Equal(o FilterSignature) bool {
	return s.MediaType == o.MediaType && slices.Equal(s.GenreIDs, o.GenreIDs)
}

// CachedContentBatch is the stored selection for one (group, signature).
// Items before ExhaustedIndex have already been served.
type CachedContentBatch struct {
	GroupID        string          `json:"group_id"`
	Signature      FilterSignature `json:"signature"`
	Items          []CandidateItem `json:"items"`
	FetchedAt      time.Time       `json:"fetched_at"`
	ExhaustedIndex int             `json:"exhausted_index"`
}

// Remaining is the number of unserved items.
func (b *CachedContentBatch) Remaining() int {
	if b.ExhaustedIndex >= len(b.Items) {
		return 0
	}
	return len(b.Items) - b.ExhaustedIndex
}

// Expired reports whether the batch is older than ttl at now.
func (b *CachedContentBatch) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(b.FetchedAt) >= ttl
}

// Take serves count unserved items, skipping excluded ids, and advances the
// cursor past everything it looked at. When fewer than count items are left
// the batch is unchanged and ok is false.
func (b *CachedContentBatch) Take(count int, exclude map[string]struct{}) (items []CandidateItem, ok bool) {
	if count <= 0 {
		return []CandidateItem{}, true
	}
	items = make([]CandidateItem, 0, count)
	for i := b.ExhaustedIndex; i < len(b.Items); i++ {
		if _, skip := exclude[b.Items[i].ExternalID]; skip {
			continue
		}
		items = append(items, b.Items[i])
		if len(items) == count {
			b.ExhaustedIndex = i + 1
			return items, true
		}
	}
	return nil, false
}

// TakeAvailable serves up to count unserved items, skipping excluded ids,
// and advances the cursor past everything it looked at.
func (b *CachedContentBatch) TakeAvailable(count int, exclude map[string]struct{}) []CandidateItem {
	items := make([]CandidateItem, 0, max(count, 0))
	i := b.ExhaustedIndex
	for ; i < len(b.Items) && len(items) < count; i++ {
		if _, skip := exclude[b.Items[i].ExternalID]; skip {
			continue
		}
		items = append(items, b.Items[i])
	}
	b.ExhaustedIndex = max(i, b.ExhaustedIndex)
	return items
}
