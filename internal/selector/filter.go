// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package selector

import (
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/models"
)

// Rejection reasons, also used as metric labels.
const (
	RejectExcluded  = "excluded"
	RejectLanguage  = "language"
	RejectOverview  = "overview"
	RejectAdult     = "adult"
	RejectDuplicate = "duplicate"
)

// Filter decides which catalog items may become candidates.
type Filter struct {
	MinOverviewLength int
	languages         map[string]struct{}
	exclude           map[string]struct{}
}

// NewFilter builds a filter. Language codes compare case-insensitively.
func NewFilter(minOverview int, allowedLanguages, excludeIDs []string) Filter {
	f := Filter{
		MinOverviewLength: minOverview,
		languages:         make(map[string]struct{}, len(allowedLanguages)),
		exclude:           make(map[string]struct{}, len(excludeIDs)),
	}
	for _, l := range allowedLanguages {
		f.languages[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	for _, id := range excludeIDs {
		f.exclude[strings.TrimSpace(id)] = struct{}{}
	}
	return f
}

// WithExclusions returns a copy of f that also rejects excludeIDs.
func (f Filter) WithExclusions(excludeIDs []string) Filter {
	out := NewFilter(f.MinOverviewLength, nil, excludeIDs)
	out.languages = f.languages
	for id := range f.exclude {
		out.exclude[id] = struct{}{}
	}
	return out
}

// Excluded reports whether id is on the exclusion list.
func (f Filter) Excluded(id string) bool {
	_, ok := f.exclude[id]
	return ok
}

// Check returns the rejection reason for a candidate, or "".
func (f Filter) Check(item models.CandidateItem) string {
	if f.Excluded(item.ExternalID) {
		return RejectExcluded
	}
	if _, ok := f.languages[strings.ToLower(item.Language)]; !ok {
		return RejectLanguage
	}
	if utf8.RuneCountInString(strings.TrimSpace(item.Overview)) < f.MinOverviewLength {
		return RejectOverview
	}
	return ""
}

// Materialize converts a raw catalog item into a candidate of the given tier.
// Items failing a filter are never materialized.
func (f Filter) Materialize(raw catalog.Item, tier models.Tier) (models.CandidateItem, string) {
	if raw.Adult {
		return models.CandidateItem{}, RejectAdult
	}
	item := models.CandidateItem{
		ExternalID: strconv.FormatInt(raw.ID, 10),
		Title:      raw.DisplayTitle(),
		Overview:   strings.TrimSpace(raw.Overview),
		Genres:     slices.Clone(raw.GenreIDs),
		PosterRef:  raw.PosterPath,
		Language:   strings.ToLower(raw.OriginalLanguage),
		Tier:       tier,
	}
	if item.Genres == nil {
		item.Genres = []int{}
	}
	if reason := f.Check(item); reason != "" {
		return models.CandidateItem{}, reason
	}
	return item, ""
}
