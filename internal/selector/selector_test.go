// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package selector

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/trinity/internal/catalog"
	"github.com/tomtom215/trinity/internal/circuitbreaker"
	"github.com/tomtom215/trinity/internal/models"
)

const longOverview = "A sufficiently long overview to pass the filter."

// fakeCatalog serves discover pages from an in-memory list.
type fakeCatalog struct {
	mu        sync.Mutex
	items     []catalog.Item
	pageSize  int
	err       error
	failAfter int // fail every call after this many, 0 disables
	queries   []catalog.DiscoverQuery
}

func (f *fakeCatalog) Discover(_ context.Context, q catalog.DiscoverQuery) (*catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	if f.failAfter > 0 && len(f.queries) > f.failAfter {
		return nil, errors.New("upstream 503")
	}

	var matched []catalog.Item
	for _, it := range f.items {
		if matches(it, q) {
			matched = append(matched, it)
		}
	}
	size := f.pageSize
	if size == 0 {
		size = 20
	}
	totalPages := (len(matched) + size - 1) / size
	start := (q.Page - 1) * size
	end := min(start+size, len(matched))
	page := &catalog.Page{Page: q.Page, TotalPages: totalPages, TotalResults: len(matched)}
	if start < len(matched) {
		page.Results = matched[start:end]
	}
	return page, nil
}

func (f *fakeCatalog) calls() []catalog.DiscoverQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.queries)
}

func matches(it catalog.Item, q catalog.DiscoverQuery) bool {
	if len(q.GenreIDs) == 0 {
		return true
	}
	hits := 0
	for _, g := range q.GenreIDs {
		if slices.Contains(it.GenreIDs, g) {
			hits++
		}
	}
	if q.Mode == catalog.MatchAny {
		return hits > 0
	}
	return hits == len(q.GenreIDs)
}

func makeItems(startID, n int, genres ...int) []catalog.Item {
	out := make([]catalog.Item, n)
	for i := range out {
		out[i] = catalog.Item{
			ID:               int64(startID + i),
			Title:            "Title " + strconv.Itoa(startID+i),
			Overview:         longOverview,
			GenreIDs:         genres,
			OriginalLanguage: "en",
			PosterPath:       "/poster.jpg",
		}
	}
	return out
}

func newTestSelector(t *testing.T, cat catalog.Discoverer, cfg Config) *Selector {
	t.Helper()
	br := circuitbreaker.New[*catalog.Page](circuitbreaker.Config{
		Name:             t.Name(),
		FailureThreshold: 5,
		CoolDown:         time.Minute,
		CallTimeout:      time.Second,
	})
	return New(cat, br, cfg, WithShuffle(NoShuffle))
}

func tierCounts(items []models.CandidateItem) map[models.Tier]int {
	out := map[models.Tier]int{}
	for _, it := range items {
		out[it.Tier]++
	}
	return out
}

func assertTierOrder(t *testing.T, items []models.CandidateItem) {
	t.Helper()
	for i := 1; i < len(items); i++ {
		if items[i].Tier < items[i-1].Tier {
			t.Fatalf("tier %d item at %d after tier %d item", items[i].Tier, i, items[i-1].Tier)
		}
	}
}

func assertUnique(t *testing.T, items []models.CandidateItem) {
	t.Helper()
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.ExternalID] {
			t.Fatalf("duplicate item %s", it.ExternalID)
		}
		seen[it.ExternalID] = true
	}
}

func TestSelectFiveAllMatchThenAnyMatch(t *testing.T) {
	t.Parallel()

	var items []catalog.Item
	items = append(items, makeItems(1, 5, 28, 12)...) // both genres
	items = append(items, makeItems(100, 20, 28)...)  // action only
	items = append(items, makeItems(200, 15, 12)...)  // adventure only
	items = append(items, makeItems(1000, 50, 18)...) // unrelated, popular
	cat := &fakeCatalog{items: items}
	s := newTestSelector(t, cat, DefaultConfig())

	got := s.Select(context.Background(), Request{MediaType: models.MediaTV, GenreIDs: []int{28, 12}, TargetCount: 30})

	if len(got) != 30 {
		t.Fatalf("len = %d, want 30", len(got))
	}
	counts := tierCounts(got)
	if counts[models.TierAllGenres] != 5 || counts[models.TierAnyGenre] != 25 || counts[models.TierPopular] != 0 {
		t.Errorf("tiers = %v, want 5 tier-1, 25 tier-2, 0 tier-3", counts)
	}
	for _, it := range got[:5] {
		if it.Tier != models.TierAllGenres {
			t.Errorf("first five must be tier 1, got %+v", it)
		}
	}
	assertTierOrder(t, got)
	assertUnique(t, got)

	for _, q := range cat.calls() {
		if len(q.GenreIDs) == 0 {
			t.Errorf("popular tier queried although tiers 1+2 were enough: %+v", q)
		}
	}
}

func TestSelectFallsThroughToPopular(t *testing.T) {
	t.Parallel()

	var items []catalog.Item
	items = append(items, makeItems(1, 2, 28, 12)...)
	items = append(items, makeItems(10, 3, 12)...)
	items = append(items, makeItems(1000, 40, 18)...)
	s := newTestSelector(t, &fakeCatalog{items: items}, DefaultConfig())

	got := s.Select(context.Background(), Request{MediaType: models.MediaMovie, GenreIDs: []int{12, 28}, TargetCount: 10})

	counts := tierCounts(got)
	if counts[models.TierAllGenres] != 2 || counts[models.TierAnyGenre] != 3 || counts[models.TierPopular] != 5 {
		t.Errorf("tiers = %v, want 2/3/5", counts)
	}
	assertTierOrder(t, got)
	assertUnique(t, got)
	for _, it := range got {
		if it.Synthetic {
			t.Errorf("healthy catalog must not produce synthetic items: %+v", it)
		}
	}
}

func TestSelectAppliesFilters(t *testing.T) {
	t.Parallel()

	good := makeItems(1, 3, 35)
	excluded := makeItems(10, 1, 35)
	foreign := makeItems(20, 1, 35)
	foreign[0].OriginalLanguage = "xx"
	short := makeItems(30, 1, 35)
	short[0].Overview = "Too short"
	adult := makeItems(40, 1, 35)
	adult[0].Adult = true
	mixedCase := makeItems(50, 1, 35)
	mixedCase[0].OriginalLanguage = "ES"

	var items []catalog.Item
	for _, group := range [][]catalog.Item{good, excluded, foreign, short, adult, mixedCase} {
		items = append(items, group...)
	}
	s := newTestSelector(t, &fakeCatalog{items: items}, DefaultConfig())

	got := s.Select(context.Background(), Request{
		MediaType:   models.MediaMovie,
		GenreIDs:    []int{35},
		ExcludeIDs:  []string{"10"},
		TargetCount: 50,
	})

	ids := map[string]bool{}
	for _, it := range got {
		ids[it.ExternalID] = true
		if len([]rune(it.Overview)) < DefaultConfig().MinOverviewLength {
			t.Errorf("item %s overview below minimum", it.ExternalID)
		}
		if !slices.Contains(DefaultConfig().AllowedLanguages, it.Language) {
			t.Errorf("item %s language %q not allowed", it.ExternalID, it.Language)
		}
	}
	for _, rejected := range []string{"10", "20", "30", "40"} {
		if ids[rejected] {
			t.Errorf("item %s should have been filtered", rejected)
		}
	}
	if !ids["50"] {
		t.Error("language comparison should be case-insensitive")
	}
}

func TestSelectFallbackWhenCatalogDown(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{err: errors.New("connection refused")}
	s := newTestSelector(t, cat, DefaultConfig())

	got := s.Select(context.Background(), Request{
		MediaType:   models.MediaMovie,
		GenreIDs:    []int{28},
		ExcludeIDs:  []string{"550"},
		TargetCount: 10,
	})

	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	for _, it := range got {
		if !it.Synthetic || it.Tier != models.TierPopular {
			t.Errorf("fallback item %+v should be synthetic tier 3", it)
		}
		if it.ExternalID == "550" {
			t.Error("excluded default was served")
		}
		if it.PosterRef == "" {
			t.Errorf("default %s has no poster", it.ExternalID)
		}
	}
	if n := len(cat.calls()); n != 1 {
		t.Errorf("upstream calls = %d, want 1 (abandon after fallback)", n)
	}
}

func TestSelectFallbackKeepsEarlierTiers(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{items: makeItems(1, 4, 28, 12), failAfter: 1}
	s := newTestSelector(t, cat, DefaultConfig())

	got := s.Select(context.Background(), Request{MediaType: models.MediaMovie, GenreIDs: []int{28, 12}, TargetCount: 12})

	if len(got) != 12 {
		t.Fatalf("len = %d, want 12", len(got))
	}
	counts := tierCounts(got)
	if counts[models.TierAllGenres] != 4 || counts[models.TierPopular] != 8 {
		t.Errorf("tiers = %v, want 4 tier-1 then 8 defaults", counts)
	}
	assertTierOrder(t, got)
	assertUnique(t, got)
}

func TestSelectFallbackBoundedByDefaults(t *testing.T) {
	t.Parallel()

	s := newTestSelector(t, &fakeCatalog{err: errors.New("down")}, DefaultConfig())
	got := s.Select(context.Background(), Request{MediaType: models.MediaTV, TargetCount: 500})
	if len(got) != len(Defaults(models.MediaTV)) {
		t.Errorf("len = %d, want every default (%d)", len(got), len(Defaults(models.MediaTV)))
	}
}

func TestSelectZeroTarget(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{items: makeItems(1, 10, 28)}
	s := newTestSelector(t, cat, DefaultConfig())
	got := s.Select(context.Background(), Request{MediaType: models.MediaMovie, TargetCount: 0})
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
	if len(cat.calls()) != 0 {
		t.Error("zero target must not call upstream")
	}
}

func TestSelectPageCeiling(t *testing.T) {
	t.Parallel()

	cat := &fakeCatalog{items: makeItems(1, 100, 28), pageSize: 5}
	cfg := DefaultConfig()
	cfg.MaxPages = 2
	s := newTestSelector(t, cat, cfg)

	got := s.Select(context.Background(), Request{MediaType: models.MediaMovie, GenreIDs: []int{28}, TargetCount: 30})

	tier1Pages := 0
	for _, q := range cat.calls() {
		if len(q.GenreIDs) > 0 {
			tier1Pages++
		}
	}
	if tier1Pages != 2 {
		t.Errorf("tier 1 pages = %d, want 2", tier1Pages)
	}
	if counts := tierCounts(got); counts[models.TierAllGenres] != 10 {
		t.Errorf("tier 1 items = %d, want 10", counts[models.TierAllGenres])
	}
}

func TestSelectPlans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		genres    []int
		wantModes []string
	}{
		{"no genres", nil, []string{"popular"}},
		{"one genre", []int{35}, []string{"all", "popular"}},
		{"two genres", []int{35, 18}, []string{"all", "any", "popular"}},
		{"duplicate genre collapses", []int{35, 35}, []string{"all", "popular"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cat := &fakeCatalog{} // empty catalog forces every tier
			s := newTestSelector(t, cat, DefaultConfig())
			s.Select(context.Background(), Request{MediaType: models.MediaMovie, GenreIDs: tt.genres, TargetCount: 5})

			var modes []string
			for _, q := range cat.calls() {
				switch {
				case len(q.GenreIDs) == 0:
					modes = append(modes, "popular")
				case q.Mode == catalog.MatchAny:
					modes = append(modes, "any")
				default:
					modes = append(modes, "all")
				}
			}
			if !slices.Equal(modes, tt.wantModes) {
				t.Errorf("queries = %v, want %v", modes, tt.wantModes)
			}
		})
	}
}

func TestSelectShufflesWithinTier(t *testing.T) {
	t.Parallel()

	var items []catalog.Item
	items = append(items, makeItems(1, 3, 28, 12)...)
	items = append(items, makeItems(10, 3, 28)...)
	br := circuitbreaker.New[*catalog.Page](circuitbreaker.Config{Name: t.Name(), FailureThreshold: 5, CoolDown: time.Minute})
	reverse := func(in []models.CandidateItem) { slices.Reverse(in) }
	s := New(&fakeCatalog{items: items}, br, DefaultConfig(), WithShuffle(reverse))

	got := s.Select(context.Background(), Request{MediaType: models.MediaMovie, GenreIDs: []int{28, 12}, TargetCount: 6})

	var ids []string
	for _, it := range got {
		ids = append(ids, it.ExternalID)
	}
	want := []string{"3", "2", "1", "12", "11", "10"}
	if !slices.Equal(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
}
