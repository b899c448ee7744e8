// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import (
	"errors"
	"testing"
	"time"
)

func TestNewFilterSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		media   MediaType
		genres  []int
		wantKey string
		wantErr bool
	}{
		{"no genres", MediaMovie, nil, "MOVIE:", false},
		{"sorted", MediaTV, []int{28, 12}, "TV:12,28", false},
		{"deduplicated", MediaMovie, []int{35, 35}, "MOVIE:35", false},
		{"dedup then limit", MediaMovie, []int{12, 28, 12}, "MOVIE:12,28", false},
		{"too many", MediaMovie, []int{12, 28, 35}, "", true},
		{"bad genre", MediaMovie, []int{-1}, "", true},
		{"bad media", MediaType("BOOK"), nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig, err := NewFilterSignature(tt.media, tt.genres)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSignature) {
					t.Fatalf("err = %v, want ErrInvalidSignature", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := sig.Key(); got != tt.wantKey {
				t.Errorf("Key() = %q, want %q", got, tt.wantKey)
			}
		})
	}
}

func TestFilterSignatureEqualIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a, _ := NewFilterSignature(MediaTV, []int{28, 12})
	b, _ := NewFilterSignature(MediaTV, []int{12, 28, 28})
	c, _ := NewFilterSignature(MediaMovie, []int{12, 28})
	if !a.Equal(b) {
		t.Error("same genre set should be equal")
	}
	if a.Equal(c) {
		t.Error("different media type should not be equal")
	}
}

func TestNewFilterSignatureDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []int{28, 12}
	if _, err := NewFilterSignature(MediaMovie, in); err != nil {
		t.Fatal(err)
	}
	if in[0] != 28 {
		t.Errorf("input slice was reordered: %v", in)
	}
}

func TestCachedContentBatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	b := &CachedContentBatch{Items: make([]CandidateItem, 5), ExhaustedIndex: 3, FetchedAt: now.Add(-time.Hour)}
	if got := b.Remaining(); got != 2 {
		t.Errorf("Remaining() = %d, want 2", got)
	}
	if !b.Expired(now, 30*time.Minute) {
		t.Error("batch older than ttl should be expired")
	}
	if b.Expired(now, 2*time.Hour) {
		t.Error("batch younger than ttl should be fresh")
	}
	b.ExhaustedIndex = 9
	if got := b.Remaining(); got != 0 {
		t.Errorf("Remaining() past end = %d, want 0", got)
	}
}

func TestParseMediaType(t *testing.T) {
	t.Parallel()

	if m, err := ParseMediaType("tv"); err != nil || m != MediaTV {
		t.Errorf("ParseMediaType(tv) = %v, %v", m, err)
	}
	if _, err := ParseMediaType("podcast"); err == nil {
		t.Error("expected error for unknown media type")
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	if StatusVoting.Terminal() {
		t.Error("VOTING is not terminal")
	}
	if !StatusConsensusReached.Terminal() || !StatusCancelled.Terminal() {
		t.Error("CONSENSUS_REACHED and CANCELLED are terminal")
	}
}

func TestCachedContentBatchTake(t *testing.T) {
	t.Parallel()

	items := []CandidateItem{{ExternalID: "a"}, {ExternalID: "b"}, {ExternalID: "c"}, {ExternalID: "d"}}
	b := &CachedContentBatch{Items: items}

	got, ok := b.Take(2, map[string]struct{}{"a": {}})
	if !ok || len(got) != 2 || got[0].ExternalID != "b" || got[1].ExternalID != "c" {
		t.Fatalf("Take(2) = %v, %v; want [b c]", got, ok)
	}
	if b.ExhaustedIndex != 3 {
		t.Errorf("ExhaustedIndex = %d, want 3", b.ExhaustedIndex)
	}

	if got, ok := b.Take(2, nil); ok || got != nil {
		t.Errorf("Take past remaining = %v, %v; want nil, false", got, ok)
	}
	if b.ExhaustedIndex != 3 {
		t.Errorf("failed Take moved cursor to %d", b.ExhaustedIndex)
	}
}

func TestCachedContentBatchTakeAvailable(t *testing.T) {
	t.Parallel()

	items := []CandidateItem{{ExternalID: "a"}, {ExternalID: "b"}, {ExternalID: "c"}, {ExternalID: "d"}}
	b := &CachedContentBatch{Items: items, ExhaustedIndex: 1}

	got := b.TakeAvailable(5, map[string]struct{}{"c": {}})
	if len(got) != 2 || got[0].ExternalID != "b" || got[1].ExternalID != "d" {
		t.Fatalf("TakeAvailable(5) = %v, want [b d]", got)
	}
	if b.ExhaustedIndex != 4 {
		t.Errorf("ExhaustedIndex = %d, want 4", b.ExhaustedIndex)
	}
	if got := b.TakeAvailable(2, nil); len(got) != 0 || b.ExhaustedIndex != 4 {
		t.Errorf("drained batch served %v, cursor %d", got, b.ExhaustedIndex)
	}
}
