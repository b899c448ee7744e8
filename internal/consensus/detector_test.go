// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package consensus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
)

type recordingPublisher struct {
	mu    sync.Mutex
	sent  []models.ConsensusNotification
	err   error
	panic bool
}

func (p *recordingPublisher) PublishConsensus(_ context.Context, n models.ConsensusNotification) error {
	if p.panic {
		panic("publisher exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func setup(t *testing.T, members int) (*Detector, *store.Store, *recordingPublisher) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if _, err := s.CreateGroup(context.Background(), "g", members); err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{}
	return NewDetector(s, s, pub), s, pub
}

func tallyEvent(item string, yes int) models.ChangeEvent {
	return models.ChangeEvent{
		EventID:    fmt.Sprintf("%s-%d", item, yes),
		EntityKind: models.EntityKindVoteTally,
		GroupID:    "g",
		ItemID:     item,
		NewImage:   &models.TallyImage{YesCount: yes},
		OldImage:   &models.TallyImage{YesCount: max(yes-1, 0)},
	}
}

func vote(t *testing.T, s *store.Store, item, voter string) {
	t.Helper()
	if _, err := s.RecordVote(context.Background(), models.VoteRecord{
		GroupID: "g", ItemID: item, VoterID: voter, Choice: models.ChoiceYes,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestTwoMemberScenario(t *testing.T) {
	t.Parallel()
	d, s, pub := setup(t, 2)
	vote(t, s, "item-1", "alice")
	vote(t, s, "item-1", "bob")

	res := d.ProcessBatch(context.Background(), []models.ChangeEvent{
		tallyEvent("item-1", 1),
		tallyEvent("item-1", 2),
		tallyEvent("item-1", 1), // late duplicate
	})

	want := []OutcomeKind{OutcomeConsensusPending, OutcomeConsensusTriggered, OutcomeAlreadyProcessed}
	for i, o := range res.Outcomes {
		if o.Kind != want[i] {
			t.Errorf("outcome[%d] = %s, want %s", i, o.Kind, want[i])
		}
	}
	if pub.count() != 1 {
		t.Fatalf("notifications = %d, want 1", pub.count())
	}
	n := pub.sent[0]
	if n.GroupID != "g" || n.ItemID != "item-1" || len(n.VoterIDs) != 2 || n.VoterIDs[0] != "alice" {
		t.Errorf("notification = %+v", n)
	}

	g, _ := s.GetGroup(context.Background(), "g")
	if g.Status != models.StatusConsensusReached || g.AgreedItemID != "item-1" {
		t.Errorf("group = %+v", g)
	}
}

func TestConsensusThresholds(t *testing.T) {
	t.Parallel()
	const m = 3
	tests := []struct {
		yes  int
		want OutcomeKind
	}{
		{m - 1, OutcomeConsensusPending},
		{m, OutcomeConsensusTriggered},
		{m + 1, OutcomeConsensusTriggered},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("yes=%d", tt.yes), func(t *testing.T) {
			t.Parallel()
			d, _, pub := setup(t, m)
			if got := d.Process(context.Background(), tallyEvent("i", tt.yes)); got.Kind != tt.want {
				t.Errorf("Process = %s, want %s", got.Kind, tt.want)
			}
			// Replays never notify again.
			for i := 0; i < 3; i++ {
				d.Process(context.Background(), tallyEvent("i", tt.yes))
			}
			wantSent := 0
			if tt.want == OutcomeConsensusTriggered {
				wantSent = 1
			}
			if pub.count() != wantSent {
				t.Errorf("notifications = %d, want %d", pub.count(), wantSent)
			}
		})
	}
}

func TestConcurrentItemsSingleWinner(t *testing.T) {
	t.Parallel()
	d, s, pub := setup(t, 2)

	items := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	outcomes := make([]Outcome, len(items)*4)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = d.Process(context.Background(), tallyEvent(items[i%len(items)], 2))
		}(i)
	}
	wg.Wait()

	triggered := 0
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeConsensusTriggered:
			triggered++
		case OutcomeAlreadyProcessed:
		default:
			t.Errorf("unexpected outcome %s (%v)", o.Kind, o.Err)
		}
	}
	if triggered != 1 || pub.count() != 1 {
		t.Errorf("triggered = %d, notifications = %d, want 1 and 1", triggered, pub.count())
	}
	g, _ := s.GetGroup(context.Background(), "g")
	if g.AgreedItemID != pub.sent[0].ItemID {
		t.Errorf("agreed %q but notified %q", g.AgreedItemID, pub.sent[0].ItemID)
	}
}

func TestSkipsOtherEntityKinds(t *testing.T) {
	t.Parallel()
	d, s, pub := setup(t, 1)

	ev := tallyEvent("i", 5)
	ev.EntityKind = "GROUP_MEMBER"
	if got := d.Process(context.Background(), ev); got.Kind != OutcomeSkipped {
		t.Errorf("Process = %s, want skipped", got.Kind)
	}
	g, _ := s.GetGroup(context.Background(), "g")
	if g.Status != models.StatusVoting || pub.count() != 0 {
		t.Error("skipped event must have no side effect")
	}
}

func TestMalformedEvents(t *testing.T) {
	t.Parallel()
	d, _, _ := setup(t, 1)

	noImage := tallyEvent("i", 1)
	noImage.NewImage = nil
	noGroup := tallyEvent("i", 1)
	noGroup.GroupID = ""
	negative := tallyEvent("i", 1)
	negative.NewImage.NoCount = -1

	res := d.ProcessBatch(context.Background(), []models.ChangeEvent{noImage, noGroup, negative, tallyEvent("i", 1)})
	if res.Counts[OutcomeMalformed] != 3 {
		t.Errorf("malformed = %d, want 3", res.Counts[OutcomeMalformed])
	}
	if res.Outcomes[3].Kind != OutcomeConsensusTriggered {
		t.Errorf("valid event after malformed ones = %s, want triggered", res.Outcomes[3].Kind)
	}
	if !errors.Is(res.Outcomes[0].Err, ErrMalformedEvent) {
		t.Errorf("Err = %v, want ErrMalformedEvent", res.Outcomes[0].Err)
	}
}

func TestPublishFailureKeepsTransition(t *testing.T) {
	t.Parallel()
	d, s, pub := setup(t, 1)
	pub.err = errors.New("broker down")

	o := d.Process(context.Background(), tallyEvent("i", 1))
	if o.Kind != OutcomeFailed || !o.Committed || o.Retryable() {
		t.Errorf("outcome = %+v, want failed, committed, not retryable", o)
	}
	g, _ := s.GetGroup(context.Background(), "g")
	if g.Status != models.StatusConsensusReached {
		t.Errorf("status = %s, transition must not be rolled back", g.Status)
	}
	if again := d.Process(context.Background(), tallyEvent("i", 1)); again.Kind != OutcomeAlreadyProcessed {
		t.Errorf("replay = %s, want already-processed", again.Kind)
	}
}

func TestMissingGroupFailsRetryably(t *testing.T) {
	t.Parallel()
	d, _, _ := setup(t, 1)
	ev := tallyEvent("i", 1)
	ev.GroupID = "nope"

	o := d.Process(context.Background(), ev)
	if o.Kind != OutcomeFailed || !o.Retryable() || !errors.Is(o.Err, store.ErrGroupNotFound) {
		t.Errorf("outcome = %+v, want retryable failure wrapping ErrGroupNotFound", o)
	}
}

func TestPanicIsolatedPerEvent(t *testing.T) {
	t.Parallel()
	d, _, pub := setup(t, 1)
	pub.panic = true

	ev := tallyEvent("i", 1)
	skipped := tallyEvent("i", 1)
	skipped.EntityKind = "OTHER"
	res := d.ProcessBatch(context.Background(), []models.ChangeEvent{ev, skipped})

	if len(res.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(res.Outcomes))
	}
	if res.Outcomes[0].Kind != OutcomeFailed || res.Outcomes[0].Error == "" {
		t.Errorf("panicking event = %+v, want failed with error text", res.Outcomes[0])
	}
	if res.Outcomes[1].Kind != OutcomeSkipped {
		t.Errorf("next event = %s, want skipped", res.Outcomes[1].Kind)
	}
}
