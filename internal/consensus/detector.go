// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package consensus decides, once per group, when every member has voted
// YES on the same item.
//
// The detector consumes tally change events in any order and any number of
// times. The only write it performs is the conditional VOTING ->
// CONSENSUS_REACHED transition in the store; whoever wins that write sends
// the notification, every other evaluation reports already-processed.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// GroupStore reads and flips group state. *store.Store satisfies it.
type GroupStore interface {
	GetGroup(ctx context.Context, groupID string) (*models.GroupConsensusState, error)
	TransitionStatus(ctx context.Context, groupID string, expected, next models.GroupStatus, agreedItemID string) (bool, error)
}

// VoterLister lists YES voters of an item. *store.Store satisfies it.
type VoterLister interface {
	YesVoters(ctx context.Context, groupID, itemID string) ([]string, error)
}

// Publisher announces a reached consensus.
type Publisher interface {
	PublishConsensus(ctx context.Context, n models.ConsensusNotification) error
}

// OutcomeKind classifies the handling of one event.
type OutcomeKind string

const (
	OutcomeSkipped            OutcomeKind = "skipped"
	OutcomeMalformed          OutcomeKind = "malformed"
	OutcomeAlreadyProcessed   OutcomeKind = "already-processed"
	OutcomeConsensusPending   OutcomeKind = "consensus-pending"
	OutcomeConsensusTriggered OutcomeKind = "consensus-triggered"
	OutcomeFailed             OutcomeKind = "failed"
)

// ErrMalformedEvent marks events that can never be processed.
var ErrMalformedEvent = errors.New("malformed change event")

// Outcome is the per-event result. Committed is set once the group
// transition has been written, even if a later step failed.
type Outcome struct {
	EventID   string      `json:"event_id,omitempty"`
	GroupID   string      `json:"group_id,omitempty"`
	ItemID    string      `json:"item_id,omitempty"`
	Kind      OutcomeKind `json:"outcome"`
	Committed bool        `json:"committed,omitempty"`
	Err       error       `json:"-"`
	Error     string      `json:"error,omitempty"`
}

// Retryable reports whether redelivering the event could succeed.
func (o Outcome) Retryable() bool {
	return o.Kind == OutcomeFailed && !o.Committed
}

// BatchResult holds outcomes in input order.
type BatchResult struct {
	Outcomes []Outcome          `json:"outcomes"`
	Counts   map[OutcomeKind]int `json:"counts"`
}

// Detector is safe for concurrent use; all coordination happens in the store.
type Detector struct {
	groups    GroupStore
	voters    VoterLister
	publisher Publisher
	now       func() time.Time
}

// NewDetector builds a Detector.
func NewDetector(groups GroupStore, voters VoterLister, publisher Publisher) *Detector {
	return &Detector{groups: groups, voters: voters, publisher: publisher, now: time.Now}
}

// ProcessBatch handles events sequentially. One event's failure never stops
// the batch.
func (d *Detector) ProcessBatch(ctx context.Context, events []models.ChangeEvent) BatchResult {
	start := time.Now()
	res := BatchResult{
		Outcomes: make([]Outcome, 0, len(events)),
		Counts:   make(map[OutcomeKind]int),
	}
	for i := range events {
		o := d.Process(ctx, events[i])
		res.Outcomes = append(res.Outcomes, o)
		res.Counts[o.Kind]++
	}
	metrics.RecordConsensusBatch(len(events), time.Since(start))

	logging.Ctx(ctx).Debug().
		Int("events", len(events)).
		Int("triggered", res.Counts[OutcomeConsensusTriggered]).
		Int("failed", res.Counts[OutcomeFailed]).
		Dur("duration", time.Since(start)).
		Msg("consensus batch processed")
	return res
}

// Process evaluates one change event.
func (d *Detector) Process(ctx context.Context, ev models.ChangeEvent) (out Outcome) {
	out = Outcome{EventID: ev.EventID, GroupID: ev.GroupID, ItemID: ev.ItemID}
	log := logging.Ctx(ctx).With().
		Str("event_id", ev.EventID).
		Str("group_id", ev.GroupID).
		Str("item_id", ev.ItemID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			out.Kind = OutcomeFailed
			out.Err = fmt.Errorf("panic processing event: %v", r)
			log.Error().Interface("panic", r).Msg("consensus evaluation panicked")
		}
		if out.Err != nil {
			out.Error = out.Err.Error()
		}
		metrics.RecordConsensusOutcome(string(out.Kind))
	}()

	out.Kind, out.Committed, out.Err = d.evaluate(ctx, ev, &log)
	return out
}

func (d *Detector) evaluate(ctx context.Context, ev models.ChangeEvent, log *zerolog.Logger) (OutcomeKind, bool, error) {
	if !ev.IsVoteTally() {
		return OutcomeSkipped, false, nil
	}
	if err := validateEvent(ev); err != nil {
		log.Warn().Err(err).Msg("dropping malformed change event")
		return OutcomeMalformed, false, err
	}

	group, err := d.groups.GetGroup(ctx, ev.GroupID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load group state")
		return OutcomeFailed, false, fmt.Errorf("load group %s: %w", ev.GroupID, err)
	}
	if group.Status != models.StatusVoting {
		log.Info().Str("status", string(group.Status)).Msg("group no longer voting, event already processed")
		return OutcomeAlreadyProcessed, false, nil
	}

	yes := ev.NewImage.YesCount
	// More YES votes than members still counts: a member may have left
	// after voting.
	if yes < group.MemberCount {
		log.Debug().Int("yes", yes).Int("members", group.MemberCount).Msg("consensus pending")
		return OutcomeConsensusPending, false, nil
	}

	swapped, err := d.groups.TransitionStatus(ctx, ev.GroupID, models.StatusVoting, models.StatusConsensusReached, ev.ItemID)
	if err != nil {
		log.Error().Err(err).Msg("consensus transition failed")
		return OutcomeFailed, false, fmt.Errorf("transition group %s: %w", ev.GroupID, err)
	}
	if !swapped {
		log.Info().Msg("consensus already recorded by another event")
		return OutcomeAlreadyProcessed, false, nil
	}
	log.Info().Int("yes", yes).Int("members", group.MemberCount).Msg("consensus reached")

	voters, err := d.voters.YesVoters(ctx, ev.GroupID, ev.ItemID)
	if err != nil {
		log.Error().Err(err).Msg("consensus committed but voter lookup failed")
		return OutcomeFailed, true, fmt.Errorf("list voters: %w", err)
	}

	n := models.ConsensusNotification{
		GroupID:   ev.GroupID,
		ItemID:    ev.ItemID,
		VoterIDs:  voters,
		ReachedAt: d.now().UTC(),
	}
	if err := d.publisher.PublishConsensus(ctx, n); err != nil {
		log.Error().Err(err).Msg("consensus committed but notification failed")
		return OutcomeFailed, true, fmt.Errorf("publish consensus: %w", err)
	}
	return OutcomeConsensusTriggered, true, nil
}

func validateEvent(ev models.ChangeEvent) error {
	switch {
	case ev.GroupID == "":
		return fmt.Errorf("%w: missing group id", ErrMalformedEvent)
	case ev.ItemID == "":
		return fmt.Errorf("%w: missing item id", ErrMalformedEvent)
	case ev.NewImage == nil:
		return fmt.Errorf("%w: missing new image", ErrMalformedEvent)
	case ev.NewImage.YesCount < 0 || ev.NewImage.NoCount < 0 || ev.NewImage.SkipCount < 0:
		return fmt.Errorf("%w: negative tally", ErrMalformedEvent)
	}
	return nil
}
