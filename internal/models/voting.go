// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

import "time"

// Choice is a single member's vote on an item.
type Choice string

const (
	ChoiceYes  Choice = "YES"
	ChoiceNo   Choice = "NO"
	ChoiceSkip Choice = "SKIP"
)

// Valid reports whether c is one of the known choices.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceYes, ChoiceNo, ChoiceSkip:
		return true
	}
	return false
}

// GroupStatus is the consensus lifecycle of a group.
type GroupStatus string

const (
	StatusVoting           GroupStatus = "VOTING"
	StatusConsensusReached GroupStatus = "CONSENSUS_REACHED"
	StatusCancelled        GroupStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible from s.
func (s GroupStatus) Terminal() bool {
	return s == StatusConsensusReached || s == StatusCancelled
}

// VoteRecord is immutable once written.
type VoteRecord struct {
	GroupID string    `json:"group_id"`
	ItemID  string    `json:"item_id"`
	VoterID string    `json:"voter_id"`
	Choice  Choice    `json:"choice"`
	VotedAt time.Time `json:"voted_at"`
}

// VoteTally is the per (group, item) counter. Counts only ever grow.
type VoteTally struct {
	GroupID   string    `json:"group_id"`
	ItemID    string    `json:"item_id"`
	YesCount  int       `json:"yes_count"`
	NoCount   int       `json:"no_count"`
	SkipCount int       `json:"skip_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image returns the counter snapshot carried by change events.
func (t VoteTally) Image() *TallyImage {
	return &TallyImage{YesCount: t.YesCount, NoCount: t.NoCount, SkipCount: t.SkipCount}
}

// GroupConsensusState is the single record per group that the detector
// flips from VOTING to CONSENSUS_REACHED.
type GroupConsensusState struct {
	GroupID      string      `json:"group_id"`
	MemberCount  int         `json:"member_count"`
	Status       GroupStatus `json:"status"`
	AgreedItemID string      `json:"agreed_item_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ConsensusNotification is the payload announced once a group agrees.
type ConsensusNotification struct {
	GroupID   string    `json:"group_id"`
	ItemID    string    `json:"item_id"`
	VoterIDs  []string  `json:"voter_ids"`
	ReachedAt time.Time `json:"reached_at"`
}
