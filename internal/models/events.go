// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package models

// EntityKindVoteTally marks change events produced by tally mutations.
// Every other entity kind is ignored by the consensus detector.
const EntityKindVoteTally = "VOTE_TALLY"

// TallyImage is a counter snapshot before or after a mutation.
type TallyImage struct {
	YesCount  int `json:"yesCount"`
	NoCount   int `json:"noCount"`
	SkipCount int `json:"skipCount"`
}

// ChangeEvent is one record from the tally change stream. Field names follow
// the stream's wire format.
type ChangeEvent struct {
	EventID    string      `json:"eventId,omitempty"`
	EntityKind string      `json:"entityKind"`
	GroupID    string      `json:"groupId"`
	ItemID     string      `json:"itemId"`
	NewImage   *TallyImage `json:"newImage,omitempty"`
	OldImage   *TallyImage `json:"oldImage,omitempty"`
}

// IsVoteTally reports whether the event came from a tally mutation.
func (e *ChangeEvent) IsVoteTally() bool {
	return e.EntityKind == EntityKindVoteTally
}
