// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/store"
)

// CreateGroupBody seeds a group in VOTING.
type CreateGroupBody struct {
	GroupID     string `json:"group_id" validate:"required,entityid"`
	MemberCount int    `json:"member_count" validate:"min=1,max=1000"`
}

// VoteBody is one member's vote on one item.
type VoteBody struct {
	ItemID  string `json:"item_id" validate:"required,entityid"`
	VoterID string `json:"voter_id" validate:"required,entityid"`
	Choice  string `json:"choice" validate:"required,oneof=YES NO SKIP"`
}

// VoteResponse reports the recorded vote. Outcome is set when the change
// event was evaluated in-process instead of published.
type VoteResponse struct {
	Vote      models.VoteRecord  `json:"vote"`
	Tally     *models.TallyImage `json:"tally"`
	EventID   string             `json:"event_id"`
	Published bool               `json:"published"`
	Outcome   *consensus.Outcome `json:"outcome,omitempty"`
}

// CreateGroup handles POST /api/v1/admin/groups.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body CreateGroupBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondValidation(w, r, err)
		return
	}
	state, err := h.deps.Groups.CreateGroup(r.Context(), body.GroupID, body.MemberCount)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("group_id", state.GroupID).Int("member_count", state.MemberCount).
		Msg("group created")
	respondSuccess(w, r, http.StatusCreated, state, start)
}

// GetGroup handles GET /api/v1/groups/{groupID}.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groupID, err := groupIDFromPath(r)
	if err != nil {
		respondValidation(w, r, err)
		return
	}
	state, err := h.deps.Groups.GetGroup(r.Context(), groupID)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, state, start)
}

// RecordVote handles POST /api/v1/groups/{groupID}/votes. The tally change
// goes to the stream when one is configured; if there is no stream, or the
// publish fails, the event is evaluated in-process.
func (h *Handler) RecordVote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	groupID, err := groupIDFromPath(r)
	if err != nil {
		respondValidation(w, r, err)
		return
	}
	var body VoteBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondValidation(w, r, err)
		return
	}

	state, err := h.deps.Groups.GetGroup(ctx, groupID)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}
	if state.Status != models.StatusVoting {
		respondError(w, r, http.StatusConflict, "INVALID_STATE", "Group is no longer voting", nil)
		return
	}

	vote := models.VoteRecord{GroupID: groupID, ItemID: body.ItemID, VoterID: body.VoterID, Choice: models.Choice(body.Choice)}
	ev, err := h.deps.Groups.RecordVote(ctx, vote)
	if err != nil {
		h.respondStoreError(w, r, err)
		return
	}

	resp := VoteResponse{Vote: vote, Tally: ev.NewImage, EventID: ev.EventID}
	if h.deps.Changes != nil {
		if err := h.deps.Changes.PublishChange(ctx, ev); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("event_id", ev.EventID).
				Msg("tally publish failed, evaluating in-process")
		} else {
			resp.Published = true
		}
	}
	if !resp.Published {
		out := h.deps.Events.Process(ctx, ev)
		resp.Outcome = &out
	}
	respondSuccess(w, r, http.StatusCreated, resp, start)
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrGroupNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Group not found", nil)
	case errors.Is(err, store.ErrGroupExists):
		respondError(w, r, http.StatusConflict, "CONFLICT", "Group already exists", nil)
	case errors.Is(err, store.ErrDuplicateVote):
		respondError(w, r, http.StatusConflict, "CONFLICT", "Voter already voted on this item", nil)
	case errors.Is(err, store.ErrInvalidVote):
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid vote", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Store operation failed", err)
	}
}
