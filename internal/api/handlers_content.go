// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trinity/internal/contentcache"
	"github.com/tomtom215/trinity/internal/validation"
)

// ContentRequestBody is the JSON body of a content request.
type ContentRequestBody struct {
	MediaType  string   `json:"media_type" validate:"required,mediatype"`
	GenreIDs   []int    `json:"genre_ids" validate:"max=2,unique,dive,gt=0"`
	Genres     []string `json:"genres" validate:"max=2,dive,required,max=64"`
	ExcludeIDs []string `json:"exclude_ids" validate:"max=1000,dive,required,max=64"`
	Count      int      `json:"count" validate:"min=1,max=100"`
}

type groupParam struct {
	GroupID string `json:"group_id" validate:"required,entityid"`
}

func groupIDFromPath(r *http.Request) (string, error) {
	p := groupParam{GroupID: chi.URLParam(r, "groupID")}
	if err := validation.ValidateStruct(&p); err != nil {
		return "", err
	}
	return p.GroupID, nil
}

// GroupContent returns up to count candidates for the group. It never
// returns an empty list for a valid request unless the request was cancelled.
func (h *Handler) GroupContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	groupID, err := groupIDFromPath(r)
	if err != nil {
		respondValidation(w, r, err)
		return
	}
	var body ContentRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondValidation(w, r, err)
		return
	}

	items, err := h.deps.Content.GetContent(r.Context(), contentcache.ContentRequest{
		GroupID:    groupID,
		MediaType:  body.MediaType,
		GenreIDs:   body.GenreIDs,
		Genres:     body.Genres,
		ExcludeIDs: body.ExcludeIDs,
		Count:      body.Count,
	})
	switch {
	case errors.Is(err, contentcache.ErrInvalidRequest):
		respondValidation(w, r, err)
		return
	case err != nil:
		// Only cancellation reaches here; the client is gone.
		respondError(w, r, http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request cancelled", err)
		return
	}

	md := metadata(r, start)
	n := len(items)
	md.Count = &n
	respondJSON(w, http.StatusOK, successResponse(items, md))
}
