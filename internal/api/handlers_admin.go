// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/trinity/internal/contentcache"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/validation"
)

// CircuitBreakerStatus reports state and counters.
func (h *Handler) CircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.deps.Breaker.Status(), time.Time{})
}

// CircuitBreakerReset forces the breaker CLOSED and returns the new status.
func (h *Handler) CircuitBreakerReset(w http.ResponseWriter, r *http.Request) {
	before := h.deps.Breaker.Status()
	h.deps.Breaker.Reset()
	after := h.deps.Breaker.Status()
	logging.Ctx(r.Context()).Info().Str("breaker", after.Name).Str("from", string(before.State)).
		Str("remote_addr", r.RemoteAddr).Msg("circuit breaker reset via API")
	respondSuccess(w, r, http.StatusOK, after, time.Time{})
}

type batchQuery struct {
	MediaType string   `json:"media_type" validate:"required,mediatype"`
	GenreIDs  []int    `json:"genre_ids" validate:"max=2,unique,dive,gt=0"`
	Genres    []string `json:"genres" validate:"max=2,dive,required,max=64"`
}

// batchRefFromRequest reads the batch key from the path and query string;
// genre_ids and genres are comma separated.
func batchRefFromRequest(r *http.Request) (contentcache.BatchRef, error) {
	groupID, err := groupIDFromPath(r)
	if err != nil {
		return contentcache.BatchRef{}, err
	}
	q := r.URL.Query()
	bq := batchQuery{MediaType: q.Get("media_type"), Genres: splitList(q.Get("genres"))}
	for _, raw := range splitList(q.Get("genre_ids")) {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return contentcache.BatchRef{}, fmt.Errorf("genre_ids: %q is not a number", raw)
		}
		bq.GenreIDs = append(bq.GenreIDs, id)
	}
	if err := validation.ValidateStruct(&bq); err != nil {
		return contentcache.BatchRef{}, err
	}
	return contentcache.BatchRef{GroupID: groupID, MediaType: bq.MediaType, GenreIDs: bq.GenreIDs, Genres: bq.Genres}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *Handler) contentBatchRef(w http.ResponseWriter, r *http.Request) (contentcache.BatchRef, bool) {
	if h.deps.Batches == nil {
		respondError(w, r, http.StatusNotImplemented, "NOT_CONFIGURED", "Content batches are not available", nil)
		return contentcache.BatchRef{}, false
	}
	ref, err := batchRefFromRequest(r)
	if err != nil {
		respondValidation(w, r, err)
		return contentcache.BatchRef{}, false
	}
	return ref, true
}

func respondBatchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, contentcache.ErrInvalidRequest):
		respondValidation(w, r, err)
	case errors.Is(err, contentcache.ErrNoBatch):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "No content batch stored", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Store operation failed", err)
	}
}

// ContentBatchStatus reports size, remaining items and age of a batch.
func (h *Handler) ContentBatchStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ref, ok := h.contentBatchRef(w, r)
	if !ok {
		return
	}
	st, err := h.deps.Batches.BatchStatus(r.Context(), ref)
	if err != nil {
		respondBatchError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, st, start)
}

// ContentBatchInvalidate drops a batch so the group's next request refills
// from the catalog.
func (h *Handler) ContentBatchInvalidate(w http.ResponseWriter, r *http.Request) {
	ref, ok := h.contentBatchRef(w, r)
	if !ok {
		return
	}
	if err := h.deps.Batches.InvalidateBatch(r.Context(), ref); err != nil {
		respondBatchError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("group_id", ref.GroupID).Str("remote_addr", r.RemoteAddr).
		Msg("content batch invalidated via API")
	respondSuccess(w, r, http.StatusOK, map[string]string{"group_id": ref.GroupID, "status": "invalidated"}, time.Time{})
}
