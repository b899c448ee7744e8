// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
)

// TallyBatchBody is a batch of change events, as delivered by the stream.
type TallyBatchBody struct {
	Records []models.ChangeEvent `json:"records" validate:"required,max=500"`
}

// ProcessTallyBatch runs a batch through the detector and returns one
// outcome per event. Failures in single events never fail the request.
func (h *Handler) ProcessTallyBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body TallyBatchBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondValidation(w, r, err)
		return
	}

	ctx := logging.ContextWithNewCorrelationID(r.Context())
	res := h.deps.Events.ProcessBatch(ctx, body.Records)

	md := metadata(r, start)
	n := len(res.Outcomes)
	md.Count = &n
	respondJSON(w, http.StatusOK, successResponse(res, md))
}
