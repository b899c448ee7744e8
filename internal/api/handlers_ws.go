// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"net/http"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/websocket"
)

// GroupWebSocket upgrades the connection and subscribes it to the group's
// consensus notifications.
func (h *Handler) GroupWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.deps.Hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "Notifications are disabled", nil)
		return
	}
	groupID, err := groupIDFromPath(r)
	if err != nil {
		respondValidation(w, r, err)
		return
	}
	// On failure the upgrader has already written the HTTP error.
	if err := websocket.Serve(h.deps.Hub, h.upgrader, w, r, groupID); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Str("group_id", groupID).Msg("websocket upgrade failed")
	}
}
