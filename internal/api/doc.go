// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package api is the chi HTTP surface of Trinity.

Routes:

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	POST /api/v1/groups/{groupID}/content     candidate items for a group
	GET  /api/v1/groups/{groupID}             group consensus state
	POST /api/v1/groups/{groupID}/votes       record one vote
	GET  /api/v1/groups/{groupID}/ws          consensus notifications (websocket)
	POST /api/v1/events/tally                 run a batch of change events
	POST /api/v1/admin/groups                 seed a group in VOTING
	GET  /api/v1/admin/groups/{groupID}/content  stored batch for ?media_type=&genre_ids=&genres=
	DELETE /api/v1/admin/groups/{groupID}/content  drop that batch
	GET  /api/v1/admin/circuit-breaker        breaker status
	POST /api/v1/admin/circuit-breaker/reset  force the breaker CLOSED
	GET  /metrics                             Prometheus

Every JSON body is wrapped in models.APIResponse. All /api/v1 routes share a
per-IP httprate limit; content requests are additionally limited per group.
*/
package api
