// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package websocket pushes consensus results to the members of a group.

Each connection subscribes to exactly one group. The Hub keeps clients
indexed by group and delivers a broadcast only to that group's clients,
in connection order. A client whose send buffer is full is dropped rather
than allowed to stall the hub.

Delivery paths:

	consensus.Detector -> notify.HubPublisher -> Hub.BroadcastToGroup
	NATS consensus.reached -> Relay -> Hub.BroadcastToGroup

The Relay is used when several instances share a NATS stream: whichever
instance detects consensus publishes once and every instance relays the
message to its own connections.

Message format:

	{"type": "consensus_reached", "group_id": "g1", "data": {...}}
*/
package websocket
