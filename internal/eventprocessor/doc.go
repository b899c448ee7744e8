// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

/*
Package eventprocessor moves tally change events and consensus
notifications over NATS JetStream using Watermill.

Topology:

	vote ingestion -> TallyPublisher -> vote_tally.changes (stream VOTE_TALLY)
	vote_tally.changes -> BatchConsumer -> consensus.Detector.ProcessBatch
	consensus.Detector -> notify.NATSPublisher -> consensus.reached
	consensus.reached -> websocket.Relay (one ephemeral consumer per instance)

Delivery is at-least-once and may be reordered. The detector tolerates
both, so the consumer acks every message whose outcome is final and nacks
only failures that happened before the group transition was committed.

An EmbeddedServer runs JetStream in-process for single-instance
deployments; otherwise the URL points at an external cluster.
*/
package eventprocessor
