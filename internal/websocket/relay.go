// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package websocket

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
)

// Relay forwards consensus notifications from a message topic to the hub.
// It implements suture.Service.
type Relay struct {
	hub        *Hub
	subscriber message.Subscriber
	topic      string
}

// NewRelay creates a relay for topic.
func NewRelay(hub *Hub, subscriber message.Subscriber, topic string) *Relay {
	return &Relay{hub: hub, subscriber: subscriber, topic: topic}
}

// Serve subscribes and relays until ctx is canceled.
func (r *Relay) Serve(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.topic, err)
	}
	logging.Info().Str("topic", r.topic).Msg("consensus relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", r.topic)
			}
			r.handle(msg)
			// Delivery to sockets is best effort; redelivery would not help
			// clients that already disconnected.
			msg.Ack()
		}
	}
}

func (r *Relay) handle(msg *message.Message) {
	var n models.ConsensusNotification
	if err := json.Unmarshal(msg.Payload, &n); err != nil || n.GroupID == "" {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable consensus notification")
		return
	}
	if err := r.hub.BroadcastToGroup(n.GroupID, MessageTypeConsensusReached, n); err != nil {
		logging.Warn().Err(err).Str("group_id", n.GroupID).Msg("consensus relay broadcast failed")
	}
}

// String implements fmt.Stringer for suture logs.
func (r *Relay) String() string { return "consensus-relay" }
