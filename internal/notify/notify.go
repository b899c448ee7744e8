// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package notify delivers consensus notifications to listeners.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/websocket"
)

// Publisher announces a reached consensus. It satisfies consensus.Publisher.
type Publisher interface {
	PublishConsensus(ctx context.Context, n models.ConsensusNotification) error
}

// NATSPublisher publishes notifications to a JetStream topic.
type NATSPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewNATSPublisher publishes to topic.
func NewNATSPublisher(publisher message.Publisher, topic string) *NATSPublisher {
	return &NATSPublisher{publisher: publisher, topic: topic}
}

// MessageID is the JetStream message id for a group's notification. A group
// reaches consensus once, so a retried publish is deduplicated.
func MessageID(groupID string) string {
	return "consensus-" + groupID
}

// PublishConsensus implements Publisher.
func (p *NATSPublisher) PublishConsensus(ctx context.Context, n models.ConsensusNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	id := MessageID(n.GroupID)
	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	msg.Metadata.Set("group_id", n.GroupID)

	err = p.publisher.Publish(p.topic, msg)
	metrics.RecordNotification("nats", err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Broadcaster is the hub surface HubPublisher needs.
type Broadcaster interface {
	BroadcastToGroup(groupID, messageType string, data any) error
}

// HubPublisher pushes notifications to this instance's websocket clients.
type HubPublisher struct {
	hub Broadcaster
}

// NewHubPublisher wraps hub.
func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// PublishConsensus implements Publisher.
func (p *HubPublisher) PublishConsensus(_ context.Context, n models.ConsensusNotification) error {
	err := p.hub.BroadcastToGroup(n.GroupID, websocket.MessageTypeConsensusReached, n)
	metrics.RecordNotification("websocket", err)
	return err
}

// LogPublisher only logs. It stands in when no other sink is configured.
type LogPublisher struct{}

// PublishConsensus implements Publisher.
func (LogPublisher) PublishConsensus(ctx context.Context, n models.ConsensusNotification) error {
	logging.Ctx(ctx).Info().
		Str("group_id", n.GroupID).
		Str("item_id", n.ItemID).
		Strs("voter_ids", n.VoterIDs).
		Msg("consensus notification")
	metrics.RecordNotification("log", nil)
	return nil
}

// Fanout delivers to every sink and joins their errors. Every sink is tried
// even when an earlier one fails.
type Fanout []Publisher

// PublishConsensus implements Publisher.
func (f Fanout) PublishConsensus(ctx context.Context, n models.ConsensusNotification) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishConsensus(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
