// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/models"
)

// TallyPublisher appends change events to the tally stream.
type TallyPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewTallyPublisher publishes to topic.
func NewTallyPublisher(publisher message.Publisher, topic string) *TallyPublisher {
	return &TallyPublisher{publisher: publisher, topic: topic}
}

// PublishChange publishes one event. The event id doubles as the JetStream
// message id, so a retried publish is deduplicated by the stream.
func (p *TallyPublisher) PublishChange(ctx context.Context, ev models.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	id := ev.EventID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	msg.Metadata.Set("entity_kind", ev.EntityKind)
	msg.Metadata.Set("group_id", ev.GroupID)
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set("correlation_id", cid)
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish change event %s: %w", id, err)
	}
	return nil
}
