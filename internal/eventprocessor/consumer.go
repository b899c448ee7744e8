// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/cache"
	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
	"github.com/tomtom215/trinity/internal/models"
)

// BatchProcessor evaluates a batch of change events. *consensus.Detector
// satisfies it.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, events []models.ChangeEvent) consensus.BatchResult
}

// BatchConsumer feeds tally change events to the detector in batches. A
// batch holds every delivery that is ready when the first one arrives, up to
// BatchSize, and is flushed as soon as nothing else is ready or Linger
// expires. It implements suture.Service.
//
// Watermill holds back a subscriber's next message until the current one is
// acked, so batch size is bounded by the subscriber's concurrent deliveries
// (SubscribersCount).
type BatchConsumer struct {
	subscriber message.Subscriber
	processor  BatchProcessor
	cfg        BatchConfig
	settled    *cache.LRU
}

// NewBatchConsumer applies defaults of 100 events and a dedup window of
// 10000 ids for 10 minutes. A zero Linger flushes without waiting.
func NewBatchConsumer(subscriber message.Subscriber, processor BatchProcessor, cfg BatchConfig) *BatchConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Linger < 0 {
		cfg.Linger = 0
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 10 * time.Minute
	}
	return &BatchConsumer{
		subscriber: subscriber,
		processor:  processor,
		cfg:        cfg,
		settled:    cache.NewLRU(cfg.DedupSize, cfg.DedupTTL),
	}
}

// Serve consumes until ctx is canceled. Messages still pending at shutdown
// are nacked for redelivery.
func (c *BatchConsumer) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.cfg.Topic, err)
	}
	logging.Info().Str("topic", c.cfg.Topic).Int("batch_size", c.cfg.BatchSize).Dur("linger", c.cfg.Linger).Msg("tally consumer started")

	pending := make([]*message.Message, 0, c.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to %s closed", c.cfg.Topic)
			}
			batch, open := c.collect(ctx, messages, append(pending[:0], msg))
			if ctx.Err() != nil || !open {
				for _, m := range batch {
					m.Nack()
				}
				if !open {
					return fmt.Errorf("subscription to %s closed", c.cfg.Topic)
				}
				return ctx.Err()
			}
			c.flush(ctx, batch)
			pending = batch[:0]
		}
	}
}

// collect appends deliveries that are already waiting, then waits up to
// Linger for more. It reports false once the subscription is closed.
func (c *BatchConsumer) collect(ctx context.Context, messages <-chan *message.Message, pending []*message.Message) ([]*message.Message, bool) {
	var linger <-chan time.Time
	if c.cfg.Linger > 0 {
		t := time.NewTimer(c.cfg.Linger)
		defer t.Stop()
		linger = t.C
	}

	for len(pending) < c.cfg.BatchSize {
		select {
		case msg, ok := <-messages:
			if !ok {
				return pending, false
			}
			pending = append(pending, msg)
			continue
		default:
		}
		if linger == nil {
			return pending, true
		}
		select {
		case msg, ok := <-messages:
			if !ok {
				return pending, false
			}
			pending = append(pending, msg)
		case <-linger:
			return pending, true
		case <-ctx.Done():
			return pending, true
		}
	}
	return pending, true
}

// flush decodes, evaluates and settles one batch.
func (c *BatchConsumer) flush(ctx context.Context, msgs []*message.Message) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	events := make([]models.ChangeEvent, 0, len(msgs))
	owners := make([]*message.Message, 0, len(msgs))

	for _, msg := range msgs {
		var ev models.ChangeEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// Redelivery cannot fix a payload.
			metrics.RecordConsensusOutcome(string(consensus.OutcomeMalformed))
			logging.Ctx(ctx).Warn().Err(err).Str("message_uuid", msg.UUID).Msg("undecodable change event, acking")
			msg.Ack()
			continue
		}
		if ev.EventID == "" {
			ev.EventID = msg.UUID
		}
		if c.settled.Contains(ev.EventID) {
			metrics.RecordConsensusOutcome(string(consensus.OutcomeAlreadyProcessed))
			logging.Ctx(ctx).Debug().Str("event_id", ev.EventID).Msg("redelivered settled event, acking")
			msg.Ack()
			continue
		}
		events = append(events, ev)
		owners = append(owners, msg)
	}
	if len(events) == 0 {
		return
	}

	res := c.processor.ProcessBatch(ctx, events)
	for i, msg := range owners {
		if i < len(res.Outcomes) && res.Outcomes[i].Retryable() {
			msg.Nack()
			continue
		}
		c.settled.Add(events[i].EventID)
		msg.Ack()
	}
}

// String implements fmt.Stringer for suture logs.
func (c *BatchConsumer) String() string { return "tally-consumer" }
