// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/models"
)

// scriptedProcessor records events and fails the first attempt of listed ids.
type scriptedProcessor struct {
	mu       sync.Mutex
	seen     []string
	batches  []int
	failOnce map[string]bool
	delay    time.Duration
}

func (p *scriptedProcessor) ProcessBatch(_ context.Context, events []models.ChangeEvent) consensus.BatchResult {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, len(events))
	res := consensus.BatchResult{Counts: map[consensus.OutcomeKind]int{}}
	for _, ev := range events {
		p.seen = append(p.seen, ev.EventID)
		kind := consensus.OutcomeConsensusPending
		if p.failOnce[ev.EventID] {
			delete(p.failOnce, ev.EventID)
			kind = consensus.OutcomeFailed
		}
		res.Outcomes = append(res.Outcomes, consensus.Outcome{EventID: ev.EventID, Kind: kind})
		res.Counts[kind]++
	}
	return res
}

func (p *scriptedProcessor) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func (p *scriptedProcessor) largestBatch() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	largest := 0
	for _, n := range p.batches {
		largest = max(largest, n)
	}
	return largest
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func runConsumer(t *testing.T, proc BatchProcessor) *gochannel.GoChannel {
	t.Helper()
	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	consumer := NewBatchConsumer(pubsub, proc, BatchConfig{Topic: "vote_tally.changes", BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = consumer.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = pubsub.Close()
	})
	return pubsub
}

func TestBatchConsumerProcessesEvents(t *testing.T) {
	proc := &scriptedProcessor{}
	pubsub := runConsumer(t, proc)
	tallies := NewTallyPublisher(pubsub, "vote_tally.changes")

	for _, id := range []string{"e1", "e2", "e3"} {
		ev := models.ChangeEvent{EventID: id, EntityKind: models.EntityKindVoteTally, GroupID: "g", ItemID: "i",
			NewImage: &models.TallyImage{YesCount: 1}}
		if err := tallies.PublishChange(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return len(proc.events()) == 3 })
}

func TestBatchConsumerRedeliversRetryableFailures(t *testing.T) {
	proc := &scriptedProcessor{failOnce: map[string]bool{"e1": true}}
	pubsub := runConsumer(t, proc)
	tallies := NewTallyPublisher(pubsub, "vote_tally.changes")

	ev := models.ChangeEvent{EventID: "e1", EntityKind: models.EntityKindVoteTally, GroupID: "g", ItemID: "i",
		NewImage: &models.TallyImage{YesCount: 1}}
	if err := tallies.PublishChange(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(proc.events()) == 2 })
	if got := proc.events(); got[0] != "e1" || got[1] != "e1" {
		t.Errorf("events = %v, want e1 twice", got)
	}
}

func TestBatchConsumerSkipsSettledRedelivery(t *testing.T) {
	proc := &scriptedProcessor{}
	pubsub := runConsumer(t, proc)
	tallies := NewTallyPublisher(pubsub, "vote_tally.changes")

	for _, id := range []string{"e1", "e1", "e2"} {
		ev := models.ChangeEvent{EventID: id, EntityKind: models.EntityKindVoteTally, GroupID: "g", ItemID: "i",
			NewImage: &models.TallyImage{YesCount: 1}}
		if err := tallies.PublishChange(context.Background(), ev); err != nil {
			t.Fatal(err)
		}
	}
	// Each delivery waits for the previous ack, so the second e1 arrives
	// after the first was settled.
	waitFor(t, func() bool {
		got := proc.events()
		return len(got) > 0 && got[len(got)-1] == "e2"
	})
	if got := proc.events(); len(got) != 2 || got[0] != "e1" {
		t.Errorf("events = %v, want [e1 e2]", got)
	}
}

func TestBatchConsumerAcksUndecodable(t *testing.T) {
	proc := &scriptedProcessor{}
	pubsub := runConsumer(t, proc)

	if err := pubsub.Publish("vote_tally.changes", message.NewMessage("bad", []byte("{not json"))); err != nil {
		t.Fatal(err)
	}
	good := message.NewMessage("good", []byte(`{"entityKind":"VOTE_TALLY","groupId":"g","itemId":"i","newImage":{"yesCount":1}}`))
	if err := pubsub.Publish("vote_tally.changes", good); err != nil {
		t.Fatal(err)
	}
	// The undecodable message is acked, so the next one is delivered and
	// gets the message uuid as its event id.
	waitFor(t, func() bool { return len(proc.events()) == 1 })
	if got := proc.events()[0]; got != "good" {
		t.Errorf("event id = %q, want message uuid", got)
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()
	cfg := testAppConfig()
	s := SettingsFromConfig(cfg)

	if s.Stream.Name != "VOTE_TALLY" || len(s.Stream.Subjects) != 2 {
		t.Errorf("stream = %+v", s.Stream)
	}
	if s.Subscriber.DurableName != "consensus-detector" || s.Subscriber.QueueGroup != "detectors" {
		t.Errorf("subscriber = %+v", s.Subscriber)
	}
	if s.Relay.DurableName != "" || s.Relay.QueueGroup != "" || s.Relay.DeliverAll {
		t.Errorf("relay must be an ephemeral per-instance consumer: %+v", s.Relay)
	}
	if s.Subscriber.SubscribersCount != 16 || s.Subscriber.MaxAckPending < s.Subscriber.SubscribersCount {
		t.Errorf("subscriber concurrency = %d (max ack pending %d)", s.Subscriber.SubscribersCount, s.Subscriber.MaxAckPending)
	}
	if s.Batch.Topic != "vote_tally.changes" || s.Batch.BatchSize != 100 {
		t.Errorf("batch = %+v", s.Batch)
	}
}

func readyMessages(n int) chan *message.Message {
	ch := make(chan *message.Message, n)
	for i := 0; i < n; i++ {
		ch <- message.NewMessage(watermill.NewUUID(), nil)
	}
	return ch
}

func TestBatchConsumerCollect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		ready     int
		batchSize int
		close     bool
		want      int
		wantOpen  bool
	}{
		{"takes everything ready", 5, 10, false, 6, true},
		{"stops at batch size", 5, 3, false, 3, true},
		{"nothing else ready", 0, 10, false, 1, true},
		{"closed subscription", 2, 10, true, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := readyMessages(tt.ready)
			if tt.close {
				close(ch)
			}
			c := NewBatchConsumer(nil, nil, BatchConfig{BatchSize: tt.batchSize})
			first := []*message.Message{message.NewMessage(watermill.NewUUID(), nil)}

			start := time.Now()
			got, open := c.collect(context.Background(), ch, first)
			if len(got) != tt.want || open != tt.wantOpen {
				t.Errorf("collect = %d open=%v, want %d open=%v", len(got), open, tt.want, tt.wantOpen)
			}
			if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
				t.Errorf("collect blocked for %v without a linger", elapsed)
			}
		})
	}
}

func TestBatchConsumerCollectLingers(t *testing.T) {
	t.Parallel()
	ch := make(chan *message.Message)
	c := NewBatchConsumer(nil, nil, BatchConfig{BatchSize: 10, Linger: 200 * time.Millisecond})
	go func() {
		time.Sleep(20 * time.Millisecond)
		ch <- message.NewMessage(watermill.NewUUID(), nil)
	}()

	got, open := c.collect(context.Background(), ch, []*message.Message{message.NewMessage(watermill.NewUUID(), nil)})
	if len(got) != 2 || !open {
		t.Errorf("collect = %d open=%v, want the late delivery in the batch", len(got), open)
	}
}
