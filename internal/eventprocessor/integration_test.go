// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/models"
)

func testAppConfig() *config.Config {
	return config.Defaults()
}

func TestEmbeddedJetStreamRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	cfg := testAppConfig()
	cfg.NATS.EmbeddedServer = true
	s := SettingsFromConfig(cfg)
	s.Server.Port = -1
	s.Server.StoreDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	comps, err := Setup(ctx, s)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() { _ = comps.Close(context.Background()) }()
	if err := comps.Healthy(); err != nil {
		t.Fatal(err)
	}

	proc := &scriptedProcessor{}
	consumer := NewBatchConsumer(comps.TallySubscriber, proc, s.Batch)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		_ = consumer.Serve(runCtx)
		close(done)
	}()
	defer func() {
		stop()
		<-done
	}()

	tallies := NewTallyPublisher(comps.Publisher, s.TallySubject)
	ev := models.ChangeEvent{EventID: "evt-1", EntityKind: models.EntityKindVoteTally, GroupID: "g", ItemID: "i",
		NewImage: &models.TallyImage{YesCount: 1}}
	// Same event id twice: the stream's duplicate window drops the second.
	for i := 0; i < 2; i++ {
		if err := tallies.PublishChange(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	waitFor(t, func() bool { return len(proc.events()) >= 1 })
	time.Sleep(200 * time.Millisecond)
	if got := proc.events(); len(got) != 1 || got[0] != "evt-1" {
		t.Errorf("processed %v, want evt-1 once", got)
	}
}

func TestEmbeddedJetStreamBatchesBacklog(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	cfg := testAppConfig()
	cfg.NATS.EmbeddedServer = true
	s := SettingsFromConfig(cfg)
	s.Server.Port = -1
	s.Server.StoreDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	comps, err := Setup(ctx, s)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer func() { _ = comps.Close(context.Background()) }()

	const backlog = 100
	tallies := NewTallyPublisher(comps.Publisher, s.TallySubject)
	for i := 0; i < backlog; i++ {
		ev := models.ChangeEvent{EventID: fmt.Sprintf("evt-%d", i), EntityKind: models.EntityKindVoteTally,
			GroupID: "g", ItemID: fmt.Sprintf("i%d", i), NewImage: &models.TallyImage{YesCount: 1}}
		if err := tallies.PublishChange(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	proc := &scriptedProcessor{delay: 5 * time.Millisecond}
	consumer := NewBatchConsumer(comps.TallySubscriber, proc, s.Batch)
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	start := time.Now()
	go func() {
		_ = consumer.Serve(runCtx)
		close(done)
	}()
	defer func() {
		stop()
		<-done
	}()

	deadline := time.Now().Add(5 * time.Second)
	for len(proc.events()) < backlog && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(proc.events()); got < backlog {
		t.Fatalf("processed %d of %d events in %v", got, backlog, time.Since(start))
	}
	if largest := proc.largestBatch(); largest < 2 {
		t.Errorf("largest batch = %d, want concurrent deliveries grouped", largest)
	}
	if largest := proc.largestBatch(); largest > s.Subscriber.SubscribersCount {
		t.Errorf("largest batch = %d exceeds %d concurrent deliveries", largest, s.Subscriber.SubscribersCount)
	}
}

func TestStreamInitializerValidation(t *testing.T) {
	t.Parallel()
	if _, err := NewStreamInitializer(nil, DefaultStreamConfig()); err == nil {
		t.Error("expected error for nil JetStream context")
	}
}
