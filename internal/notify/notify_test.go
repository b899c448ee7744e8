// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/websocket"
)

var notification = models.ConsensusNotification{GroupID: "g1", ItemID: "movie-9", VoterIDs: []string{"a", "b"}}

func TestNATSPublisher(t *testing.T) {
	t.Parallel()
	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubsub.Close()

	if err := NewNATSPublisher(pubsub, "consensus.reached").PublishConsensus(context.Background(), notification); err != nil {
		t.Fatal(err)
	}

	msgs, err := pubsub.Subscribe(context.Background(), "consensus.reached")
	if err != nil {
		t.Fatal(err)
	}
	select {
	case msg := <-msgs:
		msg.Ack()
		if msg.UUID != "consensus-g1" || msg.Metadata.Get(natsgo.MsgIdHdr) != "consensus-g1" {
			t.Errorf("message id = %q / %q", msg.UUID, msg.Metadata.Get(natsgo.MsgIdHdr))
		}
		var got models.ConsensusNotification
		if err := json.Unmarshal(msg.Payload, &got); err != nil || got.ItemID != "movie-9" {
			t.Errorf("payload = %+v, %v", got, err)
		}
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}
}

type fakeHub struct {
	groupID, msgType string
	err              error
}

func (h *fakeHub) BroadcastToGroup(groupID, messageType string, _ any) error {
	h.groupID, h.msgType = groupID, messageType
	return h.err
}

func TestHubPublisher(t *testing.T) {
	t.Parallel()
	hub := &fakeHub{}
	if err := NewHubPublisher(hub).PublishConsensus(context.Background(), notification); err != nil {
		t.Fatal(err)
	}
	if hub.groupID != "g1" || hub.msgType != websocket.MessageTypeConsensusReached {
		t.Errorf("broadcast to %q as %q", hub.groupID, hub.msgType)
	}
}

type failing struct{ calls *int }

func (f failing) PublishConsensus(context.Context, models.ConsensusNotification) error {
	*f.calls++
	return errors.New("sink down")
}

func TestFanoutTriesEverySink(t *testing.T) {
	t.Parallel()
	calls := 0
	hub := &fakeHub{}
	f := Fanout{failing{&calls}, NewHubPublisher(hub), LogPublisher{}}

	err := f.PublishConsensus(context.Background(), notification)
	if err == nil {
		t.Fatal("expected joined error")
	}
	if calls != 1 || hub.groupID != "g1" {
		t.Errorf("sinks after a failure were not called: calls=%d hub=%q", calls, hub.groupID)
	}
	if err := (Fanout{LogPublisher{}}).PublishConsensus(context.Background(), notification); err != nil {
		t.Errorf("all-ok fanout = %v", err)
	}
}
