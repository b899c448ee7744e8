// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"time"

	"github.com/tomtom215/trinity/internal/config"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int // -1 picks a random port
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/trinity/jetstream",
		JetStreamMaxMem:   256 << 20,
		JetStreamMaxStore: 2 << 30,
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns defaults for url.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber configuration. An empty DurableName
// and QueueGroup give an ephemeral, per-instance consumer.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
	DeliverAll       bool
}

// DefaultSubscriberConfig returns defaults for the durable tally consumer.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       "VOTE_TALLY",
		DurableName:      "consensus-detector",
		QueueGroup:       "detectors",
		SubscribersCount: 16,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1000,
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		DeliverAll:       true,
	}
}

// StreamConfig defines a JetStream stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns the tally stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "VOTE_TALLY",
		Subjects:        []string{"vote_tally.>", "consensus.>"},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// BatchConfig controls how many events are handed to the detector at once.
type BatchConfig struct {
	Topic     string
	BatchSize int

	// Linger is how long a partial batch waits for another delivery once
	// nothing else is ready. Zero flushes immediately.
	Linger time.Duration

	// Settled event ids are remembered so a redelivery of an event that
	// was already acked is not evaluated again.
	DedupSize int
	DedupTTL  time.Duration
}

// Settings groups everything derived from the application config.
type Settings struct {
	Server     ServerConfig
	Publisher  PublisherConfig
	Subscriber SubscriberConfig
	Relay      SubscriberConfig
	Stream     StreamConfig
	Batch      BatchConfig

	Embedded         bool
	TallySubject     string
	ConsensusSubject string
}

// SettingsFromConfig maps the nats and consensus config sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	n := cfg.NATS

	server := DefaultServerConfig()
	if n.StoreDir != "" {
		server.StoreDir = n.StoreDir
	}

	sub := DefaultSubscriberConfig(n.URL)
	sub.StreamName = n.StreamName
	sub.DurableName = n.DurableName
	sub.QueueGroup = n.QueueGroup
	if n.AckWait > 0 {
		sub.AckWaitTimeout = n.AckWait
	}
	if n.MaxDeliver > 0 {
		sub.MaxDeliver = n.MaxDeliver
	}
	if n.Subscribers > 0 {
		sub.SubscribersCount = n.Subscribers
	}

	relay := DefaultSubscriberConfig(n.URL)
	relay.StreamName = n.StreamName
	relay.DurableName = ""
	relay.QueueGroup = ""
	relay.DeliverAll = false

	stream := DefaultStreamConfig()
	stream.Name = n.StreamName
	stream.Subjects = []string{n.TallySubject, n.ConsensusSubject}
	if n.StreamMaxAge > 0 {
		stream.MaxAge = n.StreamMaxAge
	}

	return Settings{
		Server:     server,
		Publisher:  DefaultPublisherConfig(n.URL),
		Subscriber: sub,
		Relay:      relay,
		Stream:     stream,
		Batch: BatchConfig{
			Topic:     n.TallySubject,
			BatchSize: cfg.Consensus.BatchSize,
			Linger:    cfg.Consensus.Linger,
		},
		Embedded:         n.EmbeddedServer,
		TallySubject:     n.TallySubject,
		ConsensusSubject: n.ConsensusSubject,
	}
}
