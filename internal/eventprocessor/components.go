// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/trinity/internal/logging"
)

// Components holds the messaging pieces built at startup.
type Components struct {
	Server          *EmbeddedServer // nil when using an external cluster
	Publisher       message.Publisher
	TallySubscriber message.Subscriber
	RelaySubscriber message.Subscriber
	Settings        Settings
	URL             string
}

// Setup starts the embedded server if configured, ensures the stream and
// creates publishers and subscribers. On error everything already created
// is closed.
func Setup(ctx context.Context, s Settings) (_ *Components, err error) {
	c := &Components{Settings: s, URL: s.Publisher.URL}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
		}
	}()

	if s.Embedded {
		if c.Server, err = NewEmbeddedServer(s.Server); err != nil {
			return nil, err
		}
		c.URL = c.Server.ClientURL()
		logging.Info().Str("url", c.URL).Msg("embedded NATS server started")
	}

	if err = EnsureStreamAt(ctx, c.URL, s.Stream); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	logger := NewWatermillLogger()
	pubCfg := s.Publisher
	pubCfg.URL = c.URL
	if c.Publisher, err = NewPublisher(pubCfg, logger); err != nil {
		return nil, err
	}
	subCfg := s.Subscriber
	subCfg.URL = c.URL
	if c.TallySubscriber, err = NewSubscriber(subCfg, logger); err != nil {
		return nil, err
	}
	relayCfg := s.Relay
	relayCfg.URL = c.URL
	if c.RelaySubscriber, err = NewSubscriber(relayCfg, logger); err != nil {
		return nil, err
	}
	return c, nil
}

// Healthy reports an error when the embedded server has stopped.
func (c *Components) Healthy() error {
	if c.Server != nil && !c.Server.IsRunning() {
		return errors.New("embedded NATS server not running")
	}
	return nil
}

// Close shuts everything down in reverse order of creation.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for _, closer := range []interface{ Close() error }{c.RelaySubscriber, c.TallySubscriber, c.Publisher} {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Server != nil {
		if err := c.Server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
