// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package eventprocessor

import (
	"testing"
	"time"
)

func TestSubscribeOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cfg      SubscriberConfig
		wantLen  int
		wantAuto bool
	}{
		{"bound durable", SubscriberConfig{StreamName: "VOTE_TALLY", MaxDeliver: 5, AckWaitTimeout: time.Second}, 5, false},
		{"no max deliver", SubscriberConfig{StreamName: "VOTE_TALLY"}, 4, false},
		{"unbound", SubscriberConfig{DeliverAll: true}, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, auto := subscribeOptions(tt.cfg)
			if len(opts) != tt.wantLen || auto != tt.wantAuto {
				t.Errorf("got %d opts auto=%v, want %d auto=%v", len(opts), auto, tt.wantLen, tt.wantAuto)
			}
		})
	}
}

func TestConnOptionsNamed(t *testing.T) {
	t.Parallel()
	if got := len(connOptions("x", -1, time.Second, NewWatermillLogger())); got != 6 {
		t.Errorf("len = %d, want 6", got)
	}
}
