// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordConsensusOutcome(t *testing.T) {
	before := testutil.ToFloat64(ConsensusOutcomes.WithLabelValues("consensus-pending"))
	RecordConsensusOutcome("consensus-pending")
	RecordConsensusOutcome("consensus-pending")
	after := testutil.ToFloat64(ConsensusOutcomes.WithLabelValues("consensus-pending"))

	if after-before != 2 {
		t.Errorf("consensus-pending delta = %v, want 2", after-before)
	}
}

func TestRecordNotification(t *testing.T) {
	okBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("nats", "success"))
	failBefore := testutil.ToFloat64(NotificationsTotal.WithLabelValues("nats", "failure"))

	RecordNotification("nats", nil)
	RecordNotification("nats", errors.New("timeout"))

	if d := testutil.ToFloat64(NotificationsTotal.WithLabelValues("nats", "success")) - okBefore; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(NotificationsTotal.WithLabelValues("nats", "failure")) - failBefore; d != 1 {
		t.Errorf("failure delta = %v, want 1", d)
	}
}

func TestRecordSelectorItemsSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(SelectorItems.WithLabelValues("2"))
	RecordSelectorItems(2, 0)
	RecordSelectorItems(2, 7)
	if d := testutil.ToFloat64(SelectorItems.WithLabelValues("2")) - before; d != 7 {
		t.Errorf("tier 2 delta = %v, want 7", d)
	}
}

func TestRecordCatalogRequestLabelsTransportErrors(t *testing.T) {
	before := testutil.CollectAndCount(CatalogRequestDuration)
	RecordCatalogRequest("MOVIE", 0, 10*time.Millisecond)
	RecordCatalogRequest("MOVIE", 503, 10*time.Millisecond)
	if got := testutil.CollectAndCount(CatalogRequestDuration); got < before {
		t.Errorf("series count shrank: %d < %d", got, before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/content", "200"))
	RecordAPIRequest("POST", "/content", "200", 5*time.Millisecond)
	if d := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/content", "200")) - before; d != 1 {
		t.Errorf("delta = %v, want 1", d)
	}
}
