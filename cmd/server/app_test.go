// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/models"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Catalog.APIKey = "test-key"
	cfg.Catalog.BaseURL = "http://127.0.0.1:1" // nothing listens
	cfg.Store.InMemory = true
	cfg.NATS.Enabled = false
	cfg.Server.RateLimitReqs = 0
	return cfg
}

func post(t *testing.T, h http.Handler, path, body string) (int, models.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s: decode %q: %v", path, rec.Body.String(), err)
	}
	return rec.Code, out
}

func TestNewAppWithoutNATS(t *testing.T) {
	a, err := newApp(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d: %s", rec.Code, rec.Body.String())
	}

	if code, _ := post(t, a.handler, "/api/v1/admin/groups", `{"group_id":"g1","member_count":2}`); code != http.StatusCreated {
		t.Fatalf("create group = %d", code)
	}
	post(t, a.handler, "/api/v1/groups/g1/votes", `{"item_id":"i1","voter_id":"u1","choice":"YES"}`)
	code, resp := post(t, a.handler, "/api/v1/groups/g1/votes", `{"item_id":"i1","voter_id":"u2","choice":"YES"}`)
	if code != http.StatusCreated {
		t.Fatalf("second vote = %d", code)
	}
	data, _ := resp.Data.(map[string]any)
	outcome, _ := data["outcome"].(map[string]any)
	if outcome["outcome"] != "consensus-triggered" {
		t.Errorf("outcome = %v, want consensus-triggered", outcome)
	}

	state, err := a.store.GetGroup(context.Background(), "g1")
	if err != nil || state.Status != models.StatusConsensusReached || state.AgreedItemID != "i1" {
		t.Errorf("group = %+v, %v", state, err)
	}
}

func TestContentFallsBackWhenCatalogDown(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker.FailureThreshold = 1
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	code, resp := post(t, a.handler, "/api/v1/groups/g1/content", `{"media_type":"MOVIE","genre_ids":[28],"count":5}`)
	if code != http.StatusOK {
		t.Fatalf("content = %d %+v", code, resp.Error)
	}
	items, _ := resp.Data.([]any)
	if len(items) == 0 {
		t.Error("an unreachable catalog must still yield default items")
	}
}

func TestNewAppRequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.APIKey = ""
	_, err := newApp(context.Background(), cfg)
	if !errors.Is(err, config.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}
