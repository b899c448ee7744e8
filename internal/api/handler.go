// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package api

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/trinity/internal/circuitbreaker"
	"github.com/tomtom215/trinity/internal/consensus"
	"github.com/tomtom215/trinity/internal/contentcache"
	"github.com/tomtom215/trinity/internal/models"
	"github.com/tomtom215/trinity/internal/websocket"
)

// ContentProvider serves candidate items.
type ContentProvider interface {
	GetContent(ctx context.Context, req contentcache.ContentRequest) ([]models.CandidateItem, error)
}

// ContentBatchAdmin inspects and drops stored content batches.
type ContentBatchAdmin interface {
	BatchStatus(ctx context.Context, ref contentcache.BatchRef) (*contentcache.BatchStatus, error)
	InvalidateBatch(ctx context.Context, ref contentcache.BatchRef) error
}

// EventProcessor runs change events through consensus detection.
type EventProcessor interface {
	Process(ctx context.Context, ev models.ChangeEvent) consensus.Outcome
	ProcessBatch(ctx context.Context, events []models.ChangeEvent) consensus.BatchResult
}

// GroupStore holds group state and votes.
type GroupStore interface {
	CreateGroup(ctx context.Context, groupID string, memberCount int) (*models.GroupConsensusState, error)
	GetGroup(ctx context.Context, groupID string) (*models.GroupConsensusState, error)
	RecordVote(ctx context.Context, vote models.VoteRecord) (models.ChangeEvent, error)
}

// ChangePublisher forwards tally change events to the stream.
type ChangePublisher interface {
	PublishChange(ctx context.Context, ev models.ChangeEvent) error
}

// BreakerAdmin inspects and resets the catalog breaker.
type BreakerAdmin interface {
	Status() circuitbreaker.Status
	Reset()
}

// HealthCheck is one readiness dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps wires the handler. Changes may be nil, in which case votes are
// evaluated in-process. Hub may be nil to disable the websocket route, and
// Batches may be nil to disable the content batch admin routes.
type Deps struct {
	Content ContentProvider
	Batches ContentBatchAdmin
	Events  EventProcessor
	Groups  GroupStore
	Changes ChangePublisher
	Breaker BreakerAdmin
	Hub     *websocket.Hub
	Checks  []HealthCheck

	// AllowedOrigins restricts websocket upgrades. Empty allows same-host
	// requests only.
	AllowedOrigins []string
}

// Handler implements every route.
type Handler struct {
	deps      Deps
	upgrader  *gorillaws.Upgrader
	startTime time.Time
}

// NewHandler builds a Handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{deps: deps, startTime: time.Now()}
	h.upgrader = &gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.deps.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
