// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trinity/internal/logging"
	"github.com/tomtom215/trinity/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeConsensusReached = "consensus_reached"
	MessageTypeSubscribed       = "subscribed"
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
)

// ErrBroadcastFull is returned when the hub cannot accept a broadcast.
var ErrBroadcastFull = errors.New("websocket broadcast channel full")

// Message represents a WebSocket message
type Message struct {
	Type    string `json:"type"`
	GroupID string `json:"group_id,omitempty"`
	Data    any    `json:"data"`
}

// Hub maintains the set of active clients per group.
type Hub struct {
	groups     map[string]map[*Client]struct{}
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		groups:     make(map[string]map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every client.
//
// Lifecycle events are drained before broadcasts so a client registered just
// before a broadcast receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToGroup(message)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	members, ok := h.groups[c.groupID]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[c.groupID] = members
	}
	members[c] = struct{}{}
	groupClients := len(members)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Str("group_id", c.groupID).Int("group_clients", groupClients).Msg("websocket client connected")

	select {
	case c.send <- Message{Type: MessageTypeSubscribed, GroupID: c.groupID}:
	default:
	}
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dropLocked(c) {
		logging.Info().Str("group_id", c.groupID).Msg("websocket client disconnected")
	}
}

// dropLocked removes c and closes its send channel. h.mu must be held.
func (h *Hub) dropLocked(c *Client) bool {
	members, ok := h.groups[c.groupID]
	if !ok {
		return false
	}
	if _, ok := members[c]; !ok {
		return false
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, c.groupID)
	}
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// sortedClients returns a group's clients in connection order. h.mu must be held.
func (h *Hub) sortedClients(groupID string) []*Client {
	members := h.groups[groupID]
	clients := make([]*Client, 0, len(members))
	for c := range members {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}

func (h *Hub) broadcastToGroup(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients(message.GroupID) {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		logging.Warn().Str("group_id", client.groupID).Uint64("client_id", client.id).Msg("websocket client too slow, dropping")
		h.dropLocked(client)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	groupIDs := make([]string, 0, len(h.groups))
	for g := range h.groups {
		groupIDs = append(groupIDs, g)
	}
	sort.Strings(groupIDs)
	for _, g := range groupIDs {
		for _, c := range h.sortedClients(g) {
			h.dropLocked(c)
		}
	}
}

// BroadcastToGroup queues a message for every client of groupID.
func (h *Hub) BroadcastToGroup(groupID, messageType string, data any) error {
	select {
	case h.broadcast <- Message{Type: messageType, GroupID: groupID, Data: data}:
		return nil
	default:
		logging.Warn().Str("group_id", groupID).Str("message_type", messageType).Msg("broadcast channel full, dropping message")
		return ErrBroadcastFull
	}
}

// BroadcastRaw decodes a JSON payload carrying a group_id and broadcasts it
// as messageType.
func (h *Hub) BroadcastRaw(messageType string, payload []byte) error {
	var envelope struct {
		GroupID string `json:"group_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return err
	}
	if envelope.GroupID == "" {
		return errors.New("payload has no group_id")
	}
	return h.BroadcastToGroup(envelope.GroupID, messageType, json.RawMessage(payload))
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, members := range h.groups {
		n += len(members)
	}
	return n
}

// GroupClientCount returns the number of clients subscribed to groupID.
func (h *Hub) GroupClientCount(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
