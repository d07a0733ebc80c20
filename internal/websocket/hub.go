// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for the change feed.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeEventChanged = "event_changed"
	MessageTypeEventDeleted = "event_deleted"
	MessageTypeLabelChanged = "label_changed"
	MessageTypeLabelDeleted = "label_deleted"
)

// Message represents a change-feed message sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ChangeData carries the opaque public identifier of the changed entity.
// Clients use it to refetch the entity (or drop it from local state for
// the *_deleted types) through the REST API.
type ChangeData struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

// notification is an owner-scoped message queued for broadcast.
type notification struct {
	userID  string
	message Message
}

// Hub maintains the set of active clients grouped by owner and delivers
// change notifications to the owner's connections only.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[string]map[*Client]bool
	broadcast  chan notification
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan notification, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// It is designed for use with suture supervision: when the context is
// canceled, all connected clients are closed and ctx.Err() is returned.
//
// DETERMINISM: Uses priority-based selection so behavior is predictable
// when multiple channels are ready simultaneously:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Change notifications
// Client state is always consistent before a notification is delivered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: Deliver notifications or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case n := <-h.broadcast:
			h.deliver(n)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	conns := h.byUser[client.userID]
	if conns == nil {
		conns = make(map[*Client]bool)
		h.byUser[client.userID] = conns
	}
	conns[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.dropLocked(client)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnectionsActive.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// dropLocked removes a client from both indexes and closes its send
// channel. Callers must hold h.mu.
func (h *Hub) dropLocked(client *Client) {
	delete(h.clients, client)
	if conns, ok := h.byUser[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	close(client.send)
}

// deliver sends a notification to every connection of the target owner.
// DETERMINISM: Clients are sorted by their monotonically assigned IDs so
// delivery order is consistent across runs, which keeps tests and race
// conditions reproducible.
func (h *Hub) deliver(n notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.byUser[n.userID]
	if !ok || len(conns) == 0 {
		return
	}

	clients := make([]*Client, 0, len(conns))
	for client := range conns {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- n.message:
			metrics.WSMessagesSent.Inc()
		default:
			// Channel full, the client is too slow to keep up
			metrics.WSMessagesDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		h.dropLocked(client)
	}
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information.
//
// Note: ctx.Err() is NOT logged as an error because context cancellation
// is expected behavior during graceful shutdown. Logging it as .Err()
// would confuse operators monitoring error logs.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()

	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes all connected clients. Called during shutdown.
// DETERMINISM: Closes clients in ID order for consistent shutdown behavior.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		h.dropLocked(client)
	}
	metrics.WSConnectionsActive.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// notify queues an owner-scoped message for delivery. Enqueueing never
// blocks; if the hub cannot keep up the notification is dropped, which
// is acceptable because clients refetch state through the REST API.
func (h *Hub) notify(userID, messageType, publicID string) {
	n := notification{
		userID: userID,
		message: Message{
			Type: messageType,
			Data: ChangeData{
				ID:        publicID,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		},
	}

	select {
	case h.broadcast <- n:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping notification")
	}
}

// NotifyEventChanged tells the owner's connections that an event was
// created or updated. publicID is the opaque identifier clients use to
// refetch it.
func (h *Hub) NotifyEventChanged(userID, publicID string) {
	h.notify(userID, MessageTypeEventChanged, publicID)
}

// NotifyEventDeleted tells the owner's connections that an event was removed.
func (h *Hub) NotifyEventDeleted(userID, publicID string) {
	h.notify(userID, MessageTypeEventDeleted, publicID)
}

// NotifyLabelChanged tells the owner's connections that a label was
// created or renamed.
func (h *Hub) NotifyLabelChanged(userID, publicID string) {
	h.notify(userID, MessageTypeLabelChanged, publicID)
}

// NotifyLabelDeleted tells the owner's connections that a label was removed.
// Since label deletion detaches the label from the owner's events, clients
// should refetch their event list as well.
func (h *Hub) NotifyLabelDeleted(userID, publicID string) {
	h.notify(userID, MessageTypeLabelDeleted, publicID)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount returns the number of connections held by one owner.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
