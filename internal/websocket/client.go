// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relogapp/relog/internal/logging"
)

const (
	defaultWriteWait    = 10 * time.Second
	defaultPingInterval = 30 * time.Second

	// pongWaitFactor scales the ping interval into a read deadline so a
	// connection that misses two pings in a row gets torn down.
	pongWaitFactor = 2

	// maxMessageSize bounds inbound frames. Clients only ever send tiny
	// ping messages, so anything larger is a misbehaving peer.
	maxMessageSize = 4 * 1024
)

// clientIDCounter generates unique, monotonically increasing IDs for
// clients. The IDs give broadcast operations a stable sort key, which
// eliminates non-deterministic map iteration order.
var clientIDCounter atomic.Uint64

// Client is a middleman between one websocket connection and the hub.
// Every client belongs to exactly one authenticated owner.
type Client struct {
	id     uint64
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message

	writeWait    time.Duration
	pingInterval time.Duration
}

// NewClient creates a client bound to the given owner's connection.
// pingInterval and writeWait of zero fall back to defaults.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, pingInterval, writeWait time.Duration) *Client {
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &Client{
		id:           clientIDCounter.Add(1),
		userID:       userID,
		hub:          hub,
		conn:         conn,
		send:         make(chan Message, 64),
		writeWait:    writeWait,
		pingInterval: pingInterval,
	}
}

// ID returns the client's unique identifier for deterministic ordering.
func (c *Client) ID() uint64 {
	return c.id
}

// UserID returns the owner this connection belongs to.
func (c *Client) UserID() string {
	return c.userID
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	pongWait := c.pingInterval * pongWaitFactor

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		if msg.Type == MessageTypePing {
			pong := Message{Type: MessageTypePong}
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
