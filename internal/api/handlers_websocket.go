// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"net/http"
	"net/url"

	gorilla "github.com/gorilla/websocket"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/websocket"
)

// WebSocket handles GET /api/v1/ws. The route sits behind the auth
// middleware, so the claims in the context identify the owner whose
// change feed this connection joins.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal, "realtime feed unavailable", nil)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own error response
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, claims.UserID(),
		h.cfg.WebSocket.PingInterval, h.cfg.WebSocket.WriteTimeout)
	h.hub.Register <- client
	client.Start()
}

// upgrader builds the upgrader with an origin check derived from the
// CORS allowlist. A "*" entry keeps the permissive development default.
func (h *Handler) upgrader() gorilla.Upgrader {
	allowed := h.cfg.Security.CORSOrigins
	return gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			// Same-origin requests are always fine
			if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
				return true
			}
			return false
		},
	}
}
