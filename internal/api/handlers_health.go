// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"net/http"
	"time"
)

// healthStatus is the payload of GET /api/v1/health.
type healthStatus struct {
	Status        string  `json:"status"`
	Database      bool    `json:"database"`
	WebSocket     bool    `json:"websocket"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	respondSuccess(w, http.StatusOK, healthStatus{
		Status:        status,
		Database:      dbConnected,
		WebSocket:     h.hub != nil,
		UptimeSeconds: time.Since(h.started).Seconds(),
		Version:       Version,
	}, start)
}

// HealthLive handles GET /api/v1/health/live. Liveness means the
// process is up and serving; it never checks dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// database to answer; a 503 tells the orchestrator to hold traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.db == nil || h.db.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal, "database not ready", nil)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]string{"status": "ready"}, start)
}
