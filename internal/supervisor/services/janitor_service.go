// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package services

import (
	"context"
	"time"

	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/metrics"
)

// SessionStore matches the session-store maintenance surface.
//
// Satisfied by *auth.BadgerSessionStore.
type SessionStore interface {
	DeleteExpired(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
	RunValueLogGC()
}

// LimiterPruner matches the login-limiter maintenance surface.
//
// Satisfied by *auth.Service.
type LimiterPruner interface {
	PruneLimiter(maxIdle time.Duration)
}

// JanitorService runs the periodic housekeeping the auth layer needs:
// sweeping expired sessions, compacting the session store's value log,
// dropping idle login-limiter buckets, and refreshing the session and
// uptime gauges. One sweep per interval; a failed sweep is logged and
// retried on the next tick rather than crashing the service.
type JanitorService struct {
	sessions SessionStore
	limiter  LimiterPruner
	interval time.Duration
	started  time.Time
	name     string
}

// NewJanitorService creates a janitor sweeping at the given interval.
// An interval of zero falls back to 10 minutes.
func NewJanitorService(sessions SessionStore, limiter LimiterPruner, interval time.Duration) *JanitorService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &JanitorService{
		sessions: sessions,
		limiter:  limiter,
		interval: interval,
		started:  time.Now(),
		name:     "session-janitor",
	}
}

// Serve implements suture.Service. It runs one sweep immediately so a
// restart after a crash does not delay housekeeping by a full interval,
// then sweeps on every tick until the context is canceled.
func (j *JanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", j.name).Msg("janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *JanitorService) sweep(ctx context.Context) {
	start := time.Now()

	removed, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("session sweep failed")
	} else if removed > 0 {
		logging.Info().Int("removed", removed).Msg("swept expired sessions")
	}

	j.sessions.RunValueLogGC()

	if j.limiter != nil {
		// Buckets idle for two intervals are stale enough to drop.
		j.limiter.PruneLimiter(2 * j.interval)
	}

	if active, err := j.sessions.CountActive(ctx); err == nil {
		metrics.AuthActiveSessions.Set(float64(active))
	}
	metrics.AppUptime.Set(time.Since(j.started).Seconds())

	logging.Debug().Dur("duration", time.Since(start)).Msg("janitor sweep complete")
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (j *JanitorService) String() string {
	return j.name
}
