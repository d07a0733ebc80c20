// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per client IP with a token bucket.
// It exists separately from the global API rate limiter because failed
// logins are the one endpoint worth a much tighter budget.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows ratePerMinute sustained attempts with the given
// burst, tracked per client key.
func NewLoginLimiter(ratePerMinute, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(float64(ratePerMinute) / 60.0),
		burst:    burst,
	}
}

// Allow reports whether the client identified by key may attempt a login
// now.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

// Prune drops client entries idle longer than maxIdle, bounding memory on
// long-running processes.
func (l *LoginLimiter) Prune(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, cl := range l.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}
