// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c := New("test", ttl)
	t.Cleanup(c.Stop)
	return c
}

func TestCacheSetGet(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("k", 42)
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("miss on fresh entry")
	}
	if got.(int) != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t, time.Minute)

	if _, ok := c.Get("absent"); ok {
		t.Error("hit on absent key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(t, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("hit on expired entry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed on access, len = %d", c.Len())
	}
}

func TestCacheDeletePrefix(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("events:user1:all", 1)
	c.Set("events:user1:page2", 2)
	c.Set("events:user2:all", 3)

	if removed := c.DeletePrefix("events:user1:"); removed != 2 {
		t.Errorf("removed %d entries, want 2", removed)
	}
	if _, ok := c.Get("events:user2:all"); !ok {
		t.Error("unrelated key removed")
	}
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", c.Len())
	}
}

func TestCacheSweep(t *testing.T) {
	c := newTestCache(t, 5*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(15 * time.Millisecond)
	c.sweep()

	if c.Len() != 0 {
		t.Errorf("len after sweep = %d, want 0", c.Len())
	}
}

func TestCacheStopIdempotent(t *testing.T) {
	c := New("stop-test", time.Minute)
	c.Stop()
	c.Stop()
}
