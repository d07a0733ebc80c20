// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package tracker

import (
	"sort"
	"time"
)

// NormalizeTimestamps collapses duplicate instants (equality by exact
// millisecond value) and sorts the result newest first. Every write path of
// an event's timestamp collection goes through this function, whether the
// collection was supplied wholesale or derived by appending/removing one
// instant.
//
// The function is pure and idempotent: normalizing an already-normalized
// sequence returns an equal sequence. Instants are canonicalized to UTC with
// millisecond precision, matching the wire format's resolution.
func NormalizeTimestamps(timestamps []time.Time) []time.Time {
	seen := make(map[int64]struct{}, len(timestamps))
	out := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		ms := ts.UnixMilli()
		if _, ok := seen[ms]; ok {
			continue
		}
		seen[ms] = struct{}{}
		out = append(out, time.UnixMilli(ms).UTC())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].After(out[j])
	})
	return out
}

// containsInstant reports whether timestamps holds the given instant,
// comparing by exact millisecond value.
func containsInstant(timestamps []time.Time, target time.Time) bool {
	ms := target.UnixMilli()
	for _, ts := range timestamps {
		if ts.UnixMilli() == ms {
			return true
		}
	}
	return false
}

// withoutInstant returns timestamps with every occurrence of the given
// instant (millisecond equality) removed.
func withoutInstant(timestamps []time.Time, target time.Time) []time.Time {
	ms := target.UnixMilli()
	out := make([]time.Time, 0, len(timestamps))
	for _, ts := range timestamps {
		if ts.UnixMilli() == ms {
			continue
		}
		out = append(out, ts)
	}
	return out
}
