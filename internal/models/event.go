// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "time"

// Event name constraints enforced on every create/update.
const (
	EventNameMaxLength = 25
)

// Event is a stored loggable event. The ID and OwnerID fields hold internal
// 24-hex identifiers; they are encoded to opaque ids only at the API boundary.
//
// Invariant: Timestamps contains no duplicate instants (millisecond equality)
// and is sorted newest first after every mutation.
type Event struct {
	ID                   string
	OwnerID              string
	Name                 string
	WarningThresholdDays int
	Timestamps           []time.Time
	Labels               []Label
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Overdue reports whether the event is stale: its newest occurrence is older
// than the warning threshold. Events with no occurrences and a positive
// threshold count as overdue - they have never been logged.
func (e *Event) Overdue(now time.Time) bool {
	if e.WarningThresholdDays <= 0 {
		return false
	}
	if len(e.Timestamps) == 0 {
		return true
	}
	threshold := time.Duration(e.WarningThresholdDays) * 24 * time.Hour
	return now.Sub(e.Timestamps[0]) > threshold
}

// EventUpdate carries a partial update. Nil fields are left untouched in
// storage; non-nil fields replace the stored value wholesale.
type EventUpdate struct {
	Name                 *string
	WarningThresholdDays *int
	Timestamps           *[]time.Time
	LabelIDs             *[]string
}

// EventDTO is the external representation of an event. All identifiers are
// opaque public ids; Timestamps is newest first.
type EventDTO struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	WarningThresholdInDays int        `json:"warningThresholdInDays"`
	Timestamps             []string   `json:"timestamps"`
	Labels                 []LabelDTO `json:"labels"`
	Overdue                bool       `json:"overdue"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}
