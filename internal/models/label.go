// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "time"

// Label is a user-owned tag attached to events (many-to-many). Label names
// are not unique, but every label referenced by an event must belong to the
// same user as the event.
type Label struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

// LabelDTO is the external representation of a label.
type LabelDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
