// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "time"

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CreateEventRequest is the body of POST /api/v1/events. LabelIDs carries
// opaque label ids; bad elements are dropped by the codec's tolerant batch
// decode before ownership checking.
type CreateEventRequest struct {
	Name                   string   `json:"name" validate:"required,max=25"`
	WarningThresholdInDays int      `json:"warningThresholdInDays" validate:"min=0"`
	LabelIDs               []string `json:"labelIds"`
}

// UpdateEventRequest is the body of PATCH /api/v1/events/{id}. All fields
// are optional; absent fields leave the stored value untouched.
type UpdateEventRequest struct {
	Name                   *string      `json:"name" validate:"omitempty,min=1,max=25"`
	WarningThresholdInDays *int         `json:"warningThresholdInDays" validate:"omitempty,min=0"`
	LabelIDs               *[]string    `json:"labelIds"`
	Timestamps             *[]time.Time `json:"timestamps"`
}

// TimestampRequest is the body of the add/remove timestamp endpoints.
type TimestampRequest struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// CreateLabelRequest is the body of POST /api/v1/labels.
type CreateLabelRequest struct {
	Name string `json:"name" validate:"required,max=25"`
}

// UpdateLabelRequest is the body of PATCH /api/v1/labels/{id}.
type UpdateLabelRequest struct {
	Name string `json:"name" validate:"required,max=25"`
}
