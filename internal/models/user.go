// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "time"

// User is a stored account. PasswordHash is a bcrypt hash and never crosses
// the API boundary.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserDTO is the external representation of a user.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
