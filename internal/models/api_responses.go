// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "time"

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status is "success" or "error". Data carries the payload (for mutations, a
// MutationPayload). Error is populated only when Status is "error" and maps
// the thrown error channel: authorization, identifier-format, and internal
// failures.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents a thrown error with a machine-readable code.
//
// Codes used by Relog:
//   - VALIDATION_ERROR: malformed request body or parameters
//   - BAD_REQUEST: malformed opaque identifier
//   - UNAUTHORIZED: missing or invalid credentials
//   - FORBIDDEN: referenced record belongs to another user
//   - NOT_FOUND: target record does not exist or is not visible to the caller
//   - INTERNAL_SERVER_ERROR: unexpected failure; detail stays server-side
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
