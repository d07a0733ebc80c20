// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

// Mutation error codes returned in the structured (data) channel. These are
// expected, user-correctable conditions; authorization and infrastructure
// failures use the thrown channel instead (see api error codes).
const (
	MutationCodeValidation = "VALIDATION_ERROR"
	MutationCodeNotFound   = "NOT_FOUND"
)

// MutationError is a structured, per-field failure returned alongside a
// mutation's primary result rather than aborting the whole response.
type MutationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// MutationPayload is the data shape every mutation endpoint returns.
// Clients check Errors first: a populated Errors slice means PrimaryResult
// is null and the operation did not change stored state (except where the
// operation's contract says otherwise, e.g. duplicate add-timestamp).
type MutationPayload struct {
	PrimaryResult interface{}     `json:"primaryResult"`
	Errors        []MutationError `json:"errors"`
}
