// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"errors"
	"net/http"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/models"
	"github.com/relogapp/relog/internal/tracker"
)

// respondThrown maps a domain error from the thrown channel to an HTTP
// status and response-level error code.
//
// The mapping mirrors the service layer's contract:
//   - idcodec.ErrInvalidFormat: the opaque id in the URL is garbage (400)
//   - tracker.ErrForbidden: a referenced label belongs to another user (403)
//   - models.ErrNotFound: the primary target is missing or owned by
//     someone else; the two cases are indistinguishable on purpose (404)
//
// Everything else is an internal failure whose detail stays server-side.
func respondThrown(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, idcodec.ErrInvalidFormat):
		respondError(w, http.StatusBadRequest, codeBadRequest, "malformed identifier", err)
	case errors.Is(err, tracker.ErrForbidden):
		respondError(w, http.StatusForbidden, codeForbidden, "referenced record belongs to another user", err)
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, "record not found", nil)
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, "internal server error", err)
	}
}

// respondAuthError maps authentication-flow errors to HTTP statuses.
// Invalid credentials and unknown usernames produce identical responses.
func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "invalid username or password", nil)
	case errors.Is(err, auth.ErrThrottled):
		respondError(w, http.StatusTooManyRequests, codeTooManyRequests, "too many login attempts, try again later", nil)
	case errors.Is(err, auth.ErrUsernameTaken):
		respondError(w, http.StatusConflict, codeConflict, "username is already taken", nil)
	case errors.Is(err, auth.ErrRegistrationClosed):
		respondError(w, http.StatusForbidden, codeForbidden, "registration is closed", nil)
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, "internal server error", err)
	}
}
