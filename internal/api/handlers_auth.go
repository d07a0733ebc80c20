// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/models"
)

// loginResponse is the data payload of a successful login.
type loginResponse struct {
	Token string         `json:"token"`
	User  models.UserDTO `json:"user"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		respondError(w, http.StatusBadRequest, codeValidation, errs[0].Message, nil)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, h.userDTO(user), start)
}

// Login handles POST /api/v1/auth/login. Attempts are throttled per
// client address on top of the route-level rate limit.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		respondError(w, http.StatusBadRequest, codeValidation, errs[0].Message, nil)
		return
	}

	token, user, err := h.auth.Login(r.Context(), clientKey(r), req.Username, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, loginResponse{
		Token: token,
		User:  h.userDTO(user),
	}, start)
}

// Logout handles POST /api/v1/auth/logout. Revokes the session named by
// the token's jti claim; the token stops validating immediately.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "internal server error", err)
		return
	}

	respondSuccess(w, http.StatusOK, nil, start)
}

// Me handles GET /api/v1/auth/me, returning the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		return
	}

	respondSuccess(w, http.StatusOK, models.UserDTO{
		ID:       h.encodeUserID(claims.UserID()),
		Username: claims.Username,
	}, start)
}

func (h *Handler) encodeUserID(internalID string) string {
	dto := h.userDTO(&models.User{ID: internalID})
	return dto.ID
}

// clientKey derives the login throttle key from the client address.
// The RealIP middleware has already resolved X-Forwarded-For.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
