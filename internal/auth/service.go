// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package auth implements account registration, credential login with JWT
// access tokens, revocable Badger-backed sessions, and the HTTP middleware
// guarding authenticated routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/metrics"
	"github.com/relogapp/relog/internal/models"
)

// Authentication errors surfaced to the API layer.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrThrottled          = errors.New("too many login attempts")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrUsernameTaken      = errors.New("username is already taken")
)

// UserStore is the account persistence contract consumed by the service.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) (*models.User, error)
}

// Service handles registration, login and logout.
type Service struct {
	users    UserStore
	sessions SessionStore
	jwt      *JWTManager
	limiter  *LoginLimiter
	cfg      *config.SecurityConfig
}

// NewService wires the auth service from its collaborators.
func NewService(users UserStore, sessions SessionStore, jwt *JWTManager, cfg *config.SecurityConfig) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwt:      jwt,
		limiter:  NewLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
		cfg:      cfg,
	}
}

// Register creates a new account. Username availability is checked first
// for a friendly error; the storage UNIQUE constraint closes the race.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if !s.cfg.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.InsertUser(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("username", username).Msg("Account registered")
	return user, nil
}

// Login validates credentials and returns a signed access token plus the
// authenticated user. clientKey throttles attempts per client (usually the
// remote IP). Lookup failure and password mismatch are indistinguishable to
// the caller.
func (s *Service) Login(ctx context.Context, clientKey, username, password string) (string, *models.User, error) {
	if !s.limiter.Allow(clientKey) {
		metrics.RecordLoginAttempt("throttled")
		return "", nil, ErrThrottled
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Burn a comparison anyway so the unknown-username path
			// takes as long as a wrong password.
			CheckPassword("$2a$12$invalidsaltinvalidsaltinvalidsaltinvalidsalt", password)
			metrics.RecordLoginAttempt("failure")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		metrics.RecordLoginAttempt("failure")
		return "", nil, ErrInvalidCredentials
	}

	sessionID, err := NewSessionID()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	session := &Session{
		ID:        sessionID,
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTimeout),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, sessionID)
	if err != nil {
		return "", nil, err
	}

	metrics.RecordLoginAttempt("success")
	logging.Ctx(ctx).Info().Str("username", username).Msg("Login succeeded")
	return token, user, nil
}

// Logout revokes the session named by the token's jti claim. Tokens whose
// session is gone fail middleware validation even before their expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	return s.sessions.Delete(ctx, claims.SessionID())
}

// Validate checks a raw token and confirms its backing session is alive.
func (s *Service) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.Get(ctx, claims.SessionID()); err != nil {
		return nil, fmt.Errorf("session invalid: %w", err)
	}

	return claims, nil
}

// PruneLimiter drops idle login-limiter entries.
func (s *Service) PruneLimiter(maxIdle time.Duration) {
	s.limiter.Prune(maxIdle)
}
