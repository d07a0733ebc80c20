// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/models"
)

type memUserStore struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User // by username
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (m *memUserStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUserStore) InsertUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Username]; exists {
		return nil, fmt.Errorf("unique constraint violation")
	}
	m.seq++
	stored := *user
	stored.ID = fmt.Sprintf("%024x", m.seq)
	stored.CreatedAt = time.Now().UTC()
	m.users[user.Username] = &stored
	out := stored
	return &out, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*Session)}
}

func (m *memSessionStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.IsExpired() {
		return nil, ErrSessionExpired
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessionStore) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memSessionStore) DeleteExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpired() {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memSessionStore) Close() error { return nil }

func newTestAuthService(t *testing.T, mutate func(*config.SecurityConfig)) (*Service, *memUserStore, *memSessionStore) {
	t.Helper()
	cfg := testSecurityConfig()
	cfg.RegistrationOpen = true
	cfg.LoginRatePerMinute = 60
	cfg.LoginBurst = 10
	if mutate != nil {
		mutate(cfg)
	}
	jwtManager, err := NewJWTManager(cfg, false)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	users := newMemUserStore()
	sessions := newMemSessionStore()
	return NewService(users, sessions, jwtManager, cfg), users, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correcthorse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" {
		t.Error("registered user has no id")
	}
	if user.PasswordHash == "correcthorse" {
		t.Error("password stored in plaintext")
	}

	token, loggedIn, err := svc.Login(ctx, "client-1", "alice", "correcthorse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %q, want %q", loggedIn.ID, user.ID)
	}

	claims, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID() != user.ID {
		t.Errorf("claims user id = %q, want %q", claims.UserID(), user.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correcthorse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "otherpassword"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterClosed(t *testing.T) {
	svc, _, _ := newTestAuthService(t, func(cfg *config.SecurityConfig) {
		cfg.RegistrationOpen = false
	})
	if _, err := svc.Register(context.Background(), "alice", "correcthorse"); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("err = %v, want ErrRegistrationClosed", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correcthorse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err := svc.Login(ctx, "client-1", "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}

	// Unknown username yields the same error.
	_, _, err = svc.Login(ctx, "client-1", "mallory", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginThrottled(t *testing.T) {
	svc, _, _ := newTestAuthService(t, func(cfg *config.SecurityConfig) {
		cfg.LoginRatePerMinute = 1
		cfg.LoginBurst = 2
	})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correcthorse"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var lastErr error
	for i := 0; i < 5; i++ {
		_, _, lastErr = svc.Login(ctx, "attacker", "alice", "wrong")
	}
	if !errors.Is(lastErr, ErrThrottled) {
		t.Errorf("err after burst = %v, want ErrThrottled", lastErr)
	}

	// A different client key is unaffected.
	if _, _, err := svc.Login(ctx, "legit", "alice", "correcthorse"); err != nil {
		t.Errorf("independent client throttled: %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correcthorse"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, _, err := svc.Login(ctx, "client-1", "alice", "correcthorse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if _, err := svc.Validate(ctx, token); err == nil {
		t.Error("token still valid after logout")
	}
}
