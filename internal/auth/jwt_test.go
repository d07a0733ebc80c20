// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/relogapp/relog/internal/config"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      strings.Repeat("s", 32),
		SessionTimeout: time.Hour,
		BcryptCost:     4,
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(), true)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := m.GenerateToken("aaaaaaaaaaaaaaaaaaaaaaaa", "alice", "sess-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID() != "aaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("user id = %q", claims.UserID())
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q", claims.Username)
	}
	if claims.SessionID() != "sess-1" {
		t.Errorf("session id = %q", claims.SessionID())
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig(), true)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := m.GenerateToken("aaaaaaaaaaaaaaaaaaaaaaaa", "alice", "sess-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := m.ValidateToken(tampered); err == nil {
		t.Error("tampered token accepted")
	}
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	a, _ := NewJWTManager(testSecurityConfig(), true)
	otherCfg := testSecurityConfig()
	otherCfg.JWTSecret = strings.Repeat("t", 32)
	b, _ := NewJWTManager(otherCfg, true)

	token, err := a.GenerateToken("aaaaaaaaaaaaaaaaaaaaaaaa", "alice", "sess-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := b.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestJWTExpiredToken(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.SessionTimeout = -time.Minute
	m, err := NewJWTManager(cfg, true)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := m.GenerateToken("aaaaaaaaaaaaaaaaaaaaaaaa", "alice", "sess-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestJWTManagerProductionRequiresSecret(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.JWTSecret = ""

	if _, err := NewJWTManager(cfg, true); err == nil {
		t.Error("production manager without secret accepted")
	}

	m, err := NewJWTManager(cfg, false)
	if err != nil {
		t.Fatalf("development manager without secret rejected: %v", err)
	}
	token, err := m.GenerateToken("aaaaaaaaaaaaaaaaaaaaaaaa", "alice", "sess-1")
	if err != nil {
		t.Fatalf("GenerateToken with generated secret: %v", err)
	}
	if _, err := m.ValidateToken(token); err != nil {
		t.Errorf("ValidateToken with generated secret: %v", err)
	}
}
