// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/logging"
)

// Claims are the JWT claims carried by an access token. Subject holds the
// internal user id; it never leaves the server in any other field, and the
// API layer re-encodes it to the opaque public form before responding.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the internal user id from the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// SessionID returns the server-side session id from the jti claim.
func (c *Claims) SessionID() string {
	return c.ID
}

// JWTManager creates and validates HS256 access tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a token manager from the security configuration.
// An empty secret is tolerated only outside production: a random
// per-process secret is generated, which invalidates all tokens on restart.
func NewJWTManager(cfg *config.SecurityConfig, production bool) (*JWTManager, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if production {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate development JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logging.Warn().Msg("JWT_SECRET not set, using random per-process secret; tokens will not survive restarts")
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// GenerateToken creates a signed access token for an authenticated user.
// sessionID lands in the jti claim and ties the token to a revocable
// server-side session.
func (m *JWTManager) GenerateToken(userID, username, sessionID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken verifies signature, algorithm and time claims, and returns
// the embedded claims. Restricting the method to HMAC prevents algorithm
// confusion attacks.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}

	return claims, nil
}

// Timeout returns the configured token lifetime.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}
