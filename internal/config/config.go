// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables.
//
// Loading order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Codec     CodecConfig     `koanf:"codec"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development" or "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// APIConfig holds pagination limits for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs access tokens. Required in production; a random
	// per-process secret is generated in development when empty.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	BcryptCost     int           `koanf:"bcrypt_cost"`

	// SessionStorePath is the Badger directory backing refresh sessions.
	SessionStorePath string `koanf:"session_store_path"`

	// Login throttling: per-IP token bucket on the login endpoint.
	LoginRatePerMinute int `koanf:"login_rate_per_minute"`
	LoginBurst         int `koanf:"login_burst"`

	// Global API rate limiting.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RegistrationOpen gates the register endpoint; single-user installs
	// close it after creating the first account.
	RegistrationOpen bool `koanf:"registration_open"`
}

// CodecConfig holds opaque public-id settings. Changing the salt after
// deployment invalidates every public id previously handed to clients.
type CodecConfig struct {
	Salt      string `koanf:"salt"`
	MinLength int    `koanf:"min_length"`
}

// WebSocketConfig holds realtime change-feed settings.
type WebSocketConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PingInterval time.Duration `koanf:"ping_interval"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
