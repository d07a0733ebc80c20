// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestValidateServerPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := defaultConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d accepted, want error", port)
		}
	}
}

func TestValidateEnvironment(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "staging"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown environment accepted")
	}
}

func TestValidateProductionRequiresJWTSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "production"
	cfg.Security.JWTSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("production without JWT_SECRET accepted")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Errorf("error %q does not mention JWT_SECRET", err)
	}

	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	if err := cfg.Validate(); err != nil {
		t.Errorf("production with 32-char secret rejected: %v", err)
	}
}

func TestValidateShortJWTSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("short JWT secret accepted")
	}
}

func TestValidateEmptyCodecSalt(t *testing.T) {
	cfg := defaultConfig()
	cfg.Codec.Salt = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty codec salt accepted")
	}
}

func TestValidateCORSOrigins(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.CORSOrigins = []string{"https://relog.example.com", "*"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid origins rejected: %v", err)
	}

	cfg.Security.CORSOrigins = []string{"relog.example.com"}
	if err := cfg.Validate(); err == nil {
		t.Error("schemeless origin accepted")
	}
}

func TestShouldWarnAboutCORS(t *testing.T) {
	cfg := defaultConfig()
	if cfg.ShouldWarnAboutCORS() {
		t.Error("development wildcard should not warn")
	}

	cfg.Server.Environment = "production"
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	if !cfg.ShouldWarnAboutCORS() {
		t.Error("production wildcard should warn")
	}

	cfg.Security.CORSOrigins = []string{"https://relog.example.com"}
	if cfg.ShouldWarnAboutCORS() {
		t.Error("explicit origin should not warn")
	}
}

func TestValidateRateLimitsSkippedWhenDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled rate limiter still validated: %v", err)
	}
}

func TestValidateLogging(t *testing.T) {
	cfg := defaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log level accepted")
	}

	cfg = defaultConfig()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format accepted")
	}
}

func TestValidateAPIPageSizes(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.DefaultPageSize = 100
	cfg.API.MaxPageSize = 50
	if err := cfg.Validate(); err == nil {
		t.Error("max page size below default accepted")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	cases := map[string]string{
		"HTTP_PORT":        "server.port",
		"DUCKDB_PATH":      "database.path",
		"JWT_SECRET":       "security.jwt_secret",
		"CODEC_SALT":       "codec.salt",
		"LOG_LEVEL":        "logging.level",
		"RANDOM_ENV_NOISE": "",
		"PATH":             "",
	}
	for in, want := range cases {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CODEC_SALT", "pepper")
	t.Setenv("SESSION_TIMEOUT", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Codec.Salt != "pepper" {
		t.Errorf("codec salt = %q, want pepper", cfg.Codec.Salt)
	}
	if cfg.Security.SessionTimeout != 2*time.Hour {
		t.Errorf("session timeout = %v, want 2h", cfg.Security.SessionTimeout)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != want[0] || cfg.Security.CORSOrigins[1] != want[1] {
		t.Errorf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoadDefaultsWithoutEnv(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8480 {
		t.Errorf("default port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Codec.MinLength != 10 {
		t.Errorf("default codec min length = %d, want 10", cfg.Codec.MinLength)
	}
}
