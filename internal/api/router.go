// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/middleware"
)

// NewRouter assembles the chi router: global middleware, the public
// auth endpoints, the authenticated API group, and the operational
// endpoints (health, metrics).
func NewRouter(h *Handler, authSvc *auth.Service, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	rateLimit := rateLimiter(&cfg.Security)

	// Health endpoints: no auth, permissive rate limit so external
	// monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByRealIP(1000, time.Minute))
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// Public auth endpoints. The route-level limit is the outer guard;
	// the login handler's per-client token bucket is the strict one.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(middleware.PrometheusMetrics)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(authSvc))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	// Authenticated data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit)
		r.Use(middleware.PrometheusMetrics)
		r.Use(auth.Middleware(authSvc))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.Post("/", h.CreateEvent)
			r.Patch("/{id}", h.UpdateEvent)
			r.Delete("/{id}", h.DeleteEvent)
			r.Post("/{id}/timestamps", h.AddTimestamp)
			r.Delete("/{id}/timestamps", h.RemoveTimestamp)
		})

		r.Route("/labels", func(r chi.Router) {
			r.Get("/", h.ListLabels)
			r.Post("/", h.CreateLabel)
			r.Patch("/{id}", h.UpdateLabel)
			r.Delete("/{id}", h.DeleteLabel)
		})

		r.Get("/ws", h.WebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimiter builds the general API limiter from config. Disabled
// limiting returns a pass-through, used by tests and local dev.
func rateLimiter(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	reqs := cfg.RateLimitReqs
	if reqs <= 0 {
		reqs = 100
	}
	return httprate.LimitByRealIP(reqs, window)
}
