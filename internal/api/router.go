// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lingualab/lingualab/internal/auth"
	"github.com/lingualab/lingualab/internal/middleware"
)

// NewRouter builds the full HTTP router. authenticator may be nil, in which
// case every request is treated as anonymous.
func NewRouter(h *Handler, mw MiddlewareConfig, authenticator *auth.Authenticator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	// Health endpoints get a permissive rate limit so probes are never
	// rejected under API load, and skip authentication entirely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(middleware.Prometheus)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(mw.SecurityHeaders)
		r.Use(middleware.Prometheus)
		if authenticator != nil {
			r.Use(authenticator.Authenticate)
		}

		r.Post("/generate/wordset", h.GenerateWordSet)
		r.Post("/generate/conversation", h.GenerateConversation)
		r.Get("/quota", h.QuotaStatus)
		r.Get("/settings", h.SettingsGet)
		r.Put("/settings", h.SettingsPut)
		r.Get("/dashboard", h.Dashboard)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
