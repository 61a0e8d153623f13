// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/lingualab/lingualab/internal/config"
)

// MiddlewareConfig controls the cross-cutting concerns wired into the router.
type MiddlewareConfig struct {
	// CORSOrigins lists allowed origins. Empty disables CORS entirely.
	CORSOrigins []string

	// RateLimitRequests is the per-IP request budget for API endpoints within
	// RateLimitWindow. Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// HSTS enables Strict-Transport-Security on responses. Only set this when
	// the server terminates TLS or sits behind a TLS-terminating proxy.
	HSTS bool
}

// MiddlewareConfigFromSecurity derives middleware settings from the security
// section of the application config.
func MiddlewareConfigFromSecurity(sec config.SecurityConfig, environment string) MiddlewareConfig {
	cfg := MiddlewareConfig{
		CORSOrigins:       sec.CORSOrigins,
		RateLimitRequests: sec.RateLimitReqs,
		RateLimitWindow:   sec.RateLimitWindow,
		HSTS:              environment == "production",
	}
	if sec.RateLimitDisabled {
		cfg.RateLimitRequests = 0
	}
	return cfg
}

// CORS returns the CORS middleware, or a pass-through when no origins are
// configured.
func (c MiddlewareConfig) CORS() func(http.Handler) http.Handler {
	if len(c.CORSOrigins) == 0 {
		return passthrough
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   c.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// RateLimit returns the per-IP limiter for API endpoints.
func (c MiddlewareConfig) RateLimit() func(http.Handler) http.Handler {
	if c.RateLimitRequests <= 0 {
		return passthrough
	}
	window := c.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(c.RateLimitRequests, window)
}

// RateLimitHealth returns a permissive limiter for health endpoints so that
// load balancer probes are never starved by API traffic.
func (c MiddlewareConfig) RateLimitHealth() func(http.Handler) http.Handler {
	if c.RateLimitRequests <= 0 {
		return passthrough
	}
	return httprate.LimitByIP(120, time.Minute)
}

// SecurityHeaders sets baseline security headers on every response.
func (c MiddlewareConfig) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.HSTS {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func passthrough(next http.Handler) http.Handler { return next }
