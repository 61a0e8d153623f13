// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lingualab/lingualab/internal/logging"
)

type contextKey string

const principalContextKey contextKey = "principal"

// ContextWithPrincipal stores the authenticated principal ID.
func ContextWithPrincipal(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, principalContextKey, principalID)
}

// PrincipalFromContext returns the principal ID, or "" for anonymous
// requests.
func PrincipalFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(principalContextKey).(string); ok {
		return id
	}
	return ""
}

// Authenticator resolves request credentials to a principal.
type Authenticator struct {
	jwtManager *JWTManager
}

func NewAuthenticator(jwtManager *JWTManager) *Authenticator {
	return &Authenticator{jwtManager: jwtManager}
}

// Authenticate extracts the principal from a bearer header or the token
// cookie. Requests without credentials pass through anonymous; requests
// with invalid credentials are rejected with 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present, err := extractToken(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		if !present {
			next.ServeHTTP(w, r)
			return
		}

		principalID, err := a.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principalID)))
	})
}

// extractToken reads credentials from the Authorization header or the
// token cookie. present is false when the request carries neither.
func extractToken(r *http.Request) (token string, present bool, err error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", true, fmt.Errorf("invalid authorization header")
		}
		return parts[1], true, nil
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		return "", false, nil
	}
	return cookie.Value, true, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	http.Error(w, "Unauthorized: "+message, http.StatusUnauthorized)
}
