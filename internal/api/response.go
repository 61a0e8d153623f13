// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package api implements the HTTP surface: the chi router, its middleware
// stack, and the handlers for generation, quota, settings, dashboard, and
// health endpoints.
package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/models"
)

// respondJSON writes a success envelope with the given payload.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError writes an error envelope. details may be nil.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	writeEnvelope(w, r, status, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, envelope models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}
