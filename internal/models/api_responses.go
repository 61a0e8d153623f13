// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package models holds the shared API response envelope and request types
// used by all HTTP endpoints.
package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "QUOTA_EXCEEDED", "message": "Generation limit reached"},
//	  "metadata": {"timestamp": "2026-01-10T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: invalid input parameters
//   - AUTHENTICATION_ERROR: invalid or expired credentials
//   - QUOTA_EXCEEDED: generation limit reached for the action tuple
//   - GENERATION_ERROR: the AI generation call failed
//   - NOT_FOUND: resource doesn't exist
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// GenerateRequest is the request body for both generation endpoints.
// Language and Field scope the generated content and the quota tuple.
type GenerateRequest struct {
	Language string `json:"language" validate:"required,min=2,max=64"`
	Field    string `json:"field" validate:"required,min=2,max=64"`
	Level    string `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// QuotaStatus is the per-action-tuple quota view returned by GET /quota.
type QuotaStatus struct {
	ActionType      string `json:"action_type"`
	Language        string `json:"language"`
	Field           string `json:"field"`
	Allowed         bool   `json:"allowed"`
	Remaining       *int   `json:"remaining"` // null when unlimited
	HoursUntilReset int    `json:"hours_until_reset"`
}

// HealthStatus is the payload of GET /health endpoints.
type HealthStatus struct {
	Status         string  `json:"status"`
	Version        string  `json:"version"`
	StoreConnected bool    `json:"store_connected"`
	Uptime         float64 `json:"uptime_seconds"`
}
