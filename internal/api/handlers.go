// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/lingualab/lingualab/internal/auth"
	"github.com/lingualab/lingualab/internal/dashboard"
	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/generation"
	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/models"
	"github.com/lingualab/lingualab/internal/quota"
	"github.com/lingualab/lingualab/internal/settings"
)

// Handler holds the dependencies shared by all HTTP endpoints.
type Handler struct {
	evaluator *quota.Evaluator
	recorder  *quota.Recorder
	generator generation.Generator
	settings  settings.Store
	dashboard *dashboard.Service
	store     eventlog.Store
	validate  *validator.Validate
	version   string
	startTime time.Time
}

// NewHandler creates the endpoint handler set.
func NewHandler(
	evaluator *quota.Evaluator,
	recorder *quota.Recorder,
	generator generation.Generator,
	settingsStore settings.Store,
	dashboardSvc *dashboard.Service,
	store eventlog.Store,
	version string,
) *Handler {
	return &Handler{
		evaluator: evaluator,
		recorder:  recorder,
		generator: generator,
		settings:  settingsStore,
		dashboard: dashboardSvc,
		store:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		version:   version,
		startTime: time.Now(),
	}
}

// GenerateWordSet handles POST /api/v1/generate/wordset.
func (h *Handler) GenerateWordSet(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, eventlog.ActionWordSet, func(ctx context.Context, req models.GenerateRequest) (interface{}, error) {
		return h.generator.WordSet(ctx, req)
	})
}

// GenerateConversation handles POST /api/v1/generate/conversation.
func (h *Handler) GenerateConversation(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, eventlog.ActionConversation, func(ctx context.Context, req models.GenerateRequest) (interface{}, error) {
		return h.generator.Conversation(ctx, req)
	})
}

// generate runs the shared generation flow: decode and validate the request,
// check the quota, call the generator, and record the event only after the
// generation succeeded.
func (h *Handler) generate(
	w http.ResponseWriter,
	r *http.Request,
	actionType eventlog.ActionType,
	produce func(context.Context, models.GenerateRequest) (interface{}, error),
) {
	ctx := r.Context()

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	principal := auth.PrincipalFromContext(ctx)
	action := quota.Action{Type: actionType, Language: req.Language, Field: req.Field}

	decision := h.evaluator.Evaluate(ctx, principal, action)
	if !decision.Allowed {
		respondError(w, r, http.StatusTooManyRequests, "QUOTA_EXCEEDED",
			"generation limit reached for this language and field", map[string]interface{}{
				"remaining":         decision.Remaining,
				"hours_until_reset": decision.HoursUntilReset,
			})
		return
	}

	content, err := produce(ctx, req)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("action_type", string(actionType)).
			Msg("generation failed")
		status := http.StatusBadGateway
		if errors.Is(err, generation.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, r, status, "GENERATION_ERROR", "content generation failed, please retry", nil)
		return
	}

	h.recorder.Record(ctx, principal, action)

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"content": content,
		"quota":   quotaStatus(action, h.evaluator.Evaluate(ctx, principal, action)),
	})
}

// QuotaStatus handles GET /api/v1/quota?language=X&field=Y. It reports the
// current standing for both action types on the requested tuple without
// consuming any quota.
func (h *Handler) QuotaStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	language := r.URL.Query().Get("language")
	field := r.URL.Query().Get("field")
	if language == "" || field == "" {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR",
			"language and field query parameters are required", nil)
		return
	}

	principal := auth.PrincipalFromContext(ctx)
	statuses := make([]models.QuotaStatus, 0, 2)
	for _, actionType := range []eventlog.ActionType{eventlog.ActionWordSet, eventlog.ActionConversation} {
		action := quota.Action{Type: actionType, Language: language, Field: field}
		statuses = append(statuses, quotaStatus(action, h.evaluator.Evaluate(ctx, principal, action)))
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{"quotas": statuses})
}

// SettingsGet handles GET /api/v1/settings. Principals that have never saved
// settings receive the defaults.
func (h *Handler) SettingsGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := auth.PrincipalFromContext(ctx)
	if principal == "" {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR",
			"settings require authentication", nil)
		return
	}

	s, err := settings.GetOrDefaults(ctx, h.settings, principal)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("settings lookup failed")
		respondError(w, r, http.StatusInternalServerError, "NOT_FOUND",
			"settings are temporarily unavailable", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, s)
}

// SettingsPut handles PUT /api/v1/settings.
func (h *Handler) SettingsPut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := auth.PrincipalFromContext(ctx)
	if principal == "" {
		respondError(w, r, http.StatusUnauthorized, "AUTHENTICATION_ERROR",
			"settings require authentication", nil)
		return
	}

	var s settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	s.PrincipalID = principal

	if err := settings.Validate(s); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.settings.Put(ctx, s); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("settings save failed")
		respondError(w, r, http.StatusInternalServerError, "VALIDATION_ERROR",
			"settings could not be saved", nil)
		return
	}

	respondJSON(w, r, http.StatusOK, s)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.PrincipalFromContext(ctx)
	respondJSON(w, r, http.StatusOK, h.dashboard.Summary(ctx, principal))
}

// HealthLive handles GET /api/v1/health/live. It always succeeds while the
// process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness degrades when the
// event store is unreachable, but generation endpoints keep working because
// quota evaluation fails open.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := models.HealthStatus{
		Status:         "ok",
		Version:        h.version,
		StoreConnected: true,
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	httpStatus := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.StoreConnected = false
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, r, httpStatus, status)
}

func quotaStatus(action quota.Action, d quota.Decision) models.QuotaStatus {
	status := models.QuotaStatus{
		ActionType:      string(action.Type),
		Language:        action.Language,
		Field:           action.Field,
		Allowed:         d.Allowed,
		HoursUntilReset: d.HoursUntilReset,
	}
	if !d.Unlimited {
		remaining := d.Remaining
		status.Remaining = &remaining
	}
	return status
}
