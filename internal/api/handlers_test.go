// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/lingualab/lingualab/internal/auth"
	"github.com/lingualab/lingualab/internal/dashboard"
	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/generation"
	"github.com/lingualab/lingualab/internal/models"
	"github.com/lingualab/lingualab/internal/quota"
	"github.com/lingualab/lingualab/internal/settings"
)

// fakeGenerator returns canned content, or a configured error.
type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) WordSet(_ context.Context, req models.GenerateRequest) (*generation.WordSet, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.WordSet{
		Language: req.Language,
		Field:    req.Field,
		Words: []generation.WordEntry{
			{Term: "servidor", Translation: "server", PartOfSpeech: "noun", Example: "El servidor responde."},
		},
	}, nil
}

func (g *fakeGenerator) Conversation(_ context.Context, req models.GenerateRequest) (*generation.Conversation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.Conversation{
		Language: req.Language,
		Field:    req.Field,
		Title:    "At the office",
		Turns: []generation.ConversationTurn{
			{Speaker: "A", Text: "Hola", Translation: "Hello"},
		},
	}, nil
}

type fixture struct {
	handler   *Handler
	generator *fakeGenerator
	store     *eventlog.MemoryStore
	settings  *settings.MemoryStore
}

func newFixture(limit int) *fixture {
	store := eventlog.NewMemoryStore()
	evaluator := quota.NewEvaluator(store, quota.Limits{
		Default: quota.Config{Limit: limit, Window: 24 * time.Hour},
	})
	gen := &fakeGenerator{}
	settingsStore := settings.NewMemoryStore()
	return &fixture{
		handler: NewHandler(
			evaluator,
			quota.NewRecorder(store),
			gen,
			settingsStore,
			dashboard.NewService(store, evaluator, 24*time.Hour),
			store,
			"test",
		),
		generator: gen,
		store:     store,
		settings:  settingsStore,
	}
}

func generateRequest(t *testing.T, principal string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate/wordset", strings.NewReader(body))
	if principal != "" {
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var envelope models.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return envelope
}

const validBody = `{"language":"Spanish","field":"Technology"}`

func TestGenerateWordSetSuccess(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Status != "success" {
		t.Fatalf("envelope status = %q", envelope.Status)
	}
	if f.store.Len() != 1 {
		t.Fatalf("store events = %d, want 1", f.store.Len())
	}

	data := envelope.Data.(map[string]interface{})
	quotaData := data["quota"].(map[string]interface{})
	if remaining := quotaData["remaining"].(float64); remaining != 2 {
		t.Fatalf("remaining after generation = %v, want 2", remaining)
	}
}

func TestGenerateDeniedAtLimit(t *testing.T) {
	f := newFixture(2)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Error == nil || envelope.Error.Code != "QUOTA_EXCEEDED" {
		t.Fatalf("error = %+v, want QUOTA_EXCEEDED", envelope.Error)
	}
	if _, ok := envelope.Error.Details["hours_until_reset"]; !ok {
		t.Fatal("details missing hours_until_reset")
	}
	if f.generator.calls != 2 {
		t.Fatalf("generator calls = %d, want 2 (denied request must not reach the model)", f.generator.calls)
	}
}

func TestGenerateInvalidBody(t *testing.T) {
	f := newFixture(3)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"language":`},
		{"missing field", `{"language":"Spanish"}`},
		{"bad level", `{"language":"Spanish","field":"Tech","level":"expert"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if envelope := decodeEnvelope(t, rec); envelope.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("error code = %q", envelope.Error.Code)
			}
		})
	}
	if f.store.Len() != 0 {
		t.Fatalf("invalid requests recorded %d events", f.store.Len())
	}
}

func TestGenerateFailureNotRecorded(t *testing.T) {
	f := newFixture(3)
	f.generator.err = errors.New("model timeout")

	rec := httptest.NewRecorder()
	f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Error.Code != "GENERATION_ERROR" {
		t.Fatalf("error code = %q", envelope.Error.Code)
	}
	if f.store.Len() != 0 {
		t.Fatalf("failed generation consumed quota: %d events", f.store.Len())
	}
}

func TestGenerateUnavailableReturns503(t *testing.T) {
	f := newFixture(3)
	f.generator.err = fmt.Errorf("breaker: %w", generation.ErrUnavailable)

	rec := httptest.NewRecorder()
	f.handler.GenerateConversation(rec, generateRequest(t, "user-1", validBody))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestGenerateAnonymousUnlimited(t *testing.T) {
	f := newFixture(1)

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		f.handler.GenerateWordSet(rec, generateRequest(t, "", validBody))
		if rec.Code != http.StatusOK {
			t.Fatalf("anonymous call %d status = %d", i, rec.Code)
		}
	}
	if f.store.Len() != 0 {
		t.Fatalf("anonymous usage recorded %d events", f.store.Len())
	}
}

func TestQuotaStatusRequiresTupleParams(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quota?language=Spanish", nil)
	f.handler.QuotaStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQuotaStatusReportsBothActions(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quota?language=Spanish&field=Technology", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), "user-1"))
	f.handler.QuotaStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	quotas := envelope.Data.(map[string]interface{})["quotas"].([]interface{})
	if len(quotas) != 2 {
		t.Fatalf("quota entries = %d, want 2", len(quotas))
	}

	byAction := map[string]map[string]interface{}{}
	for _, q := range quotas {
		entry := q.(map[string]interface{})
		byAction[entry["action_type"].(string)] = entry
	}
	if remaining := byAction["word_set"]["remaining"].(float64); remaining != 2 {
		t.Fatalf("word_set remaining = %v, want 2", remaining)
	}
	if remaining := byAction["conversation"]["remaining"].(float64); remaining != 3 {
		t.Fatalf("conversation remaining = %v, want 3", remaining)
	}
}

func TestSettingsRequireAuthentication(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.SettingsGet(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("GET status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handler.SettingsPut(rec, httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader("{}")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("PUT status = %d, want 401", rec.Code)
	}
}

func TestSettingsDefaultsForNewPrincipal(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), "user-1"))
	f.handler.SettingsGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["level"] != "intermediate" {
		t.Fatalf("default level = %v", data["level"])
	}
}

func TestSettingsPutRoundTrip(t *testing.T) {
	f := newFixture(3)
	body := `{"native_language":"German","target_languages":["Japanese"],"preferred_fields":["Business"],"level":"advanced"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), "user-1"))
	f.handler.SettingsPut(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}

	saved, err := f.settings.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get after Put: %v", err)
	}
	if saved.NativeLanguage != "German" || saved.Level != "advanced" {
		t.Fatalf("saved settings = %+v", saved)
	}
}

func TestSettingsPutRejectsInvalid(t *testing.T) {
	f := newFixture(3)
	body := `{"native_language":"German","target_languages":[],"level":"advanced"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), "user-1"))
	f.handler.SettingsPut(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.GenerateWordSet(rec, generateRequest(t, "user-1", validBody))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), "user-1"))
	f.handler.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	tuples := data["tuples"].([]interface{})
	if len(tuples) != 1 {
		t.Fatalf("tuples = %d, want 1", len(tuples))
	}
}

func TestHealthLive(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["status"] != "ok" || data["version"] != "test" {
		t.Fatalf("health payload = %v", data)
	}
}

// failingPingStore reports an unreachable backend on Ping.
type failingPingStore struct {
	*eventlog.MemoryStore
}

func (s *failingPingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestHealthReadyDegradesWhenStoreDown(t *testing.T) {
	f := newFixture(3)

	rec := httptest.NewRecorder()
	f.handler.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d, want 200", rec.Code)
	}

	f.handler.store = &failingPingStore{f.store}
	rec = httptest.NewRecorder()
	f.handler.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rec.Code)
	}
	data := decodeEnvelope(t, rec).Data.(map[string]interface{})
	if data["store_connected"] != false {
		t.Fatalf("store_connected = %v, want false", data["store_connected"])
	}
}
