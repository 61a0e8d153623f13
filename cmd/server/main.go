// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Command server runs the LinguaLab API: AI-assisted word set and
// conversation generation with per-user sliding-window quotas.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lingualab/lingualab/internal/api"
	"github.com/lingualab/lingualab/internal/auth"
	"github.com/lingualab/lingualab/internal/config"
	"github.com/lingualab/lingualab/internal/dashboard"
	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/generation"
	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/quota"
	"github.com/lingualab/lingualab/internal/settings"
	"github.com/lingualab/lingualab/internal/supervisor"
	"github.com/lingualab/lingualab/internal/supervisor/services"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("eventlog_backend", cfg.EventLog.Backend).
		Msg("Starting LinguaLab")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newEventStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	settingsStore, err := newSettingsStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize settings store")
	}
	defer func() {
		if err := settingsStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing settings store")
		}
	}()

	evaluator := quota.NewEvaluator(store, quotaLimits(cfg.Quota))
	recorder := quota.NewRecorder(store)
	dashboardSvc := dashboard.NewService(store, evaluator, cfg.Quota.Window)

	generator := newGenerator(cfg)

	var authenticator *auth.Authenticator
	if cfg.Security.JWTSecret != "" {
		jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.SessionTimeout)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		authenticator = auth.NewAuthenticator(jwtManager)
		logging.Info().Msg("JWT authentication enabled")
	} else {
		logging.Warn().Msg("JWT secret not set, all requests are treated as anonymous and unmetered")
	}

	handler := api.NewHandler(evaluator, recorder, generator, settingsStore, dashboardSvc, store, version)
	router := api.NewRouter(handler,
		api.MiddlewareConfigFromSecurity(cfg.Security, cfg.Server.Environment),
		authenticator)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	tree.AddMaintenanceService(services.NewStoreHealthService(store, 30*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newEventStore builds the generation event store for the configured backend.
func newEventStore(ctx context.Context, cfg *config.Config) (eventlog.Store, error) {
	switch cfg.EventLog.Backend {
	case "mongo":
		return eventlog.NewMongoStore(ctx, eventlog.MongoConfig{
			URI:        cfg.EventLog.MongoURI,
			Database:   cfg.EventLog.MongoDatabase,
			Collection: cfg.EventLog.MongoCollection,
			Timeout:    cfg.EventLog.Timeout,
		})
	case "badger":
		// Events older than twice the quota window can never influence a
		// decision, so they are safe to expire.
		return eventlog.NewBadgerStore(cfg.EventLog.BadgerPath, 2*cfg.Quota.Window)
	case "memory":
		logging.Warn().Msg("Using in-memory event store, quota usage is lost on restart")
		return eventlog.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown eventlog backend %q", cfg.EventLog.Backend)
	}
}

// newSettingsStore builds the user settings store. Mongo deployments share
// the event log's database; other backends keep settings in memory.
func newSettingsStore(cfg *config.Config) (settings.Store, error) {
	if cfg.EventLog.Backend == "mongo" {
		return settings.NewMongoStore(settings.MongoConfig{
			URI:        cfg.EventLog.MongoURI,
			Database:   cfg.EventLog.MongoDatabase,
			Collection: cfg.EventLog.SettingsCollection,
			Timeout:    cfg.EventLog.Timeout,
		})
	}
	logging.Warn().Msg("Settings persistence requires the mongo backend, using in-memory store")
	return settings.NewMemoryStore(), nil
}

func quotaLimits(cfg config.QuotaConfig) quota.Limits {
	limits := quota.Limits{
		Default:   quota.Config{Limit: cfg.Limit, Window: cfg.Window},
		PerAction: map[eventlog.ActionType]quota.Config{},
	}
	if cfg.WordSetLimit > 0 {
		limits.PerAction[eventlog.ActionWordSet] = quota.Config{Limit: cfg.WordSetLimit, Window: cfg.Window}
	}
	if cfg.ConversationLimit > 0 {
		limits.PerAction[eventlog.ActionConversation] = quota.Config{Limit: cfg.ConversationLimit, Window: cfg.Window}
	}
	return limits
}

func newGenerator(cfg *config.Config) generation.Generator {
	if cfg.Generation.APIKey == "" {
		logging.Warn().Msg("Generation API key not set, generation endpoints will return 503")
		return generation.Unavailable{}
	}
	gen, err := generation.NewGeminiGenerator(generation.Config{
		APIKey:            cfg.Generation.APIKey,
		Model:             cfg.Generation.Model,
		Timeout:           cfg.Generation.Timeout,
		Attempts:          cfg.Generation.Attempts,
		RequestsPerSecond: cfg.Generation.RequestsPerSecond,
		Burst:             cfg.Generation.Burst,
		WordCount:         cfg.Generation.WordCount,
		ConversationTurns: cfg.Generation.ConversationTurns,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize Gemini generator")
	}
	return gen
}
