// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package config loads layered configuration: struct defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration tree.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	EventLog   EventLogConfig   `koanf:"eventlog"`
	Quota      QuotaConfig      `koanf:"quota"`
	Generation GenerationConfig `koanf:"generation"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds authentication and edge-protection settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies session tokens. Empty disables token
	// validation entirely: every request is served anonymously.
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// EventLogConfig selects and configures the generation event store.
type EventLogConfig struct {
	// Backend is one of mongo, badger, memory.
	Backend         string `koanf:"backend"`
	MongoURI        string `koanf:"mongo_uri"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`
	// SettingsCollection names the Mongo collection for user settings.
	SettingsCollection string        `koanf:"settings_collection"`
	BadgerPath         string        `koanf:"badger_path"`
	Timeout            time.Duration `koanf:"timeout"`
}

// QuotaConfig holds generation quota limits. Zero per-action limits fall
// back to the default limit.
type QuotaConfig struct {
	Limit             int           `koanf:"limit"`
	Window            time.Duration `koanf:"window"`
	WordSetLimit      int           `koanf:"word_set_limit"`
	ConversationLimit int           `koanf:"conversation_limit"`
}

// GenerationConfig holds Gemini client settings.
type GenerationConfig struct {
	APIKey            string        `koanf:"api_key"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	Attempts          int           `koanf:"attempts"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	WordCount         int           `koanf:"word_count"`
	ConversationTurns int           `koanf:"conversation_turns"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

const minJWTSecretLength = 32

var validBackends = map[string]bool{
	"mongo":  true,
	"badger": true,
	"memory": true,
}

// Validate checks the configuration for inconsistencies that would only
// surface later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if !validBackends[c.EventLog.Backend] {
		return fmt.Errorf("eventlog.backend %q must be one of mongo, badger, memory", c.EventLog.Backend)
	}
	if c.EventLog.Backend == "mongo" && c.EventLog.MongoURI == "" {
		return fmt.Errorf("eventlog.mongo_uri is required for the mongo backend")
	}
	if c.EventLog.Backend == "badger" && c.EventLog.BadgerPath == "" {
		return fmt.Errorf("eventlog.badger_path is required for the badger backend")
	}
	if c.Quota.Limit < 1 {
		return fmt.Errorf("quota.limit must be at least 1")
	}
	if c.Quota.Window <= 0 {
		return fmt.Errorf("quota.window must be positive")
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("security.jwt_secret must be at least %d characters", minJWTSecretLength)
	}

	if c.Server.Environment == "production" {
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required in production")
		}
		if c.Generation.APIKey == "" {
			return fmt.Errorf("generation.api_key is required in production")
		}
		if c.EventLog.Backend == "memory" {
			return fmt.Errorf("eventlog.backend memory is not allowed in production")
		}
	}
	return nil
}
