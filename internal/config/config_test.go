// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8642 {
		t.Errorf("Server.Port = %d, want 8642", cfg.Server.Port)
	}
	if cfg.EventLog.Backend != "memory" {
		t.Errorf("EventLog.Backend = %q, want memory", cfg.EventLog.Backend)
	}
	if cfg.Quota.Limit != 3 || cfg.Quota.Window != 24*time.Hour {
		t.Errorf("quota defaults = %+v", cfg.Quota)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("QUOTA_LIMIT", "5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Quota.Limit != 5 {
		t.Errorf("Quota.Limit = %d, want 5", cfg.Quota.Limit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("CORSOrigins = %v, want two trimmed origins", cfg.Security.CORSOrigins)
	}
}

func TestLoadUnknownEnvIgnored(t *testing.T) {
	t.Setenv("RANDOM_UNRELATED_VARIABLE", "true")

	if _, err := Load(); err != nil {
		t.Fatalf("Load with unrelated env var: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := strings.Join([]string{
		"server:",
		"  port: 7777",
		"quota:",
		"  limit: 10",
		"  word_set_limit: 4",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 from file", cfg.Server.Port)
	}
	if cfg.Quota.Limit != 10 || cfg.Quota.WordSetLimit != 4 {
		t.Errorf("quota = %+v, want file values", cfg.Quota)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"bad backend", func(c *Config) { c.EventLog.Backend = "duckdb" }, "backend"},
		{"mongo without uri", func(c *Config) { c.EventLog.Backend = "mongo" }, "mongo_uri"},
		{"badger without path", func(c *Config) {
			c.EventLog.Backend = "badger"
			c.EventLog.BadgerPath = ""
		}, "badger_path"},
		{"zero quota limit", func(c *Config) { c.Quota.Limit = 0 }, "quota.limit"},
		{"negative window", func(c *Config) { c.Quota.Window = -time.Hour }, "quota.window"},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "jwt_secret"},
		{"production without secret", func(c *Config) {
			c.Server.Environment = "production"
			c.EventLog.Backend = "badger"
			c.Generation.APIKey = "key"
		}, "jwt_secret"},
		{"production with memory backend", func(c *Config) {
			c.Server.Environment = "production"
			c.Security.JWTSecret = strings.Repeat("s", 32)
			c.Generation.APIKey = "key"
		}, "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
