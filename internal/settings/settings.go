// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package settings stores per-user learning preferences.
package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound reports that a principal has never saved settings.
var ErrNotFound = errors.New("settings: not found")

// Settings is a user's learning profile. The principal ID keys the
// record and never appears in API payloads.
type Settings struct {
	PrincipalID     string    `bson:"_id" json:"-"`
	NativeLanguage  string    `bson:"native_language" json:"native_language" validate:"required,min=2,max=64"`
	TargetLanguages []string  `bson:"target_languages" json:"target_languages" validate:"required,min=1,max=8,dive,min=2,max=64"`
	PreferredFields []string  `bson:"preferred_fields" json:"preferred_fields" validate:"max=16,dive,min=2,max=64"`
	Level           string    `bson:"level" json:"level" validate:"required,oneof=beginner intermediate advanced"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// Defaults is the profile served to principals who never saved one.
func Defaults(principalID string) Settings {
	return Settings{
		PrincipalID:     principalID,
		NativeLanguage:  "English",
		TargetLanguages: []string{"Spanish"},
		Level:           "intermediate",
	}
}

// Store persists settings keyed by principal.
type Store interface {
	Get(ctx context.Context, principalID string) (Settings, error)
	Put(ctx context.Context, s Settings) error
	Close() error
}

// GetOrDefaults reads a principal's settings, falling back to Defaults
// when none were ever saved.
func GetOrDefaults(ctx context.Context, store Store, principalID string) (Settings, error) {
	s, err := store.Get(ctx, principalID)
	if errors.Is(err, ErrNotFound) {
		return Defaults(principalID), nil
	}
	return s, err
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a profile before it is persisted.
func Validate(s Settings) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
