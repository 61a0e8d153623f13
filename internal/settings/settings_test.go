// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package settings

import (
	"context"
	"errors"
	"testing"
)

func TestGetOrDefaultsForNewPrincipal(t *testing.T) {
	store := NewMemoryStore()

	profile, err := GetOrDefaults(context.Background(), store, "u1")
	if err != nil {
		t.Fatalf("GetOrDefaults: %v", err)
	}
	if profile.PrincipalID != "u1" {
		t.Errorf("PrincipalID = %q, want u1", profile.PrincipalID)
	}
	if profile.Level != "intermediate" || profile.NativeLanguage == "" {
		t.Errorf("unexpected defaults: %+v", profile)
	}
}

func TestPutRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := Settings{
		PrincipalID:     "u1",
		NativeLanguage:  "Portuguese",
		TargetLanguages: []string{"English", "German"},
		PreferredFields: []string{"Engineering"},
		Level:           "advanced",
	}
	if err := store.Put(ctx, saved); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.NativeLanguage != "Portuguese" || len(got.TargetLanguages) != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on Put")
	}
}

func TestGetUnknownPrincipal(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Settings{
		PrincipalID:     "u1",
		NativeLanguage:  "English",
		TargetLanguages: []string{"Korean"},
		Level:           "beginner",
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid profile", func(*Settings) {}, false},
		{"missing native language", func(s *Settings) { s.NativeLanguage = "" }, true},
		{"no target languages", func(s *Settings) { s.TargetLanguages = nil }, true},
		{"bad level", func(s *Settings) { s.Level = "expert" }, true},
		{"single-char language", func(s *Settings) { s.TargetLanguages = []string{"K"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := valid
			profile.TargetLanguages = append([]string(nil), valid.TargetLanguages...)
			tt.mutate(&profile)

			err := Validate(profile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
