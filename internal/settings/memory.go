// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package settings

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps settings in process memory. Used by tests and the
// memory backend in development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Settings)}
}

func (s *MemoryStore) Get(_ context.Context, principalID string) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[principalID]
	if !ok {
		return Settings{}, ErrNotFound
	}
	return profile, nil
}

func (s *MemoryStore) Put(_ context.Context, profile Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.PrincipalID] = profile
	return nil
}

func (s *MemoryStore) Close() error { return nil }
