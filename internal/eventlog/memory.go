// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and development mode.
// It is safe for concurrent use.
//
// Tests can inject failures with FailAppend/FailQuery to exercise the
// quota subsystem's fail-open paths.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time

	appendErr error
	queryErr  error
}

// NewMemoryStore creates an empty in-memory store using the real clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreWithClock creates a store whose server-assigned timestamps
// come from the given clock function.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

// FailAppend makes all subsequent Append calls return err. Pass nil to
// restore normal behavior.
func (s *MemoryStore) FailAppend(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// FailQuery makes all subsequent QueryWindow/QuerySince calls return err.
// Pass nil to restore normal behavior.
func (s *MemoryStore) FailQuery(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

// Append implements Store. OccurredAt is assigned from the store clock.
func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.OccurredAt = s.now()
	s.events = append(s.events, event)
	return nil
}

// QueryWindow implements Store.
func (s *MemoryStore) QueryWindow(_ context.Context, principalID string, action ActionType, language, field string, since time.Time) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var matched []Event
	for _, e := range s.events {
		if e.PrincipalID != principalID || e.ActionType != action || e.Language != language || e.Field != field {
			continue
		}
		if e.OccurredAt.Before(since) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

// QuerySince implements Store.
func (s *MemoryStore) QuerySince(_ context.Context, principalID string, since time.Time) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var matched []Event
	for _, e := range s.events {
		if e.PrincipalID != principalID || e.OccurredAt.Before(since) {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

// Len returns the total number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
