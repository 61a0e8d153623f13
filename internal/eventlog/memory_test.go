// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package eventlog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreAppendAssignsServerTime(t *testing.T) {
	fixed := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return fixed })

	// Client-supplied timestamps must be ignored.
	err := store.Append(context.Background(), Event{
		PrincipalID: "u1",
		ActionType:  ActionWordSet,
		Language:    "English",
		Field:       "Technology",
		OccurredAt:  fixed.Add(-99 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := store.QueryWindow(context.Background(), "u1", ActionWordSet, "English", "Technology", fixed.Add(-time.Hour))
	if err != nil {
		t.Fatalf("QueryWindow: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].OccurredAt.Equal(fixed) {
		t.Errorf("OccurredAt = %v, want server-assigned %v", events[0].OccurredAt, fixed)
	}
	if events[0].ID == "" {
		t.Error("expected generated event ID")
	}
}

func TestMemoryStoreQueryWindowFilters(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	current := now
	store := NewMemoryStoreWithClock(func() time.Time { return current })

	appendAt := func(at time.Time, principal string, action ActionType, lang, field string) {
		t.Helper()
		current = at
		if err := store.Append(context.Background(), Event{
			PrincipalID: principal, ActionType: action, Language: lang, Field: field,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	appendAt(now.Add(-30*time.Hour), "u1", ActionWordSet, "English", "Technology") // aged out
	appendAt(now.Add(-2*time.Hour), "u1", ActionWordSet, "English", "Technology")
	appendAt(now.Add(-1*time.Hour), "u1", ActionWordSet, "Spanish", "Technology")      // other language
	appendAt(now.Add(-1*time.Hour), "u1", ActionConversation, "English", "Technology") // other action
	appendAt(now.Add(-1*time.Hour), "u2", ActionWordSet, "English", "Technology")      // other principal

	since := now.Add(-24 * time.Hour)
	events, err := store.QueryWindow(context.Background(), "u1", ActionWordSet, "English", "Technology", since)
	if err != nil {
		t.Fatalf("QueryWindow: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 in-window tuple match, got %d", len(events))
	}

	all, err := store.QuerySince(context.Background(), "u1", since)
	if err != nil {
		t.Fatalf("QuerySince: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 in-window events for u1, got %d", len(all))
	}
}

func TestMemoryStoreFailureInjection(t *testing.T) {
	store := NewMemoryStore()
	boom := errors.New("store unavailable")

	store.FailAppend(boom)
	if err := store.Append(context.Background(), Event{PrincipalID: "u1"}); !errors.Is(err, boom) {
		t.Errorf("expected injected append error, got %v", err)
	}

	store.FailQuery(boom)
	if _, err := store.QueryWindow(context.Background(), "u1", ActionWordSet, "en", "tech", time.Now()); !errors.Is(err, boom) {
		t.Errorf("expected injected query error, got %v", err)
	}

	store.FailAppend(nil)
	store.FailQuery(nil)
	if err := store.Append(context.Background(), Event{PrincipalID: "u1", ActionType: ActionWordSet, Language: "en", Field: "tech"}); err != nil {
		t.Errorf("expected recovery after clearing injection, got %v", err)
	}
}

func TestActionTypeValid(t *testing.T) {
	tests := []struct {
		action ActionType
		want   bool
	}{
		{ActionWordSet, true},
		{ActionConversation, true},
		{ActionType(""), false},
		{ActionType("wordset"), false},
	}
	for _, tt := range tests {
		if got := tt.action.Valid(); got != tt.want {
			t.Errorf("%q.Valid() = %v, want %v", tt.action, got, tt.want)
		}
	}
}
