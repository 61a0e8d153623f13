// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package dashboard summarizes a principal's recent generation usage.
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/quota"
)

const maxRecent = 10

// TupleUsage is the in-window activity for one (action, language, field)
// combination, with the current quota decision attached.
type TupleUsage struct {
	ActionType      string `json:"action_type"`
	Language        string `json:"language"`
	Field           string `json:"field"`
	Count           int    `json:"count"`
	Allowed         bool   `json:"allowed"`
	Remaining       *int   `json:"remaining"`
	HoursUntilReset int    `json:"hours_until_reset,omitempty"`
}

// RecentEvent is a single generation shown in the activity feed.
type RecentEvent struct {
	ActionType string    `json:"action_type"`
	Language   string    `json:"language"`
	Field      string    `json:"field"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Summary is the dashboard payload for one principal.
type Summary struct {
	PrincipalID string        `json:"principal_id"`
	Window      string        `json:"window"`
	Tuples      []TupleUsage  `json:"tuples"`
	Recent      []RecentEvent `json:"recent"`
}

// Service builds summaries from the event log and the quota evaluator.
type Service struct {
	store     eventlog.Store
	evaluator *quota.Evaluator
	window    time.Duration
	clock     quota.Clock
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewService creates a service using the real clock.
func NewService(store eventlog.Store, evaluator *quota.Evaluator, window time.Duration) *Service {
	return NewServiceWithClock(store, evaluator, window, realClock{})
}

// NewServiceWithClock creates a service with an injected clock so window
// arithmetic is testable without real waiting.
func NewServiceWithClock(store eventlog.Store, evaluator *quota.Evaluator, window time.Duration, clock quota.Clock) *Service {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Service{store: store, evaluator: evaluator, window: window, clock: clock}
}

// Summary aggregates the principal's events from the last window. A store
// failure degrades to an empty summary rather than an error, matching the
// availability-first posture of the quota subsystem.
func (s *Service) Summary(ctx context.Context, principalID string) Summary {
	summary := Summary{
		PrincipalID: principalID,
		Window:      s.window.String(),
		Tuples:      []TupleUsage{},
		Recent:      []RecentEvent{},
	}
	if principalID == "" {
		return summary
	}

	events, err := s.store.QuerySince(ctx, principalID, s.clock.Now().Add(-s.window))
	if err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("component", "dashboard").
			Str("principal_id", principalID).
			Msg("Usage query failed, serving empty summary")
		return summary
	}

	summary.Tuples = s.tupleUsage(ctx, principalID, events)
	summary.Recent = recentEvents(events)
	return summary
}

func (s *Service) tupleUsage(ctx context.Context, principalID string, events []eventlog.Event) []TupleUsage {
	type tuple struct {
		action   eventlog.ActionType
		language string
		field    string
	}

	counts := make(map[tuple]int)
	for _, e := range events {
		counts[tuple{e.ActionType, e.Language, e.Field}]++
	}

	usage := make([]TupleUsage, 0, len(counts))
	for k, n := range counts {
		d := s.evaluator.Evaluate(ctx, principalID, quota.Action{
			Type:     k.action,
			Language: k.language,
			Field:    k.field,
		})

		u := TupleUsage{
			ActionType:      string(k.action),
			Language:        k.language,
			Field:           k.field,
			Count:           n,
			Allowed:         d.Allowed,
			HoursUntilReset: d.HoursUntilReset,
		}
		if !d.Unlimited {
			remaining := d.Remaining
			u.Remaining = &remaining
		}
		usage = append(usage, u)
	}

	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Count != usage[j].Count {
			return usage[i].Count > usage[j].Count
		}
		if usage[i].ActionType != usage[j].ActionType {
			return usage[i].ActionType < usage[j].ActionType
		}
		if usage[i].Language != usage[j].Language {
			return usage[i].Language < usage[j].Language
		}
		return usage[i].Field < usage[j].Field
	})
	return usage
}

func recentEvents(events []eventlog.Event) []RecentEvent {
	sorted := append([]eventlog.Event(nil), events...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.After(sorted[j].OccurredAt)
	})
	if len(sorted) > maxRecent {
		sorted = sorted[:maxRecent]
	}

	recent := make([]RecentEvent, 0, len(sorted))
	for _, e := range sorted {
		recent = append(recent, RecentEvent{
			ActionType: string(e.ActionType),
			Language:   e.Language,
			Field:      e.Field,
			OccurredAt: e.OccurredAt,
		})
	}
	return recent
}
