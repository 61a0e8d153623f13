// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package eventlog defines the append-only, queryable store of generation
// events that the quota subsystem counts against.
//
// The store is an external collaborator: the application only appends
// immutable records and queries them by (principal, action tuple, time
// window). Timestamps are assigned by the store, never by the caller, so
// client clock skew cannot widen or narrow a quota window.
//
// Three backends implement Store:
//   - mongo: production backend, composite-indexed window queries
//   - badger: embedded single-node backend
//   - memory: tests and development
package eventlog

import (
	"context"
	"errors"
	"time"
)

// ActionType identifies the kind of generation an event records.
type ActionType string

const (
	// ActionWordSet is a vocabulary word set generation.
	ActionWordSet ActionType = "word_set"

	// ActionConversation is a practice conversation generation.
	ActionConversation ActionType = "conversation"
)

// Valid reports whether the action type is one of the known values.
func (a ActionType) Valid() bool {
	return a == ActionWordSet || a == ActionConversation
}

// Event is one immutable generation fact. Events are created exactly once
// per successful generation, never mutated, and never deleted by this
// subsystem (retention is a store concern).
type Event struct {
	ID          string     `json:"id" bson:"_id"`
	PrincipalID string     `json:"principal_id" bson:"principal_id"`
	ActionType  ActionType `json:"action_type" bson:"action_type"`
	Language    string     `json:"language" bson:"language"`
	Field       string     `json:"field" bson:"field"`
	OccurredAt  time.Time  `json:"occurred_at" bson:"occurred_at"`
}

// ErrIndexMissing indicates the store cannot execute the composite window
// query because the required index is not provisioned. Recoverable by
// operator action, never by retry.
var ErrIndexMissing = errors.New("eventlog: composite index missing")

// IsIndexMissing reports whether err is (or wraps) an index-missing failure.
func IsIndexMissing(err error) bool {
	return errors.Is(err, ErrIndexMissing)
}

// Store is the event log collaborator contract.
//
// QueryWindow returns all events for the exact (principal, actionType,
// language, field) tuple with OccurredAt >= since. No ordering is
// guaranteed; callers scan for the minimum themselves.
type Store interface {
	// Append writes one event. The store assigns OccurredAt from its own
	// clock; any OccurredAt on the passed event is ignored.
	Append(ctx context.Context, event Event) error

	// QueryWindow returns the events matching the tuple with
	// OccurredAt >= since, in no particular order.
	QueryWindow(ctx context.Context, principalID string, action ActionType, language, field string, since time.Time) ([]Event, error)

	// QuerySince returns all events for the principal with
	// OccurredAt >= since, across all action tuples. Used by the
	// dashboard's recent-activity view.
	QuerySince(ctx context.Context, principalID string, since time.Time) ([]Event, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
