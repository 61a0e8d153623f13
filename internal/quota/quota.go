// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

// Package quota enforces the per-user generation rate limit: a sliding
// window of at most Limit events per (principal, action type, language,
// field) tuple, counted against the external event log.
//
// The subsystem is deliberately fail-open. The gated action is a
// convenience feature, not a security boundary, so any infrastructure
// failure while counting degrades to unrestricted access, never to
// denial. No error from this package ever reaches a caller.
//
// Control flow for a protected action:
//
//	decision := evaluator.Evaluate(ctx, principalID, action)
//	if !decision.Allowed { /* reject with decision.HoursUntilReset */ }
//	// ... perform the generation ...
//	recorder.Record(ctx, principalID, action) // only after success
//
// Two concurrent requests can both observe Allowed before either records;
// the transient over-limit burst is accepted. Strict enforcement would
// need a transactional counter in the store, which this subsystem trades
// away for availability.
package quota

import (
	"math"
	"time"

	"github.com/lingualab/lingualab/internal/eventlog"
)

// Action is the tuple a limit is scoped to, independently per principal.
type Action struct {
	Type     eventlog.ActionType
	Language string
	Field    string
}

// Config holds the limit parameters for one action type. Both values are
// supplied by the caller's configuration; this package never defaults them.
type Config struct {
	// Limit is the maximum permitted actions per tuple per window. >= 1.
	Limit int

	// Window is the sliding window length. >= 1h in practice; any
	// positive duration works, which tests exploit.
	Window time.Duration
}

// Limits maps action types to their configs, with a fallback default.
type Limits struct {
	Default   Config
	PerAction map[eventlog.ActionType]Config
}

// For returns the config for the given action type.
func (l Limits) For(action eventlog.ActionType) Config {
	if cfg, ok := l.PerAction[action]; ok {
		return cfg
	}
	return l.Default
}

// Decision is the ephemeral outcome of one evaluation. Never persisted,
// computed fresh from the event log on every call.
//
// Unlimited marks the two unconditional grants: anonymous principals and
// fail-open. Remaining is meaningless when Unlimited is set.
type Decision struct {
	Allowed         bool
	Remaining       int
	Unlimited       bool
	HoursUntilReset int
}

// permissive is the unconditional grant used for anonymous callers and
// fail-open. Identical shape in both cases on purpose: callers cannot
// distinguish an outage from an untracked user.
func permissive() Decision {
	return Decision{Allowed: true, Unlimited: true}
}

// Clock supplies the current time. Injected so window and reset-time
// arithmetic is testable without waiting.
type Clock interface {
	Now() time.Time
}

// realClock is the production Clock.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// hoursUntil returns the whole hours from now until reset, rounded up,
// floored at zero.
func hoursUntil(now, reset time.Time) int {
	if !reset.After(now) {
		return 0
	}
	return int(math.Ceil(reset.Sub(now).Hours()))
}

// oldest returns the event with the smallest OccurredAt. The store gives
// no ordering guarantee, so the scan happens here.
func oldest(events []eventlog.Event) (eventlog.Event, bool) {
	if len(events) == 0 {
		return eventlog.Event{}, false
	}
	min := events[0]
	for _, e := range events[1:] {
		if e.OccurredAt.Before(min.OccurredAt) {
			min = e
		}
	}
	return min, true
}
