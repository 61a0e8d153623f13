// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package quota

import (
	"context"

	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/logging"
	"github.com/lingualab/lingualab/internal/metrics"
)

// Evaluator decides whether a generation is currently permitted. It holds
// no state of its own; every call is a pure function of the event log's
// contents at call time, plus an error-absorption branch.
type Evaluator struct {
	store  eventlog.Store
	limits Limits
	clock  Clock
}

// NewEvaluator creates an evaluator using the real clock.
func NewEvaluator(store eventlog.Store, limits Limits) *Evaluator {
	return NewEvaluatorWithClock(store, limits, realClock{})
}

// NewEvaluatorWithClock creates an evaluator with an injected clock.
func NewEvaluatorWithClock(store eventlog.Store, limits Limits, clock Clock) *Evaluator {
	return &Evaluator{store: store, limits: limits, clock: clock}
}

// evaluation keeps the decision/fault distinction visible internally.
// The public API collapses faults into the permissive decision; metrics
// and logging see them before that happens.
type evaluation struct {
	decision Decision
	fault    error
}

// Evaluate returns the current quota decision for the principal and
// action tuple. It never returns an error: anonymous principals and any
// store failure yield the permissive decision.
func (e *Evaluator) Evaluate(ctx context.Context, principalID string, action Action) Decision {
	if principalID == "" {
		// Unauthenticated usage is not quota-limited. Deliberate policy:
		// pre-login exploration must not be blocked.
		return permissive()
	}

	ev := e.evaluate(ctx, principalID, action)
	if ev.fault != nil {
		e.absorb(ctx, ev.fault, action)
		metrics.RecordQuotaDecision(string(action.Type), true)
		return permissive()
	}

	metrics.RecordQuotaDecision(string(action.Type), ev.decision.Allowed)
	return ev.decision
}

// evaluate performs the window count. Infrastructure failures come back
// as a fault, not a decision.
func (e *Evaluator) evaluate(ctx context.Context, principalID string, action Action) evaluation {
	cfg := e.limits.For(action.Type)
	now := e.clock.Now()
	windowStart := now.Add(-cfg.Window)

	events, err := e.store.QueryWindow(ctx, principalID, action.Type, action.Language, action.Field, windowStart)
	if err != nil {
		return evaluation{fault: err}
	}

	count := len(events)
	remaining := cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	decision := Decision{
		Allowed:   count < cfg.Limit,
		Remaining: remaining,
	}
	if !decision.Allowed {
		// Reset estimate from the oldest in-window event. The guard for
		// an empty match set cannot trigger given count >= limit >= 1,
		// but the arithmetic must not assume that.
		if old, ok := oldest(events); ok {
			decision.HoursUntilReset = hoursUntil(now, old.OccurredAt.Add(cfg.Window))
		}
	}
	return evaluation{decision: decision}
}

// absorb logs the fault and counts it. Index-missing failures get the
// provisioning diagnostic so operators know exactly what to create.
func (e *Evaluator) absorb(ctx context.Context, fault error, action Action) {
	if eventlog.IsIndexMissing(fault) {
		logging.Ctx(ctx).Error().
			Err(fault).
			Str("action_type", string(action.Type)).
			Str("required_index", "principal_id, action_type, language, field, occurred_at").
			Msg("Event log composite index missing; quota check skipped (fail-open). Provision the index to restore enforcement")
		metrics.RecordFailOpen("index_missing")
		return
	}

	logging.Ctx(ctx).Error().
		Err(fault).
		Str("action_type", string(action.Type)).
		Msg("Event log query failed; quota check skipped (fail-open)")
	metrics.RecordFailOpen("store_error")
}
