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

// Recorder appends generation events after a protected action succeeds.
// Best-effort: by the time Record runs the action has already succeeded,
// so an append failure is logged and swallowed, never surfaced.
type Recorder struct {
	store eventlog.Store
}

// NewRecorder creates a recorder backed by the given event log.
func NewRecorder(store eventlog.Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one event for the principal and action tuple. Anonymous
// actions are not tracked. The store assigns the timestamp; a caller's
// clock never enters the window arithmetic.
func (r *Recorder) Record(ctx context.Context, principalID string, action Action) {
	if principalID == "" {
		return
	}

	err := r.store.Append(ctx, eventlog.Event{
		PrincipalID: principalID,
		ActionType:  action.Type,
		Language:    action.Language,
		Field:       action.Field,
	})
	if err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("principal", principalID).
			Str("action_type", string(action.Type)).
			Msg("Failed to record generation event; future quota counts will undercount")
		metrics.EventAppendErrors.Inc()
	}
}
