// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package services

import (
	"context"
	"time"

	"github.com/lingualab/lingualab/internal/eventlog"
	"github.com/lingualab/lingualab/internal/logging"
)

// StoreHealthService periodically pings the event store and logs transitions
// between reachable and unreachable. Quota evaluation fails open while the
// store is down, so this probe is the operator's main signal that limits are
// not being enforced.
type StoreHealthService struct {
	store    eventlog.Store
	interval time.Duration

	// healthy tracks the last observed state so only transitions are logged.
	healthy bool
}

// NewStoreHealthService creates the probe. Interval defaults to 30 seconds.
func NewStoreHealthService(store eventlog.Store, interval time.Duration) *StoreHealthService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StoreHealthService{store: store, interval: interval, healthy: true}
}

// Serve implements suture.Service.
func (s *StoreHealthService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *StoreHealthService) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.store.Ping(pingCtx)
	switch {
	case err != nil && s.healthy:
		s.healthy = false
		logging.Warn().Err(err).Msg("event store unreachable, quota enforcement degraded to fail-open")
	case err == nil && !s.healthy:
		s.healthy = true
		logging.Info().Msg("event store reachable again, quota enforcement restored")
	}
}

func (s *StoreHealthService) String() string { return "store-health" }
