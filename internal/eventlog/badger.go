// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package eventlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Key layout: evt:<principal>:<action>:<language>:<field>:<unix-nanos>:<id>
// The tuple prefix makes QueryWindow a single prefix scan; the timestamp
// segment keeps keys unique under concurrent appends.
const badgerKeyPrefix = "evt:"

// BadgerStore implements Store on an embedded BadgerDB. Suitable for
// single-node deployments where running MongoDB is overkill. The process
// clock is the store clock here, which preserves the server-assigned
// timestamp contract: this process is the server.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	now       func() time.Time
}

// NewBadgerStore opens (or creates) a badger database at path. Entries
// carry a TTL of retention so aged-out events are reclaimed without an
// explicit pruning job; retention must be at least the quota window.
func NewBadgerStore(path string, retention time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger event log: open %s: %w", path, err)
	}
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &BadgerStore{db: db, retention: retention, now: time.Now}, nil
}

// tupleKeyPrefix builds the scan prefix for one action tuple.
func tupleKeyPrefix(principalID string, action ActionType, language, field string) string {
	return badgerKeyPrefix + principalID + ":" + string(action) + ":" + language + ":" + field + ":"
}

// principalKeyPrefix builds the scan prefix for all of a principal's events.
func principalKeyPrefix(principalID string) string {
	return badgerKeyPrefix + principalID + ":"
}

// Append implements Store.
func (s *BadgerStore) Append(_ context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.OccurredAt = s.now().UTC()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("badger event log: marshal: %w", err)
	}

	key := fmt.Sprintf("%s%d:%s",
		tupleKeyPrefix(event.PrincipalID, event.ActionType, event.Language, event.Field),
		event.OccurredAt.UnixNano(), event.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(s.retention)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("badger event log: append: %w", err)
	}
	return nil
}

// QueryWindow implements Store.
func (s *BadgerStore) QueryWindow(_ context.Context, principalID string, action ActionType, language, field string, since time.Time) ([]Event, error) {
	return s.scan(tupleKeyPrefix(principalID, action, language, field), since)
}

// QuerySince implements Store.
//
// The principal prefix covers every tuple because the tuple segments sit
// between the principal and the timestamp in the key layout. A principal ID
// containing ':' cannot collide: IDs come from the identity provider as
// URL-safe subjects.
func (s *BadgerStore) QuerySince(_ context.Context, principalID string, since time.Time) ([]Event, error) {
	return s.scan(principalKeyPrefix(principalID), since)
}

// scan iterates all entries under prefix and keeps those within the window.
func (s *BadgerStore) scan(prefix string, since time.Time) ([]Event, error) {
	var events []Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Event
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode event: %w", err)
				}
				if !e.OccurredAt.Before(since) {
					events = append(events, e)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger event log: scan %s: %w", strings.TrimSuffix(prefix, ":"), err)
	}
	return events, nil
}

// Ping implements Store. Badger is in-process; closed is the only
// unreachable state.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("badger event log: database closed")
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
