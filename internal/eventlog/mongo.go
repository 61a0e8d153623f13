// LinguaLab - AI-Assisted Language Learning Backend
// Copyright 2026 LinguaLab Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lingualab/lingualab

package eventlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// windowIndexName is the composite index every window query is hinted at.
// Hinting makes a missing index surface as a classifiable server error
// instead of silently degrading to a collection scan.
const windowIndexName = "tuple_window_idx"

// defaultCollection is the collection holding generation events.
const defaultCollection = "generation_events"

// MongoConfig holds MongoDB event log configuration.
type MongoConfig struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string

	// Database is the database name.
	Database string

	// Collection overrides the default collection name. Optional.
	Collection string

	// Timeout bounds every store operation. Default: 5s.
	Timeout time.Duration
}

// MongoStore implements Store on MongoDB.
//
// Timestamps are server-assigned: Append upserts with $currentDate so
// occurred_at reflects the mongod clock, not the application's.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to MongoDB and provisions the composite window
// index. The index covers (principal_id, action_type, language, field,
// occurred_at), matching the shape of QueryWindow exactly.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo event log: URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongo event log: database is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo event log: connect: %w", err)
	}

	store := &MongoStore{
		client:  client,
		coll:    client.Database(cfg.Database).Collection(cfg.Collection),
		timeout: cfg.Timeout,
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		// Index provisioning failure is not fatal: queries will surface
		// ErrIndexMissing and the quota subsystem fails open.
		return store, err
	}
	return store, nil
}

// EnsureIndexes creates the composite window index if it does not exist.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "principal_id", Value: 1},
			{Key: "action_type", Value: 1},
			{Key: "language", Value: 1},
			{Key: "field", Value: 1},
			{Key: "occurred_at", Value: 1},
		},
		Options: options.Index().SetName(windowIndexName),
	})
	if err != nil {
		return fmt.Errorf("mongo event log: create index %s: %w", windowIndexName, err)
	}
	return nil
}

// Append implements Store. The upsert's $currentDate assigns occurred_at
// from the server clock.
func (s *MongoStore) Append(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: event.ID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "principal_id", Value: event.PrincipalID},
				{Key: "action_type", Value: string(event.ActionType)},
				{Key: "language", Value: event.Language},
				{Key: "field", Value: event.Field},
			}},
			{Key: "$currentDate", Value: bson.D{{Key: "occurred_at", Value: true}}},
		},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo event log: append: %w", err)
	}
	return nil
}

// QueryWindow implements Store. The query is hinted at the composite index;
// a missing index is returned as ErrIndexMissing so callers can log the
// provisioning diagnostic and fail open.
func (s *MongoStore) QueryWindow(ctx context.Context, principalID string, action ActionType, language, field string, since time.Time) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.D{
		{Key: "principal_id", Value: principalID},
		{Key: "action_type", Value: string(action)},
		{Key: "language", Value: language},
		{Key: "field", Value: field},
		{Key: "occurred_at", Value: bson.D{{Key: "$gte", Value: since}}},
	}

	cur, err := s.coll.Find(ctx, filter, options.Find().SetHint(windowIndexName))
	if err != nil {
		return nil, classifyQueryErr(err)
	}

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo event log: decode window: %w", err)
	}
	return events, nil
}

// QuerySince implements Store.
func (s *MongoStore) QuerySince(ctx context.Context, principalID string, since time.Time) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.D{
		{Key: "principal_id", Value: principalID},
		{Key: "occurred_at", Value: bson.D{{Key: "$gte", Value: since}}},
	}

	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo event log: query since: %w", err)
	}

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo event log: decode since: %w", err)
	}
	return events, nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close implements Store.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Mongo server error codes that indicate the hinted index does not exist.
const (
	codeBadValue             = 2   // "bad hint" on older servers
	codeNoQueryExecutionPlan = 291 // hint does not correspond to an existing index
)

// classifyQueryErr maps a driver error to ErrIndexMissing when the server
// rejected the hinted query for lack of the composite index. Everything
// else passes through wrapped.
func classifyQueryErr(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case codeNoQueryExecutionPlan:
			return fmt.Errorf("%w: %s", ErrIndexMissing, cmdErr.Message)
		case codeBadValue:
			if strings.Contains(strings.ToLower(cmdErr.Message), "hint") {
				return fmt.Errorf("%w: %s", ErrIndexMissing, cmdErr.Message)
			}
		}
	}
	return fmt.Errorf("mongo event log: query window: %w", err)
}

var _ Store = (*MongoStore)(nil)
