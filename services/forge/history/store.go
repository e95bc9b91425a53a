// Copyright (C) 2025 Codesmith AI (oss@codesmith.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package history persists generation run records in a local Badger store
// so past runs can be inspected and reported on.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no record exists for an ID.
var ErrNotFound = errors.New("run record not found")

const keyPrefix = "run:"

// RunRecord is one completed pipeline run.
type RunRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Function   string    `json:"function"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	Source     string    `json:"source"`
	Diagnostic string    `json:"diagnostic,omitempty"`
}

// Store persists run records.
type Store interface {
	Save(ctx context.Context, rec RunRecord) error
	Get(ctx context.Context, id string) (*RunRecord, error)
	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

type badgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option configures the store.
type Option func(*badgerStore)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *badgerStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens (or creates) the store at path.
func Open(path string, opts ...Option) (Store, error) {
	return open(badger.DefaultOptions(path).WithLogger(nil), opts...)
}

// OpenInMemory opens an ephemeral store, used by tests and --no-history
// runs.
func OpenInMemory(opts ...Option) (Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil), opts...)
}

func open(dbOpts badger.Options, opts ...Option) (Store, error) {
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	s := &badgerStore{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *badgerStore) Save(ctx context.Context, rec RunRecord) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if rec.ID == "" {
		return errors.New("run record needs an ID")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("saving run record %s: %w", rec.ID, err)
	}
	s.logger.Debug("run record saved", "id", rec.ID, "status", rec.Status)
	return nil
}

func (s *badgerStore) Get(ctx context.Context, id string) (*RunRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var rec RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *badgerStore) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var records []RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec RunRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing run records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
