// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package audit persists call transcripts to an embedded BadgerDB store.
//
// Unlike the conversational sessions, which are process-lifetime only,
// the audit trail is durable: every turn (utterance, reply, and how the
// reply was produced) survives restarts and is listable from the operator
// CLI.
//
// Key layout:
//
//	call:<sid>            -> CallRecord JSON
//	turn:<sid>:<ts>:<id>  -> Turn JSON (ts is fixed-width UTC for ordering)
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/VoiceLedger/pkg/validation"
	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
)

const gcDiscardRatio = 0.5

// Config holds configuration for the audit store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory
	// is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Useful for
	// testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Set to 0 to disable.
	GCInterval time.Duration
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
		GCInterval: 5 * time.Minute,
	}
}

// Store is the durable transcript store. Safe for concurrent use; all
// synchronization is Badger's.
type Store struct {
	db   *badger.DB
	stop chan struct{}
}

// Open opens (or creates) the store and starts the GC loop.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open the audit store at %s: %w", cfg.Path, err)
	}
	s := &Store{db: db, stop: make(chan struct{})}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		go s.gcLoop(cfg.GCInterval)
	}
	return s, nil
}

func (s *Store) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.db.RunValueLogGC(gcDiscardRatio); err != nil &&
				!errors.Is(err, badger.ErrNoRewrite) {
				slog.Debug("Audit store GC pass failed", "error", err)
			}
		}
	}
}

// Close stops the GC loop and closes the database.
func (s *Store) Close() error {
	close(s.stop)
	return s.db.Close()
}

func callKey(sid string) []byte {
	return []byte("call:" + sid)
}

// turnKeyTimeLayout is fixed-width so byte order equals time order
// (RFC3339Nano drops trailing zeros and would not sort).
const turnKeyTimeLayout = "20060102T150405.000000000"

func turnKey(turn datatypes.Turn) []byte {
	return []byte("turn:" + turn.CallSid + ":" +
		turn.Timestamp.UTC().Format(turnKeyTimeLayout) + ":" + turn.TurnID)
}

// RecordTurn appends one turn and upserts its call record.
func (s *Store) RecordTurn(ctx context.Context, turn datatypes.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validation.ValidateCallSid(turn.CallSid); err != nil {
		return err
	}
	turnVal, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal the turn: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		record := datatypes.CallRecord{CallSid: turn.CallSid, StartedAt: turn.Timestamp}
		item, err := txn.Get(callKey(turn.CallSid))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return fmt.Errorf("failed to decode the call record: %w", err)
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		record.Turns++
		recordVal, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal the call record: %w", err)
		}
		if err := txn.Set(callKey(turn.CallSid), recordVal); err != nil {
			return err
		}
		return txn.Set(turnKey(turn), turnVal)
	})
}

// EndCall stamps the call record with its end time. Unknown calls are a
// no-op: the transport sends status callbacks for calls that never made
// it past connect.
func (s *Store) EndCall(ctx context.Context, callSid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(callKey(callSid))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var record datatypes.CallRecord
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("failed to decode the call record: %w", err)
		}
		now := time.Now().UTC()
		record.EndedAt = &now
		recordVal, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal the call record: %w", err)
		}
		return txn.Set(callKey(callSid), recordVal)
	})
}

// ListCalls returns every call record, newest first.
func (s *Store) ListCalls(ctx context.Context) ([]datatypes.CallRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []datatypes.CallRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("call:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record datatypes.CallRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}

// Transcript returns a call's turns in chronological order.
func (s *Store) Transcript(ctx context.Context, callSid string) ([]datatypes.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validation.ValidateCallSid(callSid); err != nil {
		return nil, err
	}
	var turns []datatypes.Turn
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("turn:" + callSid + ":")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var turn datatypes.Turn
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &turn)
			}); err != nil {
				return err
			}
			turns = append(turns, turn)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read the transcript for %s: %w", callSid, err)
	}
	return turns, nil
}
