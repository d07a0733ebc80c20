// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package database

import (
	"context"
	"fmt"
	"time"
)

// createTables creates the core schema. All ids are internal 24-hex
// identifiers generated by newInternalID; the opaque public ids handed to
// clients never reach this layer.
//
// An event's occurrence timestamps live in a JSON column holding an array of
// epoch-millisecond integers, always deduplicated and sorted newest-first by
// the tracker service before a write. The collection is small (occurrences
// of a personal habit) and is always read and written whole, so a separate
// occurrences table would buy nothing but join cost.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR PRIMARY KEY,
			username VARCHAR NOT NULL UNIQUE,
			password_hash VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id VARCHAR PRIMARY KEY,
			owner_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			warning_threshold_days INTEGER NOT NULL DEFAULT 0,
			timestamps VARCHAR NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS labels (
			id VARCHAR PRIMARY KEY,
			owner_id VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS event_labels (
			event_id VARCHAR NOT NULL,
			label_id VARCHAR NOT NULL,
			PRIMARY KEY (event_id, label_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for the per-owner access paths.
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_owner ON events (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_owner_name ON events (owner_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_labels_owner ON labels (owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_event_labels_label ON event_labels (label_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
