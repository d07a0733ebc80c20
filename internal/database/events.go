// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/relogapp/relog/internal/models"
)

const eventColumns = "id, owner_id, name, warning_threshold_days, timestamps, created_at, updated_at"

// encodeTimestamps serializes occurrence instants as a JSON array of
// epoch-millisecond integers. Millisecond precision is the storage
// resolution; finer precision never survives a round trip.
func encodeTimestamps(ts []time.Time) (string, error) {
	millis := make([]int64, len(ts))
	for i, t := range ts {
		millis[i] = t.UnixMilli()
	}
	raw, err := json.Marshal(millis)
	if err != nil {
		return "", fmt.Errorf("failed to encode timestamps: %w", err)
	}
	return string(raw), nil
}

// decodeTimestamps parses the JSON timestamp column back into UTC instants.
func decodeTimestamps(raw string) ([]time.Time, error) {
	var millis []int64
	if err := json.Unmarshal([]byte(raw), &millis); err != nil {
		return nil, fmt.Errorf("failed to decode timestamps column: %w", err)
	}
	out := make([]time.Time, len(millis))
	for i, ms := range millis {
		out[i] = time.UnixMilli(ms).UTC()
	}
	return out, nil
}

// scanEventRow scans one events row, decoding the timestamp column.
func scanEventRow(scanner interface{ Scan(dest ...interface{}) error }) (*models.Event, error) {
	event := &models.Event{}
	var rawTimestamps string

	err := scanner.Scan(
		&event.ID, &event.OwnerID, &event.Name, &event.WarningThresholdDays,
		&rawTimestamps, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Timestamps, err = decodeTimestamps(rawTimestamps)
	if err != nil {
		return nil, err
	}
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()
	return event, nil
}

// loadEventLabels populates the Labels slice for each event in one query.
func (db *DB) loadEventLabels(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	byID := make(map[string]*models.Event, len(events))
	placeholders := make([]string, len(events))
	args := make([]interface{}, len(events))
	for i, e := range events {
		e.Labels = []models.Label{}
		byID[e.ID] = e
		placeholders[i] = "?"
		args[i] = e.ID
	}

	query := fmt.Sprintf(`
		SELECT el.event_id, l.id, l.owner_id, l.name, l.created_at
		FROM event_labels el
		JOIN labels l ON l.id = el.label_id
		WHERE el.event_id IN (%s)
		ORDER BY l.name, l.id`, strings.Join(placeholders, ", "))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load event labels: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var eventID string
		var label models.Label
		if err := rows.Scan(&eventID, &label.ID, &label.OwnerID, &label.Name, &label.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan event label: %w", err)
		}
		label.CreatedAt = label.CreatedAt.UTC()
		if e, ok := byID[eventID]; ok {
			e.Labels = append(e.Labels, label)
		}
	}
	return rows.Err()
}

// GetEvent returns the event with its labels populated.
func (db *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	event, err := scanEventRow(row)
	if err != nil {
		observe("select", "events", start, err)
		return nil, mapNoRows(err)
	}

	err = db.loadEventLabels(ctx, []*models.Event{event})
	observe("select", "events", start, err)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// FindEventByName does an exact-match name+owner lookup.
func (db *DB) FindEventByName(ctx context.Context, ownerID, name string) (*models.Event, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE owner_id = ? AND name = ?", ownerID, name)
	event, err := scanEventRow(row)
	observe("select", "events", start, err)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return event, nil
}

// ListEvents returns all events owned by ownerID, labels populated, newest
// created first.
func (db *DB) ListEvents(ctx context.Context, ownerID string) ([]*models.Event, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE owner_id = ? ORDER BY created_at DESC, id", ownerID)
	if err != nil {
		observe("select", "events", start, err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var events []*models.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			observe("select", "events", start, err)
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		observe("select", "events", start, err)
		return nil, err
	}

	err = db.loadEventLabels(ctx, events)
	observe("select", "events", start, err)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// InsertEvent stores a new event, assigns its id and record timestamps, and
// attaches the given label associations. Returns the stored event with
// labels populated.
func (db *DB) InsertEvent(ctx context.Context, event *models.Event, labelIDs []string) (*models.Event, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id, err := newInternalID()
	if err != nil {
		return nil, err
	}
	rawTimestamps, err := encodeTimestamps(event.Timestamps)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		observe("insert", "events", start, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO events (id, owner_id, name, warning_threshold_days, timestamps, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, event.OwnerID, event.Name, event.WarningThresholdDays, rawTimestamps, now, now)
	if err != nil {
		observe("insert", "events", start, err)
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	for _, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_labels (event_id, label_id) VALUES (?, ?)", id, labelID); err != nil {
			observe("insert", "events", start, err)
			return nil, fmt.Errorf("failed to attach label: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		observe("insert", "events", start, err)
		return nil, fmt.Errorf("failed to commit event insert: %w", err)
	}
	observe("insert", "events", start, nil)

	return db.GetEvent(ctx, id)
}

// UpdateEvent applies a partial update and returns the updated event with
// labels populated. A nil field in upd leaves the stored value untouched;
// a LabelIDs slice replaces the full association set.
func (db *DB) UpdateEvent(ctx context.Context, id string, upd *models.EventUpdate) (*models.Event, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.WarningThresholdDays != nil {
		sets = append(sets, "warning_threshold_days = ?")
		args = append(args, *upd.WarningThresholdDays)
	}
	if upd.Timestamps != nil {
		rawTimestamps, err := encodeTimestamps(*upd.Timestamps)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "timestamps = ?")
		args = append(args, rawTimestamps)
	}
	args = append(args, id)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		observe("update", "events", start, err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE events SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		observe("update", "events", start, err)
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		observe("update", "events", start, err)
		return nil, err
	}
	if affected == 0 {
		observe("update", "events", start, models.ErrNotFound)
		return nil, models.ErrNotFound
	}

	if upd.LabelIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_labels WHERE event_id = ?", id); err != nil {
			observe("update", "events", start, err)
			return nil, fmt.Errorf("failed to detach labels: %w", err)
		}
		for _, labelID := range *upd.LabelIDs {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO event_labels (event_id, label_id) VALUES (?, ?)", id, labelID); err != nil {
				observe("update", "events", start, err)
				return nil, fmt.Errorf("failed to attach label: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		observe("update", "events", start, err)
		return nil, fmt.Errorf("failed to commit event update: %w", err)
	}
	observe("update", "events", start, nil)

	return db.GetEvent(ctx, id)
}

// DeleteEvent removes the event and detaches its label associations.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		observe("delete", "events", start, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_labels WHERE event_id = ?", id); err != nil {
		observe("delete", "events", start, err)
		return fmt.Errorf("failed to detach labels: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		observe("delete", "events", start, err)
		return fmt.Errorf("failed to delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		observe("delete", "events", start, err)
		return err
	}
	if affected == 0 {
		observe("delete", "events", start, models.ErrNotFound)
		return models.ErrNotFound
	}

	err = tx.Commit()
	observe("delete", "events", start, err)
	if err != nil {
		return fmt.Errorf("failed to commit event delete: %w", err)
	}
	return nil
}
