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

	"github.com/relogapp/relog/internal/models"
)

const labelColumns = "id, owner_id, name, created_at"

func scanLabelRow(scanner interface{ Scan(dest ...interface{}) error }) (*models.Label, error) {
	label := &models.Label{}
	if err := scanner.Scan(&label.ID, &label.OwnerID, &label.Name, &label.CreatedAt); err != nil {
		return nil, err
	}
	label.CreatedAt = label.CreatedAt.UTC()
	return label, nil
}

// GetLabel returns one label by internal id.
func (db *DB) GetLabel(ctx context.Context, id string) (*models.Label, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+labelColumns+" FROM labels WHERE id = ?", id)
	label, err := scanLabelRow(row)
	observe("select", "labels", start, err)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return label, nil
}

// ListLabels returns all labels owned by ownerID, sorted by name.
func (db *DB) ListLabels(ctx context.Context, ownerID string) ([]*models.Label, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+labelColumns+" FROM labels WHERE owner_id = ? ORDER BY name, id", ownerID)
	if err != nil {
		observe("select", "labels", start, err)
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var labels []*models.Label
	for rows.Next() {
		label, err := scanLabelRow(rows)
		if err != nil {
			observe("select", "labels", start, err)
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	err = rows.Err()
	observe("select", "labels", start, err)
	if err != nil {
		return nil, err
	}
	return labels, nil
}

// CountLabelsOwned counts labels whose id is in labelIDs AND whose owner is
// ownerID. Callers pass deduplicated ids.
func (db *DB) CountLabelsOwned(ctx context.Context, ownerID string, labelIDs []string) (int, error) {
	if len(labelIDs) == 0 {
		return 0, nil
	}

	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	placeholders := make([]string, len(labelIDs))
	args := make([]interface{}, 0, len(labelIDs)+1)
	args = append(args, ownerID)
	for i, id := range labelIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}

	var count int
	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM labels WHERE owner_id = ? AND id IN (%s)",
			strings.Join(placeholders, ", ")), args...).Scan(&count)
	observe("select", "labels", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count labels: %w", err)
	}
	return count, nil
}

// InsertLabel stores a new label and assigns its id.
func (db *DB) InsertLabel(ctx context.Context, label *models.Label) (*models.Label, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id, err := newInternalID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO labels (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)",
		id, label.OwnerID, label.Name, now)
	observe("insert", "labels", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to insert label: %w", err)
	}

	return &models.Label{ID: id, OwnerID: label.OwnerID, Name: label.Name, CreatedAt: now}, nil
}

// UpdateLabelName renames a label.
func (db *DB) UpdateLabelName(ctx context.Context, id, name string) (*models.Label, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		"UPDATE labels SET name = ? WHERE id = ?", name, id)
	if err != nil {
		observe("update", "labels", start, err)
		return nil, fmt.Errorf("failed to update label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		observe("update", "labels", start, err)
		return nil, err
	}
	if affected == 0 {
		observe("update", "labels", start, models.ErrNotFound)
		return nil, models.ErrNotFound
	}
	observe("update", "labels", start, nil)

	return db.GetLabel(ctx, id)
}

// DeleteLabel removes the label and detaches it from all events.
func (db *DB) DeleteLabel(ctx context.Context, id string) error {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		observe("delete", "labels", start, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM event_labels WHERE label_id = ?", id); err != nil {
		observe("delete", "labels", start, err)
		return fmt.Errorf("failed to detach label from events: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM labels WHERE id = ?", id)
	if err != nil {
		observe("delete", "labels", start, err)
		return fmt.Errorf("failed to delete label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		observe("delete", "labels", start, err)
		return err
	}
	if affected == 0 {
		observe("delete", "labels", start, models.ErrNotFound)
		return models.ErrNotFound
	}

	err = tx.Commit()
	observe("delete", "labels", start, err)
	if err != nil {
		return fmt.Errorf("failed to commit label delete: %w", err)
	}
	return nil
}
