// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/relogapp/relog/internal/models"
)

const userColumns = "id, username, password_hash, created_at"

func scanUserRow(scanner interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	if err := scanner.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// GetUser returns one user by internal id.
func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUserRow(row)
	observe("select", "users", start, err)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

// GetUserByUsername does an exact-match username lookup.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	user, err := scanUserRow(row)
	observe("select", "users", start, err)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return user, nil
}

// CountUsers returns the total number of accounts.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	observe("select", "users", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// InsertUser stores a new account and assigns its id. The username UNIQUE
// constraint surfaces as an error; callers check availability first for a
// friendly message, the constraint closes the race.
func (db *DB) InsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	start := time.Now()
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	id, err := newInternalID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		id, user.Username, user.PasswordHash, now)
	observe("insert", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &models.User{ID: id, Username: user.Username, PasswordHash: user.PasswordHash, CreatedAt: now}, nil
}
