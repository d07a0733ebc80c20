// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/relogapp/relog/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore implements SessionStore on BadgerDB, so sessions
// survive restarts.
type BadgerSessionStore struct {
	db *badger.DB
}

// OpenBadgerSessionStore opens (or creates) the Badger database at path and
// wraps it in a session store.
func OpenBadgerSessionStore(path string) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store at %s: %w", path, err)
	}
	return &BadgerSessionStore{db: db}, nil
}

// NewBadgerSessionStore wraps an already-open Badger database.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// Create stores a new session with a TTL matching its expiry.
func (s *BadgerSessionStore) Create(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)

	return s.db.Update(func(txn *badger.Txn) error {
		sessionKey := []byte(sessionKeyPrefix + session.ID)
		entry := badger.NewEntry(sessionKey, data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}

		// User-to-session mapping for DeleteByUser.
		userKey := []byte(sessionUserKeyPrefix + session.UserID + ":" + session.ID)
		userEntry := badger.NewEntry(userKey, []byte(session.ID)).WithTTL(ttl)
		if err := txn.SetEntry(userEntry); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}

		return nil
	})
}

// Get retrieves a session by id.
func (s *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var session Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Delete removes a session by id. Deleting an absent session is not an
// error.
func (s *BadgerSessionStore) Delete(_ context.Context, id string) error {
	var session Session
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(sessionKeyPrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(sessionUserKeyPrefix + session.UserID + ":" + id))
	})
}

// DeleteByUser removes all sessions of one user via the mapping keys.
func (s *BadgerSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	prefix := []byte(sessionUserKeyPrefix + userID + ":")

	var sessionIDs []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				sessionIDs = append(sessionIDs, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range sessionIDs {
		if err := s.Delete(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteExpired sweeps sessions whose expiry has passed. Badger's TTL
// already hides them from reads; the sweep reclaims mapping keys written
// before a session was extended and feeds the session gauge.
func (s *BadgerSessionStore) DeleteExpired(ctx context.Context) (int, error) {
	var expired []string

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session Session
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			})
			if err != nil {
				return err
			}
			if session.IsExpired() {
				expired = append(expired, session.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range expired {
		if err := s.Delete(ctx, id); err != nil {
			return 0, err
		}
	}

	if len(expired) > 0 {
		logging.Debug().Int("count", len(expired)).Msg("Swept expired sessions")
	}
	return len(expired), nil
}

// CountActive returns the number of live sessions.
func (s *BadgerSessionStore) CountActive(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			if strings.HasPrefix(key, sessionKeyPrefix) {
				count++
			}
		}
		return nil
	})
	return count, err
}

// RunValueLogGC triggers Badger's value-log garbage collection. Safe to
// call periodically; returns without error when nothing was collected.
func (s *BadgerSessionStore) RunValueLogGC() {
	if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Warn().Err(err).Msg("Session store value log GC failed")
	}
}

// Close closes the underlying Badger database.
func (s *BadgerSessionStore) Close() error {
	return s.db.Close()
}
