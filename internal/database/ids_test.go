// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package database

import (
	"regexp"
	"testing"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{24}$`)

func TestNewInternalIDFormat(t *testing.T) {
	id, err := newInternalID()
	if err != nil {
		t.Fatalf("newInternalID: %v", err)
	}
	if !hexID.MatchString(id) {
		t.Errorf("id %q is not 24 lowercase hex characters", id)
	}
}

func TestNewInternalIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id, err := newInternalID()
		if err != nil {
			t.Fatalf("newInternalID: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}
