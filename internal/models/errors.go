// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package models

import "errors"

// ErrNotFound is returned by storage lookups when no record matches. It also
// covers records that exist but are not visible to the caller, so handlers
// can map it to a 404 without leaking existence.
var ErrNotFound = errors.New("record not found")
