// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package tracker

import "errors"

// ErrForbidden is thrown (not returned structurally) when a mutation
// references a secondary record - a label - that does not exist or belongs
// to a different user. It aborts the whole operation: a client hitting this
// is buggy or malicious, not making a correctable mistake.
var ErrForbidden = errors.New("referenced record belongs to another user")
