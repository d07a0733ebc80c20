// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package services contains suture.Service wrappers for the components
// the supervisor tree runs.
//
// Each wrapper adapts one component's lifecycle to suture's Serve
// pattern and depends only on a small local interface, never on the
// component's package, so the wrappers stay free of import cycles and
// are trivial to test with fakes.
package services
