// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package supervisor builds the suture supervision tree that runs the
// application's long-lived components.
//
// The tree is organized into three layers:
//   - maintenance: background janitors (session sweeper)
//   - realtime: the WebSocket change-feed hub
//   - api: the HTTP server
//
// The layers isolate failures: a crash in the realtime layer restarts
// the hub without touching the HTTP server, and vice versa. Services
// are plain suture.Service implementations living in the services
// subpackage; this package only assembles and runs the tree.
package supervisor
