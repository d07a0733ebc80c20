// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package websocket implements the realtime change feed.
//
// Each authenticated browser session may open one or more WebSocket
// connections. The hub keeps connections grouped by owner and pushes a
// small notification whenever one of that owner's events or labels is
// created, updated, or deleted. Notifications carry only opaque public
// identifiers; clients refetch through the REST API to get fresh state.
//
// The hub is supervision-friendly: RunWithContext returns when its
// context is canceled, closing all client connections first, so a
// supervisor can restart it without leaking goroutines.
package websocket
