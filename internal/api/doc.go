// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package api implements the HTTP surface: request decoding, response
// encoding, routing, and the mapping between domain errors and HTTP
// status codes.
//
// Mutations return their failures in two channels. Expected, user
// correctable conditions (a duplicate name, an unknown timestamp)
// travel inside a 200 response as the errors half of the mutation
// payload. Authorization failures, malformed identifiers, and
// infrastructure errors are thrown: they produce a non-2xx status and
// the response-level error object.
//
// All entity identifiers crossing this boundary are opaque public ids;
// internal 24-hex ids never appear in requests or responses.
package api
