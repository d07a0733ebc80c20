// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package database

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// newInternalID generates a 24-character lowercase hex record identifier:
// a 4-byte big-endian unix-second prefix followed by 8 random bytes. The
// time prefix keeps ids roughly insertion-ordered; the 64 random bits make
// collisions within one second negligible.
func newInternalID() (string, error) {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(buf[4:]); err != nil {
		return "", fmt.Errorf("failed to generate record id: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
