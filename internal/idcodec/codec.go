// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package idcodec converts internal database identifiers into short opaque
// strings suitable for exposure to API clients, and back.
//
// Internal identifiers are fixed-format 24-character hex strings (96 bits,
// three unsigned 32-bit words). The codec packs those three words through a
// hashids encoder configured per entity type, so that ids never reveal raw
// database keys and an id encoded for one entity type does not decode to a
// meaningful value for another.
//
// The mapping is deterministic and reversible:
//
//	opaque, _ := reg.Encode("64fa1b2c00ab4cd8ef012345", idcodec.EntityEvent)
//	internal, _ := reg.Decode(opaque, idcodec.EntityEvent)
//	// internal == "64fa1b2c00ab4cd8ef012345"
//
// Encoder instances are constructed lazily and cached per entity type for the
// lifetime of the Registry. Construction is deterministic, so concurrent
// first-use from multiple requests converges on identical configuration.
package idcodec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	hashids "github.com/speps/go-hashids/v2"

	"github.com/relogapp/relog/internal/logging"
)

// EntityType scopes the codec's alphabet and salt. Identifiers encoded for
// one type are only guaranteed to round-trip when decoded with the same type.
type EntityType string

// Known entity types.
const (
	EntityUser  EntityType = "user"
	EntityEvent EntityType = "event"
	EntityLabel EntityType = "label"
)

// Typed errors surfaced to callers. Anything else returned by this package is
// an internal invariant violation and must not be shown to API clients.
var (
	// ErrInvalidFormat indicates an id that is empty, malformed, or not
	// decodable with the given entity type's configuration.
	ErrInvalidFormat = errors.New("identifier has invalid format")

	// ErrInternalEncoding indicates an unexpected failure while encoding a
	// well-formed internal id. The underlying cause is logged server-side
	// and deliberately not attached to this error.
	ErrInternalEncoding = errors.New("internal identifier encoding failure")
)

// internalIDPattern matches the fixed internal id format: 24 hex characters.
var internalIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// Per-entity-type alphabets. They deliberately overlap; cross-type detection
// is best-effort only (see IsEncodedID).
var alphabets = map[EntityType]string{
	EntityUser:  "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890",
	EntityEvent: "abcdefghijklmnopqrstuvwxyz0123456789",
	EntityLabel: "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
}

// Config holds codec parameters shared by all entity types.
//
// Changing Salt or MinLength invalidates every previously issued opaque id,
// so deployments must treat both as immutable once clients hold ids.
type Config struct {
	// Salt seeds the hashids shuffle. The effective salt is scoped per
	// entity type so the same internal id encodes differently per type.
	Salt string

	// MinLength pads encoder output to a minimum number of characters.
	MinLength int
}

// DefaultConfig returns the codec parameters compatible with existing clients.
func DefaultConfig() Config {
	return Config{
		Salt:      "relog",
		MinLength: 10,
	}
}

// Registry owns the per-entity-type encoder instances.
//
// A single Registry is constructed at the composition root and injected into
// every component that crosses the public-id boundary. It is safe for
// concurrent use.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	encoders map[EntityType]*hashids.HashID

	// Precomputed rune membership sets for IsEncodedID.
	runeSets map[EntityType]map[rune]struct{}
	unionSet map[rune]struct{}
}

// NewRegistry creates a codec registry. Encoder instances are built on first
// use per entity type and reused afterwards.
func NewRegistry(cfg Config) *Registry {
	if cfg.Salt == "" {
		cfg.Salt = DefaultConfig().Salt
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultConfig().MinLength
	}

	runeSets := make(map[EntityType]map[rune]struct{}, len(alphabets))
	unionSet := make(map[rune]struct{})
	for entity, alphabet := range alphabets {
		set := make(map[rune]struct{}, len(alphabet))
		for _, r := range alphabet {
			set[r] = struct{}{}
			unionSet[r] = struct{}{}
		}
		runeSets[entity] = set
	}

	return &Registry{
		cfg:      cfg,
		encoders: make(map[EntityType]*hashids.HashID, len(alphabets)),
		runeSets: runeSets,
		unionSet: unionSet,
	}
}

// encoder returns the cached hashids instance for the entity type, building
// it on first use. Construction is deterministic: whichever request wins the
// race produces the same configuration any other would have.
func (r *Registry) encoder(entity EntityType) (*hashids.HashID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.encoders[entity]; ok {
		return h, nil
	}

	alphabet, ok := alphabets[entity]
	if !ok {
		return nil, fmt.Errorf("idcodec: unknown entity type %q", entity)
	}

	data := hashids.NewData()
	data.Alphabet = alphabet
	data.Salt = r.cfg.Salt + ":" + string(entity)
	data.MinLength = r.cfg.MinLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("idcodec: building encoder for %q: %w", entity, err)
	}

	r.encoders[entity] = h
	return h, nil
}

// Encode converts a 24-hex-character internal id into an opaque public id.
//
// Returns ErrInvalidFormat if internalID does not match the fixed hex format,
// and ErrInternalEncoding on unexpected encoder failure. The opaque output is
// deterministic for a given (id, entity) pair.
func (r *Registry) Encode(internalID string, entity EntityType) (string, error) {
	if !internalIDPattern.MatchString(internalID) {
		return "", fmt.Errorf("%w: expected 24 hex characters", ErrInvalidFormat)
	}

	words, err := splitHexWords(internalID)
	if err != nil {
		// Unreachable after the pattern check; treat as internal failure.
		logging.Error().Err(err).Str("entity", string(entity)).Msg("Internal id failed hex word split after format check")
		return "", ErrInternalEncoding
	}

	h, err := r.encoder(entity)
	if err != nil {
		logging.Error().Err(err).Str("entity", string(entity)).Msg("Failed to construct id encoder")
		return "", ErrInternalEncoding
	}

	opaque, err := h.EncodeInt64(words)
	if err != nil {
		// Do not leak the original identifier or the encoder's error text
		// to the caller; full detail stays server-side.
		logging.Error().Err(err).Str("entity", string(entity)).Msg("Id encoding failed for well-formed internal id")
		return "", ErrInternalEncoding
	}

	return opaque, nil
}

// Decode converts an opaque public id back into its internal 24-hex form.
//
// Returns ErrInvalidFormat for empty, malformed, or foreign-alphabet input.
// A decode that yields a number of words other than three (but not zero) is a
// programming-invariant violation and surfaces as a generic internal error.
func (r *Registry) Decode(opaqueID string, entity EntityType) (string, error) {
	if opaqueID == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidFormat)
	}

	h, err := r.encoder(entity)
	if err != nil {
		return "", err
	}

	words, err := h.DecodeInt64WithError(opaqueID)
	if err != nil {
		// Malformed or foreign input; normalize to the typed format error.
		return "", fmt.Errorf("%w: undecodable id", ErrInvalidFormat)
	}
	if len(words) == 0 {
		return "", fmt.Errorf("%w: undecodable id", ErrInvalidFormat)
	}
	if len(words) != 3 {
		return "", fmt.Errorf("idcodec: decoded %d words for %s id, want 3", len(words), entity)
	}

	var b strings.Builder
	b.Grow(24)
	for _, w := range words {
		if w < 0 || w > math.MaxUint32 {
			// Coincidentally decodable input that does not fit the
			// 3x uint32 internal format.
			return "", fmt.Errorf("%w: undecodable id", ErrInvalidFormat)
		}
		fmt.Fprintf(&b, "%08x", uint32(w))
	}

	return b.String(), nil
}

// batchResult records the outcome of one element of a batch operation before
// failures are projected away. Keeping the per-element failures explicit (as
// opposed to swallowing them inside the loop) lets the logging below report
// exactly which inputs were dropped.
type batchResult struct {
	index int
	value string
	err   error
}

// EncodeBatch encodes a list of internal ids, silently dropping elements that
// are empty, malformed, or fail to encode. Relative order of surviving
// elements is preserved; dropped elements are logged with their input index.
// Output length is therefore <= input length. Empty input returns an empty
// slice without touching the encoder.
func (r *Registry) EncodeBatch(internalIDs []string, entity EntityType) []string {
	if len(internalIDs) == 0 {
		return []string{}
	}

	results := make([]batchResult, 0, len(internalIDs))
	for i, id := range internalIDs {
		if id == "" {
			results = append(results, batchResult{index: i, err: fmt.Errorf("%w: empty id", ErrInvalidFormat)})
			continue
		}
		opaque, err := r.Encode(id, entity)
		results = append(results, batchResult{index: i, value: opaque, err: err})
	}

	return projectBatch(results, "encode", entity)
}

// DecodeBatch decodes a list of opaque ids with the same tolerant contract as
// EncodeBatch: bad elements are dropped and logged, never raised.
func (r *Registry) DecodeBatch(opaqueIDs []string, entity EntityType) []string {
	if len(opaqueIDs) == 0 {
		return []string{}
	}

	results := make([]batchResult, 0, len(opaqueIDs))
	for i, id := range opaqueIDs {
		if id == "" {
			results = append(results, batchResult{index: i, err: fmt.Errorf("%w: empty id", ErrInvalidFormat)})
			continue
		}
		internal, err := r.Decode(id, entity)
		results = append(results, batchResult{index: i, value: internal, err: err})
	}

	return projectBatch(results, "decode", entity)
}

// projectBatch extracts successful values in input order and warns about the
// failures that were dropped.
func projectBatch(results []batchResult, op string, entity EntityType) []string {
	out := make([]string, 0, len(results))
	for _, res := range results {
		if res.err != nil {
			logging.Warn().
				Str("op", op).
				Str("entity", string(entity)).
				Int("index", res.index).
				Err(res.err).
				Msg("Dropping undecodable element from id batch")
			continue
		}
		out = append(out, res.value)
	}
	return out
}

// IsEncodedID reports whether value looks like an opaque id for the given
// entity type. Passing an empty entity type checks against the union of all
// entity alphabets.
//
// This is a best-effort classifier: alphabets overlap across entity types, so
// a positive result does not prove the id was issued for that type.
func (r *Registry) IsEncodedID(value string, entity EntityType) bool {
	if len(value) < r.cfg.MinLength {
		return false
	}

	set := r.unionSet
	if entity != "" {
		typed, ok := r.runeSets[entity]
		if !ok {
			return false
		}
		set = typed
	}

	for _, c := range value {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

// splitHexWords parses a 24-hex-character id into its three 32-bit words.
func splitHexWords(internalID string) ([]int64, error) {
	words := make([]int64, 0, 3)
	for i := 0; i < 24; i += 8 {
		w, err := strconv.ParseUint(internalID[i:i+8], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("parsing hex word %q: %w", internalID[i:i+8], err)
		}
		words = append(words, int64(w))
	}
	return words, nil
}
