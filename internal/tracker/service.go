// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

// Package tracker contains the mutation validator/normalizer guarding every
// write to an event's state.
//
// Handlers hand the service caller-supplied payloads with opaque public ids;
// the service decodes references through the id codec, enforces per-user
// invariants (name uniqueness, label ownership), normalizes timestamp
// collections, and issues the exact write to the storage collaborator. It
// performs no I/O of its own beyond that collaborator.
//
// Failures travel on two deliberately distinct channels:
//
//   - Structured validation errors ([]models.MutationError) are returned as
//     data so partial failure can be communicated per field. The operation
//     aborts before any write.
//   - Typed errors (idcodec.ErrInvalidFormat, ErrForbidden,
//     models.ErrNotFound) abort the whole operation and are mapped by the
//     API layer to BAD_REQUEST / FORBIDDEN / NOT_FOUND responses. Anything
//     else is an internal failure whose detail stays server-side.
package tracker

import (
	"context"

	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/models"
)

// Store is the storage collaborator contract consumed by the service. All
// ids are internal 24-hex identifiers. Lookups return models.ErrNotFound
// when no record matches.
type Store interface {
	// GetEvent returns the event with its labels populated.
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	// FindEventByName does an exact-match name+owner lookup.
	FindEventByName(ctx context.Context, ownerID, name string) (*models.Event, error)
	// InsertEvent stores a new event, assigns its ID and timestamps, and
	// attaches the given label associations. Returns the stored event with
	// labels populated.
	InsertEvent(ctx context.Context, event *models.Event, labelIDs []string) (*models.Event, error)
	// UpdateEvent applies a partial update and returns the updated event
	// with labels populated.
	UpdateEvent(ctx context.Context, id string, upd *models.EventUpdate) (*models.Event, error)
	// DeleteEvent removes the event and detaches its label associations.
	DeleteEvent(ctx context.Context, id string) error

	// CountLabelsOwned counts labels whose id is in labelIDs AND whose
	// owner is ownerID. Callers pass deduplicated ids.
	CountLabelsOwned(ctx context.Context, ownerID string, labelIDs []string) (int, error)
	GetLabel(ctx context.Context, id string) (*models.Label, error)
	InsertLabel(ctx context.Context, label *models.Label) (*models.Label, error)
	UpdateLabelName(ctx context.Context, id, name string) (*models.Label, error)
	// DeleteLabel removes the label and detaches it from all events.
	DeleteLabel(ctx context.Context, id string) error
}

// Service is the mutation validator/normalizer. It is stateless apart from
// its collaborators and safe for concurrent use.
type Service struct {
	store Store
	codec *idcodec.Registry
}

// New creates a tracker service over the given storage collaborator and id
// codec registry.
func New(store Store, codec *idcodec.Registry) *Service {
	return &Service{store: store, codec: codec}
}

// fetchOwnedEvent decodes an opaque event id and loads the record, requiring
// it to belong to ownerID. A foreign or missing record surfaces uniformly as
// models.ErrNotFound so callers cannot probe for existence.
func (s *Service) fetchOwnedEvent(ctx context.Context, ownerID, opaqueID string) (*models.Event, error) {
	id, err := s.codec.Decode(opaqueID, idcodec.EntityEvent)
	if err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return event, nil
}

// fetchOwnedLabel mirrors fetchOwnedEvent for labels.
func (s *Service) fetchOwnedLabel(ctx context.Context, ownerID, opaqueID string) (*models.Label, error) {
	id, err := s.codec.Decode(opaqueID, idcodec.EntityLabel)
	if err != nil {
		return nil, err
	}
	label, err := s.store.GetLabel(ctx, id)
	if err != nil {
		return nil, err
	}
	if label.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return label, nil
}

// dedupStrings removes duplicates preserving first-occurrence order.
func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
