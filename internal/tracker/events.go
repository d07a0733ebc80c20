// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/models"
)

// validateEventName checks the 1..25 character rule. Case is significant and
// no trimming is applied: "Run" and "run " are distinct names.
func validateEventName(name string) *models.MutationError {
	if name == "" {
		return &models.MutationError{
			Code:    models.MutationCodeValidation,
			Field:   "name",
			Message: "Name must not be empty",
		}
	}
	if len(name) > models.EventNameMaxLength {
		return &models.MutationError{
			Code:    models.MutationCodeValidation,
			Field:   "name",
			Message: fmt.Sprintf("Name must be at most %d characters", models.EventNameMaxLength),
		}
	}
	return nil
}

// validateThreshold checks the non-negative warning threshold rule.
func validateThreshold(days int) *models.MutationError {
	if days < 0 {
		return &models.MutationError{
			Code:    models.MutationCodeValidation,
			Field:   "warningThresholdInDays",
			Message: "Warning threshold must not be negative",
		}
	}
	return nil
}

// checkNameUnique returns a structured validation error when another event
// with the exact same name already exists for the owner. excludeEventID
// (internal id, may be empty) skips the event's own record on self-updates.
//
// Uniqueness is enforced here, not by a storage constraint; the window
// between this check and the write is an accepted race.
func (s *Service) checkNameUnique(ctx context.Context, name, ownerID, excludeEventID string) (*models.MutationError, error) {
	existing, err := s.store.FindEventByName(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if excludeEventID != "" && existing.ID == excludeEventID {
		return nil, nil
	}
	return &models.MutationError{
		Code:    models.MutationCodeValidation,
		Field:   "name",
		Message: fmt.Sprintf("An event named %q already exists", name),
	}, nil
}

// checkLabelOwnership verifies that every id in labelIDs (internal,
// deduplicated) names a label owned by ownerID. A count mismatch means at
// least one label is missing or foreign and throws ErrForbidden.
func (s *Service) checkLabelOwnership(ctx context.Context, ownerID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}
	count, err := s.store.CountLabelsOwned(ctx, ownerID, labelIDs)
	if err != nil {
		return err
	}
	if count != len(labelIDs) {
		logging.Ctx(ctx).Warn().
			Int("referenced", len(labelIDs)).
			Int("owned", count).
			Msg("Label ownership check failed")
		return ErrForbidden
	}
	return nil
}

// decodeLabelRefs runs the tolerant batch decode over caller-supplied opaque
// label ids and deduplicates the survivors.
func (s *Service) decodeLabelRefs(opaque []string) []string {
	return dedupStrings(s.codec.DecodeBatch(opaque, idcodec.EntityLabel))
}

// CreateEvent validates and stores a new loggable event for ownerID. The
// timestamp collection starts empty. Returned structured errors mean nothing
// was written.
func (s *Service) CreateEvent(ctx context.Context, ownerID string, req *models.CreateEventRequest) (*models.Event, []models.MutationError, error) {
	var errs []models.MutationError
	if e := validateEventName(req.Name); e != nil {
		errs = append(errs, *e)
	}
	if e := validateThreshold(req.WarningThresholdInDays); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}

	conflict, err := s.checkNameUnique(ctx, req.Name, ownerID, "")
	if err != nil {
		return nil, nil, err
	}
	if conflict != nil {
		return nil, []models.MutationError{*conflict}, nil
	}

	labelIDs := s.decodeLabelRefs(req.LabelIDs)
	if err := s.checkLabelOwnership(ctx, ownerID, labelIDs); err != nil {
		return nil, nil, err
	}

	event := &models.Event{
		OwnerID:              ownerID,
		Name:                 req.Name,
		WarningThresholdDays: req.WarningThresholdInDays,
		Timestamps:           []time.Time{},
	}
	created, err := s.store.InsertEvent(ctx, event, labelIDs)
	if err != nil {
		return nil, nil, err
	}
	return created, nil, nil
}

// UpdateEvent applies a partial update to one of ownerID's events. Only the
// fields present in req are validated and written; everything else is left
// untouched in storage. A supplied name is re-checked for uniqueness with
// the event's own record excluded, so writing back an unchanged name
// succeeds.
func (s *Service) UpdateEvent(ctx context.Context, ownerID, opaqueEventID string, req *models.UpdateEventRequest) (*models.Event, []models.MutationError, error) {
	var errs []models.MutationError
	if req.Name != nil {
		if e := validateEventName(*req.Name); e != nil {
			errs = append(errs, *e)
		}
	}
	if req.WarningThresholdInDays != nil {
		if e := validateThreshold(*req.WarningThresholdInDays); e != nil {
			errs = append(errs, *e)
		}
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}

	event, err := s.fetchOwnedEvent(ctx, ownerID, opaqueEventID)
	if err != nil {
		return nil, nil, err
	}

	upd := &models.EventUpdate{
		Name:                 req.Name,
		WarningThresholdDays: req.WarningThresholdInDays,
	}

	if req.Name != nil {
		conflict, err := s.checkNameUnique(ctx, *req.Name, ownerID, event.ID)
		if err != nil {
			return nil, nil, err
		}
		if conflict != nil {
			return nil, []models.MutationError{*conflict}, nil
		}
	}

	if req.LabelIDs != nil {
		labelIDs := s.decodeLabelRefs(*req.LabelIDs)
		if err := s.checkLabelOwnership(ctx, ownerID, labelIDs); err != nil {
			return nil, nil, err
		}
		upd.LabelIDs = &labelIDs
	}

	if req.Timestamps != nil {
		normalized := NormalizeTimestamps(*req.Timestamps)
		upd.Timestamps = &normalized
	}

	updated, err := s.store.UpdateEvent(ctx, event.ID, upd)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// DeleteEvent removes one of ownerID's events, detaching label associations,
// and returns the pre-delete snapshot.
func (s *Service) DeleteEvent(ctx context.Context, ownerID, opaqueEventID string) (*models.Event, error) {
	event, err := s.fetchOwnedEvent(ctx, ownerID, opaqueEventID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteEvent(ctx, event.ID); err != nil {
		return nil, err
	}
	return event, nil
}

// AddTimestamp appends an occurrence to the event's timestamp collection and
// writes back the full normalized collection, not a delta. Adding an instant
// that is already present is invisible in the data (normalization collapses
// it) but still executes the write and reports success.
//
// Concurrent adds to the same event race: both read the prior collection and
// the second write wins. This matches the documented storage model, which
// has no per-record versioning.
func (s *Service) AddTimestamp(ctx context.Context, ownerID, opaqueEventID string, ts time.Time) (*models.Event, []models.MutationError, error) {
	event, err := s.fetchOwnedEvent(ctx, ownerID, opaqueEventID)
	if err != nil {
		return nil, nil, err
	}

	normalized := NormalizeTimestamps(append(event.Timestamps, ts))
	upd := &models.EventUpdate{Timestamps: &normalized}

	updated, err := s.store.UpdateEvent(ctx, event.ID, upd)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// RemoveTimestamp deletes an occurrence (exact millisecond match) from the
// event's timestamp collection. If the instant is not present it returns a
// structured NOT_FOUND error on the "timestamp" field and issues no write.
func (s *Service) RemoveTimestamp(ctx context.Context, ownerID, opaqueEventID string, ts time.Time) (*models.Event, []models.MutationError, error) {
	event, err := s.fetchOwnedEvent(ctx, ownerID, opaqueEventID)
	if err != nil {
		return nil, nil, err
	}

	if !containsInstant(event.Timestamps, ts) {
		return nil, []models.MutationError{{
			Code:    models.MutationCodeNotFound,
			Field:   "timestamp",
			Message: "Timestamp not found on event",
		}}, nil
	}

	normalized := NormalizeTimestamps(withoutInstant(event.Timestamps, ts))
	upd := &models.EventUpdate{Timestamps: &normalized}

	updated, err := s.store.UpdateEvent(ctx, event.ID, upd)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}
