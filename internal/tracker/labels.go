// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package tracker

import (
	"context"
	"fmt"

	"github.com/relogapp/relog/internal/models"
)

// validateLabelName checks the 1..25 character rule. Label names need not be
// unique, not even per user.
func validateLabelName(name string) *models.MutationError {
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

// CreateLabel stores a new label for ownerID.
func (s *Service) CreateLabel(ctx context.Context, ownerID, name string) (*models.Label, []models.MutationError, error) {
	if e := validateLabelName(name); e != nil {
		return nil, []models.MutationError{*e}, nil
	}

	label := &models.Label{OwnerID: ownerID, Name: name}
	created, err := s.store.InsertLabel(ctx, label)
	if err != nil {
		return nil, nil, err
	}
	return created, nil, nil
}

// UpdateLabel renames one of ownerID's labels.
func (s *Service) UpdateLabel(ctx context.Context, ownerID, opaqueLabelID, name string) (*models.Label, []models.MutationError, error) {
	if e := validateLabelName(name); e != nil {
		return nil, []models.MutationError{*e}, nil
	}

	label, err := s.fetchOwnedLabel(ctx, ownerID, opaqueLabelID)
	if err != nil {
		return nil, nil, err
	}

	updated, err := s.store.UpdateLabelName(ctx, label.ID, name)
	if err != nil {
		return nil, nil, err
	}
	return updated, nil, nil
}

// DeleteLabel removes one of ownerID's labels, detaching it from every event
// it is associated with, and returns the pre-delete snapshot.
func (s *Service) DeleteLabel(ctx context.Context, ownerID, opaqueLabelID string) (*models.Label, error) {
	label, err := s.fetchOwnedLabel(ctx, ownerID, opaqueLabelID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteLabel(ctx, label.ID); err != nil {
		return nil, err
	}
	return label, nil
}
