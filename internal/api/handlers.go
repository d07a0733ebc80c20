// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"context"
	"time"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/cache"
	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/models"
	"github.com/relogapp/relog/internal/tracker"
	"github.com/relogapp/relog/internal/websocket"
)

// listCacheTTL bounds how stale a cached event list may get. Mutations
// invalidate the owner's entries eagerly, so the TTL only matters for
// writes that bypass this process.
const listCacheTTL = 30 * time.Second

// ListStore is the read-only surface the list endpoints need.
//
// Satisfied by *database.DB.
type ListStore interface {
	ListEvents(ctx context.Context, ownerID string) ([]*models.Event, error)
	ListLabels(ctx context.Context, ownerID string) ([]*models.Label, error)
}

// Pinger reports storage connectivity for readiness checks.
//
// Satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	tracker   *tracker.Service
	auth      *auth.Service
	store     ListStore
	db        Pinger
	codec     *idcodec.Registry
	hub       *websocket.Hub
	listCache *cache.Cache
	cfg       *config.Config
	started   time.Time
}

// NewHandler wires a handler with its dependencies. hub may be nil when
// the realtime feed is disabled.
func NewHandler(
	trackerSvc *tracker.Service,
	authSvc *auth.Service,
	store ListStore,
	db Pinger,
	codec *idcodec.Registry,
	hub *websocket.Hub,
	cfg *config.Config,
) *Handler {
	return &Handler{
		tracker:   trackerSvc,
		auth:      authSvc,
		store:     store,
		db:        db,
		codec:     codec,
		hub:       hub,
		listCache: cache.New("event_list", listCacheTTL),
		cfg:       cfg,
		started:   time.Now(),
	}
}

// Close releases handler-owned resources.
func (h *Handler) Close() {
	h.listCache.Stop()
}

// invalidateOwner drops the owner's cached lists after any mutation.
func (h *Handler) invalidateOwner(ownerID string) {
	h.listCache.DeletePrefix(ownerID + ":")
}

// eventDTO converts a stored event to its external representation.
// Encode failures cannot happen for ids the store generated; if one
// does surface it is logged and the raw field left empty rather than
// leaking an internal id.
func (h *Handler) eventDTO(e *models.Event, now time.Time) models.EventDTO {
	id, err := h.codec.Encode(e.ID, idcodec.EntityEvent)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode event id")
	}

	timestamps := make([]string, len(e.Timestamps))
	for i, ts := range e.Timestamps {
		timestamps[i] = ts.UTC().Format(time.RFC3339)
	}

	labels := make([]models.LabelDTO, len(e.Labels))
	for i := range e.Labels {
		labels[i] = h.labelDTO(&e.Labels[i])
	}

	return models.EventDTO{
		ID:                     id,
		Name:                   e.Name,
		WarningThresholdInDays: e.WarningThresholdDays,
		Timestamps:             timestamps,
		Labels:                 labels,
		Overdue:                e.Overdue(now),
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func (h *Handler) labelDTO(l *models.Label) models.LabelDTO {
	id, err := h.codec.Encode(l.ID, idcodec.EntityLabel)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode label id")
	}
	return models.LabelDTO{
		ID:        id,
		Name:      l.Name,
		CreatedAt: l.CreatedAt,
	}
}

func (h *Handler) userDTO(u *models.User) models.UserDTO {
	id, err := h.codec.Encode(u.ID, idcodec.EntityUser)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode user id")
	}
	return models.UserDTO{
		ID:       id,
		Username: u.Username,
	}
}

// mutationPayload builds the data half of a mutation response. A nil
// event yields an explicit null primary result beside the errors.
func (h *Handler) mutationPayload(e *models.Event, errs []models.MutationError) models.MutationPayload {
	payload := models.MutationPayload{Errors: errs}
	if payload.Errors == nil {
		payload.Errors = []models.MutationError{}
	}
	if e != nil {
		payload.PrimaryResult = h.eventDTO(e, time.Now().UTC())
	}
	return payload
}

func (h *Handler) labelMutationPayload(l *models.Label, errs []models.MutationError) models.MutationPayload {
	payload := models.MutationPayload{Errors: errs}
	if payload.Errors == nil {
		payload.Errors = []models.MutationError{}
	}
	if l != nil {
		payload.PrimaryResult = h.labelDTO(l)
	}
	return payload
}
