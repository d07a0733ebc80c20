// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/metrics"
	"github.com/relogapp/relog/internal/models"
)

// ListEvents handles GET /api/v1/events. The listing is cached per
// owner; every mutation below invalidates the owner's entries.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())

	cacheKey := ownerID + ":events"
	if cached, ok := h.listCache.Get(cacheKey); ok {
		respondCached(w, cached, start)
		return
	}

	events, err := h.store.ListEvents(r.Context(), ownerID)
	if err != nil {
		respondThrown(w, err)
		return
	}

	now := time.Now().UTC()
	dtos := make([]models.EventDTO, len(events))
	for i, e := range events {
		dtos[i] = h.eventDTO(e, now)
	}

	h.listCache.Set(cacheKey, dtos)
	respondSuccess(w, http.StatusOK, dtos, start)
}

// CreateEvent handles POST /api/v1/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())

	var req models.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("create_event", "rejected")
		respondSuccess(w, http.StatusOK, h.mutationPayload(nil, errs), start)
		return
	}

	event, errs, err := h.tracker.CreateEvent(r.Context(), ownerID, &req)
	if err != nil {
		h.recordDecodeFailure(err, "label")
		metrics.RecordMutation("create_event", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("create_event", outcome)

	if event != nil {
		h.invalidateOwner(ownerID)
		h.notifyEventChanged(ownerID, event.ID)
	}
	respondSuccess(w, http.StatusOK, h.mutationPayload(event, errs), start)
}

// UpdateEvent handles PATCH /api/v1/events/{id}. Absent fields keep the
// stored value; present fields replace it wholesale.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	var req models.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("update_event", "rejected")
		respondSuccess(w, http.StatusOK, h.mutationPayload(nil, errs), start)
		return
	}

	event, errs, err := h.tracker.UpdateEvent(r.Context(), ownerID, opaqueID, &req)
	if err != nil {
		h.recordDecodeFailure(err, "event")
		metrics.RecordMutation("update_event", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("update_event", outcome)

	if event != nil {
		h.invalidateOwner(ownerID)
		h.notifyEventChanged(ownerID, event.ID)
	}
	respondSuccess(w, http.StatusOK, h.mutationPayload(event, errs), start)
}

// DeleteEvent handles DELETE /api/v1/events/{id}. The response carries
// a snapshot of the record as it was before deletion.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	event, err := h.tracker.DeleteEvent(r.Context(), ownerID, opaqueID)
	if err != nil {
		h.recordDecodeFailure(err, "event")
		metrics.RecordMutation("delete_event", "error")
		respondThrown(w, err)
		return
	}
	metrics.RecordMutation("delete_event", "success")

	h.invalidateOwner(ownerID)
	if h.hub != nil {
		h.hub.NotifyEventDeleted(ownerID, opaqueID)
	}
	respondSuccess(w, http.StatusOK, h.mutationPayload(event, nil), start)
}

// AddTimestamp handles POST /api/v1/events/{id}/timestamps. Adding an
// instant the event already has (at millisecond precision) succeeds and
// leaves the stored collection unchanged.
func (h *Handler) AddTimestamp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	var req models.TimestampRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("add_timestamp", "rejected")
		respondSuccess(w, http.StatusOK, h.mutationPayload(nil, errs), start)
		return
	}

	event, errs, err := h.tracker.AddTimestamp(r.Context(), ownerID, opaqueID, req.Timestamp)
	if err != nil {
		h.recordDecodeFailure(err, "event")
		metrics.RecordMutation("add_timestamp", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("add_timestamp", outcome)

	if event != nil {
		h.invalidateOwner(ownerID)
		h.notifyEventChanged(ownerID, event.ID)
	}
	respondSuccess(w, http.StatusOK, h.mutationPayload(event, errs), start)
}

// RemoveTimestamp handles DELETE /api/v1/events/{id}/timestamps.
// Removing an instant the event does not have is a structured NOT_FOUND
// in the errors channel, not a thrown 404.
func (h *Handler) RemoveTimestamp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	var req models.TimestampRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("remove_timestamp", "rejected")
		respondSuccess(w, http.StatusOK, h.mutationPayload(nil, errs), start)
		return
	}

	event, errs, err := h.tracker.RemoveTimestamp(r.Context(), ownerID, opaqueID, req.Timestamp)
	if err != nil {
		h.recordDecodeFailure(err, "event")
		metrics.RecordMutation("remove_timestamp", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("remove_timestamp", outcome)

	if event != nil {
		h.invalidateOwner(ownerID)
		h.notifyEventChanged(ownerID, event.ID)
	}
	respondSuccess(w, http.StatusOK, h.mutationPayload(event, errs), start)
}

// notifyEventChanged pushes a change notification carrying the opaque id.
func (h *Handler) notifyEventChanged(ownerID, internalEventID string) {
	if h.hub == nil {
		return
	}
	if opaque, err := h.codec.Encode(internalEventID, idcodec.EntityEvent); err == nil {
		h.hub.NotifyEventChanged(ownerID, opaque)
	}
}

// recordDecodeFailure counts malformed-identifier rejections per entity.
func (h *Handler) recordDecodeFailure(err error, entity string) {
	if errors.Is(err, idcodec.ErrInvalidFormat) {
		metrics.RecordCodecDecodeFailure(entity)
	}
}
