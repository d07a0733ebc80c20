// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/metrics"
	"github.com/relogapp/relog/internal/models"
)

// ListLabels handles GET /api/v1/labels.
func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())

	cacheKey := ownerID + ":labels"
	if cached, ok := h.listCache.Get(cacheKey); ok {
		respondCached(w, cached, start)
		return
	}

	labels, err := h.store.ListLabels(r.Context(), ownerID)
	if err != nil {
		respondThrown(w, err)
		return
	}

	dtos := make([]models.LabelDTO, len(labels))
	for i, l := range labels {
		dtos[i] = h.labelDTO(l)
	}

	h.listCache.Set(cacheKey, dtos)
	respondSuccess(w, http.StatusOK, dtos, start)
}

// CreateLabel handles POST /api/v1/labels. Label names are not unique;
// two labels with the same name are distinct records.
func (h *Handler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())

	var req models.CreateLabelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("create_label", "rejected")
		respondSuccess(w, http.StatusOK, h.labelMutationPayload(nil, errs), start)
		return
	}

	label, errs, err := h.tracker.CreateLabel(r.Context(), ownerID, req.Name)
	if err != nil {
		metrics.RecordMutation("create_label", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("create_label", outcome)

	if label != nil {
		h.invalidateOwner(ownerID)
		h.notifyLabelChanged(ownerID, label.ID)
	}
	respondSuccess(w, http.StatusOK, h.labelMutationPayload(label, errs), start)
}

// UpdateLabel handles PATCH /api/v1/labels/{id}.
func (h *Handler) UpdateLabel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	var req models.UpdateLabelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := validateRequest(&req); errs != nil {
		metrics.RecordMutation("update_label", "rejected")
		respondSuccess(w, http.StatusOK, h.labelMutationPayload(nil, errs), start)
		return
	}

	label, errs, err := h.tracker.UpdateLabel(r.Context(), ownerID, opaqueID, req.Name)
	if err != nil {
		h.recordDecodeFailure(err, "label")
		metrics.RecordMutation("update_label", "error")
		respondThrown(w, err)
		return
	}

	outcome := "success"
	if len(errs) > 0 {
		outcome = "rejected"
	}
	metrics.RecordMutation("update_label", outcome)

	if label != nil {
		h.invalidateOwner(ownerID)
		h.notifyLabelChanged(ownerID, label.ID)
	}
	respondSuccess(w, http.StatusOK, h.labelMutationPayload(label, errs), start)
}

// DeleteLabel handles DELETE /api/v1/labels/{id}. Deletion detaches the
// label from every event that carried it, so cached event lists are
// invalidated too.
func (h *Handler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ownerID := auth.UserIDFromContext(r.Context())
	opaqueID := chi.URLParam(r, "id")

	label, err := h.tracker.DeleteLabel(r.Context(), ownerID, opaqueID)
	if err != nil {
		h.recordDecodeFailure(err, "label")
		metrics.RecordMutation("delete_label", "error")
		respondThrown(w, err)
		return
	}
	metrics.RecordMutation("delete_label", "success")

	h.invalidateOwner(ownerID)
	if h.hub != nil {
		h.hub.NotifyLabelDeleted(ownerID, opaqueID)
	}
	respondSuccess(w, http.StatusOK, h.labelMutationPayload(label, nil), start)
}

func (h *Handler) notifyLabelChanged(ownerID, internalLabelID string) {
	if h.hub == nil {
		return
	}
	if opaque, err := h.codec.Encode(internalLabelID, idcodec.EntityLabel); err == nil {
		h.hub.NotifyLabelChanged(ownerID, opaque)
	}
}
