// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package validation

import (
	"strings"
	"testing"

	"github.com/relogapp/relog/internal/models"
)

func TestValidateStructPasses(t *testing.T) {
	req := models.CreateEventRequest{
		Name:                   "Exercise",
		WarningThresholdInDays: 7,
	}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("valid request rejected: %v", verr)
	}
}

func TestValidateStructUsesJSONFieldNames(t *testing.T) {
	req := models.CreateEventRequest{
		Name:                   "Exercise",
		WarningThresholdInDays: -3,
	}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("negative threshold accepted")
	}
	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
	}
	if errs[0].Field() != "warningThresholdInDays" {
		t.Errorf("field = %q, want json tag name warningThresholdInDays", errs[0].Field())
	}
}

func TestValidateStructMultipleFailures(t *testing.T) {
	req := models.CreateEventRequest{
		Name:                   strings.Repeat("x", 30),
		WarningThresholdInDays: -1,
	}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("invalid request accepted")
	}
	if len(verr.Errors()) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(verr.Errors()), verr)
	}
	if !strings.Contains(verr.Error(), ";") {
		t.Errorf("combined message %q lacks separator", verr.Error())
	}
}

func TestToMutationErrors(t *testing.T) {
	req := models.CreateEventRequest{Name: ""}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("empty name accepted")
	}
	merrs := verr.ToMutationErrors()
	if len(merrs) != 1 {
		t.Fatalf("got %d mutation errors, want 1", len(merrs))
	}
	if merrs[0].Code != models.MutationCodeValidation {
		t.Errorf("code = %q, want %q", merrs[0].Code, models.MutationCodeValidation)
	}
	if merrs[0].Field != "name" {
		t.Errorf("field = %q, want name", merrs[0].Field)
	}
	if merrs[0].Message == "" {
		t.Error("empty message")
	}
}

func TestValidateOptionalPointerFields(t *testing.T) {
	// Absent optional fields are not validated.
	if verr := ValidateStruct(&models.UpdateEventRequest{}); verr != nil {
		t.Errorf("empty patch rejected: %v", verr)
	}

	empty := ""
	verr := ValidateStruct(&models.UpdateEventRequest{Name: &empty})
	if verr == nil {
		t.Error("empty supplied name accepted")
	}
}

func TestValidateRegisterRequest(t *testing.T) {
	cases := []struct {
		label string
		req   models.RegisterRequest
		ok    bool
	}{
		{"valid", models.RegisterRequest{Username: "alice", Password: "correcthorse"}, true},
		{"short username", models.RegisterRequest{Username: "al", Password: "correcthorse"}, false},
		{"non-alphanumeric username", models.RegisterRequest{Username: "al ice", Password: "correcthorse"}, false},
		{"short password", models.RegisterRequest{Username: "alice", Password: "pw"}, false},
	}
	for _, tc := range cases {
		verr := ValidateStruct(&tc.req)
		if tc.ok && verr != nil {
			t.Errorf("%s: rejected: %v", tc.label, verr)
		}
		if !tc.ok && verr == nil {
			t.Errorf("%s: accepted", tc.label)
		}
	}
}
