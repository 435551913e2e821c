package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsSetStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("booking"), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict("slot held"), CodeConflict, http.StatusConflict},
		{"invalid state", InvalidState("booking is completed"), CodeInvalidState, http.StatusConflict},
		{"profile incomplete", ProfileIncomplete("no vehicle"), CodeProfileIncomplete, http.StatusUnprocessableEntity},
		{"forbidden", Forbidden("not your booking"), CodeForbidden, http.StatusForbidden},
		{"invalid input", InvalidInput("bad window"), CodeInvalidInput, http.StatusBadRequest},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("db write failed", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Conflict("slot held"))

	if !HasCode(err, CodeConflict) {
		t.Error("expected HasCode to find the conflict through wrapping")
	}
	if HasCode(err, CodeNotFound) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Error("HasCode matched a non-AppError")
	}
	if got := AsAppError(err); got.Code != CodeConflict {
		t.Errorf("AsAppError code = %s, want %s", got.Code, CodeConflict)
	}
}

func TestNotFoundWithIDDetails(t *testing.T) {
	err := NotFoundWithID("booking", "b-1")
	if err.Details["id"] != "b-1" || err.Details["resource"] != "booking" {
		t.Errorf("details = %v, want resource and id", err.Details)
	}
}
