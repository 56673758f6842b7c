package apperror

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "without internal error",
			err: &Error{
				HTTPStatus: http.StatusBadRequest,
				Code:       "unsupported_jurisdiction",
				Message:    "Unsupported jurisdiction or report number",
			},
			expected: "unsupported_jurisdiction: Unsupported jurisdiction or report number",
		},
		{
			name: "with internal error",
			err: &Error{
				HTTPStatus: http.StatusBadGateway,
				Code:       "storage_error",
				Message:    "folder creation failed",
				Internal:   errors.New("connection reset"),
			},
			expected: "storage_error: folder creation failed (connection reset)",
		},
		{
			name: "empty message",
			err: &Error{
				HTTPStatus: http.StatusBadRequest,
				Code:       "bad_request",
				Message:    "",
			},
			expected: "bad_request: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying cause")
	wrapped := ErrStorage.WithInternal(cause)

	if got := wrapped.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should match the internal error")
	}
	if got := ErrStorage.Unwrap(); got != nil {
		t.Errorf("Unwrap() on bare error = %v, want nil", got)
	}
}

func TestWithMessageDoesNotMutate(t *testing.T) {
	custom := ErrBadRequest.WithMessage("report_id is required")

	if custom.Message != "report_id is required" {
		t.Errorf("Message = %q", custom.Message)
	}
	if custom.Code != ErrBadRequest.Code || custom.HTTPStatus != ErrBadRequest.HTTPStatus {
		t.Error("WithMessage must preserve code and status")
	}
	if ErrBadRequest.Message != "Invalid request" {
		t.Errorf("shared error mutated: %q", ErrBadRequest.Message)
	}
}

func TestWithDetails(t *testing.T) {
	err := ErrUnsupportedJurisdiction.WithDetails(map[string]any{"jurisdiction": "Atlantis"})

	if err.Details["jurisdiction"] != "Atlantis" {
		t.Errorf("Details = %v", err.Details)
	}
	if ErrUnsupportedJurisdiction.Details != nil {
		t.Error("shared error mutated by WithDetails")
	}

	echoErr := err.ToEchoError()
	body := echoErr.Message.(map[string]any)["error"].(map[string]any)
	if body["code"] != "unsupported_jurisdiction" {
		t.Errorf("code = %v", body["code"])
	}
	if body["details"] == nil {
		t.Error("details missing from echo error body")
	}
}

func TestNewStorage(t *testing.T) {
	cause := errors.New("409 conflict")
	err := NewStorage("template copy failed", cause)

	if err.HTTPStatus != http.StatusBadGateway {
		t.Errorf("HTTPStatus = %d, want %d", err.HTTPStatus, http.StatusBadGateway)
	}
	if err.Code != "storage_error" {
		t.Errorf("Code = %q", err.Code)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}
