package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "type and message",
			err:      &APIError{Type: ErrorTypeInvalidRequest, Message: "bad request"},
			expected: "invalid_request: bad request",
		},
		{
			name: "source, status and code",
			err: &APIError{
				Type:       ErrorTypeNotFound,
				Code:       ErrorCodeModelNotFound,
				Message:    "models/gemini-x is not found",
				StatusCode: 404,
				SourceAPI:  APITypeGemini,
			},
			expected: "gemini not_found (status 404) [model_not_found]: models/gemini-x is not found",
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

func TestAPIError_ModelUnavailable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusNotFound, true},
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusInternalServerError, false},
		{http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := NewAPIError(ErrorTypeForStatus(tt.status), "x").WithStatusCode(tt.status)
			if got := err.ModelUnavailable(); got != tt.want {
				t.Errorf("ModelUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuthentication(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", NewAPIError(ErrorTypeAuthentication, "bad key").WithStatusCode(401))
	if !IsAuthentication(wrapped) {
		t.Error("expected wrapped 401 to be an authentication error")
	}
	if IsAuthentication(errors.New("dial tcp: refused")) {
		t.Error("plain errors are not authentication errors")
	}
	if IsAuthentication(NewAPIError(ErrorTypeServer, "boom").WithStatusCode(500)) {
		t.Error("500 is not an authentication error")
	}
}

func TestAllCandidatesExhaustedError(t *testing.T) {
	last := NewAPIError(ErrorTypeNotFound, "no such model").WithStatusCode(404)
	err := &AllCandidatesExhaustedError{
		Attempts: []ProbeAttempt{{Outcome: OutcomeHTTPError}, {Outcome: OutcomeHTTPError}},
		Last:     last,
	}

	if !errors.Is(err, ErrAllCandidatesExhausted) {
		t.Error("expected errors.Is(err, ErrAllCandidatesExhausted)")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr != last {
		t.Error("expected the last error to be reachable with errors.As")
	}
	if !strings.Contains(err.Error(), "no such model") {
		t.Errorf("Error() = %q, want it to mention the last failure", err.Error())
	}
}

func TestParseAdvisoryContext(t *testing.T) {
	tests := map[string]AdvisoryContext{
		"loan":        ContextLoan,
		" Insurance ": ContextInsurance,
		"investment":  ContextInvestment,
		"financial":   ContextFinancial,
		"general":     ContextGeneral,
		"":            ContextGeneral,
		"crypto":      ContextGeneral,
	}
	for in, want := range tests {
		if got := ParseAdvisoryContext(in); got != want {
			t.Errorf("ParseAdvisoryContext(%q) = %q, want %q", in, got, want)
		}
	}
}
