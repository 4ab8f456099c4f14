package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSample = NewValidationError("SAMPLE", "sample rejected")

func TestIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("executing: %w", errSample.WithDetails(map[string]interface{}{"symbol": "AAPL"}))

	if !errors.Is(wrapped, errSample) {
		t.Errorf("Expected wrapped copy to match sentinel")
	}
	if errors.Is(wrapped, NewValidationError("OTHER", "other")) {
		t.Errorf("Expected different code not to match")
	}
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	_ = errSample.WithDetails(map[string]interface{}{"k": "v"})
	if errSample.Details != nil {
		t.Errorf("Expected sentinel details to stay nil, got %v", errSample.Details)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NewValidationError("X", "x"), http.StatusBadRequest},
		{New(TypeNotFound, "X", "x"), http.StatusNotFound},
		{New(TypeUnknown, "X", "x"), http.StatusInternalServerError},
		{New(TypeUnavailable, "X", "x"), http.StatusServiceUnavailable},
		{NewRateLimitError("x"), http.StatusTooManyRequests},
		{NewInternalError("x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.StatusCode(); got != tt.want {
			t.Errorf("StatusCode(%s) = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestFrom_PlainErrorBecomesInternal(t *testing.T) {
	e := From(errors.New("disk full"))
	if e.Type != TypeInternal {
		t.Errorf("Expected internal type, got %v", e.Type)
	}
	resp := NewResponse(e)
	if resp.Error != "Internal error" {
		t.Errorf("Expected cause to be hidden, got %q", resp.Error)
	}
}
