package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/store"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", fmt.Errorf("%w: transaction T-009", store.ErrNotFound), http.StatusNotFound, "transaction T-009"},
		{"invalid", fmt.Errorf("%w: name is required", store.ErrInvalid), http.StatusBadRequest, "name is required"},
		{"conflict", fmt.Errorf("%w: transaction T-001 is already paid", store.ErrConflict), http.StatusConflict, "transaction T-001 is already paid"},
		{"stock", fmt.Errorf("%w: Vitamine C", store.ErrInsufficientStock), http.StatusConflict, "insufficient stock: Vitamine C"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := From(tt.err)
			he, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError, got %T", err)
			}
			if he.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, he.Code)
			}
			if he.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, he.Message)
			}
		})
	}
}

func TestFrom_PassesHTTPErrorThrough(t *testing.T) {
	orig := echo.NewHTTPError(http.StatusForbidden, "required role: cashier")
	if got := From(orig); got != orig {
		t.Errorf("expected the same error, got %v", got)
	}
	if From(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
