package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{ErrEventNotFound, http.StatusNotFound},
		{ErrAlreadyRegistered, http.StatusConflict},
		{ErrCapacityExceeded, http.StatusBadRequest},
		{ErrInvalidFormat, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotificationFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Kind.HTTPStatus(); got != tt.want {
			t.Fatalf("%s: expected status %d, got %d", tt.err.Code, tt.want, got)
		}
	}
}

func TestIsMatchesByCode(t *testing.T) {
	cause := errors.New("smtp: connection refused")
	wrapped := fmt.Errorf("invite: %w", Wrap(ErrNotificationFailed, cause))

	if !errors.Is(wrapped, ErrNotificationFailed) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if errors.Is(wrapped, ErrCapacityExceeded) {
		t.Fatal("expected different codes not to match")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause to stay reachable")
	}
}

func TestFromDefaultsToInternal(t *testing.T) {
	got := From(errors.New("boom"))
	if got.Code != CodeInternal {
		t.Fatalf("expected %s, got %s", CodeInternal, got.Code)
	}
	if StatusOf(errors.New("boom")) != http.StatusInternalServerError {
		t.Fatal("expected 500 for plain errors")
	}
	if From(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := WithMessage(ErrInvalidInput, "end date must be after start date")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected code match")
	}
	if err.Error() != "end date must be after start date" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
