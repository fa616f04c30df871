package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestBackend_WrapsUnclassifiedOnly(t *testing.T) {
	raw := errors.New("connection refused")
	err := Backend("get project", raw)
	if !errors.Is(err, ErrBackend) || !errors.Is(err, raw) {
		t.Fatalf("expected backend fault wrapping the cause, got %v", err)
	}

	notFound := fmt.Errorf("project 3: %w", ErrNotFound)
	if got := Backend("get project", notFound); errors.Is(got, ErrBackend) {
		t.Fatalf("expected not found to stay not found, got %v", got)
	}

	if Backend("noop", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("title", "abcd", "too short"), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", ErrNotFound), http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrConflict, http.StatusConflict},
		{fmt.Errorf("ensure: %w", ErrProfileBootstrap), http.StatusBadGateway},
		{Backend("op", errors.New("down")), http.StatusServiceUnavailable},
		{Backend("get project", SchemaViolation("project 1", Validation("status", "ARCHIVED", "not in vocabulary"))), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestSchemaViolation_IsAFault(t *testing.T) {
	err := SchemaViolation("project 7", Validation("status", "ARCHIVED", "not in vocabulary"))
	if Classified(err) {
		t.Fatalf("expected schema violation to be unclassified")
	}
	wrapped := Backend("get project", err)
	if !errors.Is(wrapped, ErrBackend) || !errors.Is(wrapped, ErrSchemaViolation) {
		t.Fatalf("expected backend fault carrying the violation, got %v", wrapped)
	}
	if msg := PublicMessage(wrapped); msg != "internal error" {
		t.Fatalf("expected stored value hidden from caller, got %q", msg)
	}
}
