// Package apperr defines the portal's error taxonomy: not found, validation
// failure, backend fault and profile bootstrap failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound a fetch-by-id or single-row fetch matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrBackend the store was unreachable or rejected the operation.
	ErrBackend = errors.New("backend fault")
	// ErrProfileBootstrap ensuring the owner's profile failed.
	ErrProfileBootstrap = errors.New("profile bootstrap failed")
	// ErrForbidden the principal may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict the resource already exists.
	ErrConflict = errors.New("conflict")
	// ErrSchemaViolation a stored row holds a value outside its vocabulary.
	ErrSchemaViolation = errors.New("schema violation")
)

// ValidationError is a closed-vocabulary violation or a failed guard.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a *ValidationError.
func Validation(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// SchemaViolation marks err, raised while reading what, as corrupt stored
// data rather than bad input.
func SchemaViolation(what string, err error) error {
	return fmt.Errorf("%s: %w: %w", what, ErrSchemaViolation, err)
}

// Backend wraps err as a backend fault unless it is already classified.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

// Classified reports whether err already belongs to the taxonomy.
// Schema violations are not: they are store faults to be logged.
func Classified(err error) bool {
	if errors.Is(err, ErrSchemaViolation) {
		return false
	}
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBackend) ||
		errors.Is(err, ErrProfileBootstrap) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrConflict) ||
		IsValidation(err)
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrSchemaViolation):
		return http.StatusInternalServerError
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrProfileBootstrap):
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// PublicMessage is the message safe to return to a caller.
func PublicMessage(err error) string {
	var v *ValidationError
	switch {
	case errors.Is(err, ErrSchemaViolation):
		return "internal error"
	case errors.As(err, &v):
		return v.Error()
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrProfileBootstrap):
		return "could not prepare your profile, please retry"
	default:
		return "service temporarily unavailable"
	}
}
