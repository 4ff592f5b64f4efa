package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMalformedKey is returned when a key token does not split into one
	// segment per primary key field.
	ErrMalformedKey = errors.New("malformed record key")

	// ErrNothingToUpdate is returned when an update payload is empty after
	// normalization.
	ErrNothingToUpdate = errors.New("nothing to update")
)

// ConfigurationError reports a lookup of something the server has no
// configuration for: an unknown table, report or lookup entity.
type ConfigurationError struct {
	Kind string
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// ValidationError names the fields that failed validation.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid fields: " + strings.Join(e.Fields, ", ")
}

// ConflictError reports a create that collides with an existing key.
type ConflictError struct {
	Table string
	Key   string
}

func (e *ConflictError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("a record with the same key already exists in %s", e.Table)
	}
	return fmt.Sprintf("a record with key %q already exists in %s", e.Key, e.Table)
}

type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %q not found in %s", e.Key, e.Table)
}

// TransactionError wraps any failure inside a multi-statement unit. The unit
// has been rolled back by the time this error is observed.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: transaction rolled back: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// StatusOf maps a domain error to its HTTP status and error code. Errors it
// does not recognize map to 500.
func StatusOf(err error) (int, string) {
	var (
		cfgErr      *ConfigurationError
		validErr    *ValidationError
		conflictErr *ConflictError
		notFoundErr *NotFoundError
	)

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusNotFound, "unknown_" + cfgErr.Kind
	case errors.As(err, &validErr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrMalformedKey):
		return http.StatusBadRequest, "malformed_key"
	case errors.Is(err, ErrNothingToUpdate):
		return http.StatusBadRequest, "nothing_to_update"
	case errors.As(err, &conflictErr):
		return http.StatusConflict, "conflict"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
