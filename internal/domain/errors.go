package domain

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Sentinels for the two inventory failure modes; both surface wrapped in a
// ConflictError so callers can match either the sentinel or the category.
var (
	ErrInsufficientSeats   = errors.New("insufficient seats")
	ErrInventoryCorruption = errors.New("seat inventory corruption")
)

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// DataAccessError wraps an underlying store failure. Controllers log it and
// answer with a generic message; no retry happens below the HTTP layer.
type DataAccessError struct {
	Op  string
	Err error
}

func (e DataAccessError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("data access failed during %s", e.Op)
	}
	return "data access failed"
}

func (e DataAccessError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsDataAccess(err error) bool {
	var target DataAccessError
	return errors.As(err, &target)
}

// FromStore maps a raw gorm/driver error to the domain taxonomy. Record
// misses become NotFoundError, unique violations ConflictError, everything
// else DataAccessError.
func FromStore(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError{Resource: resource, Err: err}
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ConflictError{Resource: resource, Msg: "already exists", Err: err}
	}
	return DataAccessError{Op: op, Err: err}
}
