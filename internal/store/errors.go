package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a uniqueness
// constraint. The database constraint is the backstop for check-then-insert
// races at the service layer.
var ErrConflict = errors.New("conflict")

const uniqueViolationCode = "23505"

// translateError maps driver-level errors onto the store's sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return ErrConflict
	}
	return err
}
