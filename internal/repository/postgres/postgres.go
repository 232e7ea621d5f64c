// Package postgres contains the PostgreSQL implementations of the
// repository interfaces.
package postgres

import (
	"errors"

	"github.com/lib/pq"

	"foodgram/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a violated unique
// constraint.
const uniqueViolation = "23505"

// asDuplicate maps a unique constraint violation onto
// repository.ErrDuplicate so the service layer can treat it as a client
// error. Other errors are returned unchanged.
func asDuplicate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
