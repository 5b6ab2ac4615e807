package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/bookwell/bookwell-api/internal/errs"
)

// queryTimeout bounds every storage call so a stalled database surfaces as
// a storage error instead of hanging the request.
const queryTimeout = 5 * time.Second

const uniqueViolation = "23505"

// ErrTokenCollision signals that a freshly generated invite token already
// exists. The issuer regenerates and retries once before giving up.
var ErrTokenCollision = errors.New("invite token already exists")

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
}

func storageErr(err error, op string) error {
	return errs.Storage(err, op)
}
