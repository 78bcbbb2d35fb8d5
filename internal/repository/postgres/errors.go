package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
)

// mapError converts driver errors to domain errors. Context errors pass through.
func mapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %v: %w", entity, id, err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s %v: %w", entity, id, domain.ErrNotFound)
		case pgCheckViolation:
			return fmt.Errorf("%s %v: %s: %w", entity, id, pqErr.Constraint, domain.ErrValidation)
		case pgLockNotAvailable:
			return fmt.Errorf("%s %v: %w", entity, id, repository.ErrLockNotAvailable)
		}
	}
	return fmt.Errorf("%s %v: %w", entity, id, err)
}

func isLockNotAvailable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgLockNotAvailable
}
