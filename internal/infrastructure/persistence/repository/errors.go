package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/valepallet/vpallet/internal/application/port"
	"github.com/valepallet/vpallet/pkg/database"
)

// mapError translates driver errors into the port sentinels
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return port.ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", port.ErrDuplicate, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", port.ErrReferenced, err)
	default:
		return err
	}
}

// Timestamps are stored in UTC; Postgres TIMESTAMP columns keep only the wall clock.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
