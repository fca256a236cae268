package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// classify marks connection loss and timeouts as storage.ErrUnavailable.
// Errors reported by the server itself pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return storage.Unavailable(err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return storage.Unavailable(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return storage.Unavailable(err)
	}
	return err
}

// uniqueConstraint returns the violated constraint name, or "" when err is
// not a unique violation.
func uniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}
