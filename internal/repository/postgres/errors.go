package postgres

import (
	"errors"

	"github.com/faiisll/TKT-BE/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes we translate into repository sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// classify maps driver errors onto repository sentinels, keeping the
// original error wrapped for logging.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return errors.Join(repository.ErrDuplicate, err)
		case codeForeignKeyViolation:
			return errors.Join(repository.ErrInvalidRef, err)
		}
	}
	return err
}
