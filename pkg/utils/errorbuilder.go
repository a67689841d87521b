package utils

import (
	"context"
	"errors"

	"komonitor/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func WrapRepoError(op string, err error, isNotFoundErrPossible bool, log *zerolog.Logger) error {
	// Context errors
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &apperror.Error{
			Kind:    apperror.RequestTimeout,
			Op:      op,
			Message: "request cancelled or timed out",
			Err:     err,
		}
	}

	// if no row present
	if isNotFoundErrPossible && errors.Is(err, pgx.ErrNoRows) {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "resources not found",
			Err:     err,
		}
	}

	// postgres errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		log.Error().
			Str("op", op).
			Str("pg_code", pgErr.Code).
			Str("pg_constraint", pgErr.ConstraintName).
			Str("pg_table", pgErr.TableName).
			Str("pg_detail", pgErr.Detail).
			Err(err).
			Msg("postgres database error")

		kind := apperror.DatabaseErr
		if pgErr.Code == "23505" {
			kind = apperror.Conflict
		}
		return &apperror.Error{
			Kind:    kind,
			Op:      op,
			Message: "database error",
			Err:     err,
		}
	}

	// other errors
	return &apperror.Error{
		Kind:    apperror.Internal,
		Op:      op,
		Message: "internal server error",
		Err:     err,
	}
}

// WrapCacheError maps redis failures. redis.Nil becomes NotFound.
func WrapCacheError(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "cache miss",
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &apperror.Error{
			Kind:    apperror.RequestTimeout,
			Op:      op,
			Message: "cache request timed out",
			Err:     err,
		}
	}
	return &apperror.Error{
		Kind:    apperror.CacheErr,
		Op:      op,
		Message: "cache error",
		Err:     err,
	}
}
