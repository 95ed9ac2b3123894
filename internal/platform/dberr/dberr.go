// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
)

// PostgreSQL SQLSTATE codes the stores react to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified (e.g. returned from inside a transaction callback)
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations carry a SQLSTATE we can classify
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation:
			conflict := apperr.Conflict("Resource already exists")
			conflict.Cause = err
			return conflict
		case CodeForeignKeyViolation:
			invalid := apperr.ValidationError("Referenced resource does not exist")
			invalid.Cause = err
			return invalid
		case CodeCheckViolation:
			invalid := apperr.ValidationError("Value violates a data constraint")
			invalid.Cause = err
			return invalid
		}
	}

	// 3. Unknown query errors become Internal Server Errors
	return apperr.Internal(fmt.Errorf("%s: %w", action, err))
}

// Constraint returns the violated constraint name when err is a unique or
// foreign-key violation, or an empty string otherwise.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation, CodeForeignKeyViolation:
			return pgErr.ConstraintName
		}
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique violation, optionally on a
// specific constraint (pass "" to match any).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
