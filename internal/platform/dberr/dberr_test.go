// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
)

/*
TestWrap_Classification verifies the mapping from driver errors to API errors.
*/
func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", pgx.ErrNoRows, apperr.CodeNotFound},
		{"wrapped_no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.CodeNotFound},
		{"unique", &pgconn.PgError{Code: dberr.CodeUniqueViolation, ConstraintName: "tag_name_key"}, apperr.CodeConflict},
		{"foreign_key", &pgconn.PgError{Code: dberr.CodeForeignKeyViolation}, apperr.CodeValidation},
		{"unknown", errors.New("connection reset"), apperr.CodeInternal},
		{"already_classified", apperr.Forbidden("nope"), apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "test")
			ae := apperr.As(wrapped)
			require.NotNil(t, ae)
			assert.Equal(t, tt.code, ae.Code)
		})
	}

	assert.Nil(t, dberr.Wrap(nil, "noop"))
}

/*
TestIsUniqueViolation checks constraint-name matching.
*/
func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: dberr.CodeUniqueViolation, ConstraintName: "series_slug_key"})

	assert.True(t, dberr.IsUniqueViolation(err, ""))
	assert.True(t, dberr.IsUniqueViolation(err, "series_slug_key"))
	assert.False(t, dberr.IsUniqueViolation(err, "series_name_key"))
	assert.Equal(t, "series_slug_key", dberr.Constraint(err))
	assert.False(t, dberr.IsUniqueViolation(errors.New("plain"), ""))
}
