// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/database/schema"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
)

var u = schema.UserAccount

// PostgresUserRepository implements [UserRepository] on users.account.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// UserColumns is the projection shared by every account read. The admin
// package reuses it with [ScanUser] for its listing.
func UserColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf("%[1]s%[2]s, %[1]s%[3]s, %[1]s%[4]s, %[1]s%[5]s, %[1]s%[6]s, %[1]s%[7]s, %[1]s%[8]s, %[1]s%[9]s, %[1]s%[10]s, %[1]s%[11]s",
		prefix, u.ID, u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.Role, u.IsActive, u.DateJoined, u.LastLoginAt)
}

// ScanUser hydrates a row produced by [UserColumns], followed by any extra targets.
func ScanUser(row pgx.Row, extra ...any) (*User, error) {
	user := &User{}
	targets := append([]any{
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.DateJoined,
		&user.LastLoginAt,
	}, extra...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return user, nil
}

func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, UserColumns(""), u.Table, u.ID)

	user, err := ScanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(dberr.Wrap(err, "get_user"))
	}
	return user, nil
}

func (repository *PostgresUserRepository) FindByLogin(ctx context.Context, login string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 OR LOWER(%s) = LOWER($1) ORDER BY (%s = $1) DESC LIMIT 1`,
		UserColumns(""), u.Table, u.Username, u.Email, u.Username)

	user, err := ScanUser(repository.pool.QueryRow(ctx, query, login))
	if err != nil {
		return nil, notFound(dberr.Wrap(err, "get_user_by_login"))
	}
	return user, nil
}

func (repository *PostgresUserRepository) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s::text <> $2)`, u.Table, u.Username, u.ID)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, username, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_username")
	}
	return taken, nil
}

func (repository *PostgresUserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(%s) = LOWER($1) AND %s::text <> $2)`, u.Table, u.Email, u.ID)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_email")
	}
	return taken, nil
}

/*
Create persists a new user record into the users.account table.

Returns:
  - error: ValidationError when the username or email index rejects the row
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.Table, u.ID, u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.Role, u.IsActive, u.DateJoined)

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
		user.DateJoined,
	)
	if err != nil {
		return classify(err, "create_user")
	}
	return nil
}

func (repository *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1`,
		u.Table, u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.Role, u.IsActive, u.ID)

	tag, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.IsActive,
	)
	if err != nil {
		return classify(err, "update_user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

func (repository *PostgresUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, u.Table, u.LastLoginAt, u.ID)

	if _, err := repository.pool.Exec(ctx, query, id, at); err != nil {
		return dberr.Wrap(err, "touch_last_login")
	}
	return nil
}

func (repository *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, u.Table, u.ID)

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Error Mapping

func classify(err error, action string) error {
	switch {
	case dberr.IsUniqueViolation(err, u.UsernameKey):
		return usernameTakenError()
	case dberr.IsUniqueViolation(err, u.EmailKey):
		return emailTakenError()
	}
	return dberr.Wrap(err, action)
}

func notFound(err error) error {
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.NotFound("User")
	}
	return err
}
