// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/platform/database/schema"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
	"github.com/taibuivan/onnanoko/internal/platform/postgres"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

var (
	acct  = schema.UserAccount
	imgs  = schema.CoreImage
	chars = schema.CoreCharacter
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the admin aggregate store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (repository *PostgresRepository) Totals(ctx context.Context) (Totals, error) {
	query := fmt.Sprintf(`SELECT (SELECT COUNT(*) FROM %s), (SELECT COUNT(*) FROM %s)`, acct.Table, chars.Table)

	var totals Totals
	if err := repository.pool.QueryRow(ctx, query).Scan(&totals.Users, &totals.Characters); err != nil {
		return Totals{}, dberr.Wrap(err, "count_totals")
	}
	return totals, nil
}

func (repository *PostgresRepository) ListUsers(ctx context.Context, search string, limit, offset int) ([]*UserSummary, int, error) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s,
			(SELECT COUNT(*) FROM %s img WHERE img.%s = u.%s) AS upload_count,
			COUNT(*) OVER() AS total_count
		FROM %s u
		WHERE TRUE`,
		auth.UserColumns("u"), imgs.Table, imgs.UploaderID, acct.ID, acct.Table))

	if strings.TrimSpace(search) != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (u.%[1]s ILIKE $%[5]d OR u.%[2]s ILIKE $%[5]d OR u.%[3]s ILIKE $%[5]d OR u.%[4]s ILIKE $%[5]d)",
			acct.Username, acct.Email, acct.FirstName, acct.LastName, argID))
		args = append(args, postgres.ContainsPattern(search))
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY u.%s DESC, u.%s DESC LIMIT $%d OFFSET $%d", acct.DateJoined, acct.ID, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}
	defer rows.Close()

	users := make([]*UserSummary, 0, limit)
	total := 0
	for rows.Next() {
		summary := &UserSummary{}
		user, err := auth.ScanUser(rows, &summary.UploadCount, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_user")
		}
		summary.User = user
		users = append(users, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_users")
	}

	return users, total, nil
}

func (repository *PostgresRepository) UploadCount(ctx context.Context, userID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, imgs.Table, imgs.UploaderID)

	var count int
	if err := repository.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_uploads")
	}
	return count, nil
}
