// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/database/schema"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
	"github.com/taibuivan/onnanoko/internal/platform/postgres"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed taxonomy store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// table resolves the schema definition of a kind.
func table(kind Kind) schema.TaxonomyTable {
	switch kind {
	case KindSeries:
		return schema.CoreSeries
	case KindGroup:
		return schema.CoreGroup
	default:
		return schema.CoreTag
	}
}

// selectColumns renders the projection shared by every read.
func selectColumns(t schema.TaxonomyTable) string {
	return fmt.Sprintf("%s, %s, %s, %s, %s", t.ID, t.Name, t.Slug, t.Description, t.CreatedAt)
}

func scanTerm(row pgx.Row, kind Kind, extra ...any) (*Term, error) {
	term := &Term{Kind: kind}
	targets := append([]any{&term.ID, &term.Name, &term.Slug, &term.Description, &term.CreatedAt}, extra...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return term, nil
}

// List performs an ILIKE name search with a windowed total.
func (repository *PostgresRepository) List(ctx context.Context, kind Kind, search string, limit, offset int) ([]*Term, int, error) {
	t := table(kind)

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count FROM %s WHERE TRUE`, selectColumns(t), t.Table))

	if strings.TrimSpace(search) != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s ILIKE $%d", t.Name, argID))
		args = append(args, postgres.ContainsPattern(search))
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s ASC, %s ASC LIMIT $%d OFFSET $%d", t.Name, t.ID, argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_"+string(kind))
	}
	defer rows.Close()

	terms := make([]*Term, 0, limit)
	total := 0
	for rows.Next() {
		term, err := scanTerm(rows, kind, &total)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "scan_"+string(kind))
		}
		terms = append(terms, term)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "list_"+string(kind))
	}

	return terms, total, nil
}

func (repository *PostgresRepository) FindByID(ctx context.Context, kind Kind, id string) (*Term, error) {
	t := table(kind)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns(t), t.Table, t.ID)

	term, err := scanTerm(repository.pool.QueryRow(ctx, query, id), kind)
	if err != nil {
		return nil, notFound(kind, dberr.Wrap(err, "get_"+string(kind)))
	}
	return term, nil
}

func (repository *PostgresRepository) FindBySlug(ctx context.Context, kind Kind, slug string) (*Term, error) {
	t := table(kind)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, selectColumns(t), t.Table, t.Slug)

	term, err := scanTerm(repository.pool.QueryRow(ctx, query, slug), kind)
	if err != nil {
		return nil, notFound(kind, dberr.Wrap(err, "get_"+string(kind)+"_by_slug"))
	}
	return term, nil
}

func (repository *PostgresRepository) FindByIDs(ctx context.Context, kind Kind, ids []string) ([]*Term, error) {
	if len(ids) == 0 {
		return []*Term{}, nil
	}

	t := table(kind)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::uuid[]) ORDER BY %s`, selectColumns(t), t.Table, t.ID, t.Name)

	rows, err := repository.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "find_"+string(kind)+"_by_ids")
	}
	defer rows.Close()

	terms := make([]*Term, 0, len(ids))
	for rows.Next() {
		term, err := scanTerm(rows, kind)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_"+string(kind))
		}
		terms = append(terms, term)
	}
	return terms, dberr.Wrap(rows.Err(), "find_"+string(kind)+"_by_ids")
}

func (repository *PostgresRepository) NameTaken(ctx context.Context, kind Kind, name, excludeID string) (bool, error) {
	t := table(kind)
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND ($2 = '' OR %s::text <> $2))`, t.Table, t.Name, t.ID)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, name, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_"+string(kind)+"_name")
	}
	return taken, nil
}

func (repository *PostgresRepository) SlugTaken(ctx context.Context, kind Kind, slug string) (bool, error) {
	t := table(kind)
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, t.Table, t.Slug)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, slug).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_"+string(kind)+"_slug")
	}
	return taken, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, term *Term) error {
	t := table(term.Kind)
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, t.Table, t.ID, t.Name, t.Slug, t.Description, t.CreatedAt)

	err := repository.pool.QueryRow(ctx, query, term.ID, term.Name, term.Slug, term.Description).Scan(&term.CreatedAt)
	if err != nil {
		return classify(term, err, "create_"+string(term.Kind))
	}
	return nil
}

func (repository *PostgresRepository) Update(ctx context.Context, term *Term) error {
	t := table(term.Kind)
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`, t.Table, t.Name, t.Description, t.ID)

	tag, err := repository.pool.Exec(ctx, query, term.ID, term.Name, term.Description)
	if err != nil {
		return classify(term, err, "update_"+string(term.Kind))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(term.Kind.Label())
	}
	return nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, kind Kind, id string) error {
	t := table(kind)
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, t.Table, t.ID)

	tag, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_"+string(kind))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(kind.Label())
	}
	return nil
}

// classify turns unique violations into the typed duplicate errors.
func classify(term *Term, err error, action string) error {
	t := table(term.Kind)
	switch {
	case dberr.IsUniqueViolation(err, t.NameKey):
		return apperr.DuplicateName(term.Kind.Label(), term.Name)
	case dberr.IsUniqueViolation(err, t.SlugKey):
		return apperr.DuplicateSlug(term.Kind.Label(), term.Slug)
	}
	return dberr.Wrap(err, action)
}

// notFound names the missing kind instead of the generic resource.
func notFound(kind Kind, err error) error {
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.NotFound(kind.Label())
	}
	return err
}
