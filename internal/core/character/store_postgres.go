// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/database/schema"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
	"github.com/taibuivan/onnanoko/internal/platform/postgres"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
//
// Group and tag references are aggregated into JSON arrays by correlated
// subqueries so a page of characters is hydrated in a single round trip.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed character store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	c   = schema.CoreCharacter
	cg  = schema.CharacterGroup
	ct  = schema.CharacterTag
	ser = schema.CoreSeries
	grp = schema.CoreGroup
	tag = schema.CoreTag
)

// projection selects the hydrated character. The caller appends FROM/WHERE.
var projection = fmt.Sprintf(`
	SELECT
		c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s, c.%s,
		c.%s, c.%s, c.%s, c.%s, c.%s, c.%s,
		s.%s, s.%s, s.%s,
		COALESCE((
			SELECT json_agg(json_build_object('id', g.%s, 'name', g.%s, 'slug', g.%s) ORDER BY g.%s)
			FROM %s g JOIN %s cg ON cg.%s = g.%s
			WHERE cg.%s = c.%s
		), '[]') AS groups,
		COALESCE((
			SELECT json_agg(json_build_object('id', t.%s, 'name', t.%s, 'slug', t.%s) ORDER BY t.%s)
			FROM %s t JOIN %s ct ON ct.%s = t.%s
			WHERE ct.%s = c.%s
		), '[]') AS tags`,
	c.ID, c.Name, c.Slug, c.SeriesID, c.BirthDate, c.Age, c.HeightCm, c.WeightKg, c.BustCm, c.WaistCm,
	c.HipsCm, c.Is2D, c.Description, c.PrimaryImage, c.CreatedAt, c.UpdatedAt,
	ser.ID, ser.Name, ser.Slug,
	grp.ID, grp.Name, grp.Slug, grp.Name,
	grp.Table, cg.Table, cg.GroupID, grp.ID,
	cg.CharacterID, c.ID,
	tag.ID, tag.Name, tag.Slug, tag.Name,
	tag.Table, ct.Table, ct.TagID, tag.ID,
	ct.CharacterID, c.ID,
)

// from joins the optional series.
var from = fmt.Sprintf(` FROM %s c LEFT JOIN %s s ON s.%s = c.%s`, c.Table, ser.Table, ser.ID, c.SeriesID)

// scanCharacter reads one projection row plus any trailing columns.
func scanCharacter(row pgx.Row, extra ...any) (*Character, error) {
	var (
		character    = &Character{}
		birthDate    pgtype.Date
		primaryImage *string
		seriesID     *string
		seriesName   *string
		seriesSlug   *string
	)

	targets := []any{
		&character.ID, &character.Name, &character.Slug, &character.SeriesID, &birthDate, &character.Age,
		&character.HeightCm, &character.WeightKg, &character.BustCm, &character.WaistCm,
		&character.HipsCm, &character.Is2D, &character.Description, &primaryImage, &character.CreatedAt, &character.UpdatedAt,
		&seriesID, &seriesName, &seriesSlug,
		&character.Groups, &character.Tags,
	}

	if err := row.Scan(append(targets, extra...)...); err != nil {
		return nil, err
	}

	if birthDate.Valid {
		character.BirthDate = &Date{Time: birthDate.Time}
	}
	if primaryImage != nil {
		character.PrimaryImage = *primaryImage
	}
	if seriesID != nil {
		character.Series = &taxonomy.Ref{ID: *seriesID, Name: *seriesName, Slug: *seriesSlug}
	}

	character.GroupIDs = refIDs(character.Groups)
	character.TagIDs = refIDs(character.Tags)
	return character, nil
}

func refIDs(refs []taxonomy.Ref) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids
}

func collect(rows pgx.Rows, total *int) ([]*Character, error) {
	defer rows.Close()

	characters := make([]*Character, 0)
	for rows.Next() {
		var extra []any
		if total != nil {
			extra = append(extra, total)
		}
		character, err := scanCharacter(rows, extra...)
		if err != nil {
			return nil, err
		}
		characters = append(characters, character)
	}
	return characters, rows.Err()
}

// # Reads

/*
List applies the character filter.

Description: Search is an OR across name, description, series name, and
EXISTS subqueries on tag and group names, so a character matching through
several tags still appears once. Group and tag filters are any-of.
*/
func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Character, int, error) {
	query, args := listQuery(filter, limit, offset)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_characters")
	}

	total := 0
	characters, err := collect(rows, &total)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "scan_characters")
	}
	return characters, total, nil
}

// listQuery builds the List statement. Arguments are numbered in filter
// order: search, dimension, series, groups, tags, then limit and offset.
func listQuery(filter Filter, limit, offset int) (string, []any) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(projection)
	queryBuilder.WriteString(", COUNT(*) OVER() AS total_count")
	queryBuilder.WriteString(from)
	queryBuilder.WriteString(" WHERE TRUE")

	// Free-text search
	if search := strings.TrimSpace(filter.Search); search != "" {
		queryBuilder.WriteString(fmt.Sprintf(`
			AND (
				c.%s ILIKE $%d OR c.%s ILIKE $%d OR s.%s ILIKE $%d
				OR EXISTS (SELECT 1 FROM %s ct JOIN %s t ON t.%s = ct.%s WHERE ct.%s = c.%s AND t.%s ILIKE $%d)
				OR EXISTS (SELECT 1 FROM %s cg JOIN %s g ON g.%s = cg.%s WHERE cg.%s = c.%s AND g.%s ILIKE $%d)
			)`,
			c.Name, argID, c.Description, argID, ser.Name, argID,
			ct.Table, tag.Table, tag.ID, ct.TagID, ct.CharacterID, c.ID, tag.Name, argID,
			cg.Table, grp.Table, grp.ID, cg.GroupID, cg.CharacterID, c.ID, grp.Name, argID,
		))
		args = append(args, postgres.ContainsPattern(search))
		argID++
	}

	// 2D / 3D
	if dimension := filter.dimension(); dimension != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s = $%d", c.Is2D, argID))
		args = append(args, *dimension)
		argID++
	}

	// Series
	if filter.SeriesID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s = $%d", c.SeriesID, argID))
		args = append(args, filter.SeriesID)
		argID++
	}

	// Groups (any-of)
	if len(filter.GroupIDs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s WHERE %s = c.%s AND %s = ANY($%d::uuid[]))",
			cg.Table, cg.CharacterID, c.ID, cg.GroupID, argID))
		args = append(args, filter.GroupIDs)
		argID++
	}

	// Tags (any-of)
	if len(filter.TagIDs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s WHERE %s = c.%s AND %s = ANY($%d::uuid[]))",
			ct.Table, ct.CharacterID, c.ID, ct.TagID, argID))
		args = append(args, filter.TagIDs)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.%s ASC, c.%s ASC LIMIT $%d OFFSET $%d", c.Name, c.ID, argID, argID+1))
	args = append(args, limit, offset)

	return queryBuilder.String(), args
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Character, error) {
	query := projection + from + fmt.Sprintf(" WHERE c.%s = $1", c.ID)

	character, err := scanCharacter(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(dberr.Wrap(err, "get_character"))
	}
	return character, nil
}

func (repository *PostgresRepository) FindBySlug(ctx context.Context, slug string) (*Character, error) {
	query := projection + from + fmt.Sprintf(" WHERE c.%s = $1", c.Slug)

	character, err := scanCharacter(repository.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, notFound(dberr.Wrap(err, "get_character_by_slug"))
	}
	return character, nil
}

func (repository *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]*Character, error) {
	if len(ids) == 0 {
		return []*Character{}, nil
	}

	query := projection + from + fmt.Sprintf(" WHERE c.%s = ANY($1::uuid[]) ORDER BY c.%s", c.ID, c.Name)
	rows, err := repository.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "find_characters_by_ids")
	}

	characters, err := collect(rows, nil)
	return characters, dberr.Wrap(err, "scan_characters")
}

func (repository *PostgresRepository) Related(ctx context.Context, id string, limit int) ([]*Character, error) {
	query := projection + from + fmt.Sprintf(`
		WHERE c.%s <> $1
		  AND EXISTS (
			SELECT 1 FROM %s mine JOIN %s theirs ON theirs.%s = mine.%s
			WHERE mine.%s = $1 AND theirs.%s = c.%s
		  )
		ORDER BY c.%s ASC, c.%s ASC
		LIMIT $2`,
		c.ID,
		cg.Table, cg.Table, cg.GroupID, cg.GroupID,
		cg.CharacterID, cg.CharacterID, c.ID,
		c.Name, c.ID,
	)

	rows, err := repository.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "related_characters")
	}

	characters, err := collect(rows, nil)
	return characters, dberr.Wrap(err, "scan_characters")
}

// NameTaken follows the (name, seriesid) constraint: a character without a
// series never clashes by name.
func (repository *PostgresRepository) NameTaken(ctx context.Context, name string, seriesID *string, excludeID string) (bool, error) {
	if seriesID == nil {
		return false, nil
	}

	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1
			  AND %s = $2::uuid
			  AND ($3 = '' OR %s::text <> $3)
		)`, c.Table, c.Name, c.SeriesID, c.ID)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, name, *seriesID, excludeID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_character_name")
	}
	return taken, nil
}

func (repository *PostgresRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, c.Table, c.Slug)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, slug).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, "check_character_slug")
	}
	return taken, nil
}

// # Writes

func (repository *PostgresRepository) Create(ctx context.Context, character *Character) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s, %s`,
		c.Table,
		c.ID, c.Name, c.Slug, c.SeriesID, c.BirthDate, c.Age, c.HeightCm, c.WeightKg, c.BustCm, c.WaistCm, c.HipsCm, c.Is2D, c.Description,
		c.CreatedAt, c.UpdatedAt,
	)

	err := postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			character.ID, character.Name, character.Slug, character.SeriesID, toPgDate(character.BirthDate), character.Age,
			character.HeightCm, character.WeightKg, character.BustCm, character.WaistCm, character.HipsCm,
			character.Is2D, character.Description,
		).Scan(&character.CreatedAt, &character.UpdatedAt)
		if err != nil {
			return err
		}
		return replaceLinks(ctx, tx, character)
	})
	if err != nil {
		return classify(character, err, "create_character")
	}
	return nil
}

func (repository *PostgresRepository) Update(ctx context.Context, character *Character) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7,
			%s = $8, %s = $9, %s = $10, %s = $11, %s = $12, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		c.Table,
		c.Name, c.SeriesID, c.BirthDate, c.Age, c.HeightCm, c.WeightKg,
		c.BustCm, c.WaistCm, c.HipsCm, c.Is2D, c.Description, c.UpdatedAt,
		c.ID,
		c.UpdatedAt,
	)

	err := postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			character.ID, character.Name, character.SeriesID, toPgDate(character.BirthDate), character.Age,
			character.HeightCm, character.WeightKg, character.BustCm, character.WaistCm, character.HipsCm,
			character.Is2D, character.Description,
		).Scan(&character.UpdatedAt)
		if err != nil {
			return err
		}
		return replaceLinks(ctx, tx, character)
	})
	if err != nil {
		return notFound(classify(character, err, "update_character"))
	}
	return nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, c.Table, c.ID)

	result, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_character")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Character")
	}
	return nil
}

func (repository *PostgresRepository) SetPrimaryImage(ctx context.Context, id, key string) (string, error) {
	query := fmt.Sprintf(`
		WITH existing AS (
			SELECT %s FROM %s WHERE %s = $1 FOR UPDATE
		)
		UPDATE %s SET %s = $2, %s = NOW()
		WHERE %s = $1
		RETURNING (SELECT %s FROM existing)`,
		c.PrimaryImage, c.Table, c.ID,
		c.Table, c.PrimaryImage, c.UpdatedAt,
		c.ID,
		c.PrimaryImage,
	)

	var previous *string
	if err := repository.pool.QueryRow(ctx, query, id, key).Scan(&previous); err != nil {
		return "", notFound(dberr.Wrap(err, "set_primary_image"))
	}
	if previous == nil {
		return "", nil
	}
	return *previous, nil
}

// # Helpers

func replaceLinks(ctx context.Context, tx pgx.Tx, character *Character) error {
	if err := postgres.ReplaceLinks(ctx, tx, cg.Table, cg.CharacterID, cg.GroupID, character.ID, character.GroupIDs); err != nil {
		return err
	}
	return postgres.ReplaceLinks(ctx, tx, ct.Table, ct.CharacterID, ct.TagID, character.ID, character.TagIDs)
}

func toPgDate(date *Date) pgtype.Date {
	if date == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: date.Time, Valid: true}
}

// classify maps the character unique constraints to typed errors.
func classify(character *Character, err error, action string) error {
	switch {
	case dberr.IsUniqueViolation(err, c.SlugKey):
		return apperr.DuplicateSlug("Character", character.Slug)
	case dberr.IsUniqueViolation(err, c.NameSeriesKey):
		return duplicateNameError()
	}
	return dberr.Wrap(err, action)
}

func notFound(err error) error {
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.NotFound("Character")
	}
	return err
}
