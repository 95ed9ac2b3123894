// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

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

// # PostgreSQL Repository

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed image store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var (
	img = schema.CoreImage
	ic  = schema.ImageCharacter
	it  = schema.ImageTag
	ch  = schema.CoreCharacter
	cg  = schema.CharacterGroup
	tag = schema.CoreTag
	acc = schema.UserAccount
)

var projection = fmt.Sprintf(`
	SELECT
		i.%s, i.%s, i.%s, i.%s, u.%s, i.%s, i.%s, i.%s, i.%s, i.%s, i.%s,
		COALESCE((
			SELECT json_agg(json_build_object('id', c.%s, 'name', c.%s, 'slug', c.%s) ORDER BY c.%s)
			FROM %s c JOIN %s ic ON ic.%s = c.%s
			WHERE ic.%s = i.%s
		), '[]') AS characters,
		COALESCE((
			SELECT json_agg(json_build_object('id', t.%s, 'name', t.%s, 'slug', t.%s) ORDER BY t.%s)
			FROM %s t JOIN %s it ON it.%s = t.%s
			WHERE it.%s = i.%s
		), '[]') AS tags`,
	img.ID, img.File, img.Thumbnail, img.UploaderID, acc.Username, img.UploadedAt,
	img.Width, img.Height, img.IsApproved, img.Description, img.Illustrator,
	ch.ID, ch.Name, ch.Slug, ch.Name,
	ch.Table, ic.Table, ic.CharacterID, ch.ID,
	ic.ImageID, img.ID,
	tag.ID, tag.Name, tag.Slug, tag.Name,
	tag.Table, it.Table, it.TagID, tag.ID,
	it.ImageID, img.ID,
)

var from = fmt.Sprintf(` FROM %s i JOIN %s u ON u.%s = i.%s`, img.Table, acc.Table, acc.ID, img.UploaderID)

var newestFirst = fmt.Sprintf(" ORDER BY i.%s DESC, i.%s DESC", img.UploadedAt, img.ID)

func scanImage(row pgx.Row, extra ...any) (*Image, error) {
	var (
		image     = &Image{}
		thumbnail *string
	)

	targets := []any{
		&image.ID, &image.File, &thumbnail, &image.UploaderID, &image.UploaderUsername, &image.UploadedAt,
		&image.Width, &image.Height, &image.IsApproved, &image.Description, &image.Illustrator,
		&image.Characters, &image.Tags,
	}
	if err := row.Scan(append(targets, extra...)...); err != nil {
		return nil, err
	}

	if thumbnail != nil {
		image.Thumbnail = *thumbnail
	}
	for _, ref := range image.Characters {
		image.CharacterIDs = append(image.CharacterIDs, ref.ID)
	}
	for _, ref := range image.Tags {
		image.TagIDs = append(image.TagIDs, ref.ID)
	}
	return image, nil
}

func collect(rows pgx.Rows, total *int) ([]*Image, error) {
	defer rows.Close()

	images := make([]*Image, 0)
	for rows.Next() {
		var extra []any
		if total != nil {
			extra = append(extra, total)
		}
		image, err := scanImage(rows, extra...)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// # Reads

/*
List applies the image filter.

Description: The free-text search is an OR over the image columns, the
uploader username and EXISTS subqueries over linked characters and tags,
so an image matching several tags is returned once.
*/
func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Image, int, error) {
	query, args := listQuery(filter, limit, offset)

	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_images")
	}

	total := 0
	images, err := collect(rows, &total)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "scan_images")
	}
	return images, total, nil
}

// listQuery builds the List statement. Only the set filters take an
// argument slot, and limit and offset always come last.
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
				i.%s ILIKE $%d OR i.%s ILIKE $%d OR u.%s ILIKE $%d
				OR EXISTS (SELECT 1 FROM %s ic JOIN %s c ON c.%s = ic.%s WHERE ic.%s = i.%s AND c.%s ILIKE $%d)
				OR EXISTS (SELECT 1 FROM %s it JOIN %s t ON t.%s = it.%s WHERE it.%s = i.%s AND t.%s ILIKE $%d)
			)`,
			img.Description, argID, img.Illustrator, argID, acc.Username, argID,
			ic.Table, ch.Table, ch.ID, ic.CharacterID, ic.ImageID, img.ID, ch.Name, argID,
			it.Table, tag.Table, tag.ID, it.TagID, it.ImageID, img.ID, tag.Name, argID,
		))
		args = append(args, postgres.ContainsPattern(search))
		argID++
	}

	// Moderation state
	if filter.IsApproved != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.%s = $%d", img.IsApproved, argID))
		args = append(args, *filter.IsApproved)
		argID++
	}

	// Characters (any-of)
	if len(filter.CharacterIDs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s WHERE %s = i.%s AND %s = ANY($%d::uuid[]))",
			ic.Table, ic.ImageID, img.ID, ic.CharacterID, argID))
		args = append(args, filter.CharacterIDs)
		argID++
	}

	// Tags (any-of)
	if len(filter.TagIDs) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s WHERE %s = i.%s AND %s = ANY($%d::uuid[]))",
			it.Table, it.ImageID, img.ID, it.TagID, argID))
		args = append(args, filter.TagIDs)
		argID++
	}

	// Group, through the linked characters
	if filter.GroupID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s ic JOIN %s cg ON cg.%s = ic.%s WHERE ic.%s = i.%s AND cg.%s = $%d)",
			ic.Table, cg.Table, cg.CharacterID, ic.CharacterID, ic.ImageID, img.ID, cg.GroupID, argID))
		args = append(args, filter.GroupID)
		argID++
	}

	// Series, through the linked characters
	if filter.SeriesID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND EXISTS (SELECT 1 FROM %s ic JOIN %s c ON c.%s = ic.%s WHERE ic.%s = i.%s AND c.%s = $%d)",
			ic.Table, ch.Table, ch.ID, ic.CharacterID, ic.ImageID, img.ID, ch.SeriesID, argID))
		args = append(args, filter.SeriesID)
		argID++
	}

	// Uploader
	if filter.UploaderID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND i.%s = $%d", img.UploaderID, argID))
		args = append(args, filter.UploaderID)
		argID++
	}

	queryBuilder.WriteString(newestFirst)
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	return queryBuilder.String(), args
}

func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*Image, error) {
	query := projection + from + fmt.Sprintf(" WHERE i.%s = $1", img.ID)

	image, err := scanImage(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(dberr.Wrap(err, "get_image"))
	}
	return image, nil
}

func (repository *PostgresRepository) Related(ctx context.Context, id string, limit int) ([]*Image, error) {
	query := projection + from + fmt.Sprintf(`
		WHERE i.%s <> $1 AND i.%s = TRUE
		  AND EXISTS (
			SELECT 1 FROM %s mine JOIN %s theirs ON theirs.%s = mine.%s
			WHERE mine.%s = $1 AND theirs.%s = i.%s
		  )`,
		img.ID, img.IsApproved,
		ic.Table, ic.Table, ic.CharacterID, ic.CharacterID,
		ic.ImageID, ic.ImageID, img.ID,
	) + newestFirst + " LIMIT $2"

	rows, err := repository.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, dberr.Wrap(err, "related_images")
	}

	images, err := collect(rows, nil)
	return images, dberr.Wrap(err, "scan_images")
}

func (repository *PostgresRepository) Counts(ctx context.Context, uploaderID string) (Counts, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE %s),
			COUNT(*) FILTER (WHERE NOT %s)
		FROM %s
		WHERE ($1 = '' OR %s::text = $1)`,
		img.IsApproved, img.IsApproved, img.Table, img.UploaderID)

	var counts Counts
	if err := repository.pool.QueryRow(ctx, query, uploaderID).Scan(&counts.Total, &counts.Approved, &counts.Pending); err != nil {
		return Counts{}, dberr.Wrap(err, "count_images")
	}
	return counts, nil
}

// # Writes

func (repository *PostgresRepository) Create(ctx context.Context, image *Image) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`,
		img.Table, img.ID, img.File, img.UploaderID, img.IsApproved, img.Description, img.Illustrator,
		img.UploadedAt,
	)

	return dberr.Wrap(postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			image.ID, image.File, image.UploaderID, image.IsApproved, image.Description, image.Illustrator,
		).Scan(&image.UploadedAt)
		if err != nil {
			return err
		}
		return replaceLinks(ctx, tx, image)
	}), "create_image")
}

func (repository *PostgresRepository) Update(ctx context.Context, image *Image) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		img.Table, img.Description, img.Illustrator, img.IsApproved, img.ID)

	return notFound(dberr.Wrap(postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, image.ID, image.Description, image.Illustrator, image.IsApproved)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return replaceLinks(ctx, tx, image)
	}), "update_image"))
}

// SetDimensions is the only statement that writes width and height.
func (repository *PostgresRepository) SetDimensions(ctx context.Context, id string, width, height int) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s IS NULL AND %s IS NULL`,
		img.Table, img.Width, img.Height, img.ID, img.Width, img.Height)

	result, err := repository.pool.Exec(ctx, query, id, width, height)
	if err != nil {
		return false, dberr.Wrap(err, "set_image_dimensions")
	}
	return result.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) SetThumbnail(ctx context.Context, id, key string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, img.Table, img.Thumbnail, img.ID)

	result, err := repository.pool.Exec(ctx, query, id, key)
	if err != nil {
		return dberr.Wrap(err, "set_image_thumbnail")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Image")
	}
	return nil
}

// Approve only flips pending rows, so a concurrent approval reports false.
func (repository *PostgresRepository) Approve(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1 AND NOT %s`,
		img.Table, img.IsApproved, img.ID, img.IsApproved)

	result, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "approve_image")
	}
	return result.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, img.Table, img.ID)

	result, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, "delete_image")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Image")
	}
	return nil
}

// # Helpers

func replaceLinks(ctx context.Context, tx pgx.Tx, image *Image) error {
	if err := postgres.ReplaceLinks(ctx, tx, ic.Table, ic.ImageID, ic.CharacterID, image.ID, image.CharacterIDs); err != nil {
		return err
	}
	return postgres.ReplaceLinks(ctx, tx, it.Table, it.ImageID, it.TagID, image.ID, image.TagIDs)
}

func notFound(err error) error {
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return apperr.NotFound("Image")
	}
	return err
}
