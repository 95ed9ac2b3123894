// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/blob"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/media"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/pointer"
	"github.com/taibuivan/onnanoko/pkg/sanitize"
	"github.com/taibuivan/onnanoko/pkg/slice"
	"github.com/taibuivan/onnanoko/pkg/slug"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// TermResolver validates taxonomy references. Satisfied by *taxonomy.Service.
type TermResolver interface {
	Resolve(ctx context.Context, kind taxonomy.Kind, field string, ids []string) ([]*taxonomy.Term, error)
}

// # Service Layer

// Service implements the character business rules.
type Service struct {
	repo   Repository
	terms  TermResolver
	blobs  blob.Store
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, terms TermResolver, blobs blob.Store, logger *slog.Logger) *Service {
	return &Service{repo: repo, terms: terms, blobs: blobs, logger: logger}
}

// # Lookups

/*
List returns one page of characters matching filter.

Returns:
  - pagination.Page[*Character]: Characters ordered by name
  - error: ValidationError if a filter id is malformed
*/
func (service *Service) List(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[*Character], error) {
	validator := &validate.Validator{}
	if filter.SeriesID != "" {
		validator.UUID("series", filter.SeriesID)
	}
	validator.UUIDs("groups", filter.GroupIDs).UUIDs("tags", filter.TagIDs)
	if err := validator.Err(); err != nil {
		return pagination.Page[*Character]{}, err
	}

	characters, total, err := service.repo.List(ctx, filter, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*Character]{}, err
	}
	return pagination.NewPage(service.present(characters...), params, total), nil
}

// Get returns the character with the given slug.
func (service *Service) Get(ctx context.Context, characterSlug string) (*Character, error) {
	character, err := service.repo.FindBySlug(ctx, characterSlug)
	if err != nil {
		return nil, err
	}
	return service.present(character)[0], nil
}

// GetByID returns the character with the given id. Malformed ids are not found.
func (service *Service) GetByID(ctx context.Context, id string) (*Character, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Character")
	}
	character, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return service.present(character)[0], nil
}

// Related returns characters sharing a group with the character at slug.
func (service *Service) Related(ctx context.Context, characterSlug string) ([]*Character, error) {
	character, err := service.repo.FindBySlug(ctx, characterSlug)
	if err != nil {
		return nil, err
	}
	if len(character.GroupIDs) == 0 {
		return []*Character{}, nil
	}

	related, err := service.repo.Related(ctx, character.ID, constants.RelatedCharacterLimit)
	if err != nil {
		return nil, err
	}
	return service.present(related...), nil
}

/*
Resolve loads the characters referenced by ids for embedding in images.

Returns:
  - []Ref: The referenced characters
  - error: ValidationError naming field if any id is malformed or unknown
*/
func (service *Service) Resolve(ctx context.Context, field string, ids []string) ([]Ref, error) {
	ids = slice.Unique(ids)
	if len(ids) == 0 {
		return []Ref{}, nil
	}

	validator := &validate.Validator{}
	if err := validator.UUIDs(field, ids).Err(); err != nil {
		return nil, err
	}

	characters, err := service.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := slice.Map(characters, func(character *Character) string { return character.ID })
	if missing := slice.Missing(ids, found); len(missing) > 0 {
		return nil, validate.RequiredError(field, "Unknown character id(s): "+strings.Join(missing, ", "))
	}
	return slice.Map(characters, func(character *Character) Ref { return character.Ref() }), nil
}

// # Management

/*
Create adds a character.

Description: The slug is taken from input when supplied (it must already be
in slug form) and otherwise derived from the name. Names that fold to an
empty slug fall back to the id. Is2D defaults to true.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be staff)
  - input: Input

Returns:
  - *Character: The hydrated character
  - error: PermissionError, ValidationError, DuplicateSlug
*/
func (service *Service) Create(ctx context.Context, actor access.Actor, input Input) (*Character, error) {
	if err := access.Require(actor, access.ActionCreate, access.Character()); err != nil {
		return nil, err
	}

	character := &Character{ID: uuid.New(), Is2D: true}
	merge(character, input.AsPatch())

	validator := check(character)
	character.Slug = strings.TrimSpace(input.Slug)
	if character.Slug != "" {
		validator.Slug(FieldSlug, character.Slug).MaxLen(FieldSlug, character.Slug, slug.MaxLength)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if character.Slug == "" {
		character.Slug = slug.From(character.Name)
	}
	if character.Slug == "" {
		character.Slug = character.ID
	}

	if err := service.resolveLinks(ctx, character); err != nil {
		return nil, err
	}
	if err := service.ensureUnique(ctx, character, ""); err != nil {
		return nil, err
	}

	taken, err := service.repo.SlugTaken(ctx, character.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.DuplicateSlug("Character", character.Slug)
	}

	if err := service.repo.Create(ctx, character); err != nil {
		return nil, err
	}

	service.logger.Info("character_created",
		slog.String("id", character.ID),
		slog.String("slug", character.Slug),
		slog.String("actor_id", actor.UserID),
	)
	return service.GetByID(ctx, character.ID)
}

/*
Update applies a partial update. The slug never changes.

Description: Switching between age and birth date requires clearing the
other field with an explicit null in the same request.

Returns:
  - *Character: The hydrated character
  - error: PermissionError, NotFound, ValidationError
*/
func (service *Service) Update(ctx context.Context, actor access.Actor, id string, patch Patch) (*Character, error) {
	if err := access.Require(actor, access.ActionUpdate, access.Character()); err != nil {
		return nil, err
	}

	character, err := service.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merge(character, patch)
	if err := check(character).Err(); err != nil {
		return nil, err
	}
	if err := service.resolveLinks(ctx, character); err != nil {
		return nil, err
	}
	if err := service.ensureUnique(ctx, character, character.ID); err != nil {
		return nil, err
	}

	if err := service.repo.Update(ctx, character); err != nil {
		return nil, err
	}

	service.logger.Info("character_updated", slog.String("id", character.ID), slog.String("actor_id", actor.UserID))
	return service.GetByID(ctx, character.ID)
}

// Replace is the full-representation update used by PUT.
func (service *Service) Replace(ctx context.Context, actor access.Actor, id string, input Input) (*Character, error) {
	return service.Update(ctx, actor, id, input.AsPatch())
}

/*
Delete removes a character. Linked images stay in the gallery.

Returns:
  - error: PermissionError, NotFound
*/
func (service *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Require(actor, access.ActionDelete, access.Character()); err != nil {
		return err
	}

	character, err := service.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := service.repo.Delete(ctx, character.ID); err != nil {
		return err
	}

	service.removeBlob(ctx, character.PrimaryImage)
	service.logger.Info("character_deleted", slog.String("id", id), slog.String("actor_id", actor.UserID))
	return nil
}

/*
SetPrimaryImage stores a new portrait for the character and removes the old one.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be staff)
  - id: string
  - data: []byte (raw upload, JPEG/PNG/WebP up to 5 MiB)

Returns:
  - *Character: The hydrated character with its new portrait URL
  - error: PermissionError, NotFound, PayloadTooLarge, UnsupportedMediaType, CorruptImage
*/
func (service *Service) SetPrimaryImage(ctx context.Context, actor access.Actor, id string, data []byte) (*Character, error) {
	if err := access.Require(actor, access.ActionUpdate, access.Character()); err != nil {
		return nil, err
	}

	character, err := service.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := media.Inspect(data)
	if err != nil {
		return nil, err
	}

	key := blob.NewKey("characters", info.Extension, time.Now())
	if err := service.blobs.Put(ctx, key, data, info.ContentType); err != nil {
		return nil, apperr.Internal(err)
	}

	previous, err := service.repo.SetPrimaryImage(ctx, character.ID, key)
	if err != nil {
		service.removeBlob(ctx, key)
		return nil, err
	}
	service.removeBlob(ctx, previous)

	service.logger.Info("character_primary_image_set", slog.String("id", character.ID), slog.String("key", key))
	return service.GetByID(ctx, character.ID)
}

// # Helpers

// merge copies the present patch fields onto character.
func merge(character *Character, patch Patch) {
	if patch.Name.Present {
		character.Name = strings.TrimSpace(pointer.Val(patch.Name.Value))
	}
	apply(patch.BirthDate, &character.BirthDate)
	apply(patch.Age, &character.Age)
	apply(patch.HeightCm, &character.HeightCm)
	apply(patch.WeightKg, &character.WeightKg)
	apply(patch.BustCm, &character.BustCm)
	apply(patch.WaistCm, &character.WaistCm)
	apply(patch.HipsCm, &character.HipsCm)

	// A null dimension keeps the current value.
	if patch.Is2D.Present && patch.Is2D.Value != nil {
		character.Is2D = *patch.Is2D.Value
	}
	if patch.Description.Present {
		character.Description = sanitize.Text(pointer.Val(patch.Description.Value))
	}
	if patch.SeriesID.Present {
		character.SeriesID = nil
		if seriesID := strings.TrimSpace(pointer.Val(patch.SeriesID.Value)); seriesID != "" {
			character.SeriesID = &seriesID
		}
	}
	if patch.GroupIDs.Present {
		character.GroupIDs = slice.Unique(pointer.Val(patch.GroupIDs.Value))
	}
	if patch.TagIDs.Present {
		character.TagIDs = slice.Unique(pointer.Val(patch.TagIDs.Value))
	}
}

// check runs the field rules on a merged character.
func check(character *Character) *validate.Validator {
	validator := &validate.Validator{}
	validator.Required(FieldName, character.Name).MaxLen(FieldName, character.Name, MaxNameLength)

	exclusive := (character.Age == nil) == (character.BirthDate == nil)
	validator.
		Custom(FieldAge, exclusive, "Provide exactly one of age and birth date").
		Custom(FieldBirthDate, exclusive, "Provide exactly one of age and birth date").
		Custom(FieldAge, character.Age != nil && *character.Age < 0, "Must not be negative")

	measurements := []struct {
		field string
		value *float64
	}{
		{"height_cm", character.HeightCm},
		{"weight_kg", character.WeightKg},
		{"bust_cm", character.BustCm},
		{"waist_cm", character.WaistCm},
		{"hips_cm", character.HipsCm},
	}
	for _, measurement := range measurements {
		validator.
			NonNegative(measurement.field, measurement.value).
			Custom(measurement.field, pointer.Val(measurement.value) > maxMeasurement, "Must be at most 999.99")
	}
	return validator
}

// resolveLinks verifies every referenced series, group and tag exists.
func (service *Service) resolveLinks(ctx context.Context, character *Character) error {
	if character.SeriesID != nil {
		if _, err := service.terms.Resolve(ctx, taxonomy.KindSeries, FieldSeriesID, []string{*character.SeriesID}); err != nil {
			return err
		}
	}
	if _, err := service.terms.Resolve(ctx, taxonomy.KindGroup, FieldGroupIDs, character.GroupIDs); err != nil {
		return err
	}
	_, err := service.terms.Resolve(ctx, taxonomy.KindTag, FieldTagIDs, character.TagIDs)
	return err
}

func (service *Service) ensureUnique(ctx context.Context, character *Character, excludeID string) error {
	taken, err := service.repo.NameTaken(ctx, character.Name, character.SeriesID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return duplicateNameError()
	}
	return nil
}

// duplicateNameError reports a (name, series) clash on the name field.
func duplicateNameError() error {
	return validate.RequiredError(FieldName, "A character with this name already exists in this series")
}

// present fills the public portrait URL.
func (service *Service) present(characters ...*Character) []*Character {
	for _, character := range characters {
		if character.PrimaryImage != "" {
			character.PrimaryImageURL = service.blobs.URL(character.PrimaryImage)
		}
	}
	return characters
}

func (service *Service) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := service.blobs.Delete(ctx, key); err != nil {
		service.logger.Warn("blob_delete_failed", slog.String("key", key), slog.Any("error", err))
	}
}
