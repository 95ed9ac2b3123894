// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/sanitize"
	"github.com/taibuivan/onnanoko/pkg/slice"
	"github.com/taibuivan/onnanoko/pkg/slug"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// # Service Layer

// Service orchestrates the business rules shared by series, groups and tags.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// # Lookups

// List returns one page of terms of a kind, filtered by a name substring.
func (service *Service) List(ctx context.Context, kind Kind, search string, params pagination.Params) (pagination.Page[*Term], error) {
	terms, total, err := service.repo.List(ctx, kind, search, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*Term]{}, err
	}
	return pagination.NewPage(terms, params, total), nil
}

// Get returns a term by id. Malformed ids are reported as not found.
func (service *Service) Get(ctx context.Context, kind Kind, id string) (*Term, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound(kind.Label())
	}
	return service.repo.FindByID(ctx, kind, id)
}

// GetBySlug returns a term by slug.
func (service *Service) GetBySlug(ctx context.Context, kind Kind, termSlug string) (*Term, error) {
	return service.repo.FindBySlug(ctx, kind, termSlug)
}

/*
Resolve loads the terms referenced by ids and fails when any is unknown.

Description: Used by the character and image services to validate
relationship fields. The error carries field-level detail naming the
offending ids.

Parameters:
  - ctx: context.Context
  - kind: Kind
  - field: string (input field reported on failure, e.g. "tag_ids")
  - ids: []string (duplicates are collapsed)

Returns:
  - []*Term: The referenced terms
  - error: ValidationError if an id is malformed or unknown
*/
func (service *Service) Resolve(ctx context.Context, kind Kind, field string, ids []string) ([]*Term, error) {
	ids = slice.Unique(ids)
	if len(ids) == 0 {
		return []*Term{}, nil
	}

	validator := &validate.Validator{}
	if err := validator.UUIDs(field, ids).Err(); err != nil {
		return nil, err
	}

	terms, err := service.repo.FindByIDs(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	found := slice.Map(terms, func(term *Term) string { return term.ID })
	if missing := slice.Missing(ids, found); len(missing) > 0 {
		return nil, validate.RequiredError(field, "Unknown "+strings.ToLower(kind.Label())+" id(s): "+strings.Join(missing, ", "))
	}
	return terms, nil
}

// # Management

/*
Create adds a new term.

Description: The name is trimmed and required. The slug is derived from the
name unless supplied; a supplied slug must already be in slug form. Names
whose slug folds to nothing (e.g. only CJK characters) fall back to the id.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be signed in)
  - kind: Kind
  - input: CreateInput

Returns:
  - *Term: The stored term
  - error: PermissionError, ValidationError, DuplicateName, DuplicateSlug
*/
func (service *Service) Create(ctx context.Context, actor access.Actor, kind Kind, input CreateInput) (*Term, error) {
	if err := access.Require(actor, access.ActionCreate, access.Taxonomy()); err != nil {
		return nil, err
	}

	term := &Term{
		ID:   uuid.New(),
		Kind: kind,
		Name: strings.TrimSpace(input.Name),
		Slug: strings.TrimSpace(input.Slug),
	}
	if kind.HasDescription() {
		term.Description = sanitize.Text(input.Description)
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, term.Name).MaxLen(FieldName, term.Name, MaxNameLength)
	if term.Slug != "" {
		validator.Slug(FieldSlug, term.Slug).MaxLen(FieldSlug, term.Slug, slug.MaxLength)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if term.Slug == "" {
		term.Slug = slug.From(term.Name)
	}
	if term.Slug == "" {
		term.Slug = term.ID
	}

	if err := service.ensureUnique(ctx, term, ""); err != nil {
		return nil, err
	}
	taken, err := service.repo.SlugTaken(ctx, kind, term.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.DuplicateSlug(kind.Label(), term.Slug)
	}

	if err := service.repo.Create(ctx, term); err != nil {
		return nil, err
	}

	service.logger.Info(string(kind)+"_created",
		slog.String("id", term.ID),
		slog.String("slug", term.Slug),
		slog.String("actor_id", actor.UserID),
	)
	return term, nil
}

/*
Update renames a term or changes its description. The slug is kept.

Returns:
  - *Term: The updated term
  - error: PermissionError, NotFound, ValidationError, DuplicateName
*/
func (service *Service) Update(ctx context.Context, actor access.Actor, kind Kind, id string, input UpdateInput) (*Term, error) {
	if err := access.Require(actor, access.ActionUpdate, access.Taxonomy()); err != nil {
		return nil, err
	}

	term, err := service.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		term.Name = strings.TrimSpace(*input.Name)
		validator.Required(FieldName, term.Name).MaxLen(FieldName, term.Name, MaxNameLength)
	}
	if input.Description != nil && kind.HasDescription() {
		term.Description = sanitize.Text(*input.Description)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := service.ensureUnique(ctx, term, term.ID); err != nil {
			return nil, err
		}
	}

	if err := service.repo.Update(ctx, term); err != nil {
		return nil, err
	}

	service.logger.Info(string(kind)+"_updated", slog.String("id", term.ID), slog.String("actor_id", actor.UserID))
	return term, nil
}

// Delete removes a term; characters and images only lose the link.
func (service *Service) Delete(ctx context.Context, actor access.Actor, kind Kind, id string) error {
	if err := access.Require(actor, access.ActionDelete, access.Taxonomy()); err != nil {
		return err
	}
	if !uuid.Valid(id) {
		return apperr.NotFound(kind.Label())
	}

	if err := service.repo.Delete(ctx, kind, id); err != nil {
		return err
	}

	service.logger.Warn(string(kind)+"_deleted", slog.String("id", id), slog.String("actor_id", actor.UserID))
	return nil
}

// ensureUnique fails with DuplicateName when the name is used by another term.
func (service *Service) ensureUnique(ctx context.Context, term *Term, excludeID string) error {
	taken, err := service.repo.NameTaken(ctx, term.Kind, term.Name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.DuplicateName(term.Kind.Label(), term.Name)
	}
	return nil
}
