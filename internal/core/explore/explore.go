// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package explore builds the scoped browsing page of one taxonomy term: the
term itself, the characters linked to it and the approved images linked to
it.

Images are linked directly for a tag. For a group or a series they are
reached through their characters.
*/
package explore

import (
	"context"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// Result is the scoped view of one term.
type Result struct {
	Kind       taxonomy.Kind                         `json:"kind"`
	Term       *taxonomy.Term                        `json:"term"`
	Characters pagination.Page[*character.Character] `json:"characters"`
	Images     pagination.Page[*image.Image]         `json:"images"`
}

// TermFinder resolves a slug within one vocabulary.
type TermFinder interface {
	GetBySlug(ctx context.Context, kind taxonomy.Kind, slug string) (*taxonomy.Term, error)
}

// CharacterLister lists characters by filter.
type CharacterLister interface {
	List(ctx context.Context, filter character.Filter, params pagination.Params) (pagination.Page[*character.Character], error)
}

// ImageLister lists images visible to an actor.
type ImageLister interface {
	List(ctx context.Context, actor access.Actor, filter image.Filter, params pagination.Params) (pagination.Page[*image.Image], error)
}

// Service assembles explore pages from the taxonomy, character and image services.
type Service struct {
	terms      TermFinder
	characters CharacterLister
	images     ImageLister
}

// NewService constructs a new explore [Service].
func NewService(terms TermFinder, characters CharacterLister, images ImageLister) *Service {
	return &Service{terms: terms, characters: characters, images: images}
}

/*
Explore returns the term at slug with its characters and approved images.

Parameters:
  - ctx: context.Context
  - kind: taxonomy.Kind
  - slug: string
  - characterPage: pagination.Params (20 per page)
  - imagePage: pagination.Params (24 per page)

Returns:
  - *Result
  - error: NotFound if the slug does not resolve
*/
func (service *Service) Explore(ctx context.Context, kind taxonomy.Kind, slug string, characterPage, imagePage pagination.Params) (*Result, error) {
	term, err := service.terms.GetBySlug(ctx, kind, slug)
	if err != nil {
		return nil, err
	}

	characterFilter, imageFilter := scope(term)

	characters, err := service.characters.List(ctx, characterFilter, characterPage)
	if err != nil {
		return nil, err
	}

	// Anonymous visibility keeps the page to approved images for every caller
	images, err := service.images.List(ctx, access.Anonymous(), imageFilter, imagePage)
	if err != nil {
		return nil, err
	}

	return &Result{Kind: kind, Term: term, Characters: characters, Images: images}, nil
}

// scope maps a term to the filters that select its characters and images.
func scope(term *taxonomy.Term) (character.Filter, image.Filter) {
	switch term.Kind {
	case taxonomy.KindSeries:
		return character.Filter{SeriesID: term.ID}, image.Filter{SeriesID: term.ID}
	case taxonomy.KindGroup:
		return character.Filter{GroupIDs: []string{term.ID}}, image.Filter{GroupID: term.ID}
	default:
		return character.Filter{TagIDs: []string{term.ID}}, image.Filter{TagIDs: []string{term.ID}}
	}
}
