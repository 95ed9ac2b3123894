// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taxonomy manages the three classification vocabularies of the gallery.

  - Series: the work a character comes from. A character has at most one.
  - Group: a unit or team inside (or across) works. Many-to-many.
  - Tag: a free label applied to characters and images. Many-to-many.

All three share the same shape, so one [Service] serves them through a [Kind]
selecting the table. Slugs are derived once at creation and never change.
*/
package taxonomy

import (
	"strings"
	"time"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
)

// # Kinds

// Kind selects one of the taxonomy vocabularies.
type Kind string

const (
	KindSeries Kind = "series"
	KindGroup  Kind = "group"
	KindTag    Kind = "tag"
)

// Kinds lists every vocabulary in display order.
var Kinds = []Kind{KindSeries, KindGroup, KindTag}

// ParseKind accepts singular and plural spellings ("tag", "tags").
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "series":
		return KindSeries, nil
	case "group", "groups":
		return KindGroup, nil
	case "tag", "tags":
		return KindTag, nil
	}
	return "", apperr.NotFound("Taxonomy kind")
}

// Label is the human readable resource name used in error messages.
func (kind Kind) Label() string {
	switch kind {
	case KindSeries:
		return "Series"
	case KindGroup:
		return "Group"
	default:
		return "Tag"
	}
}

// HasDescription reports whether the vocabulary stores descriptions.
func (kind Kind) HasDescription() bool {
	return kind != KindTag
}

// # Entities

// Term is a single Series, Group or Tag.
type Term struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ref is the compact form embedded in characters and images.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Ref returns the compact form of the term.
func (term *Term) Ref() Ref {
	return Ref{ID: term.ID, Name: term.Name, Slug: term.Slug}
}

// # Inputs

// CreateInput carries the fields accepted on creation.
type CreateInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// UpdateInput is a partial update. Slugs never change after creation.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// # Field Names

const (
	FieldName        = "name"
	FieldSlug        = "slug"
	FieldDescription = "description"

	// MaxNameLength bounds names of every kind.
	MaxNameLength = 100
)
