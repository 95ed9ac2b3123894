// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package character manages the fictional characters of the gallery.

A character belongs to at most one series, to any number of groups and tags,
and carries optional profile data (birth date or age, measurements). Images
link to characters; deleting a character never deletes images.

Core Invariants:

  - (name, series) is unique; characters without a series never clash by name.
  - Exactly one of age and birth date is set.
  - The slug is derived once at creation and never changes.
*/
package character

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
)

// # Entities

// Character is the hydrated aggregate returned by every read.
type Character struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	BirthDate   *Date          `json:"birth_date"`
	Age         *int           `json:"age"`
	HeightCm    *float64       `json:"height_cm"`
	WeightKg    *float64       `json:"weight_kg"`
	BustCm      *float64       `json:"bust_cm"`
	WaistCm     *float64       `json:"waist_cm"`
	HipsCm      *float64       `json:"hips_cm"`
	Is2D        bool           `json:"is_2d"`
	Description string         `json:"description"`
	Series      *taxonomy.Ref  `json:"series"`
	Groups      []taxonomy.Ref `json:"groups"`
	Tags        []taxonomy.Ref `json:"tags"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// PrimaryImage is the blob key of the portrait; PrimaryImageURL its public URL.
	PrimaryImage    string `json:"-"`
	PrimaryImageURL string `json:"primary_image_url,omitempty"`

	// Link ids used by writes. Reads populate Series/Groups/Tags instead.
	SeriesID *string  `json:"-"`
	GroupIDs []string `json:"-"`
	TagIDs   []string `json:"-"`
}

// Ref is the compact form embedded in images.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Ref returns the compact form of the character.
func (character *Character) Ref() Ref {
	return Ref{ID: character.ID, Name: character.Name, Slug: character.Slug}
}

// # Filters

// Type values accepted by the "type" listing parameter.
const (
	Type2D  = "2d"
	Type3D  = "3d"
	TypeAll = "all"
)

// Filter narrows a character listing. Every populated field combines with AND.
type Filter struct {
	// Search matches name, description, series name, or any tag or group name.
	Search string

	// Type is "2d", "3d", or ""/"all" for no restriction.
	Type string

	// Is2D is the REST boolean form of Type. It wins when both are set.
	Is2D *bool

	SeriesID string

	// GroupIDs and TagIDs match characters linked to any of the ids.
	GroupIDs []string
	TagIDs   []string
}

// dimension resolves Type and Is2D into a single optional restriction.
func (filter Filter) dimension() *bool {
	if filter.Is2D != nil {
		return filter.Is2D
	}
	switch strings.ToLower(filter.Type) {
	case Type2D:
		value := true
		return &value
	case Type3D:
		value := false
		return &value
	}
	return nil
}

// # Inputs

// Input is the full representation accepted on create and PUT.
type Input struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	BirthDate   *Date    `json:"birth_date"`
	Age         *int     `json:"age"`
	HeightCm    *float64 `json:"height_cm"`
	WeightKg    *float64 `json:"weight_kg"`
	BustCm      *float64 `json:"bust_cm"`
	WaistCm     *float64 `json:"waist_cm"`
	HipsCm      *float64 `json:"hips_cm"`
	Is2D        *bool    `json:"is_2d"`
	Description string   `json:"description"`
	SeriesID    *string  `json:"series_id"`
	GroupIDs    []string `json:"group_ids"`
	TagIDs      []string `json:"tag_ids"`
}

// Patch is a partial update. A field that is absent from the JSON document
// is left unchanged; an explicit null clears it.
type Patch struct {
	Name        Nullable[string]   `json:"name"`
	BirthDate   Nullable[Date]     `json:"birth_date"`
	Age         Nullable[int]      `json:"age"`
	HeightCm    Nullable[float64]  `json:"height_cm"`
	WeightKg    Nullable[float64]  `json:"weight_kg"`
	BustCm      Nullable[float64]  `json:"bust_cm"`
	WaistCm     Nullable[float64]  `json:"waist_cm"`
	HipsCm      Nullable[float64]  `json:"hips_cm"`
	Is2D        Nullable[bool]     `json:"is_2d"`
	Description Nullable[string]   `json:"description"`
	SeriesID    Nullable[string]   `json:"series_id"`
	GroupIDs    Nullable[[]string] `json:"group_ids"`
	TagIDs      Nullable[[]string] `json:"tag_ids"`
}

// AsPatch turns a full representation into a patch that sets every field.
func (input Input) AsPatch() Patch {
	return Patch{
		Name:        Set(&input.Name),
		BirthDate:   Set(input.BirthDate),
		Age:         Set(input.Age),
		HeightCm:    Set(input.HeightCm),
		WeightKg:    Set(input.WeightKg),
		BustCm:      Set(input.BustCm),
		WaistCm:     Set(input.WaistCm),
		HipsCm:      Set(input.HipsCm),
		Is2D:        Set(input.Is2D),
		Description: Set(&input.Description),
		SeriesID:    Set(input.SeriesID),
		GroupIDs:    Set(&input.GroupIDs),
		TagIDs:      Set(&input.TagIDs),
	}
}

// # Field Names

const (
	FieldName      = "name"
	FieldSlug      = "slug"
	FieldAge       = "age"
	FieldBirthDate = "birth_date"
	FieldSeriesID  = "series_id"
	FieldGroupIDs  = "group_ids"
	FieldTagIDs    = "tag_ids"
	FieldFile      = "file"

	MaxNameLength = 100

	// maxMeasurement is the largest value a NUMERIC(5,2) column holds.
	maxMeasurement = 999.99
)

// # Value Types

// Date is a calendar date serialised as "YYYY-MM-DD".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (date Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(date.Format(dateLayout))
}

func (date *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("birth date must be a string: %w", err)
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("birth date must use YYYY-MM-DD: %w", err)
	}
	date.Time = parsed
	return nil
}

// Nullable distinguishes an absent JSON field from an explicit null.
type Nullable[T any] struct {
	// Present is true when the field appeared in the document.
	Present bool
	// Value is nil for an explicit null.
	Value *T
}

// Set builds a present Nullable holding value (nil means null).
func Set[T any](value *T) Nullable[T] {
	return Nullable[T]{Present: true, Value: value}
}

func (nullable *Nullable[T]) UnmarshalJSON(data []byte) error {
	nullable.Present = true
	if string(data) == "null" {
		nullable.Value = nil
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	nullable.Value = &value
	return nil
}

// apply overwrites target when the field was present.
func apply[T any](nullable Nullable[T], target **T) {
	if nullable.Present {
		*target = nullable.Value
	}
}
