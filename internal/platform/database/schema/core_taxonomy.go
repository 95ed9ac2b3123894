// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// TaxonomyTable represents one of the taxonomy tables ('core.series',
// 'core.group', 'core.tag'). They share a column layout; tags simply never
// populate Description.
type TaxonomyTable struct {
	Table       string
	ID          string
	Name        string
	Slug        string
	Description string
	CreatedAt   string

	// NameKey and SlugKey are the unique constraint names.
	NameKey string
	SlugKey string
}

// CoreSeries is the schema definition for core.series
var CoreSeries = TaxonomyTable{
	Table:       "core.series",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	CreatedAt:   "createdat",
	NameKey:     "series_name_key",
	SlugKey:     "series_slug_key",
}

// CoreGroup is the schema definition for core.group
var CoreGroup = TaxonomyTable{
	Table:       `core."group"`,
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	CreatedAt:   "createdat",
	NameKey:     "group_name_key",
	SlugKey:     "group_slug_key",
}

// CoreTag is the schema definition for core.tag
var CoreTag = TaxonomyTable{
	Table:       "core.tag",
	ID:          "id",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	CreatedAt:   "createdat",
	NameKey:     "tag_name_key",
	SlugKey:     "tag_slug_key",
}

func (t TaxonomyTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Description, t.CreatedAt}
}
