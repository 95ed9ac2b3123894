// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreCharacterTable represents the 'core.character' table
type CoreCharacterTable struct {
	Table        string
	ID           string
	Name         string
	Slug         string
	SeriesID     string
	BirthDate    string
	Age          string
	HeightCm     string
	WeightKg     string
	BustCm       string
	WaistCm      string
	HipsCm       string
	Is2D         string
	Description  string
	PrimaryImage string
	CreatedAt    string
	UpdatedAt    string

	// Constraint names
	SlugKey       string
	NameSeriesKey string
}

// CoreCharacter is the schema definition for core.character
var CoreCharacter = CoreCharacterTable{
	Table:         "core.character",
	ID:            "id",
	Name:          "name",
	Slug:          "slug",
	SeriesID:      "seriesid",
	BirthDate:     "birthdate",
	Age:           "age",
	HeightCm:      "heightcm",
	WeightKg:      "weightkg",
	BustCm:        "bustcm",
	WaistCm:       "waistcm",
	HipsCm:        "hipscm",
	Is2D:          "is2d",
	Description:   "description",
	PrimaryImage:  "primaryimage",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",
	SlugKey:       "character_slug_key",
	NameSeriesKey: "character_name_seriesid_key",
}

func (t CoreCharacterTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.SeriesID, t.BirthDate, t.Age,
		t.HeightCm, t.WeightKg, t.BustCm, t.WaistCm, t.HipsCm,
		t.Is2D, t.Description, t.PrimaryImage, t.CreatedAt, t.UpdatedAt,
	}
}

// CharacterGroupTable represents the 'core.charactergroup' table
type CharacterGroupTable struct {
	Table       string
	CharacterID string
	GroupID     string
}

// CharacterGroup is the schema definition for core.charactergroup
var CharacterGroup = CharacterGroupTable{
	Table:       "core.charactergroup",
	CharacterID: "characterid",
	GroupID:     "groupid",
}

// CharacterTagTable represents the 'core.charactertag' table
type CharacterTagTable struct {
	Table       string
	CharacterID string
	TagID       string
}

// CharacterTag is the schema definition for core.charactertag
var CharacterTag = CharacterTagTable{
	Table:       "core.charactertag",
	CharacterID: "characterid",
	TagID:       "tagid",
}
