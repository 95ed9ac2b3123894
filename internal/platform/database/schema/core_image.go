// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreImageTable represents the 'core.image' table
type CoreImageTable struct {
	Table       string
	ID          string
	File        string
	Thumbnail   string
	UploaderID  string
	UploadedAt  string
	Width       string
	Height      string
	IsApproved  string
	Description string
	Illustrator string
}

// CoreImage is the schema definition for core.image
var CoreImage = CoreImageTable{
	Table:       "core.image",
	ID:          "id",
	File:        "file",
	Thumbnail:   "thumbnail",
	UploaderID:  "uploaderid",
	UploadedAt:  "uploadedat",
	Width:       "width",
	Height:      "height",
	IsApproved:  "isapproved",
	Description: "description",
	Illustrator: "illustrator",
}

func (t CoreImageTable) Columns() []string {
	return []string{
		t.ID, t.File, t.Thumbnail, t.UploaderID, t.UploadedAt,
		t.Width, t.Height, t.IsApproved, t.Description, t.Illustrator,
	}
}

// ImageCharacterTable represents the 'core.imagecharacter' table
type ImageCharacterTable struct {
	Table       string
	ImageID     string
	CharacterID string
}

// ImageCharacter is the schema definition for core.imagecharacter
var ImageCharacter = ImageCharacterTable{
	Table:       "core.imagecharacter",
	ImageID:     "imageid",
	CharacterID: "characterid",
}

// ImageTagTable represents the 'core.imagetag' table
type ImageTagTable struct {
	Table   string
	ImageID string
	TagID   string
}

// ImageTag is the schema definition for core.imagetag
var ImageTag = ImageTagTable{
	Table:   "core.imagetag",
	ImageID: "imageid",
	TagID:   "tagid",
}
