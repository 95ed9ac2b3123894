// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package image manages uploaded images, their derived metadata and moderation.

Lifecycle:

	upload ──► pending ──approve──► approved
	   │          │                    │
	   │          └──reject/delete──►  deleted ◄──reject/delete
	   └── staff uploads start approved

Width and height are derived once, right after the row is created, and are
never written again.
*/
package image

import (
	"time"

	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
)

// # Entities

// Image is the hydrated gallery entry.
type Image struct {
	ID               string          `json:"id"`
	File             string          `json:"-"`
	FileURL          string          `json:"file_url"`
	Thumbnail        string          `json:"-"`
	ThumbnailURL     string          `json:"thumbnail_url,omitempty"`
	UploaderID       string          `json:"uploader"`
	UploaderUsername string          `json:"uploader_username"`
	UploadedAt       time.Time       `json:"uploaded_at"`
	Characters       []character.Ref `json:"characters"`
	Tags             []taxonomy.Ref  `json:"tags"`
	Width            *int            `json:"width"`
	Height           *int            `json:"height"`
	IsApproved       bool            `json:"is_approved"`
	Description      string          `json:"description"`
	Illustrator      string          `json:"illustrator"`

	// Link ids used by writes.
	CharacterIDs []string `json:"-"`
	TagIDs       []string `json:"-"`
}

// Detail is the single-image view with the actor's permissions and
// related approved images.
type Detail struct {
	*Image
	CanEdit   bool     `json:"can_edit"`
	CanDelete bool     `json:"can_delete"`
	Related   []*Image `json:"related"`
}

// File is one raw upload.
type File struct {
	Filename string
	Data     []byte
}

// FileError reports why one file of a batch upload was refused.
type FileError struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// BatchResult is the outcome of a multi-file upload.
type BatchResult struct {
	Images []*Image    `json:"images"`
	Errors []FileError `json:"errors"`
}

// Counts summarises the moderation queue.
type Counts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}

// # Inputs

// Metadata is the shared, client-supplied part of an upload. Any approval
// flag sent by the client is not part of it.
type Metadata struct {
	CharacterIDs []string
	TagIDs       []string
	Description  string
	Illustrator  string
}

// Patch is a partial update. Nil fields are kept.
type Patch struct {
	Description  *string   `json:"description"`
	Illustrator  *string   `json:"illustrator"`
	CharacterIDs *[]string `json:"character_ids"`
	TagIDs       *[]string `json:"tag_ids"`
	IsApproved   *bool     `json:"is_approved"`
}

// # Filters

// Filter narrows an image listing. Populated fields combine with AND.
type Filter struct {
	// Search matches description, illustrator, uploader username, or any
	// linked character or tag name.
	Search string

	// IsApproved restricts the moderation state; nil lists both.
	IsApproved *bool

	// CharacterIDs and TagIDs match images linked to any of the ids.
	CharacterIDs []string
	TagIDs       []string

	// GroupID and SeriesID match images through their characters.
	GroupID  string
	SeriesID string

	UploaderID string
}

// # Moderation Actions

// Action is a bulk moderation verb.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// # Field Names & Limits

const (
	FieldFile         = "file"
	FieldFiles        = "files"
	FieldCharacterIDs = "character_ids"
	FieldTagIDs       = "tag_ids"
	FieldDescription  = "description"
	FieldIllustrator  = "illustrator"
	FieldIDs          = "ids"
	FieldAction       = "action"

	MaxIllustratorLength = 100
	MaxDescriptionLength = 2000

	imagePrefix     = "images"
	thumbnailPrefix = "thumbnails"
)
