// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// Every listing in the gallery has a fixed page size (characters 20, images 24,
// taxonomy 20). Clients only choose the page number, passed in a query
// parameter ("page" by default, "characters_page"/"images_page" on the
// explore endpoint). The result metadata is delivered in the response envelope.
package pagination

import (
	"net/http"

	"github.com/taibuivan/onnanoko/pkg/convert"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// PageParam is the default page query parameter.
	PageParam = "page"
)

// Params holds the page number and the page size of a listing.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_previous"`
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Page is a slice of results together with its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// NewPage wraps items with the metadata computed from params and total.
func NewPage[T any](items []T, params Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: NewMeta(params.Page, params.Limit, total)}
}

// FromRequest parses "page" and "limit" query parameters from an HTTP request.
//
// # Clamping
//
// Invalid, negative, or excessive values are automatically clamped to
// [DefaultPage], [DefaultLimit], or [MaxLimit].
func FromRequest(r *http.Request) Params {
	limit := convert.ToIntD(r.URL.Query().Get("limit"), DefaultLimit)
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Fixed(r, PageParam, limit)
}

// Fixed parses the page number from pageParam and applies a fixed page size.
// Malformed or non-positive page numbers fall back to the first page.
func Fixed(r *http.Request, pageParam string, size int) Params {
	return ForPage(convert.ToIntD(r.URL.Query().Get(pageParam), DefaultPage), size)
}

// ForPage builds Params for a page number and size, clamping the page to 1.
func ForPage(page, size int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultLimit
	}
	return Params{Page: page, Limit: size}
}
