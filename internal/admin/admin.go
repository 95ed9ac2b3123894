// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package admin implements the staff panel: site statistics, a content overview,
user management, and the mounts for moderation, settings and quick taxonomy
creation.

Every operation asks the access policy first. Plain staff manage members and
other staff; only an administrator edits or removes administrators, or grants
the administrator role.
*/
package admin

import (
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

// Totals are the row counts outside the image store.
type Totals struct {
	Users      int `json:"users"`
	Characters int `json:"characters"`
}

// Stats is the admin dashboard.
type Stats struct {
	Users         int            `json:"users"`
	Characters    int            `json:"characters"`
	Images        int            `json:"images"`
	Pending       int            `json:"pending"`
	RecentUploads []*image.Image `json:"recent_uploads"`
}

// Overview lists the first terms of every vocabulary with their totals.
type Overview struct {
	Characters int              `json:"characters"`
	Images     int              `json:"images"`
	Terms      []OverviewBucket `json:"taxonomy"`
}

// OverviewBucket is one vocabulary in the [Overview].
type OverviewBucket struct {
	Kind  taxonomy.Kind    `json:"kind"`
	Total int              `json:"total"`
	Items []*taxonomy.Term `json:"items"`
}

// UserSummary is a row of the admin user listing.
type UserSummary struct {
	*auth.User
	UploadCount int `json:"upload_count"`
}

// UserPatch is a partial admin edit of an account. Nil fields are untouched.
type UserPatch struct {
	Username  *string       `json:"username"`
	Email     *string       `json:"email"`
	FirstName *string       `json:"first_name"`
	LastName  *string       `json:"last_name"`
	IsActive  *bool         `json:"is_active"`
	Role      *sec.UserRole `json:"role"`
}

// FieldRole is the validation field of role changes.
const FieldRole = "role"
