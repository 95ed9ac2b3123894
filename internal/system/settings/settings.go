// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package settings manages the site-wide configuration edited by staff.

Settings live as key/value rows in system.setting. The service loads them
once at startup into a process-wide snapshot, and replaces the snapshot
after every successful write, so readers never hit the database.
*/
package settings

import "time"

// Setting keys as stored in system.setting.
const (
	KeyAllowSelfRegistration = "allow_self_registration"
)

// Settings is the decoded snapshot of every known setting.
type Settings struct {
	AllowSelfRegistration bool      `json:"allow_self_registration"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Defaults mirrors the rows inserted by the initial migration.
func Defaults() Settings {
	return Settings{AllowSelfRegistration: true}
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	AllowSelfRegistration *bool `json:"allow_self_registration"`
}
