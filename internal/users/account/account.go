// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the self-service area of a signed-in user.

It covers the dashboard (own uploads with moderation counts), profile edits,
password changes and account removal. Identity storage is shared with the
auth package; this package only orchestrates.
*/
package account

import (
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

// Dashboard is the landing view of a signed-in user.
type Dashboard struct {
	User    *auth.User     `json:"user"`
	Uploads []*image.Image `json:"uploads"`
	Counts  image.Counts   `json:"counts"`
}

// ProfileInput carries a partial profile update. Nil fields are untouched.
type ProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// PasswordInput carries a password change.
type PasswordInput struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// DeleteInput confirms an account removal.
type DeleteInput struct {
	ConfirmUsername string `json:"confirm_username"`
	Confirm         bool   `json:"confirm"`
}

// # Field Names

const (
	FieldCurrentPassword    = "current_password"
	FieldNewPassword        = "new_password"
	FieldNewPasswordConfirm = "new_password_confirm"
	FieldConfirmUsername    = "confirm_username"
	FieldConfirm            = "confirm"
)
