// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL is the duration a refresh session remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32

	// MinPasswordLength applies to registration and every password change.
	MinPasswordLength = 8

	// MaxUsernameLength matches the users.account column width.
	MaxUsernameLength = 150

	// MaxNameLength bounds first and last names.
	MaxNameLength = 150
)
