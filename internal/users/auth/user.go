// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth owns user identities and the login session lifecycle.

# Tokens

A successful login yields a short-lived RS256 access token (returned in the body)
and an opaque refresh token (returned in an HttpOnly cookie). Only the SHA-256 of
the refresh token is stored, in Redis, so a leaked store cannot mint sessions.
Every refresh rotates the token.

# Registration

Self-registration is allowed only while the site setting
allow_self_registration is on. Accounts created by staff or the seed command
bypass the gate.
*/
package auth

import (
	"regexp"
	"time"

	"github.com/taibuivan/onnanoko/internal/platform/sec"
)

// usernamePattern accepts letters, digits and @.+-_ characters.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// # Domain Entities

// User is a registered account.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Role         sec.UserRole `json:"role"`
	IsActive     bool         `json:"is_active"`
	DateJoined   time.Time    `json:"date_joined"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
}

// IsStaff reports whether the account holds staff privileges.
func (user *User) IsStaff() bool { return user.Role.IsStaff() }

// IsSuperuser reports whether the account is an administrator.
func (user *User) IsSuperuser() bool { return user.Role.IsSuperuser() }

// Session is a refresh session held in Redis under the hash of its token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	UserAgent string    `json:"user_agent,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at now.
func (session *Session) Expired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}

// Credentials is the result of a login or refresh.
type Credentials struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

// RegisterInput captures a self-registration request.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// LoginInput captures credentials and client details.
type LoginInput struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// # Field Names

const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldLogin           = "login"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
)
