// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByLogin returns the account whose username equals login, or whose
		email equals login ignoring case.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByLogin(ctx context.Context, login string) (*User, error)

	/*
		UsernameTaken reports whether another account (other than excludeID)
		already uses the username.
	*/
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)

	/*
		EmailTaken reports whether another account (other than excludeID)
		already uses the email, compared case-insensitively.
	*/
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)

	/*
		Create persists a brand-new user account.

		Returns:
		  - error: ValidationError on a username/email collision, or storage failures
	*/
	Create(ctx context.Context, user *User) error

	/*
		Update writes every mutable column of the account, including the
		password hash, role and active flag.
	*/
	Update(ctx context.Context, user *User) error

	/*
		TouchLastLogin records a successful login.
	*/
	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	/*
		Delete removes the account. Uploaded images cascade with it.
	*/
	Delete(ctx context.Context, id string) error
}

// # Session Data Access

// SessionRepository stores refresh sessions keyed by the token hash.
type SessionRepository interface {

	/*
		Create stores the session until its expiry.
	*/
	Create(ctx context.Context, session *Session) error

	/*
		FindByTokenHash returns the live session for a token hash.

		Returns:
		  - *Session: The stored session
		  - error: apperr.NotFound when absent or expired
	*/
	FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	/*
		Revoke deletes one session. Revoking a missing session is not an error.
	*/
	Revoke(ctx context.Context, tokenHash string) error

	/*
		RevokeAll deletes every session of the user.
	*/
	RevokeAll(ctx context.Context, userID string) error
}
