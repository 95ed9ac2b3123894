// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

// SessionRevoker ends every refresh session of a user. Satisfied by *auth.Service.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID string) error
}

// Uploads reads and purges a user's images. Satisfied by *image.Service.
type Uploads interface {
	Uploads(ctx context.Context, uploaderID string, limit int) ([]*image.Image, error)
	Counts(ctx context.Context, uploaderID string) (image.Counts, error)
	RemoveUploads(ctx context.Context, uploaderID string) (int, error)
}

// Service implements the self-service account use cases.
type Service struct {
	users    auth.UserRepository
	sessions SessionRevoker
	uploads  Uploads
	logger   *slog.Logger
}

// NewService constructs an account [Service].
func NewService(users auth.UserRepository, sessions SessionRevoker, uploads Uploads, logger *slog.Logger) *Service {
	return &Service{users: users, sessions: sessions, uploads: uploads, logger: logger}
}

// Dashboard returns the actor's profile, latest uploads in any state and counts.
func (service *Service) Dashboard(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	user, err := service.self(ctx, actor, access.ActionRead)
	if err != nil {
		return nil, err
	}

	uploads, err := service.uploads.Uploads(ctx, user.ID, constants.DashboardUploadLimit)
	if err != nil {
		return nil, err
	}

	counts, err := service.uploads.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{User: user, Uploads: uploads, Counts: counts}, nil
}

/*
UpdateProfile changes names and email.

Returns:
  - *auth.User: The updated account
  - error: ValidationError (bad or taken email), PermissionError
*/
func (service *Service) UpdateProfile(ctx context.Context, actor access.Actor, input ProfileInput) (*auth.User, error) {
	user, err := service.self(ctx, actor, access.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}

	validator := &validate.Validator{}
	auth.CheckProfile(validator, user)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	taken, err := service.users.EmailTaken(ctx, user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, validate.RequiredError(auth.FieldEmail, "A user with that email already exists")
	}

	if err := service.users.Update(ctx, user); err != nil {
		return nil, err
	}

	service.logger.Info("profile_updated", slog.String("user_id", user.ID))
	return user, nil
}

/*
ChangePassword verifies the current password, stores the new one and signs
the user out everywhere.
*/
func (service *Service) ChangePassword(ctx context.Context, actor access.Actor, input PasswordInput) error {
	user, err := service.self(ctx, actor, access.ActionUpdate)
	if err != nil {
		return err
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword)
	auth.CheckPassword(validator, FieldNewPassword, FieldNewPasswordConfirm, input.NewPassword, input.NewPasswordConfirm)
	if err := validator.Err(); err != nil {
		return err
	}

	if !sec.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
		return validate.RequiredError(FieldCurrentPassword, "Your old password was entered incorrectly")
	}

	hash, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return apperr.Internal(fmt.Errorf("account: hash password: %w", err))
	}
	user.PasswordHash = hash

	if err := service.users.Update(ctx, user); err != nil {
		return err
	}

	if err := service.sessions.RevokeSessions(ctx, user.ID); err != nil {
		return err
	}

	service.logger.Info("password_changed", slog.String("user_id", user.ID))
	return nil
}

/*
Delete removes the actor's account after an explicit confirmation. Uploaded
images and their files go with it, and every session is revoked.
*/
func (service *Service) Delete(ctx context.Context, actor access.Actor, input DeleteInput) error {
	user, err := service.self(ctx, actor, access.ActionDelete)
	if err != nil {
		return err
	}

	validator := &validate.Validator{}
	validator.Custom(FieldConfirmUsername, input.ConfirmUsername != user.Username, "Username does not match").
		Custom(FieldConfirm, !input.Confirm, "Please confirm the deletion")
	if err := validator.Err(); err != nil {
		return err
	}

	if _, err := service.uploads.RemoveUploads(ctx, user.ID); err != nil {
		return err
	}

	if err := service.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	if err := service.sessions.RevokeSessions(ctx, user.ID); err != nil {
		service.logger.Warn("session_revoke_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	service.logger.Info("account_deleted", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return nil
}

// self checks the account permission and loads the actor's own record.
func (service *Service) self(ctx context.Context, actor access.Actor, action access.Action) (*auth.User, error) {
	if !actor.Authenticated() {
		return nil, apperr.Unauthorized("Authentication required")
	}
	if err := access.Require(actor, action, access.Account(actor.UserID)); err != nil {
		return nil, err
	}
	return service.users.FindByID(ctx, actor.UserID)
}
