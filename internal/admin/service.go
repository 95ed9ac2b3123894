// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/internal/users/auth"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// # Collaborators

// Identities checks account uniqueness and ends sessions. Satisfied by *auth.Service.
type Identities interface {
	EnsureAvailable(ctx context.Context, user *auth.User) error
	RevokeSessions(ctx context.Context, userID string) error
}

// Images provides the image aggregates. Satisfied by *image.Service.
type Images interface {
	Recent(ctx context.Context, limit int) ([]*image.Image, error)
	Counts(ctx context.Context, uploaderID string) (image.Counts, error)
	RemoveUploads(ctx context.Context, uploaderID string) (int, error)
}

// Terms lists and creates taxonomy terms. Satisfied by *taxonomy.Service.
type Terms interface {
	List(ctx context.Context, kind taxonomy.Kind, search string, params pagination.Params) (pagination.Page[*taxonomy.Term], error)
	Create(ctx context.Context, actor access.Actor, kind taxonomy.Kind, input taxonomy.CreateInput) (*taxonomy.Term, error)
}

// Service implements the staff panel.
type Service struct {
	repo       Repository
	users      auth.UserRepository
	identities Identities
	images     Images
	terms      Terms
	logger     *slog.Logger
}

// NewService constructs the admin [Service].
func NewService(repo Repository, users auth.UserRepository, identities Identities, images Images, terms Terms, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		identities: identities,
		images:     images,
		terms:      terms,
		logger:     logger,
	}
}

// # Dashboards

// Stats returns site totals, the pending count and the latest uploads.
func (service *Service) Stats(ctx context.Context, actor access.Actor) (*Stats, error) {
	if err := access.Require(actor, access.ActionRead, access.AdminPanel()); err != nil {
		return nil, err
	}

	totals, err := service.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := service.images.Counts(ctx, "")
	if err != nil {
		return nil, err
	}

	recent, err := service.images.Recent(ctx, constants.RecentUploadLimit)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Users:         totals.Users,
		Characters:    totals.Characters,
		Images:        counts.Total,
		Pending:       counts.Pending,
		RecentUploads: recent,
	}, nil
}

// Content returns the first terms of each vocabulary by name with totals.
func (service *Service) Content(ctx context.Context, actor access.Actor) (*Overview, error) {
	if err := access.Require(actor, access.ActionRead, access.AdminPanel()); err != nil {
		return nil, err
	}

	totals, err := service.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := service.images.Counts(ctx, "")
	if err != nil {
		return nil, err
	}

	overview := &Overview{Characters: totals.Characters, Images: counts.Total}
	for _, kind := range taxonomy.Kinds {
		page, err := service.terms.List(ctx, kind, "", pagination.ForPage(1, constants.OverviewTermLimit))
		if err != nil {
			return nil, err
		}
		overview.Terms = append(overview.Terms, OverviewBucket{Kind: kind, Total: page.Meta.Total, Items: page.Items})
	}
	return overview, nil
}

// QuickCreate adds a term from the panel. The panel stays staff only even
// though any signed-in user may create terms through the REST collections.
func (service *Service) QuickCreate(ctx context.Context, actor access.Actor, kind taxonomy.Kind, input taxonomy.CreateInput) (*taxonomy.Term, error) {
	if err := access.Require(actor, access.ActionRead, access.AdminPanel()); err != nil {
		return nil, err
	}
	return service.terms.Create(ctx, actor, kind, input)
}

// # User Management

// Users lists accounts with their upload counts.
func (service *Service) Users(ctx context.Context, actor access.Actor, search string, params pagination.Params) (pagination.Page[*UserSummary], error) {
	if err := access.Require(actor, access.ActionRead, access.User("", false)); err != nil {
		return pagination.Page[*UserSummary]{}, err
	}

	users, total, err := service.repo.ListUsers(ctx, search, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*UserSummary]{}, err
	}
	return pagination.NewPage(users, params, total), nil
}

// User returns one account with its upload count.
func (service *Service) User(ctx context.Context, actor access.Actor, id string) (*UserSummary, error) {
	user, err := service.find(ctx, actor, access.ActionRead, id)
	if err != nil {
		return nil, err
	}
	return service.summarize(ctx, user)
}

/*
UpdateUser applies an admin edit.

Description: A superuser target needs a superuser actor. Granting the admin
role needs the promote permission. Deactivating an account, or taking away
its staff or superuser role, ends its sessions.

Returns:
  - *UserSummary: The updated account
  - error: PermissionError, NotFound, ValidationError
*/
func (service *Service) UpdateUser(ctx context.Context, actor access.Actor, id string, patch UserPatch) (*UserSummary, error) {
	user, err := service.find(ctx, actor, access.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	wasActive, previousRole := user.IsActive, user.Role

	if patch.Role != nil && *patch.Role != user.Role {
		if !patch.Role.Valid() {
			return nil, validate.RequiredError(FieldRole, "Must be one of: member, staff, admin")
		}
		if patch.Role.IsSuperuser() {
			if err := access.Require(actor, access.ActionPromote, access.User(user.ID, user.IsSuperuser())); err != nil {
				return nil, err
			}
		}
		user.Role = *patch.Role
	}

	if patch.Username != nil {
		user.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	validator := &validate.Validator{}
	auth.CheckProfile(validator, user)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.identities.EnsureAvailable(ctx, user); err != nil {
		return nil, err
	}

	if err := service.users.Update(ctx, user); err != nil {
		return nil, err
	}

	// Access tokens carry the role, so a deactivation or a demotion ends every session
	demoted := (previousRole.IsStaff() && !user.Role.IsStaff()) ||
		(previousRole.IsSuperuser() && !user.Role.IsSuperuser())
	if (wasActive && !user.IsActive) || demoted {
		if err := service.identities.RevokeSessions(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	service.logger.Info("user_updated_by_staff",
		slog.String("user_id", user.ID),
		slog.String("actor_id", actor.UserID),
		slog.String("role", string(user.Role)),
		slog.Bool("is_active", user.IsActive),
	)
	return service.summarize(ctx, user)
}

// DeleteUser removes an account with its uploads. Nobody deletes themselves here.
func (service *Service) DeleteUser(ctx context.Context, actor access.Actor, id string) error {
	user, err := service.find(ctx, actor, access.ActionDelete, id)
	if err != nil {
		return err
	}

	if _, err := service.images.RemoveUploads(ctx, user.ID); err != nil {
		return err
	}
	if err := service.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	if err := service.identities.RevokeSessions(ctx, user.ID); err != nil {
		service.logger.Warn("session_revoke_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	service.logger.Info("user_deleted_by_staff", slog.String("user_id", user.ID), slog.String("actor_id", actor.UserID))
	return nil
}

// # Helpers

// find loads the target and checks action against it. Staff status is checked
// before the lookup so non-staff cannot probe ids.
func (service *Service) find(ctx context.Context, actor access.Actor, action access.Action, id string) (*auth.User, error) {
	if err := access.Require(actor, access.ActionRead, access.User("", false)); err != nil {
		return nil, err
	}
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("User")
	}

	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.Require(actor, action, access.User(user.ID, user.IsSuperuser())); err != nil {
		return nil, err
	}
	return user, nil
}

func (service *Service) summarize(ctx context.Context, user *auth.User) (*UserSummary, error) {
	count, err := service.repo.UploadCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserSummary{User: user, UploadCount: count}, nil
}
