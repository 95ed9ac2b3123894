// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import (
	"context"
	"log/slog"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/slice"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// # Moderation

// Pending lists the images awaiting approval, newest first.
func (service *Service) Pending(ctx context.Context, actor access.Actor, params pagination.Params) (pagination.Page[*Image], error) {
	if err := access.Require(actor, access.ActionModerate, access.NewImage()); err != nil {
		return pagination.Page[*Image]{}, err
	}
	pending := false
	return service.page(ctx, Filter{IsApproved: &pending}, params)
}

/*
Approve publishes a pending image.

Description: Approving an already approved image succeeds without a write.

Returns:
  - *Image: The approved image
  - error: PermissionError, NotFound
*/
func (service *Service) Approve(ctx context.Context, actor access.Actor, id string) (*Image, error) {
	if err := access.Require(actor, access.ActionModerate, access.NewImage()); err != nil {
		return nil, err
	}

	image, err := service.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if image.IsApproved {
		return service.present(image)[0], nil
	}

	if _, err := service.repo.Approve(ctx, image.ID); err != nil {
		return nil, err
	}

	service.logger.Info("image_approved", slog.String("id", image.ID), slog.String("actor_id", actor.UserID))
	return service.load(ctx, image.ID)
}

/*
Reject deletes an image and its files. A later read reports not found.

Returns:
  - error: PermissionError, NotFound
*/
func (service *Service) Reject(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Require(actor, access.ActionModerate, access.NewImage()); err != nil {
		return err
	}

	image, err := service.find(ctx, id)
	if err != nil {
		return err
	}
	if err := service.remove(ctx, image); err != nil {
		return err
	}

	service.logger.Info("image_rejected", slog.String("id", image.ID), slog.String("actor_id", actor.UserID))
	return nil
}

/*
BulkModerate applies one action to many images, one at a time.

Description: Ids are de-duplicated. Only pending images are eligible:
unknown, malformed and already approved ids are skipped for both actions,
so a bulk reject never removes a published image. A storage failure stops
the batch and is returned after the earlier items have been applied.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be staff)
  - ids: []string
  - action: Action ("approve" or "reject")

Returns:
  - int: Number of images actually changed
  - error: PermissionError, ValidationError, storage failures
*/
func (service *Service) BulkModerate(ctx context.Context, actor access.Actor, ids []string, action Action) (int, error) {
	if err := access.Require(actor, access.ActionModerate, access.NewImage()); err != nil {
		return 0, err
	}

	ids = slice.Unique(ids)
	validator := &validate.Validator{}
	validator.
		Custom(FieldIDs, len(ids) == 0, "At least one id is required").
		OneOf(FieldAction, string(action), string(ActionApprove), string(ActionReject))
	if err := validator.Err(); err != nil {
		return 0, err
	}

	affected := 0
	for _, id := range ids {
		changed, err := service.moderateOne(ctx, id, action)
		if err != nil {
			service.logger.Error("bulk_moderation_interrupted",
				slog.String("action", string(action)),
				slog.Int("affected", affected),
				slog.Any("error", err),
			)
			return affected, err
		}
		if changed {
			affected++
		}
	}

	service.logger.Info("bulk_moderation_applied",
		slog.String("action", string(action)),
		slog.Int("requested", len(ids)),
		slog.Int("affected", affected),
		slog.String("actor_id", actor.UserID),
	)
	return affected, nil
}

// moderateOne reports whether the image changed. Missing and approved
// images are skipped.
func (service *Service) moderateOne(ctx context.Context, id string, action Action) (bool, error) {
	if !uuid.Valid(id) {
		return false, nil
	}

	image, err := service.repo.FindByID(ctx, id)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if image.IsApproved {
		return false, nil
	}

	switch action {
	case ActionApprove:
		return service.repo.Approve(ctx, image.ID)

	case ActionReject:
		if err := service.remove(ctx, image); err != nil {
			if apperr.HasCode(err, apperr.CodeNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
	return false, nil
}
