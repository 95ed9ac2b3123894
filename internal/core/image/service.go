// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/blob"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/media"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/sanitize"
	"github.com/taibuivan/onnanoko/pkg/slice"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// CharacterResolver validates character references. Satisfied by *character.Service.
type CharacterResolver interface {
	Resolve(ctx context.Context, field string, ids []string) ([]character.Ref, error)
}

// TagResolver validates tag references. Satisfied by *taxonomy.Service.
type TagResolver interface {
	Resolve(ctx context.Context, kind taxonomy.Kind, field string, ids []string) ([]*taxonomy.Term, error)
}

// # Service Layer

// Service implements uploads, edits, reads and moderation of images.
type Service struct {
	repo       Repository
	characters CharacterResolver
	tags       TagResolver
	blobs      blob.Store
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs a new image [Service].
func NewService(repo Repository, characters CharacterResolver, tags TagResolver, blobs blob.Store, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		characters: characters,
		tags:       tags,
		blobs:      blobs,
		logger:     logger,
		now:        time.Now,
	}
}

// # Uploads

/*
Upload stores one image.

Description: The checks run in order: permission, size, sniffed content
type, full decode, then references. Nothing is written before all of them
pass. Staff uploads are approved immediately; everyone else's are pending.
After the row exists the derived metadata hook runs exactly once.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be authenticated)
  - file: File
  - metadata: Metadata

Returns:
  - *Image: The stored image with its dimensions
  - error: PermissionError, PayloadTooLarge, UnsupportedMediaType,
    CorruptImage, ValidationError
*/
func (service *Service) Upload(ctx context.Context, actor access.Actor, file File, metadata Metadata) (*Image, error) {
	if err := access.Require(actor, access.ActionCreate, access.NewImage()); err != nil {
		return nil, err
	}

	info, err := media.Inspect(file.Data)
	if err != nil {
		return nil, err
	}

	metadata, err = service.prepare(ctx, metadata)
	if err != nil {
		return nil, err
	}

	return service.store(ctx, actor, file, info, metadata)
}

/*
UploadBatch stores several files sharing the same metadata.

Description: Each file is checked on its own; refused files are reported
in the result. The call only fails when no file could be stored, in which
case the first file's error is returned.

Returns:
  - BatchResult: Stored images and per-file errors
  - error: PermissionError, ValidationError, or the first file error
*/
func (service *Service) UploadBatch(ctx context.Context, actor access.Actor, files []File, metadata Metadata) (BatchResult, error) {
	if err := access.Require(actor, access.ActionCreate, access.NewImage()); err != nil {
		return BatchResult{}, err
	}

	validator := &validate.Validator{}
	validator.
		Custom(FieldFiles, len(files) == 0, "At least one file is required").
		Custom(FieldFiles, len(files) > constants.MaxUploadFiles, fmt.Sprintf("At most %d files per upload", constants.MaxUploadFiles))
	if err := validator.Err(); err != nil {
		return BatchResult{}, err
	}

	metadata, err := service.prepare(ctx, metadata)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Images: []*Image{}, Errors: []FileError{}}
	var firstErr error

	for _, file := range files {
		image, err := service.storeChecked(ctx, actor, file, metadata)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			appErr := apperr.As(err)
			if appErr == nil {
				appErr = apperr.Internal(err)
			}
			result.Errors = append(result.Errors, FileError{Filename: file.Filename, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		result.Images = append(result.Images, image)
	}

	if len(result.Images) == 0 {
		return result, firstErr
	}
	return result, nil
}

// storeChecked inspects one file and stores it with already prepared metadata.
func (service *Service) storeChecked(ctx context.Context, actor access.Actor, file File, metadata Metadata) (*Image, error) {
	info, err := media.Inspect(file.Data)
	if err != nil {
		return nil, err
	}
	return service.store(ctx, actor, file, info, metadata)
}

// prepare sanitizes free text and validates the references.
func (service *Service) prepare(ctx context.Context, metadata Metadata) (Metadata, error) {
	metadata.Description = sanitize.Text(metadata.Description)
	metadata.Illustrator = sanitize.Text(metadata.Illustrator)

	validator := &validate.Validator{}
	validator.
		MaxLen(FieldDescription, metadata.Description, MaxDescriptionLength).
		MaxLen(FieldIllustrator, metadata.Illustrator, MaxIllustratorLength)
	if err := validator.Err(); err != nil {
		return Metadata{}, err
	}

	characterIDs, tagIDs, err := service.resolveLinks(ctx, metadata.CharacterIDs, metadata.TagIDs)
	if err != nil {
		return Metadata{}, err
	}
	metadata.CharacterIDs = characterIDs
	metadata.TagIDs = tagIDs
	return metadata, nil
}

// store writes the blob and the row, then runs the derived metadata hook.
func (service *Service) store(ctx context.Context, actor access.Actor, file File, info *media.Info, metadata Metadata) (*Image, error) {
	image := &Image{
		ID:           uuid.New(),
		File:         blob.NewKey(imagePrefix, info.Extension, service.now()),
		UploaderID:   actor.UserID,
		IsApproved:   actor.IsStaff(),
		Description:  metadata.Description,
		Illustrator:  metadata.Illustrator,
		CharacterIDs: metadata.CharacterIDs,
		TagIDs:       metadata.TagIDs,
	}

	if err := service.blobs.Put(ctx, image.File, file.Data, info.ContentType); err != nil {
		return nil, apperr.Internal(fmt.Errorf("image: store blob: %w", err))
	}

	if err := service.repo.Create(ctx, image); err != nil {
		service.removeBlob(ctx, image.File)
		return nil, err
	}

	if err := service.applyDerivedMetadata(ctx, image); err != nil {
		service.logger.Error("image_metadata_failed", slog.String("id", image.ID), slog.Any("error", err))
	}

	service.logger.Info("image_uploaded",
		slog.String("id", image.ID),
		slog.String("uploader_id", actor.UserID),
		slog.Bool("approved", image.IsApproved),
		slog.Int("bytes", len(file.Data)),
	)
	return service.load(ctx, image.ID)
}

/*
applyDerivedMetadata reads the stored blob back, records its pixel size and
renders the thumbnail.

Description: The dimensions statement only writes while both values are
unset, so a second call is a no-op. A thumbnail failure is logged and
does not fail the upload.
*/
func (service *Service) applyDerivedMetadata(ctx context.Context, image *Image) error {
	data, err := blob.ReadAll(ctx, service.blobs, image.File)
	if err != nil {
		return err
	}

	width, height, err := media.Dimensions(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("image: decode dimensions: %w", err)
	}
	if _, err := service.repo.SetDimensions(ctx, image.ID, width, height); err != nil {
		return err
	}

	if err := service.renderThumbnail(ctx, image.ID, data); err != nil {
		service.logger.Warn("thumbnail_failed", slog.String("id", image.ID), slog.Any("error", err))
	}
	return nil
}

// renderThumbnail writes thumbnails/<id>.jpg and records its key.
func (service *Service) renderThumbnail(ctx context.Context, id string, data []byte) error {
	thumbnail, err := media.ThumbnailFrom(bytes.NewReader(data))
	if err != nil {
		return err
	}

	key := thumbnailPrefix + "/" + id + ".jpg"
	if err := service.blobs.Put(ctx, key, thumbnail, media.TypeJPEG); err != nil {
		return err
	}
	return service.repo.SetThumbnail(ctx, id, key)
}

/*
RegenerateThumbnails re-renders the thumbnail of every image.

Dimensions are not touched. Images whose blob cannot be read are skipped
and logged.

Returns:
  - int: Number of thumbnails written
*/
func (service *Service) RegenerateThumbnails(ctx context.Context) (int, error) {
	const batchSize = 100
	written := 0

	for offset := 0; ; offset += batchSize {
		images, _, err := service.repo.List(ctx, Filter{}, batchSize, offset)
		if err != nil {
			return written, err
		}

		for _, image := range images {
			data, err := blob.ReadAll(ctx, service.blobs, image.File)
			if err == nil {
				err = service.renderThumbnail(ctx, image.ID, data)
			}
			if err != nil {
				service.logger.Warn("thumbnail_failed", slog.String("id", image.ID), slog.Any("error", err))
				continue
			}
			written++
		}

		if len(images) < batchSize {
			return written, nil
		}
	}
}

// # Edits

/*
Update edits description, illustrator and links, and optionally approval.

Description: Requires update permission (staff or uploader). Changing
is_approved additionally requires moderation permission. Width and height
are never written here.

Returns:
  - *Image: The updated image
  - error: NotFound, PermissionError, ValidationError
*/
func (service *Service) Update(ctx context.Context, actor access.Actor, id string, patch Patch) (*Image, error) {
	image, err := service.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := access.Require(actor, access.ActionUpdate, access.Image(image.UploaderID, image.IsApproved)); err != nil {
		return nil, err
	}
	if patch.IsApproved != nil {
		if err := access.Require(actor, access.ActionModerate, access.Image(image.UploaderID, image.IsApproved)); err != nil {
			return nil, err
		}
	}

	metadata := Metadata{
		Description:  image.Description,
		Illustrator:  image.Illustrator,
		CharacterIDs: image.CharacterIDs,
		TagIDs:       image.TagIDs,
	}
	if patch.Description != nil {
		metadata.Description = *patch.Description
	}
	if patch.Illustrator != nil {
		metadata.Illustrator = *patch.Illustrator
	}
	if patch.CharacterIDs != nil {
		metadata.CharacterIDs = *patch.CharacterIDs
	}
	if patch.TagIDs != nil {
		metadata.TagIDs = *patch.TagIDs
	}

	metadata, err = service.prepare(ctx, metadata)
	if err != nil {
		return nil, err
	}

	wasApproved := image.IsApproved
	image.Description = metadata.Description
	image.Illustrator = metadata.Illustrator
	image.CharacterIDs = metadata.CharacterIDs
	image.TagIDs = metadata.TagIDs
	if patch.IsApproved != nil {
		image.IsApproved = *patch.IsApproved
	}

	if err := service.repo.Update(ctx, image); err != nil {
		return nil, err
	}

	service.logger.Info("image_updated", slog.String("id", image.ID), slog.String("actor_id", actor.UserID))
	if image.IsApproved && !wasApproved {
		service.logger.Info("image_approved", slog.String("id", image.ID), slog.String("actor_id", actor.UserID))
	}
	return service.load(ctx, image.ID)
}

/*
Delete removes an image, then its blob and thumbnail best-effort.

Returns:
  - error: NotFound, PermissionError
*/
func (service *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	image, err := service.find(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Require(actor, access.ActionDelete, access.Image(image.UploaderID, image.IsApproved)); err != nil {
		return err
	}

	if err := service.remove(ctx, image); err != nil {
		return err
	}
	service.logger.Info("image_deleted", slog.String("id", image.ID), slog.String("actor_id", actor.UserID))
	return nil
}

// # Reads

/*
Get returns the image detail as seen by actor.

Description: Images the actor may not read (pending, and neither staff
nor uploader) are reported as not found.
*/
func (service *Service) Get(ctx context.Context, actor access.Actor, id string) (*Detail, error) {
	image, err := service.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resource := access.Image(image.UploaderID, image.IsApproved)
	if !access.Can(actor, access.ActionRead, resource) {
		return nil, apperr.NotFound("Image")
	}

	related, err := service.repo.Related(ctx, image.ID, constants.RelatedImageLimit)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Image:     service.present(image)[0],
		CanEdit:   access.Can(actor, access.ActionUpdate, resource),
		CanDelete: access.Can(actor, access.ActionDelete, resource),
		Related:   service.present(related...),
	}, nil
}

// Related returns approved images sharing a character with the image.
func (service *Service) Related(ctx context.Context, actor access.Actor, id string) ([]*Image, error) {
	image, err := service.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.Can(actor, access.ActionRead, access.Image(image.UploaderID, image.IsApproved)) {
		return nil, apperr.NotFound("Image")
	}

	related, err := service.repo.Related(ctx, image.ID, constants.RelatedImageLimit)
	if err != nil {
		return nil, err
	}
	return service.present(related...), nil
}

// Gallery is the public listing: approved images only, newest first.
func (service *Service) Gallery(ctx context.Context, search string, params pagination.Params) (pagination.Page[*Image], error) {
	approved := true
	return service.page(ctx, Filter{Search: search, IsApproved: &approved}, params)
}

/*
List is the REST listing.

Description: Non-staff actors only ever see approved images, whatever
is_approved filter they send.

Returns:
  - pagination.Page[*Image]
  - error: ValidationError if a filter id is malformed
*/
func (service *Service) List(ctx context.Context, actor access.Actor, filter Filter, params pagination.Params) (pagination.Page[*Image], error) {
	validator := &validate.Validator{}
	validator.UUIDs("characters", filter.CharacterIDs).UUIDs("tags", filter.TagIDs)
	if filter.GroupID != "" {
		validator.UUID("group", filter.GroupID)
	}
	if filter.SeriesID != "" {
		validator.UUID("series", filter.SeriesID)
	}
	if err := validator.Err(); err != nil {
		return pagination.Page[*Image]{}, err
	}

	if !actor.IsStaff() {
		approved := true
		filter.IsApproved = &approved
	}
	return service.page(ctx, filter, params)
}

// Uploads returns the most recent uploads of one user, any state.
func (service *Service) Uploads(ctx context.Context, uploaderID string, limit int) ([]*Image, error) {
	images, _, err := service.repo.List(ctx, Filter{UploaderID: uploaderID}, limit, 0)
	if err != nil {
		return nil, err
	}
	return service.present(images...), nil
}

// Recent returns the latest uploads site-wide, any state.
func (service *Service) Recent(ctx context.Context, limit int) ([]*Image, error) {
	return service.Uploads(ctx, "", limit)
}

// RemoveUploads deletes every image of a user together with its files. It is
// called before the account row goes away, so the cascade finds nothing left
// and no blob is orphaned.
func (service *Service) RemoveUploads(ctx context.Context, uploaderID string) (int, error) {
	const batchSize = 100
	if uploaderID == "" {
		return 0, nil
	}

	removed := 0
	for {
		images, _, err := service.repo.List(ctx, Filter{UploaderID: uploaderID}, batchSize, 0)
		if err != nil {
			return removed, err
		}
		if len(images) == 0 {
			break
		}
		for _, image := range images {
			if err := service.remove(ctx, image); err != nil {
				return removed, err
			}
			removed++
		}
	}

	service.logger.Info("user_uploads_removed",
		slog.String("uploader_id", uploaderID),
		slog.Int("count", removed),
	)
	return removed, nil
}

// Counts returns approved and pending totals; an empty uploaderID counts everything.
func (service *Service) Counts(ctx context.Context, uploaderID string) (Counts, error) {
	return service.repo.Counts(ctx, uploaderID)
}

// # Helpers

func (service *Service) page(ctx context.Context, filter Filter, params pagination.Params) (pagination.Page[*Image], error) {
	images, total, err := service.repo.List(ctx, filter, params.Limit, params.Offset())
	if err != nil {
		return pagination.Page[*Image]{}, err
	}
	return pagination.NewPage(service.present(images...), params, total), nil
}

// find loads an image. Malformed ids are reported as not found.
func (service *Service) find(ctx context.Context, id string) (*Image, error) {
	if !uuid.Valid(id) {
		return nil, apperr.NotFound("Image")
	}
	return service.repo.FindByID(ctx, id)
}

func (service *Service) load(ctx context.Context, id string) (*Image, error) {
	image, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return service.present(image)[0], nil
}

// resolveLinks validates and de-duplicates character and tag ids.
func (service *Service) resolveLinks(ctx context.Context, characterIDs, tagIDs []string) ([]string, []string, error) {
	characters, err := service.characters.Resolve(ctx, FieldCharacterIDs, characterIDs)
	if err != nil {
		return nil, nil, err
	}
	tags, err := service.tags.Resolve(ctx, taxonomy.KindTag, FieldTagIDs, tagIDs)
	if err != nil {
		return nil, nil, err
	}

	return slice.Map(characters, func(ref character.Ref) string { return ref.ID }),
		slice.Map(tags, func(term *taxonomy.Term) string { return term.ID }),
		nil
}

// remove deletes the row, then the files.
func (service *Service) remove(ctx context.Context, image *Image) error {
	if err := service.repo.Delete(ctx, image.ID); err != nil {
		return err
	}
	service.removeBlob(ctx, image.File)
	service.removeBlob(ctx, image.Thumbnail)
	return nil
}

func (service *Service) present(images ...*Image) []*Image {
	for _, image := range images {
		image.FileURL = service.blobs.URL(image.File)
		if image.Thumbnail != "" {
			image.ThumbnailURL = service.blobs.URL(image.Thumbnail)
		}
	}
	return images
}

func (service *Service) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := service.blobs.Delete(ctx, key); err != nil {
		service.logger.Warn("blob_delete_failed", slog.String("key", key), slog.Any("error", err))
	}
}
