// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

import "context"

// # Image Data Access

// Repository defines the persistence contract for images.
type Repository interface {

	/*
		List returns a filtered page of images ordered by upload time
		(newest first, then id), and the total count.
	*/
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Image, int, error)

	/*
		FindByID returns the hydrated image.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, id string) (*Image, error)

	/*
		Create inserts the row with NULL dimensions and its character and tag
		links in a single transaction.
	*/
	Create(ctx context.Context, image *Image) error

	/*
		Update persists description, illustrator, approval and the link sets.
		Width and height are never written.
	*/
	Update(ctx context.Context, image *Image) error

	/*
		SetDimensions writes width and height only while both are unset.

		Returns:
		  - bool: Whether the row changed
	*/
	SetDimensions(ctx context.Context, id string, width, height int) (bool, error)

	// SetThumbnail records the thumbnail blob key.
	SetThumbnail(ctx context.Context, id, key string) error

	/*
		Approve marks a pending image approved.

		Returns:
		  - bool: false if the image was already approved or is missing
	*/
	Approve(ctx context.Context, id string) (bool, error)

	// Delete removes the row and its links.
	Delete(ctx context.Context, id string) error

	// Related returns approved images sharing a character with id, excluding it.
	Related(ctx context.Context, id string, limit int) ([]*Image, error)

	// Counts returns the approved and pending totals, optionally for one uploader.
	Counts(ctx context.Context, uploaderID string) (Counts, error)
}
