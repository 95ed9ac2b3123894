// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import "context"

// Repository holds the admin-only aggregate queries.
type Repository interface {

	/*
		Totals counts accounts and characters.
	*/
	Totals(ctx context.Context) (Totals, error)

	/*
		ListUsers searches username, email, first and last name (ILIKE) and
		returns rows ordered by date joined, newest first, each with its
		upload count.

		Returns:
		  - []*UserSummary: The page
		  - int: Total number of matches
		  - error: Storage failures
	*/
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*UserSummary, int, error)

	/*
		UploadCount counts the images of one user, any state.
	*/
	UploadCount(ctx context.Context, userID string) (int, error)
}
