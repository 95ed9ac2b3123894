// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import "context"

// # Taxonomy Data Access

// Repository defines the data access contract for taxonomy terms.
type Repository interface {

	/*
		List returns terms of one kind whose name contains search
		(case-insensitive), ordered by name, and the total match count.

		Parameters:
		  - ctx: context.Context
		  - kind: Kind
		  - search: string (empty means no filter)
		  - limit, offset: int

		Returns:
		  - []*Term: The page of terms
		  - int: Total count of matching terms
		  - error: Database retrieval failures
	*/
	List(ctx context.Context, kind Kind, search string, limit, offset int) ([]*Term, int, error)

	/*
		FindByID returns a term by primary key.

		Returns:
		  - *Term: The stored term
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, kind Kind, id string) (*Term, error)

	/*
		FindBySlug returns a term by its unique slug.

		Returns:
		  - *Term: The stored term
		  - error: apperr.NotFound if missing
	*/
	FindBySlug(ctx context.Context, kind Kind, slug string) (*Term, error)

	/*
		FindByIDs returns every existing term among ids. Unknown ids are
		silently absent from the result.
	*/
	FindByIDs(ctx context.Context, kind Kind, ids []string) ([]*Term, error)

	/*
		NameTaken reports whether another term of the kind already uses name.

		Parameters:
		  - excludeID: string (the term being renamed, or "" on create)
	*/
	NameTaken(ctx context.Context, kind Kind, name, excludeID string) (bool, error)

	// SlugTaken reports whether a term of the kind already uses slug.
	SlugTaken(ctx context.Context, kind Kind, slug string) (bool, error)

	/*
		Create persists a new term.

		Returns:
		  - error: DuplicateName / DuplicateSlug on unique violations
	*/
	Create(ctx context.Context, term *Term) error

	/*
		Update persists the name and description of an existing term.

		Returns:
		  - error: apperr.NotFound if missing, DuplicateName on rename clash
	*/
	Update(ctx context.Context, term *Term) error

	/*
		Delete removes a term. Links detach through foreign keys.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Delete(ctx context.Context, kind Kind, id string) error
}
