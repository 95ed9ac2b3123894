// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import "context"

// # Character Data Access

// Repository defines the data access contract for the character domain.
type Repository interface {

	/*
		List returns a filtered, paginated slice of characters ordered by
		name then id, and the total count.

		Parameters:
		  - ctx: context.Context
		  - filter: Filter (search, dimension, series, groups, tags)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Character: Hydrated characters, each at most once
		  - int: Total count of matching characters
		  - error: Database retrieval failures
	*/
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Character, int, error)

	/*
		FindByID returns the hydrated character with the given id.

		Returns:
		  - *Character: The hydrated aggregate
		  - error: apperr.NotFound if missing
	*/
	FindByID(ctx context.Context, id string) (*Character, error)

	// FindBySlug returns the hydrated character with the given slug.
	FindBySlug(ctx context.Context, slug string) (*Character, error)

	// FindByIDs returns every existing character among ids, unordered.
	FindByIDs(ctx context.Context, ids []string) ([]*Character, error)

	/*
		NameTaken reports whether a character other than excludeID already
		uses name within the same series (nil series compares equal to nil).
	*/
	NameTaken(ctx context.Context, name string, seriesID *string, excludeID string) (bool, error)

	// SlugTaken reports whether any character uses slug.
	SlugTaken(ctx context.Context, slug string) (bool, error)

	/*
		Create persists a new character together with its group and tag links
		in one transaction.

		Returns:
		  - error: DuplicateSlug, ValidationError on (name, series) clash
	*/
	Create(ctx context.Context, character *Character) error

	/*
		Update persists every mutable column and replaces the link sets.
		The slug column is never written.
	*/
	Update(ctx context.Context, character *Character) error

	/*
		Delete removes a character. Group, tag and image links cascade;
		images themselves remain.

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Delete(ctx context.Context, id string) error

	/*
		Related returns other characters sharing at least one group with
		the given character, ordered by name.
	*/
	Related(ctx context.Context, id string, limit int) ([]*Character, error)

	/*
		SetPrimaryImage stores the blob key of the portrait.

		Returns:
		  - string: The previous key ("" if none)
		  - error: apperr.NotFound if missing
	*/
	SetPrimaryImage(ctx context.Context, id, key string) (string, error)
}
