// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/pointer"
	"github.com/taibuivan/onnanoko/pkg/slug"
)

// # In-memory Repository

type memoryRepository struct {
	terms map[string]*taxonomy.Term
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{terms: make(map[string]*taxonomy.Term)}
}

func (repo *memoryRepository) ofKind(kind taxonomy.Kind) []*taxonomy.Term {
	var result []*taxonomy.Term
	for _, term := range repo.terms {
		if term.Kind == kind {
			result = append(result, term)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (repo *memoryRepository) List(_ context.Context, kind taxonomy.Kind, search string, limit, offset int) ([]*taxonomy.Term, int, error) {
	var matched []*taxonomy.Term
	for _, term := range repo.ofKind(kind) {
		if strings.Contains(strings.ToLower(term.Name), strings.ToLower(search)) {
			matched = append(matched, term)
		}
	}
	total := len(matched)
	if offset >= total {
		return []*taxonomy.Term{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (repo *memoryRepository) FindByID(_ context.Context, kind taxonomy.Kind, id string) (*taxonomy.Term, error) {
	if term, ok := repo.terms[id]; ok && term.Kind == kind {
		copied := *term
		return &copied, nil
	}
	return nil, apperr.NotFound(kind.Label())
}

func (repo *memoryRepository) FindBySlug(_ context.Context, kind taxonomy.Kind, value string) (*taxonomy.Term, error) {
	for _, term := range repo.ofKind(kind) {
		if term.Slug == value {
			return term, nil
		}
	}
	return nil, apperr.NotFound(kind.Label())
}

func (repo *memoryRepository) FindByIDs(_ context.Context, kind taxonomy.Kind, ids []string) ([]*taxonomy.Term, error) {
	var found []*taxonomy.Term
	for _, id := range ids {
		if term, ok := repo.terms[id]; ok && term.Kind == kind {
			found = append(found, term)
		}
	}
	return found, nil
}

func (repo *memoryRepository) NameTaken(_ context.Context, kind taxonomy.Kind, name, excludeID string) (bool, error) {
	for _, term := range repo.ofKind(kind) {
		if term.Name == name && term.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) SlugTaken(_ context.Context, kind taxonomy.Kind, value string) (bool, error) {
	for _, term := range repo.ofKind(kind) {
		if term.Slug == value {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) Create(_ context.Context, term *taxonomy.Term) error {
	term.CreatedAt = time.Now()
	copied := *term
	repo.terms[term.ID] = &copied
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, term *taxonomy.Term) error {
	if _, ok := repo.terms[term.ID]; !ok {
		return apperr.NotFound(term.Kind.Label())
	}
	copied := *term
	repo.terms[term.ID] = &copied
	return nil
}

func (repo *memoryRepository) Delete(_ context.Context, kind taxonomy.Kind, id string) error {
	if term, ok := repo.terms[id]; !ok || term.Kind != kind {
		return apperr.NotFound(kind.Label())
	}
	delete(repo.terms, id)
	return nil
}

// # Fixtures

var (
	staff     = access.Actor{UserID: "staff-1", Role: sec.RoleStaff}
	member    = access.Actor{UserID: "member-1", Role: sec.RoleMember}
	anonymous = access.Anonymous()
)

func newService() (*taxonomy.Service, *memoryRepository) {
	repo := newMemoryRepository()
	return taxonomy.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

// # Tests

/*
TestService_Create covers slug derivation and the creation rules of every kind.
*/
func TestService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     taxonomy.Kind
		actor    access.Actor
		input    taxonomy.CreateInput
		wantSlug string
		wantCode string
	}{
		{"derived_slug", taxonomy.KindSeries, staff, taxonomy.CreateInput{Name: "  Kaguya-sama: Love Is War "}, "kaguya-sama-love-is-war", ""},
		{"explicit_slug", taxonomy.KindGroup, staff, taxonomy.CreateInput{Name: "Student Council", Slug: "council"}, "council", ""},
		{"invalid_slug", taxonomy.KindGroup, staff, taxonomy.CreateInput{Name: "Idols", Slug: "Not A Slug"}, "", apperr.CodeValidation},
		{"slug_too_long", taxonomy.KindGroup, staff, taxonomy.CreateInput{Name: "Idols", Slug: strings.Repeat("a", 200)}, "", apperr.CodeValidation},
		{"slug_at_limit", taxonomy.KindGroup, staff, taxonomy.CreateInput{Name: "Idols", Slug: strings.Repeat("a", slug.MaxLength)}, strings.Repeat("a", slug.MaxLength), ""},
		{"derived_slug_capped", taxonomy.KindTag, staff, taxonomy.CreateInput{Name: strings.Repeat("㎒", 100)}, strings.Repeat("mhz", 40), ""},
		{"missing_name", taxonomy.KindTag, staff, taxonomy.CreateInput{Name: "   "}, "", apperr.CodeValidation},
		{"name_too_long", taxonomy.KindTag, staff, taxonomy.CreateInput{Name: strings.Repeat("x", 101)}, "", apperr.CodeValidation},
		{"member_creates", taxonomy.KindTag, member, taxonomy.CreateInput{Name: "Twintails"}, "twintails", ""},
		{"anonymous_forbidden", taxonomy.KindTag, anonymous, taxonomy.CreateInput{Name: "Twintails"}, "", apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newService()

			term, err := service.Create(ctx, tt.actor, tt.kind, tt.input)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperr.As(err).Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, term.Slug)
			assert.Equal(t, strings.TrimSpace(tt.input.Name), term.Name)
			assert.Equal(t, tt.kind, term.Kind)
		})
	}
}

/*
TestService_SlugTooLong reports an oversized slug on the slug field.
*/
func TestService_SlugTooLong(t *testing.T) {
	service, _ := newService()

	_, err := service.Create(context.Background(), staff, taxonomy.KindSeries, taxonomy.CreateInput{
		Name: "Love Live",
		Slug: strings.Repeat("lovelive", 20),
	})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, taxonomy.FieldSlug, appErr.Details[0].Field)
}

/*
TestService_Duplicates reports DUPLICATE_NAME before DUPLICATE_SLUG.
*/
func TestService_Duplicates(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	_, err := service.Create(ctx, staff, taxonomy.KindTag, taxonomy.CreateInput{Name: "Glasses"})
	require.NoError(t, err)

	_, err = service.Create(ctx, staff, taxonomy.KindTag, taxonomy.CreateInput{Name: "Glasses"})
	assert.Equal(t, apperr.CodeDuplicateName, apperr.As(err).Code)

	_, err = service.Create(ctx, staff, taxonomy.KindTag, taxonomy.CreateInput{Name: "glasses!"})
	assert.Equal(t, apperr.CodeDuplicateSlug, apperr.As(err).Code)

	// The same name is free in another vocabulary
	_, err = service.Create(ctx, staff, taxonomy.KindGroup, taxonomy.CreateInput{Name: "Glasses"})
	assert.NoError(t, err)
}

/*
TestService_UpdateKeepsSlug verifies that renames never regenerate the slug.
*/
func TestService_UpdateKeepsSlug(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	term, err := service.Create(ctx, staff, taxonomy.KindSeries, taxonomy.CreateInput{Name: "Oshi no Ko"})
	require.NoError(t, err)
	assert.Equal(t, slug.From("Oshi no Ko"), term.Slug)

	updated, err := service.Update(ctx, staff, taxonomy.KindSeries, term.ID, taxonomy.UpdateInput{
		Name:        pointer.To("[Oshi no Ko]"),
		Description: pointer.To("<b>Idols</b> and mysteries"),
	})
	require.NoError(t, err)
	assert.Equal(t, "[Oshi no Ko]", updated.Name)
	assert.Equal(t, "oshi-no-ko", updated.Slug)
	assert.Equal(t, "Idols and mysteries", updated.Description)

	_, err = service.Update(ctx, anonymous, taxonomy.KindSeries, term.ID, taxonomy.UpdateInput{Name: pointer.To("x")})
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)

	// Any signed-in user may rename
	renamed, err := service.Update(ctx, member, taxonomy.KindSeries, term.ID, taxonomy.UpdateInput{Name: pointer.To("Oshi no Ko")})
	require.NoError(t, err)
	assert.Equal(t, "Oshi no Ko", renamed.Name)
}

/*
TestService_UpdateDuplicateName rejects a rename onto an existing name.
*/
func TestService_UpdateDuplicateName(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	first, err := service.Create(ctx, staff, taxonomy.KindGroup, taxonomy.CreateInput{Name: "Idols"})
	require.NoError(t, err)
	_, err = service.Create(ctx, staff, taxonomy.KindGroup, taxonomy.CreateInput{Name: "Band"})
	require.NoError(t, err)

	_, err = service.Update(ctx, staff, taxonomy.KindGroup, first.ID, taxonomy.UpdateInput{Name: pointer.To("Band")})
	assert.Equal(t, apperr.CodeDuplicateName, apperr.As(err).Code)

	// Renaming to its own name is not a clash
	_, err = service.Update(ctx, staff, taxonomy.KindGroup, first.ID, taxonomy.UpdateInput{Name: pointer.To("Idols")})
	assert.NoError(t, err)
}

/*
TestService_TagsIgnoreDescription drops descriptions for tags.
*/
func TestService_TagsIgnoreDescription(t *testing.T) {
	service, _ := newService()

	term, err := service.Create(context.Background(), staff, taxonomy.KindTag, taxonomy.CreateInput{Name: "Maid", Description: "ignored"})
	require.NoError(t, err)
	assert.Empty(t, term.Description)
}

/*
TestService_DeleteAndGet covers deletion and lookups of unknown ids.
*/
func TestService_DeleteAndGet(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	term, err := service.Create(ctx, staff, taxonomy.KindTag, taxonomy.CreateInput{Name: "Ponytail"})
	require.NoError(t, err)

	assert.Equal(t, apperr.CodeForbidden, apperr.As(service.Delete(ctx, anonymous, taxonomy.KindTag, term.ID)).Code)
	require.NoError(t, service.Delete(ctx, member, taxonomy.KindTag, term.ID))

	_, err = service.Get(ctx, taxonomy.KindTag, term.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.As(err).Code)

	_, err = service.Get(ctx, taxonomy.KindTag, "not-a-uuid")
	assert.Equal(t, apperr.CodeNotFound, apperr.As(err).Code)

	assert.Equal(t, apperr.CodeNotFound, apperr.As(service.Delete(ctx, staff, taxonomy.KindTag, term.ID)).Code)
}

/*
TestService_ListAndResolve pages a search and validates referenced ids.
*/
func TestService_ListAndResolve(t *testing.T) {
	ctx := context.Background()
	service, _ := newService()

	var ids []string
	for _, name := range []string{"Blonde", "Black hair", "Blue eyes", "Red eyes"} {
		term, err := service.Create(ctx, staff, taxonomy.KindTag, taxonomy.CreateInput{Name: name})
		require.NoError(t, err)
		ids = append(ids, term.ID)
	}

	page, err := service.List(ctx, taxonomy.KindTag, "BL", pagination.ForPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Black hair", page.Items[0].Name)

	resolved, err := service.Resolve(ctx, taxonomy.KindTag, "tag_ids", []string{ids[0], ids[1], ids[0]})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)

	_, err = service.Resolve(ctx, taxonomy.KindTag, "tag_ids", []string{ids[0], "0191d6a0-0000-7000-8000-000000000000"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.As(err).Code)
	assert.Equal(t, "tag_ids", apperr.As(err).Details[0].Field)

	_, err = service.Resolve(ctx, taxonomy.KindSeries, "series_id", []string{ids[0]})
	assert.Equal(t, apperr.CodeValidation, apperr.As(err).Code)
}
