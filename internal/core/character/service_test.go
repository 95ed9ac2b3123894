// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character_test

import (
	"context"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/blob"
	"github.com/taibuivan/onnanoko/internal/platform/media"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/pointer"
	"github.com/taibuivan/onnanoko/pkg/slug"
)

// # In-memory Repository

type memoryRepository struct {
	characters map[string]*character.Character
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{characters: make(map[string]*character.Character)}
}

func clone(source *character.Character) *character.Character {
	copied := *source
	copied.GroupIDs = append([]string(nil), source.GroupIDs...)
	copied.TagIDs = append([]string(nil), source.TagIDs...)
	return &copied
}

func (repo *memoryRepository) sorted() []*character.Character {
	result := make([]*character.Character, 0, len(repo.characters))
	for _, stored := range repo.characters {
		result = append(result, clone(stored))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (repo *memoryRepository) List(_ context.Context, filter character.Filter, limit, offset int) ([]*character.Character, int, error) {
	var matched []*character.Character
	for _, stored := range repo.sorted() {
		if strings.Contains(strings.ToLower(stored.Name), strings.ToLower(filter.Search)) {
			matched = append(matched, stored)
		}
	}
	total := len(matched)
	if offset >= total {
		return []*character.Character{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*character.Character, error) {
	if stored, ok := repo.characters[id]; ok {
		return clone(stored), nil
	}
	return nil, apperr.NotFound("Character")
}

func (repo *memoryRepository) FindBySlug(_ context.Context, value string) (*character.Character, error) {
	for _, stored := range repo.characters {
		if stored.Slug == value {
			return clone(stored), nil
		}
	}
	return nil, apperr.NotFound("Character")
}

func (repo *memoryRepository) FindByIDs(_ context.Context, ids []string) ([]*character.Character, error) {
	var found []*character.Character
	for _, id := range ids {
		if stored, ok := repo.characters[id]; ok {
			found = append(found, clone(stored))
		}
	}
	return found, nil
}

func (repo *memoryRepository) NameTaken(_ context.Context, name string, seriesID *string, excludeID string) (bool, error) {
	for _, stored := range repo.characters {
		if seriesID == nil || stored.SeriesID == nil {
			continue
		}
		if stored.Name == name && *stored.SeriesID == *seriesID && stored.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) SlugTaken(_ context.Context, value string) (bool, error) {
	for _, stored := range repo.characters {
		if stored.Slug == value {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryRepository) Create(_ context.Context, created *character.Character) error {
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	repo.characters[created.ID] = clone(created)
	return nil
}

func (repo *memoryRepository) Update(_ context.Context, updated *character.Character) error {
	stored, ok := repo.characters[updated.ID]
	if !ok {
		return apperr.NotFound("Character")
	}
	next := clone(updated)
	next.Slug = stored.Slug
	next.UpdatedAt = time.Now()
	repo.characters[updated.ID] = next
	return nil
}

func (repo *memoryRepository) Delete(_ context.Context, id string) error {
	if _, ok := repo.characters[id]; !ok {
		return apperr.NotFound("Character")
	}
	delete(repo.characters, id)
	return nil
}

func (repo *memoryRepository) Related(_ context.Context, id string, limit int) ([]*character.Character, error) {
	self := repo.characters[id]
	var related []*character.Character
	for _, other := range repo.sorted() {
		if other.ID == id || len(related) == limit {
			continue
		}
		for _, groupID := range other.GroupIDs {
			if contains(self.GroupIDs, groupID) {
				related = append(related, other)
				break
			}
		}
	}
	return related, nil
}

func (repo *memoryRepository) SetPrimaryImage(_ context.Context, id, key string) (string, error) {
	stored, ok := repo.characters[id]
	if !ok {
		return "", apperr.NotFound("Character")
	}
	previous := stored.PrimaryImage
	stored.PrimaryImage = key
	return previous, nil
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

// # Fake Taxonomy

// knownTerms accepts the ids registered per kind.
type knownTerms map[taxonomy.Kind][]string

func (known knownTerms) Resolve(_ context.Context, kind taxonomy.Kind, field string, ids []string) ([]*taxonomy.Term, error) {
	var terms []*taxonomy.Term
	for _, id := range ids {
		if !contains(known[kind], id) {
			return nil, apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: "unknown id " + id})
		}
		terms = append(terms, &taxonomy.Term{ID: id, Kind: kind})
	}
	return terms, nil
}

// # Fixtures

const (
	seriesA = "0191d6a0-0000-7000-8000-00000000000a"
	seriesB = "0191d6a0-0000-7000-8000-00000000000b"
	groupID = "0191d6a0-0000-7000-8000-0000000000c1"
	tagID   = "0191d6a0-0000-7000-8000-0000000000d1"
	unknown = "0191d6a0-0000-7000-8000-0000000000ff"
)

var (
	staff  = access.Actor{UserID: "staff-1", Role: sec.RoleStaff}
	member = access.Actor{UserID: "member-1", Role: sec.RoleMember}
)

type fixture struct {
	service *character.Service
	repo    *memoryRepository
	blobs   *blob.MemoryStore
}

func newFixture() fixture {
	repo := newMemoryRepository()
	blobs := blob.NewMemoryStore()
	terms := knownTerms{
		taxonomy.KindSeries: {seriesA, seriesB},
		taxonomy.KindGroup:  {groupID},
		taxonomy.KindTag:    {tagID},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{service: character.NewService(repo, terms, blobs, logger), repo: repo, blobs: blobs}
}

func validInput(name string) character.Input {
	return character.Input{Name: name, Age: pointer.To(17), SeriesID: pointer.To(seriesA)}
}

// fieldOf returns the first field named in a validation error.
func fieldOf(t *testing.T, err error) string {
	t.Helper()
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, apperr.CodeValidation, appErr.Code)
	require.NotEmpty(t, appErr.Details)
	return appErr.Details[0].Field
}

// # Tests

/*
TestService_AgeBirthDateExclusive accepts exactly one of age and birth date.
*/
func TestService_AgeBirthDateExclusive(t *testing.T) {
	birthDate := character.NewDate(2001, time.March, 3)

	tests := []struct {
		name      string
		age       *int
		birthDate *character.Date
		wantErr   bool
	}{
		{"age_only", pointer.To(16), nil, false},
		{"birth_date_only", nil, &birthDate, false},
		{"both", pointer.To(16), &birthDate, true},
		{"neither", nil, nil, true},
		{"negative_age", pointer.To(-1), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newFixture()

			created, err := fixture.service.Create(context.Background(), staff, character.Input{
				Name:      "Kaguya Shinomiya",
				Age:       tt.age,
				BirthDate: tt.birthDate,
			})
			if tt.wantErr {
				assert.Equal(t, character.FieldAge, fieldOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.True(t, created.Is2D)
		})
	}
}

/*
TestService_SwitchAgeToBirthDate requires clearing age explicitly.
*/
func TestService_SwitchAgeToBirthDate(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	created, err := fixture.service.Create(ctx, staff, validInput("Chika Fujiwara"))
	require.NoError(t, err)

	var patch character.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"birth_date":"2002-03-03"}`), &patch))
	_, err = fixture.service.Update(ctx, staff, created.ID, patch)
	assert.Equal(t, character.FieldAge, fieldOf(t, err))

	patch = character.Patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"birth_date":"2002-03-03","age":null}`), &patch))
	updated, err := fixture.service.Update(ctx, staff, created.ID, patch)
	require.NoError(t, err)
	assert.Nil(t, updated.Age)
	require.NotNil(t, updated.BirthDate)
	assert.Equal(t, "2002-03-03", updated.BirthDate.Format("2006-01-02"))

	// Untouched fields survive a partial update
	require.NotNil(t, updated.SeriesID)
	assert.Equal(t, seriesA, *updated.SeriesID)
}

/*
TestService_SlugDerivedOnce checks that the slug follows the name at creation
and survives renames.
*/
func TestService_SlugDerivedOnce(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	created, err := fixture.service.Create(ctx, staff, validInput("Ai Hoshino"))
	require.NoError(t, err)
	assert.Equal(t, slug.From("Ai Hoshino"), created.Slug)

	updated, err := fixture.service.Update(ctx, staff, created.ID, character.Patch{Name: character.Set(pointer.To("Ai Hoshino (Idol)"))})
	require.NoError(t, err)
	assert.Equal(t, "Ai Hoshino (Idol)", updated.Name)
	assert.Equal(t, created.Slug, updated.Slug)

	found, err := fixture.service.Get(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	// A CJK-only name folds to nothing and falls back to the id
	cjk, err := fixture.service.Create(ctx, staff, validInput("星野アイ"))
	require.NoError(t, err)
	assert.Equal(t, cjk.ID, cjk.Slug)
}

/*
TestService_SlugLength bounds supplied slugs and caps derived ones at the
column width.
*/
func TestService_SlugLength(t *testing.T) {
	tests := []struct {
		name     string
		input    character.Input
		wantSlug string
		wantErr  bool
	}{
		{"supplied_too_long", character.Input{Name: "Ruby", Age: pointer.To(15), Slug: strings.Repeat("r", 200)}, "", true},
		{"supplied_at_limit", character.Input{Name: "Ruby", Age: pointer.To(15), Slug: strings.Repeat("r", slug.MaxLength)}, strings.Repeat("r", slug.MaxLength), false},
		{"derived_capped", character.Input{Name: strings.Repeat("㎒", 100), Age: pointer.To(15)}, strings.Repeat("mhz", 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := newFixture().service.Create(context.Background(), staff, tt.input)
			if tt.wantErr {
				assert.Equal(t, character.FieldSlug, fieldOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, created.Slug)
		})
	}
}

/*
TestService_NameUniquePerSeries enforces (name, series) uniqueness.
*/
func TestService_NameUniquePerSeries(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	_, err := fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15), SeriesID: pointer.To(seriesA), Slug: "yuki-a"})
	require.NoError(t, err)

	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15), SeriesID: pointer.To(seriesA), Slug: "yuki-a2"})
	assert.Equal(t, character.FieldName, fieldOf(t, err))

	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15), SeriesID: pointer.To(seriesB), Slug: "yuki-b"})
	assert.NoError(t, err)

	// Characters without a series never clash by name
	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15), Slug: "yuki-none"})
	require.NoError(t, err)
	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15), Slug: "yuki-none-2"})
	assert.NoError(t, err)

	// Without a supplied slug the derived one still collides
	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15)})
	require.NoError(t, err)
	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yuki", Age: pointer.To(15)})
	assert.Equal(t, apperr.CodeDuplicateSlug, apperr.As(err).Code)

	// A fresh name with a used slug collides on the slug instead
	_, err = fixture.service.Create(ctx, staff, character.Input{Name: "Yukiko", Age: pointer.To(15), SeriesID: pointer.To(seriesB), Slug: "yuki-a"})
	assert.Equal(t, apperr.CodeDuplicateSlug, apperr.As(err).Code)
}

/*
TestService_References validates series, group and tag ids.
*/
func TestService_References(t *testing.T) {
	tests := []struct {
		name      string
		input     character.Input
		wantField string
	}{
		{"unknown_series", character.Input{Name: "A", Age: pointer.To(1), SeriesID: pointer.To(unknown)}, character.FieldSeriesID},
		{"unknown_group", character.Input{Name: "B", Age: pointer.To(1), GroupIDs: []string{groupID, unknown}}, character.FieldGroupIDs},
		{"unknown_tag", character.Input{Name: "C", Age: pointer.To(1), TagIDs: []string{unknown}}, character.FieldTagIDs},
		{"negative_height", character.Input{Name: "D", Age: pointer.To(1), HeightCm: pointer.To(-150.0)}, "height_cm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newFixture().service.Create(context.Background(), staff, tt.input)
			assert.Equal(t, tt.wantField, fieldOf(t, err))
		})
	}
}

/*
TestService_StaffOnly rejects every mutation from a member.
*/
func TestService_StaffOnly(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	_, err := fixture.service.Create(ctx, member, validInput("Miyuki Shirogane"))
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)

	created, err := fixture.service.Create(ctx, staff, validInput("Miyuki Shirogane"))
	require.NoError(t, err)

	_, err = fixture.service.Update(ctx, member, created.ID, character.Patch{Name: character.Set(pointer.To("x"))})
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)

	err = fixture.service.Delete(ctx, member, created.ID)
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)

	stored, err := fixture.service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Miyuki Shirogane", stored.Name)
}

/*
TestService_PrimaryImage stores the portrait and replaces the previous blob.
*/
func TestService_PrimaryImage(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	created, err := fixture.service.Create(ctx, staff, validInput("Kana Arima"))
	require.NoError(t, err)

	portrait, err := media.Placeholder(300, 400, color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255})
	require.NoError(t, err)

	first, err := fixture.service.SetPrimaryImage(ctx, staff, created.ID, portrait)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.PrimaryImage, "characters/"))
	assert.Equal(t, "/media/"+first.PrimaryImage, first.PrimaryImageURL)

	second, err := fixture.service.SetPrimaryImage(ctx, staff, created.ID, portrait)
	require.NoError(t, err)
	assert.Equal(t, []string{second.PrimaryImage}, fixture.blobs.Keys())

	_, err = fixture.service.SetPrimaryImage(ctx, staff, created.ID, []byte("plain text"))
	assert.Equal(t, apperr.CodeUnsupportedMediaType, apperr.As(err).Code)

	_, err = fixture.service.SetPrimaryImage(ctx, member, created.ID, portrait)
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)

	require.NoError(t, fixture.service.Delete(ctx, staff, created.ID))
	assert.Empty(t, fixture.blobs.Keys())
}

/*
TestService_RelatedAndResolve covers the group-based related list and the
reference resolution used by images.
*/
func TestService_RelatedAndResolve(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	inGroup := func(name string) character.Input {
		input := validInput(name)
		input.GroupIDs = []string{groupID}
		return input
	}

	kaguya, err := fixture.service.Create(ctx, staff, inGroup("Kaguya"))
	require.NoError(t, err)
	chika, err := fixture.service.Create(ctx, staff, inGroup("Chika"))
	require.NoError(t, err)
	loner, err := fixture.service.Create(ctx, staff, validInput("Loner"))
	require.NoError(t, err)

	related, err := fixture.service.Related(ctx, kaguya.Slug)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, chika.ID, related[0].ID)

	none, err := fixture.service.Related(ctx, loner.Slug)
	require.NoError(t, err)
	assert.Empty(t, none)

	refs, err := fixture.service.Resolve(ctx, "character_ids", []string{kaguya.ID, kaguya.ID, chika.ID})
	require.NoError(t, err)
	assert.Len(t, refs, 2)

	_, err = fixture.service.Resolve(ctx, "character_ids", []string{unknown})
	assert.Equal(t, "character_ids", fieldOf(t, err))

	_, err = fixture.service.Resolve(ctx, "character_ids", []string{"not-a-uuid"})
	assert.Equal(t, "character_ids", fieldOf(t, err))
}

/*
TestService_List pages characters ordered by name.
*/
func TestService_List(t *testing.T) {
	ctx := context.Background()
	fixture := newFixture()

	for _, name := range []string{"Miko", "Kaguya", "Chika"} {
		_, err := fixture.service.Create(ctx, staff, validInput(name))
		require.NoError(t, err)
	}

	page, err := fixture.service.List(ctx, character.Filter{}, pagination.ForPage(1, 2))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Chika", page.Items[0].Name)
	assert.Equal(t, 3, page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	_, err = fixture.service.List(ctx, character.Filter{GroupIDs: []string{"nope"}}, pagination.ForPage(1, 20))
	assert.Equal(t, apperr.CodeValidation, apperr.As(err).Code)
}

/*
TestPatch_DistinguishesNull separates absent fields from explicit nulls.
*/
func TestPatch_DistinguishesNull(t *testing.T) {
	var patch character.Patch
	require.NoError(t, json.Unmarshal([]byte(`{"series_id":null,"tag_ids":["a"]}`), &patch))

	assert.False(t, patch.Name.Present)
	assert.True(t, patch.SeriesID.Present)
	assert.Nil(t, patch.SeriesID.Value)
	require.True(t, patch.TagIDs.Present)
	assert.Equal(t, []string{"a"}, *patch.TagIDs.Value)
}
