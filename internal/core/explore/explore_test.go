// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/explore"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// # Fakes

type terms map[string]*taxonomy.Term

func (known terms) GetBySlug(_ context.Context, kind taxonomy.Kind, slug string) (*taxonomy.Term, error) {
	if term, ok := known[slug]; ok && term.Kind == kind {
		return term, nil
	}
	return nil, apperr.NotFound(kind.Label())
}

type recordingCharacters struct {
	filter character.Filter
	params pagination.Params
}

func (recorder *recordingCharacters) List(_ context.Context, filter character.Filter, params pagination.Params) (pagination.Page[*character.Character], error) {
	recorder.filter, recorder.params = filter, params
	return pagination.NewPage([]*character.Character{{ID: "c1", Name: "Kaguya"}}, params, 1), nil
}

type recordingImages struct {
	actor  access.Actor
	filter image.Filter
	params pagination.Params
}

func (recorder *recordingImages) List(_ context.Context, actor access.Actor, filter image.Filter, params pagination.Params) (pagination.Page[*image.Image], error) {
	recorder.actor, recorder.filter, recorder.params = actor, filter, params
	return pagination.NewPage([]*image.Image(nil), params, 0), nil
}

var known = terms{
	"kaguya-sama": {ID: "s1", Kind: taxonomy.KindSeries, Name: "Kaguya-sama", Slug: "kaguya-sama"},
	"council":     {ID: "g1", Kind: taxonomy.KindGroup, Name: "Council", Slug: "council"},
	"glasses":     {ID: "t1", Kind: taxonomy.KindTag, Name: "Glasses", Slug: "glasses"},
}

// # Tests

/*
TestExplore_Scopes checks that each kind selects characters and images the right way.
*/
func TestExplore_Scopes(t *testing.T) {
	tests := []struct {
		name           string
		kind           taxonomy.Kind
		slug           string
		wantCharacters character.Filter
		wantImages     image.Filter
	}{
		{"series", taxonomy.KindSeries, "kaguya-sama", character.Filter{SeriesID: "s1"}, image.Filter{SeriesID: "s1"}},
		{"group", taxonomy.KindGroup, "council", character.Filter{GroupIDs: []string{"g1"}}, image.Filter{GroupID: "g1"}},
		{"tag", taxonomy.KindTag, "glasses", character.Filter{TagIDs: []string{"t1"}}, image.Filter{TagIDs: []string{"t1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			characters, images := &recordingCharacters{}, &recordingImages{}
			service := explore.NewService(known, characters, images)

			result, err := service.Explore(context.Background(), tt.kind, tt.slug, pagination.ForPage(2, 20), pagination.ForPage(1, 24))
			require.NoError(t, err)

			assert.Equal(t, tt.slug, result.Term.Slug)
			assert.Equal(t, tt.wantCharacters, characters.filter)
			assert.Equal(t, tt.wantImages, images.filter)
			assert.False(t, images.actor.Authenticated())
			assert.Equal(t, 2, characters.params.Page)
			assert.Len(t, result.Characters.Items, 1)
			assert.NotNil(t, result.Images.Items)
		})
	}
}

/*
TestExplore_UnknownSlug reports not found, including a slug of another kind.
*/
func TestExplore_UnknownSlug(t *testing.T) {
	service := explore.NewService(known, &recordingCharacters{}, &recordingImages{})

	_, err := service.Explore(context.Background(), taxonomy.KindTag, "council", pagination.ForPage(1, 20), pagination.ForPage(1, 24))
	assert.Equal(t, apperr.CodeNotFound, apperr.As(err).Code)
}

/*
TestHandler_Explore drives the route through chi.
*/
func TestHandler_Explore(t *testing.T) {
	characters, images := &recordingCharacters{}, &recordingImages{}
	router := explore.NewHandler(explore.NewService(known, characters, images)).Routes()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"plural_kind", "/groups/council?characters_page=3&images_page=2", http.StatusOK},
		{"singular_kind", "/tag/glasses", http.StatusOK},
		{"unknown_kind", "/widgets/council", http.StatusNotFound},
		{"unknown_slug", "/series/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/groups/council?characters_page=3&images_page=2", nil))

	var body struct {
		Data struct {
			Kind       string `json:"kind"`
			Characters struct {
				Meta pagination.Meta `json:"meta"`
			} `json:"characters"`
			Images struct {
				Meta pagination.Meta `json:"meta"`
			} `json:"images"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "group", body.Data.Kind)
	assert.Equal(t, 3, body.Data.Characters.Meta.Page)
	assert.Equal(t, 20, body.Data.Characters.Meta.Limit)
	assert.Equal(t, 2, body.Data.Images.Meta.Page)
	assert.Equal(t, 24, body.Data.Images.Meta.Limit)
}
