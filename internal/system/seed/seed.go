// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package seed loads the demo dataset used in development.

Every record is looked up by name before it is created, so [Loader.Run] can
be repeated safely.
*/
package seed

import (
	"context"
	"image/color"
	"log/slog"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/media"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/users/auth"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/pointer"
	"github.com/taibuivan/onnanoko/pkg/slug"
)

// Demo account.
const (
	DemoUsername = "demo"
	DemoEmail    = "demo@onnanoko.app"
)

// Sample image canvas.
const (
	SampleWidth  = 400
	SampleHeight = 600
)

// # Dataset

// Character is one sample character with its placeholder colours.
type Character struct {
	Name        string
	Series      string
	Description string
	Age         int
	Groups      []string
	Tags        []string

	HeightCm, WeightKg      float64
	BustCm, WaistCm, HipsCm float64
	Top, Bottom             color.NRGBA
}

var (
	Series = []string{"Idolmaster", "Love Live"}
	Groups = []string{"765PRO", "Aqours"}
	Tags   = []string{"idol", "cute", "school"}

	// ImageTag is linked to every sample image.
	ImageTag = "idol"

	Characters = []Character{
		{
			Name: "Haruka Amami", Series: "Idolmaster", Description: "Cheerful idol from 765PRO.", Age: 17,
			Groups: []string{"765PRO"}, Tags: []string{"idol", "cute"},
			HeightCm: 158, WeightKg: 46, BustCm: 83, WaistCm: 56, HipsCm: 80,
			Top: color.NRGBA{R: 255, G: 183, B: 197, A: 255}, Bottom: color.NRGBA{R: 214, G: 64, B: 96, A: 255},
		},
		{
			Name: "Chika Takami", Series: "Love Live", Description: "Energetic leader of Aqours.", Age: 16,
			Groups: []string{"Aqours"}, Tags: []string{"idol", "school"},
			HeightCm: 157, WeightKg: 45, BustCm: 82, WaistCm: 59, HipsCm: 83,
			Top: color.NRGBA{R: 255, G: 214, B: 153, A: 255}, Bottom: color.NRGBA{R: 240, G: 120, B: 40, A: 255},
		},
	}
)

// TermIDs maps a kind and a term name to the stored id.
type TermIDs map[taxonomy.Kind]map[string]string

// Input converts a sample into a character create input.
func (sample Character) Input(ids TermIDs) character.Input {
	input := character.Input{
		Name:        sample.Name,
		Age:         pointer.To(sample.Age),
		HeightCm:    pointer.To(sample.HeightCm),
		WeightKg:    pointer.To(sample.WeightKg),
		BustCm:      pointer.To(sample.BustCm),
		WaistCm:     pointer.To(sample.WaistCm),
		HipsCm:      pointer.To(sample.HipsCm),
		Is2D:        pointer.To(true),
		Description: sample.Description,
	}
	if seriesID, ok := ids[taxonomy.KindSeries][sample.Series]; ok {
		input.SeriesID = pointer.To(seriesID)
	}
	for _, group := range sample.Groups {
		input.GroupIDs = append(input.GroupIDs, ids[taxonomy.KindGroup][group])
	}
	for _, tag := range sample.Tags {
		input.TagIDs = append(input.TagIDs, ids[taxonomy.KindTag][tag])
	}
	return input
}

// # Collaborators

// Users finds accounts by login. Satisfied by auth.UserRepository.
type Users interface {
	FindByLogin(ctx context.Context, login string) (*auth.User, error)
}

// Identities creates accounts. Satisfied by *auth.Service.
type Identities interface {
	CreateUser(ctx context.Context, input auth.NewUser) (*auth.User, error)
}

// Terms finds and creates taxonomy terms. Satisfied by *taxonomy.Service.
type Terms interface {
	GetBySlug(ctx context.Context, kind taxonomy.Kind, termSlug string) (*taxonomy.Term, error)
	Create(ctx context.Context, actor access.Actor, kind taxonomy.Kind, input taxonomy.CreateInput) (*taxonomy.Term, error)
}

// CharacterService finds and creates characters. Satisfied by *character.Service.
type CharacterService interface {
	Get(ctx context.Context, characterSlug string) (*character.Character, error)
	Create(ctx context.Context, actor access.Actor, input character.Input) (*character.Character, error)
}

// Images lists and uploads images. Satisfied by *image.Service.
type Images interface {
	List(ctx context.Context, actor access.Actor, filter image.Filter, params pagination.Params) (pagination.Page[*image.Image], error)
	Upload(ctx context.Context, actor access.Actor, file image.File, metadata image.Metadata) (*image.Image, error)
}

// # Loader

// Loader writes the dataset through the domain services.
type Loader struct {
	users      Users
	identities Identities
	terms      Terms
	characters CharacterService
	images     Images
	logger     *slog.Logger
}

// NewLoader constructs a [Loader].
func NewLoader(users Users, identities Identities, terms Terms, characters CharacterService, images Images, logger *slog.Logger) *Loader {
	return &Loader{
		users:      users,
		identities: identities,
		terms:      terms,
		characters: characters,
		images:     images,
		logger:     logger,
	}
}

/*
Run loads the dataset.

Description: The demo account is created with the admin role and the given
password. Terms, characters and one placeholder image per character follow,
each created only when missing.
*/
func (loader *Loader) Run(ctx context.Context, password string) error {
	staff, err := loader.demoUser(ctx, password)
	if err != nil {
		return err
	}
	actor := access.Actor{UserID: staff.ID, Username: staff.Username, Role: staff.Role}

	ids := TermIDs{}
	for _, vocabulary := range []struct {
		kind  taxonomy.Kind
		names []string
	}{
		{taxonomy.KindSeries, Series},
		{taxonomy.KindGroup, Groups},
		{taxonomy.KindTag, Tags},
	} {
		ids[vocabulary.kind] = map[string]string{}
		for _, name := range vocabulary.names {
			term, err := loader.term(ctx, actor, vocabulary.kind, name)
			if err != nil {
				return err
			}
			ids[vocabulary.kind][name] = term.ID
		}
	}

	for _, sample := range Characters {
		created, err := loader.character(ctx, actor, sample, ids)
		if err != nil {
			return err
		}
		if err := loader.sampleImage(ctx, actor, created, sample, ids[taxonomy.KindTag][ImageTag]); err != nil {
			return err
		}
	}

	loader.logger.Info("sample_data_loaded", slog.String("username", staff.Username))
	return nil
}

func (loader *Loader) demoUser(ctx context.Context, password string) (*auth.User, error) {
	user, err := loader.users.FindByLogin(ctx, DemoUsername)
	if err == nil || !apperr.HasCode(err, apperr.CodeNotFound) {
		return user, err
	}

	return loader.identities.CreateUser(ctx, auth.NewUser{
		Username: DemoUsername,
		Email:    DemoEmail,
		Password: password,
		Role:     sec.RoleAdmin,
	})
}

func (loader *Loader) term(ctx context.Context, actor access.Actor, kind taxonomy.Kind, name string) (*taxonomy.Term, error) {
	term, err := loader.terms.GetBySlug(ctx, kind, slug.From(name))
	if err == nil || !apperr.HasCode(err, apperr.CodeNotFound) {
		return term, err
	}
	return loader.terms.Create(ctx, actor, kind, taxonomy.CreateInput{Name: name})
}

func (loader *Loader) character(ctx context.Context, actor access.Actor, sample Character, ids TermIDs) (*character.Character, error) {
	existing, err := loader.characters.Get(ctx, slug.From(sample.Name))
	if err == nil || !apperr.HasCode(err, apperr.CodeNotFound) {
		return existing, err
	}
	return loader.characters.Create(ctx, actor, sample.Input(ids))
}

func (loader *Loader) sampleImage(ctx context.Context, actor access.Actor, owner *character.Character, sample Character, tagID string) error {
	existing, err := loader.images.List(ctx, actor, image.Filter{
		UploaderID:   actor.UserID,
		CharacterIDs: []string{owner.ID},
	}, pagination.ForPage(1, 1))
	if err != nil {
		return err
	}
	if existing.Meta.Total > 0 {
		return nil
	}

	data, err := media.Placeholder(SampleWidth, SampleHeight, sample.Top, sample.Bottom)
	if err != nil {
		return err
	}

	_, err = loader.images.Upload(ctx, actor, image.File{
		Filename: "sample_" + owner.Slug + ".jpg",
		Data:     data,
	}, image.Metadata{
		CharacterIDs: []string{owner.ID},
		TagIDs:       []string{tagID},
		Description:  "Sample image for " + owner.Name,
	})
	return err
}
