// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/middleware"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// # Handler Implementation

// Handler serves the /characters collection.
type Handler struct {
	service *Service
}

// NewHandler constructs a new character [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the character routes. Mutations need a token; staff checks
// happen in the service.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/slug/{slug}", handler.getBySlug)
	router.Get("/slug/{slug}/related", handler.related)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)

		protected.Post("/", handler.create)
		protected.Put("/{id}", handler.replace)
		protected.Patch("/{id}", handler.update)
		protected.Delete("/{id}", handler.delete)
		protected.Put("/{id}/primary-image", handler.setPrimaryImage)
	})

	return router
}

/*
GET /api/v1/characters.

Request:
  - search: string (name, description, series, group or tag name)
  - type: string ("2d", "3d", "all")
  - is_2d: bool
  - series: uuid
  - groups: []uuid (any-of; repeated or comma separated)
  - tags: []uuid (any-of)
  - page: int

Response:
  - 200: []Character: Paginated list ordered by name
  - 400: ErrValidation: Malformed filter id
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()

	filter := Filter{
		Search:   queryParams.Get("search"),
		Type:     queryParams.Get("type"),
		Is2D:     requestutil.OptionalBool(request, "is_2d"),
		SeriesID: queryParams.Get("series"),
		GroupIDs: requestutil.IDList(request, "groups"),
		TagIDs:   requestutil.IDList(request, "tags"),
	}
	params := pagination.Fixed(request, pagination.PageParam, constants.CharacterPageSize)

	page, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	character, err := handler.service.GetByID(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, character)
}

/*
GET /api/v1/characters/slug/{slug}.

Response:
  - 200: Character
  - 404: ErrNotFound
*/
func (handler *Handler) getBySlug(writer http.ResponseWriter, request *http.Request) {
	character, err := handler.service.Get(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, character)
}

/*
GET /api/v1/characters/slug/{slug}/related.

Response:
  - 200: []Character: Characters sharing a group, at most 12
  - 404: ErrNotFound
*/
func (handler *Handler) related(writer http.ResponseWriter, request *http.Request) {
	characters, err := handler.service.Related(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, characters)
}

/*
POST /api/v1/characters.

Request:
  - Input (JSON). Exactly one of age and birth_date.

Response:
  - 201: Character
  - 400: ErrValidation
  - 403: ErrForbidden
  - 409: DUPLICATE_SLUG
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	character, err := handler.service.Create(request.Context(), requestutil.Actor(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, character)
}

// replace handles PUT: the body is the full representation.
func (handler *Handler) replace(writer http.ResponseWriter, request *http.Request) {
	var input Input
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	character, err := handler.service.Replace(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, character)
}

/*
PATCH /api/v1/characters/{id}.

Request:
  - Patch (JSON). Absent fields are kept; null clears.

Response:
  - 200: Character
  - 400: ErrValidation
  - 403: ErrForbidden
  - 404: ErrNotFound
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	character, err := handler.service.Update(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, character)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
PUT /api/v1/characters/{id}/primary-image.

Request:
  - file: multipart file (JPEG, PNG or WebP, max 5 MiB)

Response:
  - 200: Character
  - 413: PAYLOAD_TOO_LARGE
  - 415: UNSUPPORTED_MEDIA_TYPE
  - 422: CORRUPT_IMAGE
*/
func (handler *Handler) setPrimaryImage(writer http.ResponseWriter, request *http.Request) {
	if err := requestutil.ParseMultipart(writer, request, constants.MaxUploadBytes+constants.MultipartMemory, constants.MultipartMemory); err != nil {
		respond.Error(writer, request, err)
		return
	}

	files, err := requestutil.Files(request, constants.MaxUploadBytes, FieldFile)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if len(files) != 1 {
		respond.Error(writer, request, validate.RequiredError(FieldFile, "Exactly one file is required"))
		return
	}

	character, err := handler.service.SetPrimaryImage(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"), files[0].Data)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, character)
}
