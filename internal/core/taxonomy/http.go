// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/middleware"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// # Handler Implementation

// Handler serves the REST collection of one taxonomy kind.
type Handler struct {
	service *Service
	kind    Kind
}

// NewHandler constructs a [Handler] bound to kind.
func NewHandler(service *Service, kind Kind) *Handler {
	return &Handler{service: service, kind: kind}
}

// Routes returns the collection routes. Mounted at /series, /groups and /tags.
//
// Reads are public. Mutations require a token; the service then checks the
// access policy.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/slug/{slug}", handler.getBySlug)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)

		protected.Post("/", handler.create)
		protected.Put("/{id}", handler.update)
		protected.Patch("/{id}", handler.update)
		protected.Delete("/{id}", handler.delete)
	})

	return router
}

/*
GET /api/v1/{series|groups|tags}.

Request:
  - search: string (case-insensitive name substring)
  - page: int (fixed page size of 20)

Response:
  - 200: []Term: Paginated list ordered by name
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.Fixed(request, pagination.PageParam, constants.TaxonomyPageSize)

	page, err := handler.service.List(request.Context(), handler.kind, request.URL.Query().Get("search"), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

/*
GET /api/v1/{series|groups|tags}/{id}.

Response:
  - 200: Term
  - 404: ErrNotFound
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	term, err := handler.service.Get(request.Context(), handler.kind, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, term)
}

func (handler *Handler) getBySlug(writer http.ResponseWriter, request *http.Request) {
	term, err := handler.service.GetBySlug(request.Context(), handler.kind, requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, term)
}

/*
POST /api/v1/{series|groups|tags}.

Request:
  - name: string (required, max 100)
  - slug: string (optional, derived from name)
  - description: string (series and groups only)

Response:
  - 201: Term
  - 400: ErrValidation
  - 403: ErrForbidden: Not signed in
  - 409: DUPLICATE_NAME / DUPLICATE_SLUG
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	term, err := handler.service.Create(request.Context(), requestutil.Actor(request), handler.kind, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, term)
}

/*
PUT|PATCH /api/v1/{series|groups|tags}/{id}.

Request:
  - name: string (optional)
  - description: string (optional)

Response:
  - 200: Term
  - 403: ErrForbidden
  - 404: ErrNotFound
  - 409: DUPLICATE_NAME
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	term, err := handler.service.Update(request.Context(), requestutil.Actor(request), handler.kind, requestutil.ID(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, term)
}

/*
DELETE /api/v1/{series|groups|tags}/{id}.

Response:
  - 204: Deleted
  - 403: ErrForbidden
  - 404: ErrNotFound
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Actor(request), handler.kind, requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
