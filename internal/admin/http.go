// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/middleware"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// Handler serves /admin.
type Handler struct {
	service    *Service
	moderation http.Handler
	settings   http.Handler
}

// NewHandler constructs the admin [Handler]. moderation and settings are the
// routers of the image and settings packages, mounted as-is.
func NewHandler(service *Service, moderation, settings http.Handler) *Handler {
	return &Handler{service: service, moderation: moderation, settings: settings}
}

// Routes returns the admin router. Every endpoint requires authentication;
// staff checks are made by the services.
//
// # Endpoints
//   - GET    /stats
//   - GET    /content
//   - GET    /users
//   - GET    /users/{id}
//   - PATCH  /users/{id}
//   - DELETE /users/{id}
//   - POST   /taxonomy/{kind}
//   - *      /moderation/...
//   - *      /settings/...
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/stats", handler.stats)
	router.Get("/content", handler.content)

	router.Route("/users", func(users chi.Router) {
		users.Get("/", handler.listUsers)
		users.Get("/{id}", handler.getUser)
		users.Patch("/{id}", handler.updateUser)
		users.Put("/{id}", handler.updateUser)
		users.Delete("/{id}", handler.deleteUser)
	})

	router.Post("/taxonomy/{kind}", handler.quickCreate)

	router.Mount("/moderation", handler.moderation)
	router.Mount("/settings", handler.settings)

	return router
}

/*
GET /api/v1/admin/stats.

Response:
  - 200: Stats
  - 403: ErrForbidden: Not staff
*/
func (handler *Handler) stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context(), requestutil.Actor(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

/*
GET /api/v1/admin/content.

Response:
  - 200: Overview
*/
func (handler *Handler) content(writer http.ResponseWriter, request *http.Request) {
	overview, err := handler.service.Content(request.Context(), requestutil.Actor(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, overview)
}

/*
GET /api/v1/admin/users.

Request:
  - search: string (username, email, first or last name)
  - page: int (fixed page size of 20)

Response:
  - 200: []UserSummary: Newest accounts first
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.Fixed(request, pagination.PageParam, constants.UserPageSize)

	page, err := handler.service.Users(request.Context(), requestutil.Actor(request), request.URL.Query().Get("search"), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.User(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
PATCH /api/v1/admin/users/{id}.

Request:
  - Body: UserPatch (username, email, first_name, last_name, is_active, role)

Response:
  - 200: UserSummary
  - 403: ErrForbidden: Superuser rules
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	var patch UserPatch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateUser(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.DeleteUser(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/admin/taxonomy/{kind}.

Request:
  - Body: taxonomy.CreateInput (name, slug, description)

Response:
  - 201: Term
  - 404: Unknown kind
  - 409: DUPLICATE_NAME / DUPLICATE_SLUG
*/
func (handler *Handler) quickCreate(writer http.ResponseWriter, request *http.Request) {
	kind, err := taxonomy.ParseKind(requestutil.Param(request, "kind"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input taxonomy.CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	term, err := handler.service.QuickCreate(request.Context(), requestutil.Actor(request), kind, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, term)
}
