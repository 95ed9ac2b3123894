// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/access"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
)

// Handler exposes the settings to the admin panel.
type Handler struct {
	service *Service
}

// NewHandler constructs a new settings [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes is mounted under /admin/settings behind RequireAuth.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.get)
	router.Put("/", handler.update)
	router.Patch("/", handler.update)
	return router
}

/*
GET /api/v1/admin/settings.

Response:
  - 200: Settings
  - 403: ErrForbidden: Not staff
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	if err := access.Require(requestutil.Actor(request), access.ActionRead, access.Settings()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, handler.service.Current())
}

/*
PUT /api/v1/admin/settings.

Request:
  - allow_self_registration: bool

Response:
  - 200: Settings: The reloaded snapshot
  - 403: ErrForbidden: Not staff
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), requestutil.Actor(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}
