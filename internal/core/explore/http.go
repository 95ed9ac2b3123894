// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package explore

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
	"github.com/taibuivan/onnanoko/pkg/pagination"
)

// Handler serves /explore.
type Handler struct {
	service *Service
}

// NewHandler constructs a new explore [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the public explore routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{kind}/{slug}", handler.explore)
	return router
}

/*
GET /api/v1/explore/{kind}/{slug}.

Request:
  - kind: "series" | "groups" | "tags" (singular accepted)
  - characters_page: int (20 per page)
  - images_page: int (24 per page)

Response:
  - 200: Result
  - 404: ErrNotFound: Unknown kind or slug
*/
func (handler *Handler) explore(writer http.ResponseWriter, request *http.Request) {
	kind, err := taxonomy.ParseKind(requestutil.Param(request, "kind"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	characterPage := pagination.Fixed(request, "characters_page", constants.CharacterPageSize)
	imagePage := pagination.Fixed(request, "images_page", constants.ImagePageSize)

	result, err := handler.service.Explore(request.Context(), kind, requestutil.Param(request, "slug"), characterPage, imagePage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}
