// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/platform/middleware"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
)

// Handler implements the /me endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /me router. Every endpoint requires authentication.
//
// # Endpoints
//   - GET    /          : Dashboard
//   - PATCH  /          : Profile update
//   - DELETE /          : Account removal (with confirmation)
//   - POST   /password  : Password change
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.dashboard)
	router.Patch("/", handler.updateProfile)
	router.Delete("/", handler.deleteAccount)
	router.Post("/password", handler.changePassword)

	return router
}

/*
GET /api/v1/me.

Response:
  - 200: Dashboard
  - 401: ErrUnauthorized
*/
func (handler *Handler) dashboard(writer http.ResponseWriter, request *http.Request) {
	dashboard, err := handler.service.Dashboard(request.Context(), requestutil.Actor(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, dashboard)
}

/*
PATCH /api/v1/me.

Request:
  - Body: ProfileInput (first_name, last_name, email)

Response:
  - 200: User
  - 400: ValidationError: Bad or taken email
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input ProfileInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateProfile(request.Context(), requestutil.Actor(request), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
POST /api/v1/me/password.

Response:
  - 204: Password changed, every session revoked
  - 400: ValidationError: Wrong current password or mismatch
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	var input PasswordInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), requestutil.Actor(request), input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
DELETE /api/v1/me.

Request:
  - Body: DeleteInput (confirm_username, confirm)

Response:
  - 204: Account removed
  - 400: ValidationError: Confirmation missing
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	var input DeleteInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), requestutil.Actor(request), input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
