// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package image

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

// Handler serves /images, /gallery and /admin/moderation.
type Handler struct {
	service *Service
}

// NewHandler constructs a new image [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /images collection.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)
	router.Get("/{id}/related", handler.related)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)

		protected.Post("/", handler.upload)
		protected.Put("/{id}", handler.update)
		protected.Patch("/{id}", handler.update)
		protected.Delete("/{id}", handler.delete)
	})

	return router
}

// GalleryRoutes returns the public gallery listing.
func (handler *Handler) GalleryRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.gallery)
	return router
}

// ModerationRoutes returns the staff moderation queue. The caller mounts it
// behind RequireAuth.
func (handler *Handler) ModerationRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.pending)
	router.Post("/", handler.bulkModerate)
	router.Post("/{id}/approve", handler.approve)
	router.Post("/{id}/reject", handler.reject)

	return router
}

// # Reads

/*
GET /api/v1/images.

Request:
  - search: string
  - is_approved: bool (honoured for staff only)
  - tags: []uuid (any-of)
  - characters: []uuid (any-of)
  - page: int (24 per page)

Response:
  - 200: []Image: Newest first
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	filter := Filter{
		Search:       request.URL.Query().Get("search"),
		IsApproved:   requestutil.OptionalBool(request, "is_approved"),
		TagIDs:       requestutil.IDList(request, "tags"),
		CharacterIDs: requestutil.IDList(request, "characters"),
	}
	params := pagination.Fixed(request, pagination.PageParam, constants.ImagePageSize)

	page, err := handler.service.List(request.Context(), requestutil.Actor(request), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

/*
GET /api/v1/gallery.

Request:
  - search: string
  - page: int

Response:
  - 200: []Image: Approved images only
*/
func (handler *Handler) gallery(writer http.ResponseWriter, request *http.Request) {
	params := pagination.Fixed(request, pagination.PageParam, constants.ImagePageSize)

	page, err := handler.service.Gallery(request.Context(), request.URL.Query().Get("search"), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

/*
GET /api/v1/images/{id}.

Response:
  - 200: Detail: Image with can_edit, can_delete and related images
  - 404: ErrNotFound: Missing, or pending and not visible to the caller
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	detail, err := handler.service.Get(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) related(writer http.ResponseWriter, request *http.Request) {
	images, err := handler.service.Related(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, images)
}

// # Writes

/*
POST /api/v1/images.

Request (multipart/form-data):
  - file: one image, or files: repeated images
  - character_ids, tag_ids: []uuid
  - description, illustrator: string

Response:
  - 201: Image (single file) or BatchResult (files)
  - 400: ErrValidation
  - 413: PAYLOAD_TOO_LARGE
  - 415: UNSUPPORTED_MEDIA_TYPE
  - 422: CORRUPT_IMAGE
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	maxBody := constants.MaxUploadBytes*int64(constants.MaxUploadFiles) + constants.MultipartMemory
	if err := requestutil.ParseMultipart(writer, request, maxBody, constants.MultipartMemory); err != nil {
		respond.Error(writer, request, err)
		return
	}

	single, err := requestutil.Files(request, constants.MaxUploadBytes, FieldFile)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	batch, err := requestutil.Files(request, constants.MaxUploadBytes, FieldFiles)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	metadata := Metadata{
		CharacterIDs: requestutil.FormIDList(request, FieldCharacterIDs),
		TagIDs:       requestutil.FormIDList(request, FieldTagIDs),
		Description:  requestutil.FormValue(request, FieldDescription),
		Illustrator:  requestutil.FormValue(request, FieldIllustrator),
	}
	actor := requestutil.Actor(request)

	switch {
	case len(single) == 1 && len(batch) == 0:
		image, err := handler.service.Upload(request.Context(), actor, toFile(single[0]), metadata)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Created(writer, image)

	case len(single)+len(batch) > 0:
		files := make([]File, 0, len(single)+len(batch))
		for _, uploaded := range append(single, batch...) {
			files = append(files, toFile(uploaded))
		}

		result, err := handler.service.UploadBatch(request.Context(), actor, files, metadata)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Created(writer, result)

	default:
		respond.Error(writer, request, validate.RequiredError(FieldFile, "An image file is required"))
	}
}

func toFile(uploaded requestutil.UploadedFile) File {
	return File{Filename: uploaded.Filename, Data: uploaded.Data}
}

/*
PUT|PATCH /api/v1/images/{id}.

Request:
  - description, illustrator: string (optional)
  - character_ids, tag_ids: []uuid (optional, replace the set)
  - is_approved: bool (staff only)

Response:
  - 200: Image
  - 403: ErrForbidden: Not staff nor uploader, or approval by a non-moderator
  - 404: ErrNotFound
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	image, err := handler.service.Update(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"), patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, image)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Moderation

func (handler *Handler) pending(writer http.ResponseWriter, request *http.Request) {
	params := pagination.Fixed(request, pagination.PageParam, constants.ImagePageSize)

	page, err := handler.service.Pending(request.Context(), requestutil.Actor(request), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, page.Items, page.Meta)
}

// bulkRequest is the body of POST /admin/moderation.
type bulkRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1"`
	Action Action   `json:"action" validate:"required,oneof=approve reject"`
}

/*
POST /api/v1/admin/moderation.

Request:
  - ids: []uuid
  - action: "approve" | "reject"

Response:
  - 200: {"affected": int}
  - 400: ErrValidation
  - 403: ErrForbidden
*/
func (handler *Handler) bulkModerate(writer http.ResponseWriter, request *http.Request) {
	var body bulkRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := validate.Struct(body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	affected, err := handler.service.BulkModerate(request.Context(), requestutil.Actor(request), body.IDs, body.Action)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int{"affected": affected})
}

func (handler *Handler) approve(writer http.ResponseWriter, request *http.Request) {
	image, err := handler.service.Approve(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, image)
}

func (handler *Handler) reject(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Reject(request.Context(), requestutil.Actor(request), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
