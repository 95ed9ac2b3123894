// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction, common body
decoding patterns and multipart file handling, ensuring consistent error
handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/ctxutil"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/query"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Claims extracts the authenticated user claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
Actor returns the access-policy identity of the request (anonymous if no token).
*/
func Actor(request *http.Request) access.Actor {
	return ctxutil.GetActor(request.Context())
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.

Returns:
  - *sec.AuthClaims: The authenticated user claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {

	// Get user claims
	claims := ctxutil.GetAuthUser(request.Context())

	// If the user is not authenticated, return an error
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}

/*
RequiredUserID returns the User ID of the currently logged-in user.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// # Query Parameters

/*
OptionalBool parses a boolean query parameter ("true", "1", "false", "0").

Returns nil when the parameter is absent or malformed, meaning "no filter".
*/
func OptionalBool(request *http.Request, name string) *bool {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

/*
IDList collects identifiers from a query parameter that may be repeated
(?tags=a&tags=b) or comma separated (?tags=a,b).
*/
func IDList(request *http.Request, name string) []string {
	var ids []string
	for _, raw := range request.URL.Query()[name] {
		ids = append(ids, query.StringSlice(raw)...)
	}
	return ids
}

/*
FormIDList collects identifiers from a parsed multipart/url-encoded form field,
accepting repeated fields and comma separated values.
*/
func FormIDList(request *http.Request, name string) []string {
	var ids []string
	for _, raw := range request.Form[name] {
		ids = append(ids, query.StringSlice(raw)...)
	}
	return ids
}

// # Multipart Uploads

// UploadedFile is a fully buffered multipart file part.
type UploadedFile struct {
	Filename string
	Data     []byte
}

/*
ParseMultipart parses a multipart body whose total size is capped at maxBytes.

Returns:
  - error: apperr.PayloadTooLarge when the body exceeds the cap,
    apperr.ValidationError when the body is not multipart.
*/
func ParseMultipart(writer http.ResponseWriter, request *http.Request, maxBytes, memory int64) error {
	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes)

	if err := request.ParseMultipartForm(memory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.PayloadTooLarge(maxBytes)
		}
		return apperr.ValidationError("Expected a multipart/form-data body")
	}
	return nil
}

/*
Files reads every part uploaded under the given field names.

Each part is read up to perFileLimit+1 bytes so the service can still detect
and report an oversize file without buffering arbitrarily large parts.
*/
func Files(request *http.Request, perFileLimit int64, fields ...string) ([]UploadedFile, error) {
	if request.MultipartForm == nil {
		return nil, nil
	}

	var files []UploadedFile
	for _, field := range fields {
		for _, header := range request.MultipartForm.File[field] {
			file, err := readPart(header, perFileLimit)
			if err != nil {
				return nil, err
			}
			files = append(files, file)
		}
	}
	return files, nil
}

// readPart buffers one multipart part.
func readPart(header *multipart.FileHeader, limit int64) (UploadedFile, error) {
	part, err := header.Open()
	if err != nil {
		return UploadedFile{}, apperr.Internal(fmt.Errorf("open multipart part: %w", err))
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return UploadedFile{}, apperr.Internal(fmt.Errorf("read multipart part: %w", err))
	}

	return UploadedFile{Filename: header.Filename, Data: data}, nil
}

// FormValue returns a trimmed form value.
func FormValue(request *http.Request, name string) string {
	return strings.TrimSpace(request.FormValue(name))
}
