// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Onnanoko.

It provides a rich error type that bridges the gap between low-level domain/storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing a machine-readable code and a client-safe message.
  - Taxonomy: One constructor per error kind (validation, uniqueness, permission, upload).
  - Mapping: Every kind carries its HTTP status so the boundary never guesses.

Every error that leaves the service layer should be an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Error Codes

// Machine-readable codes returned in the "code" field of error envelopes.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeConflict             = "CONFLICT"
	CodeDuplicateName        = "DUPLICATE_NAME"
	CodeDuplicateSlug        = "DUPLICATE_SLUG"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	CodeCorruptImage         = "CORRUPT_IMAGE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternal             = "INTERNAL_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the Onnanoko API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "DUPLICATE_SLUG").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an [*AppError] with the same code, so callers
// can compare against sentinel values with [errors.Is].
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Character") // Returns "Character not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError]. It is the permission error of the
// access policy: the actor is known but lacks the role or ownership required.
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// DuplicateName creates a 409 [AppError] for a name that already exists.
func DuplicateName(resource, name string) *AppError {
	return &AppError{
		Code:       CodeDuplicateName,
		Message:    fmt.Sprintf("%s with name %q already exists", resource, name),
		HTTPStatus: http.StatusConflict,
		Details:    []FieldError{{Field: "name", Message: "Already exists"}},
	}
}

// DuplicateSlug creates a 409 [AppError] for a slug that already exists.
func DuplicateSlug(resource, slug string) *AppError {
	return &AppError{
		Code:       CodeDuplicateSlug,
		Message:    fmt.Sprintf("%s with slug %q already exists", resource, slug),
		HTTPStatus: http.StatusConflict,
		Details:    []FieldError{{Field: "slug", Message: "Already exists"}},
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// UnsupportedMediaType creates a 415 [AppError] for uploads whose sniffed
// content type is outside the allow-list.
func UnsupportedMediaType(contentType string) *AppError {
	return &AppError{
		Code:       CodeUnsupportedMediaType,
		Message:    fmt.Sprintf("Unsupported media type %q", contentType),
		HTTPStatus: http.StatusUnsupportedMediaType,
	}
}

// PayloadTooLarge creates a 413 [AppError] for uploads above the byte ceiling.
func PayloadTooLarge(limitBytes int64) *AppError {
	return &AppError{
		Code:       CodePayloadTooLarge,
		Message:    fmt.Sprintf("File exceeds the %d MiB limit", limitBytes>>20),
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// ImageTooLarge creates a 413 [AppError] for a raster whose canvas exceeds the
// pixel budget, whatever its encoded size.
func ImageTooLarge(limitPixels int) *AppError {
	return &AppError{
		Code:       CodePayloadTooLarge,
		Message:    fmt.Sprintf("Image exceeds the %d megapixel limit", limitPixels/1_000_000),
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// CorruptImage creates a 422 [AppError] for bytes that do not decode as a raster image.
func CorruptImage(cause error) *AppError {
	return &AppError{
		Code:       CodeCorruptImage,
		Message:    "File is not a valid image",
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for degraded dependencies.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       CodeServiceUnavailable,
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
