// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, upload ceilings and cross-cutting keys
that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Uploads: Byte ceilings and page sizes of the gallery listings.
  - Security: JWT issuer and cookie configuration.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "onnanoko-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// Uploads of several files need more than a plain JSON request.
	DefaultReadTimeout = 30 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 30 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Uploads & Listings

const (
	// MaxUploadBytes is the per-file ceiling for image uploads (5 MiB).
	MaxUploadBytes int64 = 5 << 20

	// MaxImagePixels bounds width×height before any full decode. Compressed
	// formats can encode a huge canvas in a few hundred kilobytes.
	MaxImagePixels = 50_000_000

	// MaxUploadFiles bounds a single multi-file upload request.
	MaxUploadFiles = 10

	// MultipartMemory is the in-memory budget before multipart parts spill to disk.
	MultipartMemory int64 = 8 << 20

	// CharacterPageSize is the fixed page size of character listings.
	CharacterPageSize = 20

	// ImagePageSize is the fixed page size of image listings and galleries.
	ImagePageSize = 24

	// TaxonomyPageSize is the page size of series/group/tag listings.
	TaxonomyPageSize = 20

	// UserPageSize is the page size of the admin user listing.
	UserPageSize = 20

	// RelatedImageLimit caps the related images returned on an image detail.
	RelatedImageLimit = 12

	// RelatedCharacterLimit caps the "same group" characters on a character detail.
	RelatedCharacterLimit = 12

	// DashboardUploadLimit caps the own uploads listed on the user dashboard.
	DashboardUploadLimit = 24

	// OverviewTermLimit caps the terms per kind on the admin content overview.
	OverviewTermLimit = 5

	// RecentUploadLimit caps the recent uploads shown on the admin dashboard.
	RecentUploadLimit = 5
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "onnanoko.app"

	// RefreshTokenCookieName is the name of the cookie that stores the refresh token.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenCookiePath is the scoped path for the refresh token cookie.
	RefreshTokenCookiePath = "/api/v1/auth"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession     = "auth:session:"
	RedisPrefixUserSession = "auth:user_sessions:"
)
