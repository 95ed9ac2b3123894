// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	requestutil "github.com/taibuivan/onnanoko/internal/platform/request"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService  *Service
	secureCookie bool
}

// NewHandler constructs a new [Handler]. secureCookie should be false only
// for plain-HTTP development servers.
func NewHandler(service *Service, secureCookie bool) *Handler {
	return &Handler{authService: service, secureCookie: secureCookie}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register : Creates a new account (when registration is open).
//   - POST /login    : Authenticates and returns a JWT.
//   - POST /refresh  : Rotates the refresh cookie.
//   - POST /logout   : Revokes the refresh cookie.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

/*
Register handles the creation of a new member account.

POST /api/v1/auth/register

Response:
  - 201: User: Created user profile
  - 400: ValidationError: Bad input or taken username/email
  - 403: Forbidden: Self-registration disabled
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Response:
  - 200: Access token and user profile, refresh token cookie
  - 401: Unauthorized: Invalid credentials
  - 403: Forbidden: Inactive account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validate.Struct(input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	credentials, err := handler.authService.Login(request.Context(), LoginInput{
		Login:     input.Login,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: clientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, credentials)
	respond.OK(writer, tokenResponse(credentials))
}

/*
Refresh issues a new access token using the refresh token cookie.

POST /api/v1/auth/refresh

Response:
  - 200: New access token credentials, rotated cookie
  - 401: Unauthorized: Missing or invalid refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing refresh token in cookies"))
		return
	}

	credentials, err := handler.authService.Refresh(request.Context(), cookie.Value, request.UserAgent(), clientIP(request))
	if err != nil {
		handler.clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, credentials)
	respond.OK(writer, tokenResponse(credentials))
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Session terminated (also when no session was present)
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		if err := handler.authService.Logout(request.Context(), cookie.Value); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Helpers

func tokenResponse(credentials *Credentials) map[string]any {
	return map[string]any{
		FieldAccessToken: credentials.AccessToken,
		FieldTokenType:   "Bearer",
		FieldExpiresIn:   int(AccessTokenTTL / time.Second),
		FieldUser:        credentials.User,
	}
}

func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, credentials *Credentials) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    credentials.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  credentials.RefreshTokenExpiresAt,
		Secure:   handler.secureCookie,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   handler.secureCookie,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clientIP returns the first forwarded address, else the remote host.
func clientIP(request *http.Request) string {
	if forwarded := request.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host, _, err := net.SplitHostPort(request.RemoteAddr); err == nil {
		return host
	}
	return request.RemoteAddr
}
