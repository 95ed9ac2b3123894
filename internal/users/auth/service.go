// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
	"github.com/taibuivan/onnanoko/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating access tokens.
// Satisfied by *sec.TokenService.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// RegistrationPolicy reports whether visitors may create accounts.
// Satisfied by *settings.Service.
type RegistrationPolicy interface {
	AllowSelfRegistration() bool
}

// Service implements user authentication use cases.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	tokenProvider     TokenProvider
	registration      RegistrationPolicy
	logger            *slog.Logger
	now               func() time.Time
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenProv TokenProvider,
	registration RegistrationPolicy,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		tokenProvider:     tokenProv,
		registration:      registration,
		logger:            logger,
		now:               time.Now,
	}
}

// # Registration Flow

/*
Register validates, hashes, and persists a brand new member account.

Parameters:
  - ctx: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: PermissionError when self-registration is disabled,
    ValidationError on bad input or a taken username/email
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if !service.registration.AllowSelfRegistration() {
		return nil, apperr.Forbidden("Registration is currently closed")
	}

	if input.Password != input.PasswordConfirm {
		return nil, validate.RequiredError(FieldPasswordConfirm, passwordMismatch)
	}

	return service.CreateUser(ctx, NewUser{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      sec.RoleMember,
	})
}

// NewUser describes an account created outside self-registration
// (seed command) or by it after the gate passed.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      sec.UserRole
}

/*
CreateUser validates and persists an account with the given role. It does not
consult the registration setting.
*/
func (service *Service) CreateUser(ctx context.Context, input NewUser) (*User, error) {
	user := &User{
		ID:         uuid.New(),
		Username:   strings.TrimSpace(input.Username),
		Email:      strings.TrimSpace(input.Email),
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Role:       input.Role,
		IsActive:   true,
		DateJoined: service.now().UTC(),
	}
	if user.Role == "" {
		user.Role = sec.RoleMember
	}

	validator := &validate.Validator{}
	CheckProfile(validator, user)
	validator.MinLen(FieldPassword, input.Password, MinPasswordLength)
	if !user.Role.Valid() {
		validator.Custom("role", true, "Unknown role")
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.EnsureAvailable(ctx, user); err != nil {
		return nil, err
	}

	hash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: hash password: %w", err))
	}
	user.PasswordHash = hash

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// EnsureAvailable rejects a username or email already used by another account.
func (service *Service) EnsureAvailable(ctx context.Context, user *User) error {
	taken, err := service.userRepository.UsernameTaken(ctx, user.Username, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return usernameTakenError()
	}

	taken, err = service.userRepository.EmailTaken(ctx, user.Email, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return emailTakenError()
	}
	return nil
}

// # Session Flow

/*
Login verifies credentials and opens a refresh session.

Returns:
  - *Credentials: Access token, refresh token and the account
  - error: Unauthorized on bad credentials, PermissionError for inactive accounts
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Credentials, error) {
	invalid := apperr.Unauthorized("Invalid username or password")

	user, err := service.userRepository.FindByLogin(ctx, strings.TrimSpace(input.Login))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, invalid
	}

	if !user.IsActive {
		return nil, apperr.Forbidden("This account is inactive")
	}

	now := service.now().UTC()
	if err := service.userRepository.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	credentials, err := service.openSession(ctx, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.logger.Info("user_logged_in", slog.String("user_id", user.ID))
	return credentials, nil
}

/*
Refresh rotates a refresh token: the presented session is revoked and a new
one is issued together with a fresh access token.

Returns:
  - error: Unauthorized when the token is unknown or the account was
    deactivated since
*/
func (service *Service) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*Credentials, error) {
	invalid := apperr.Unauthorized("Invalid or expired refresh token")

	tokenHash := sec.HashToken(refreshToken)
	session, err := service.sessionRepository.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if session.Expired(service.now()) {
		_ = service.sessionRepository.Revoke(ctx, tokenHash)
		return nil, invalid
	}

	user, err := service.userRepository.FindByID(ctx, session.UserID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if err := service.sessionRepository.Revoke(ctx, tokenHash); err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, invalid
	}

	return service.openSession(ctx, user, userAgent, ipAddress)
}

// Logout revokes the session behind a refresh token. Unknown tokens are ignored.
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return service.sessionRepository.Revoke(ctx, sec.HashToken(refreshToken))
}

// RevokeSessions ends every session of the user, after a password change or
// account removal.
func (service *Service) RevokeSessions(ctx context.Context, userID string) error {
	if err := service.sessionRepository.RevokeAll(ctx, userID); err != nil {
		return err
	}
	service.logger.Info("user_sessions_revoked", slog.String("user_id", userID))
	return nil
}

// openSession issues an access token and stores a new refresh session.
func (service *Service) openSession(ctx context.Context, user *User, userAgent, ipAddress string) (*Credentials, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Username, string(user.Role), AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: sign access token: %w", err))
	}

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth: generate refresh token: %w", err))
	}

	now := service.now().UTC()
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(RefreshTokenTTL),
	}

	if err := service.sessionRepository.Create(ctx, session); err != nil {
		return nil, err
	}

	return &Credentials{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		User:                  user,
	}, nil
}

// # Shared Rules

// CheckProfile validates the identity fields shared by registration, profile
// edits and admin edits.
func CheckProfile(validator *validate.Validator, user *User) {
	validator.Required(FieldUsername, user.Username).
		MaxLen(FieldUsername, user.Username, MaxUsernameLength).
		Custom(FieldUsername, user.Username != "" && !usernamePattern.MatchString(user.Username),
			"Letters, digits and @/./+/-/_ only").
		Required(FieldEmail, user.Email).
		Email(FieldEmail, user.Email).
		MaxLen(FieldFirstName, user.FirstName, MaxNameLength).
		MaxLen(FieldLastName, user.LastName, MaxNameLength)
}

// CheckPassword validates a new password and its confirmation.
func CheckPassword(validator *validate.Validator, field, confirmField, password, confirm string) {
	validator.Required(field, password).
		MinLen(field, password, MinPasswordLength).
		Custom(confirmField, password != confirm, passwordMismatch)
}

const passwordMismatch = "The two password fields didn't match"

func usernameTakenError() error {
	return validate.RequiredError(FieldUsername, "A user with that username already exists")
}

func emailTakenError() error {
	return validate.RequiredError(FieldEmail, "A user with that email already exists")
}
