// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/ctxutil"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/users/account"
	"github.com/taibuivan/onnanoko/internal/users/auth"
	"github.com/taibuivan/onnanoko/pkg/pointer"
)

// # Fakes

type memoryUsers struct {
	users map[string]*auth.User
}

func (repo *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := repo.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) FindByLogin(_ context.Context, login string) (*auth.User, error) {
	for _, user := range repo.users {
		if user.Username == login {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUsers) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	for _, user := range repo.users {
		if user.Username == username && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryUsers) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for _, user := range repo.users {
		if strings.EqualFold(user.Email, email) && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryUsers) Create(_ context.Context, user *auth.User) error {
	copied := *user
	repo.users[user.ID] = &copied
	return nil
}

func (repo *memoryUsers) Update(_ context.Context, user *auth.User) error {
	copied := *user
	repo.users[user.ID] = &copied
	return nil
}

func (repo *memoryUsers) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func (repo *memoryUsers) Delete(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

type revoker struct{ revoked []string }

func (r *revoker) RevokeSessions(_ context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

type fakeUploads struct {
	images  map[string][]*image.Image
	removed []string
}

func (f *fakeUploads) Uploads(_ context.Context, uploaderID string, limit int) ([]*image.Image, error) {
	images := f.images[uploaderID]
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

func (f *fakeUploads) Counts(_ context.Context, uploaderID string) (image.Counts, error) {
	counts := image.Counts{}
	for _, stored := range f.images[uploaderID] {
		counts.Total++
		if stored.IsApproved {
			counts.Approved++
		} else {
			counts.Pending++
		}
	}
	return counts, nil
}

func (f *fakeUploads) RemoveUploads(_ context.Context, uploaderID string) (int, error) {
	f.removed = append(f.removed, uploaderID)
	count := len(f.images[uploaderID])
	delete(f.images, uploaderID)
	return count, nil
}

// # Fixture

const (
	yoshikoID = "0191d6a0-0000-7000-8000-000000000011"
	rubyID    = "0191d6a0-0000-7000-8000-000000000012"
)

var yoshiko = access.Actor{UserID: yoshikoID, Username: "yohane", Role: sec.RoleMember}

type fixture struct {
	service  *account.Service
	users    *memoryUsers
	sessions *revoker
	uploads  *fakeUploads
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hash, err := sec.HashPassword("fallen-angel")
	require.NoError(t, err)

	users := &memoryUsers{users: map[string]*auth.User{
		yoshikoID: {ID: yoshikoID, Username: "yohane", Email: "yohane@example.com", PasswordHash: hash, Role: sec.RoleMember, IsActive: true},
		rubyID:    {ID: rubyID, Username: "ruby", Email: "ruby@example.com", PasswordHash: hash, Role: sec.RoleMember, IsActive: true},
	}}
	uploads := &fakeUploads{images: map[string][]*image.Image{
		yoshikoID: {{ID: "a", IsApproved: true}, {ID: "b"}, {ID: "c"}},
	}}
	sessions := &revoker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return fixture{
		service:  account.NewService(users, sessions, uploads, logger),
		users:    users,
		sessions: sessions,
		uploads:  uploads,
	}
}

func codeOf(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

func fieldOf(err error) string {
	if appErr := apperr.As(err); appErr != nil && len(appErr.Details) > 0 {
		return appErr.Details[0].Field
	}
	return ""
}

/*
TestService_Dashboard returns own uploads with counts and refuses anonymous callers.
*/
func TestService_Dashboard(t *testing.T) {
	f := newFixture(t)

	dashboard, err := f.service.Dashboard(context.Background(), yoshiko)
	require.NoError(t, err)
	assert.Equal(t, "yohane", dashboard.User.Username)
	assert.Len(t, dashboard.Uploads, 3)
	assert.Equal(t, image.Counts{Total: 3, Approved: 1, Pending: 2}, dashboard.Counts)

	_, err = f.service.Dashboard(context.Background(), access.Anonymous())
	assert.Equal(t, apperr.CodeUnauthorized, codeOf(err))
}

/*
TestService_UpdateProfile keeps emails unique ignoring case.
*/
func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input account.ProfileInput
		field string
	}{
		{"names_only", account.ProfileInput{FirstName: pointer.To(" Yoshiko "), LastName: pointer.To("Tsushima")}, ""},
		{"own_email_other_case", account.ProfileInput{Email: pointer.To("YOHANE@example.com")}, ""},
		{"email_of_other_user", account.ProfileInput{Email: pointer.To("Ruby@Example.com")}, auth.FieldEmail},
		{"invalid_email", account.ProfileInput{Email: pointer.To("heaven")}, auth.FieldEmail},
		{"empty_email", account.ProfileInput{Email: pointer.To("  ")}, auth.FieldEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user, err := f.service.UpdateProfile(ctx, yoshiko, tt.input)
			if tt.field != "" {
				assert.Equal(t, apperr.CodeValidation, codeOf(err))
				assert.Equal(t, tt.field, fieldOf(err))
				return
			}
			require.NoError(t, err)
			if tt.input.FirstName != nil {
				assert.Equal(t, "Yoshiko", user.FirstName)
				assert.Equal(t, "Tsushima", f.users.users[yoshikoID].LastName)
			}
		})
	}
}

/*
TestService_ChangePassword verifies the old password and revokes sessions.
*/
func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input account.PasswordInput
		field string
	}{
		{"wrong_current", account.PasswordInput{CurrentPassword: "nope", NewPassword: "little-demon", NewPasswordConfirm: "little-demon"}, account.FieldCurrentPassword},
		{"mismatch", account.PasswordInput{CurrentPassword: "fallen-angel", NewPassword: "little-demon", NewPasswordConfirm: "little-demons"}, account.FieldNewPasswordConfirm},
		{"too_short", account.PasswordInput{CurrentPassword: "fallen-angel", NewPassword: "short", NewPasswordConfirm: "short"}, account.FieldNewPassword},
		{"ok", account.PasswordInput{CurrentPassword: "fallen-angel", NewPassword: "little-demon", NewPasswordConfirm: "little-demon"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.service.ChangePassword(ctx, yoshiko, tt.input)
			if tt.field != "" {
				assert.Equal(t, tt.field, fieldOf(err))
				assert.Empty(t, f.sessions.revoked)
				return
			}
			require.NoError(t, err)
			assert.True(t, sec.CheckPasswordHash("little-demon", f.users.users[yoshikoID].PasswordHash))
			assert.Equal(t, []string{yoshikoID}, f.sessions.revoked)
		})
	}
}

/*
TestService_Delete requires the username and the confirm flag.
*/
func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.service.Delete(ctx, yoshiko, account.DeleteInput{ConfirmUsername: "yohane"})
	assert.Equal(t, account.FieldConfirm, fieldOf(err))

	err = f.service.Delete(ctx, yoshiko, account.DeleteInput{ConfirmUsername: "yoshiko", Confirm: true})
	assert.Equal(t, account.FieldConfirmUsername, fieldOf(err))
	assert.Contains(t, f.users.users, yoshikoID)

	require.NoError(t, f.service.Delete(ctx, yoshiko, account.DeleteInput{ConfirmUsername: "yohane", Confirm: true}))
	assert.NotContains(t, f.users.users, yoshikoID)
	assert.Contains(t, f.users.users, rubyID)
	assert.Equal(t, []string{yoshikoID}, f.uploads.removed)
	assert.Equal(t, []string{yoshikoID}, f.sessions.revoked)
}

/*
TestHandler_RequiresAuth answers 401 without a token and 200 with one.
*/
func TestHandler_RequiresAuth(t *testing.T) {
	f := newFixture(t)
	router := account.NewHandler(f.service).Routes()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	claims := &sec.AuthClaims{UserID: yoshikoID, Username: "yohane", Role: string(sec.RoleMember)}
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"uploads"`)
}
