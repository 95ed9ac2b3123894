// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/admin"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/ctxutil"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/users/auth"
	"github.com/taibuivan/onnanoko/pkg/pagination"
	"github.com/taibuivan/onnanoko/pkg/pointer"
)

const (
	adminID  = "0191d6a0-0000-7000-8000-000000000a01"
	staffID  = "0191d6a0-0000-7000-8000-000000000a02"
	memberID = "0191d6a0-0000-7000-8000-000000000a03"
	otherID  = "0191d6a0-0000-7000-8000-000000000a04"
	missing  = "0191d6a0-0000-7000-8000-000000000aff"
)

var (
	superuser = access.Actor{UserID: adminID, Username: "mari", Role: sec.RoleAdmin}
	staff     = access.Actor{UserID: staffID, Username: "dia", Role: sec.RoleStaff}
	member    = access.Actor{UserID: memberID, Username: "ruby", Role: sec.RoleMember}
)

// # Fakes

type directory struct {
	users   map[string]*auth.User
	uploads map[string]int
}

func (d *directory) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := d.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, apperr.NotFound("User")
}

func (d *directory) FindByLogin(context.Context, string) (*auth.User, error) {
	return nil, apperr.NotFound("User")
}

func (d *directory) UsernameTaken(_ context.Context, username, excludeID string) (bool, error) {
	for _, user := range d.users {
		if user.Username == username && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *directory) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	for _, user := range d.users {
		if strings.EqualFold(user.Email, email) && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (d *directory) Create(_ context.Context, user *auth.User) error {
	d.users[user.ID] = user
	return nil
}

func (d *directory) Update(_ context.Context, user *auth.User) error {
	copied := *user
	d.users[user.ID] = &copied
	return nil
}

func (d *directory) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func (d *directory) Delete(_ context.Context, id string) error {
	delete(d.users, id)
	return nil
}

// Totals, ListUsers and UploadCount make the directory an admin.Repository too.
func (d *directory) Totals(context.Context) (admin.Totals, error) {
	return admin.Totals{Users: len(d.users), Characters: 7}, nil
}

func (d *directory) ListUsers(_ context.Context, search string, limit, offset int) ([]*admin.UserSummary, int, error) {
	var matches []*admin.UserSummary
	for _, user := range d.users {
		haystack := strings.ToLower(user.Username + " " + user.Email + " " + user.FirstName + " " + user.LastName)
		if search == "" || strings.Contains(haystack, strings.ToLower(search)) {
			matches = append(matches, &admin.UserSummary{User: user, UploadCount: d.uploads[user.ID]})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DateJoined.After(matches[j].DateJoined) })

	total := len(matches)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matches[offset:end], total, nil
}

func (d *directory) UploadCount(_ context.Context, userID string) (int, error) {
	return d.uploads[userID], nil
}

// identities mirrors auth.Service.EnsureAvailable on the directory.
type identities struct {
	directory *directory
	revoked   []string
}

func (f *identities) EnsureAvailable(ctx context.Context, user *auth.User) error {
	if taken, _ := f.directory.UsernameTaken(ctx, user.Username, user.ID); taken {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: auth.FieldUsername, Message: "taken"})
	}
	if taken, _ := f.directory.EmailTaken(ctx, user.Email, user.ID); taken {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: auth.FieldEmail, Message: "taken"})
	}
	return nil
}

func (f *identities) RevokeSessions(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type images struct {
	removed []string
}

func (f *images) Recent(_ context.Context, limit int) ([]*image.Image, error) {
	recent := []*image.Image{{ID: "i1"}, {ID: "i2"}}
	return recent[:min(limit, len(recent))], nil
}

func (f *images) Counts(context.Context, string) (image.Counts, error) {
	return image.Counts{Total: 10, Approved: 6, Pending: 4}, nil
}

func (f *images) RemoveUploads(_ context.Context, uploaderID string) (int, error) {
	f.removed = append(f.removed, uploaderID)
	return 1, nil
}

type terms struct {
	created []taxonomy.CreateInput
}

func (f *terms) List(_ context.Context, kind taxonomy.Kind, _ string, params pagination.Params) (pagination.Page[*taxonomy.Term], error) {
	all := []*taxonomy.Term{{Kind: kind, Name: "a"}, {Kind: kind, Name: "b"}, {Kind: kind, Name: "c"}, {Kind: kind, Name: "d"}, {Kind: kind, Name: "e"}, {Kind: kind, Name: "f"}}
	return pagination.NewPage(all[:min(params.Limit, len(all))], params, len(all)), nil
}

func (f *terms) Create(_ context.Context, actor access.Actor, kind taxonomy.Kind, input taxonomy.CreateInput) (*taxonomy.Term, error) {
	if err := access.Require(actor, access.ActionCreate, access.Taxonomy()); err != nil {
		return nil, err
	}
	f.created = append(f.created, input)
	return &taxonomy.Term{Kind: kind, Name: input.Name}, nil
}

// # Fixture

type fixture struct {
	service    *admin.Service
	directory  *directory
	identities *identities
	images     *images
	terms      *terms
}

func newFixture() fixture {
	joined := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	dir := &directory{
		users: map[string]*auth.User{
			adminID:  {ID: adminID, Username: "mari", Email: "mari@example.com", Role: sec.RoleAdmin, IsActive: true, DateJoined: joined},
			staffID:  {ID: staffID, Username: "dia", Email: "dia@example.com", Role: sec.RoleStaff, IsActive: true, DateJoined: joined.AddDate(0, 1, 0)},
			memberID: {ID: memberID, Username: "ruby", Email: "ruby@example.com", FirstName: "Ruby", Role: sec.RoleMember, IsActive: true, DateJoined: joined.AddDate(0, 2, 0)},
			otherID:  {ID: otherID, Username: "hanamaru", Email: "maru@example.com", Role: sec.RoleMember, IsActive: true, DateJoined: joined.AddDate(0, 3, 0)},
		},
		uploads: map[string]int{memberID: 3},
	}
	ids := &identities{directory: dir}
	imgs := &images{}
	vocab := &terms{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return fixture{
		service:    admin.NewService(dir, dir, ids, imgs, vocab, logger),
		directory:  dir,
		identities: ids,
		images:     imgs,
		terms:      vocab,
	}
}

func codeOf(err error) string {
	if appErr := apperr.As(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

/*
TestService_StatsAndContent aggregates totals for staff only.
*/
func TestService_StatsAndContent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Stats(ctx, member)
	assert.Equal(t, apperr.CodeForbidden, codeOf(err))

	stats, err := f.service.Stats(ctx, staff)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Users)
	assert.Equal(t, 7, stats.Characters)
	assert.Equal(t, 10, stats.Images)
	assert.Equal(t, 4, stats.Pending)
	assert.Len(t, stats.RecentUploads, 2)

	overview, err := f.service.Content(ctx, staff)
	require.NoError(t, err)
	require.Len(t, overview.Terms, 3)
	for _, bucket := range overview.Terms {
		assert.Equal(t, 6, bucket.Total)
		assert.Len(t, bucket.Items, 5)
	}
}

/*
TestService_Users lists newest accounts first with their upload counts.
*/
func TestService_Users(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.service.Users(ctx, member, "", pagination.ForPage(1, 20))
	assert.Equal(t, apperr.CodeForbidden, codeOf(err))

	page, err := f.service.Users(ctx, staff, "", pagination.ForPage(1, 20))
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	assert.Equal(t, "hanamaru", page.Items[0].Username)

	page, err = f.service.Users(ctx, staff, "RUBY", pagination.ForPage(1, 20))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Items[0].UploadCount)

	detail, err := f.service.User(ctx, staff, memberID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.UploadCount)

	_, err = f.service.User(ctx, staff, "not-a-uuid")
	assert.Equal(t, apperr.CodeNotFound, codeOf(err))
	_, err = f.service.User(ctx, staff, missing)
	assert.Equal(t, apperr.CodeNotFound, codeOf(err))
}

/*
TestService_UpdateUser_Rules walks the superuser protections of admin edits.
*/
func TestService_UpdateUser_Rules(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  access.Actor
		target string
		patch  admin.UserPatch
		code   string
	}{
		{"staff_edits_member", staff, memberID, admin.UserPatch{LastName: pointer.To("Kurosawa")}, ""},
		{"staff_grants_staff", staff, memberID, admin.UserPatch{Role: pointer.To(sec.RoleStaff)}, ""},
		{"staff_cannot_grant_admin", staff, memberID, admin.UserPatch{Role: pointer.To(sec.RoleAdmin)}, apperr.CodeForbidden},
		{"staff_cannot_edit_admin", staff, adminID, admin.UserPatch{FirstName: pointer.To("Mari")}, apperr.CodeForbidden},
		{"admin_grants_admin", superuser, memberID, admin.UserPatch{Role: pointer.To(sec.RoleAdmin)}, ""},
		{"admin_edits_admin", superuser, adminID, admin.UserPatch{FirstName: pointer.To("Mari")}, ""},
		{"member_cannot_edit", member, otherID, admin.UserPatch{FirstName: pointer.To("x")}, apperr.CodeForbidden},
		{"unknown_role", staff, memberID, admin.UserPatch{Role: pointer.To(sec.UserRole("owner"))}, apperr.CodeValidation},
		{"username_taken", staff, memberID, admin.UserPatch{Username: pointer.To("hanamaru")}, apperr.CodeValidation},
		{"email_taken_any_case", staff, memberID, admin.UserPatch{Email: pointer.To("DIA@example.com")}, apperr.CodeValidation},
		{"missing_user", staff, missing, admin.UserPatch{}, apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			updated, err := f.service.UpdateUser(ctx, tt.actor, tt.target, tt.patch)
			if tt.code != "" {
				assert.Equal(t, tt.code, codeOf(err))
				return
			}
			require.NoError(t, err)
			if tt.patch.Role != nil {
				assert.Equal(t, *tt.patch.Role, f.directory.users[tt.target].Role)
				assert.Equal(t, *tt.patch.Role, updated.Role)
			}
		})
	}
}

/*
TestService_UpdateUser_DeactivateRevokes ends sessions of a deactivated account.
*/
func TestService_UpdateUser_DeactivateRevokes(t *testing.T) {
	f := newFixture()

	_, err := f.service.UpdateUser(context.Background(), staff, memberID, admin.UserPatch{IsActive: pointer.To(false)})
	require.NoError(t, err)
	assert.False(t, f.directory.users[memberID].IsActive)
	assert.Equal(t, []string{memberID}, f.identities.revoked)
}

/*
TestService_UpdateUser_DemotionRevokes ends the sessions of an account that
loses a privileged role. Promotions and plain edits keep them.
*/
func TestService_UpdateUser_DemotionRevokes(t *testing.T) {
	tests := []struct {
		name    string
		actor   access.Actor
		target  string
		patch   admin.UserPatch
		revoked []string
	}{
		{"staff_to_member", superuser, staffID, admin.UserPatch{Role: pointer.To(sec.RoleMember)}, []string{staffID}},
		{"admin_to_staff", superuser, adminID, admin.UserPatch{Role: pointer.To(sec.RoleStaff)}, []string{adminID}},
		{"member_to_staff", staff, memberID, admin.UserPatch{Role: pointer.To(sec.RoleStaff)}, nil},
		{"same_role", staff, memberID, admin.UserPatch{Role: pointer.To(sec.RoleMember)}, nil},
		{"profile_edit", superuser, staffID, admin.UserPatch{FirstName: pointer.To("Dia")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.UpdateUser(context.Background(), tt.actor, tt.target, tt.patch)
			require.NoError(t, err)
			assert.Equal(t, tt.revoked, f.identities.revoked)
		})
	}
}

/*
TestService_DeleteUser forbids self-deletion and protects superusers.
*/
func TestService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	assert.Equal(t, apperr.CodeForbidden, codeOf(f.service.DeleteUser(ctx, staff, staffID)))
	assert.Equal(t, apperr.CodeForbidden, codeOf(f.service.DeleteUser(ctx, staff, adminID)))
	assert.Equal(t, apperr.CodeForbidden, codeOf(f.service.DeleteUser(ctx, superuser, adminID)))

	require.NoError(t, f.service.DeleteUser(ctx, staff, memberID))
	assert.NotContains(t, f.directory.users, memberID)
	assert.Equal(t, []string{memberID}, f.images.removed)
	assert.Equal(t, []string{memberID}, f.identities.revoked)
}

/*
TestHandler_Routes covers quick create and the mounted sub-routers.
*/
func TestHandler_Routes(t *testing.T) {
	f := newFixture()
	moderation := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusTeapot)
	})
	router := admin.NewHandler(f.service, moderation, http.NotFoundHandler()).Routes()

	asActor := func(request *http.Request, actor access.Actor) *http.Request {
		claims := &sec.AuthClaims{UserID: actor.UserID, Username: actor.Username, Role: string(actor.Role)}
		return request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		actor  *access.Actor
		status int
	}{
		{"anonymous", http.MethodGet, "/stats", "", nil, http.StatusUnauthorized},
		{"member_forbidden", http.MethodGet, "/stats", "", &member, http.StatusForbidden},
		{"staff_stats", http.MethodGet, "/stats", "", &staff, http.StatusOK},
		{"quick_create", http.MethodPost, "/taxonomy/tags", `{"name":"Idol"}`, &staff, http.StatusCreated},
		{"quick_create_unknown_kind", http.MethodPost, "/taxonomy/colors", `{"name":"Red"}`, &staff, http.StatusNotFound},
		{"quick_create_member_forbidden", http.MethodPost, "/taxonomy/tags", `{"name":"Maid"}`, &member, http.StatusForbidden},
		{"moderation_mounted", http.MethodGet, "/moderation", "", &staff, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.actor != nil {
				request = asActor(request, *tt.actor)
			}
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, request)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}

	require.Len(t, f.terms.created, 1)
	assert.Equal(t, "Idol", f.terms.created[0].Name)
}
