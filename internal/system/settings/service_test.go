// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/access"
	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/sec"
	"github.com/taibuivan/onnanoko/internal/system/settings"
	"github.com/taibuivan/onnanoko/pkg/pointer"
)

// memoryRepository mimics the migration-seeded table.
type memoryRepository struct {
	stored settings.Settings
	loads  int
}

func (repo *memoryRepository) Load(_ context.Context) (*settings.Settings, error) {
	repo.loads++
	copied := repo.stored
	return &copied, nil
}

func (repo *memoryRepository) Save(_ context.Context, value settings.Settings) error {
	value.UpdatedAt = time.Now()
	repo.stored = value
	return nil
}

func newService(t *testing.T) (*settings.Service, *memoryRepository) {
	t.Helper()
	repo := &memoryRepository{stored: settings.Defaults()}
	service := settings.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, service.Load(context.Background()))
	return service, repo
}

/*
TestService_UpdateReloadsSnapshot verifies that a write is visible to readers
without restarting.
*/
func TestService_UpdateReloadsSnapshot(t *testing.T) {
	service, repo := newService(t)
	staff := access.Actor{UserID: "staff-1", Role: sec.RoleStaff}

	assert.True(t, service.AllowSelfRegistration())

	updated, err := service.Update(context.Background(), staff, settings.UpdateInput{
		AllowSelfRegistration: pointer.To(false),
	})
	require.NoError(t, err)

	assert.False(t, updated.AllowSelfRegistration)
	assert.False(t, service.AllowSelfRegistration())
	assert.False(t, updated.UpdatedAt.IsZero())
	assert.Equal(t, 2, repo.loads)
}

/*
TestService_UpdateRequiresStaff ensures members cannot change settings.
*/
func TestService_UpdateRequiresStaff(t *testing.T) {
	service, repo := newService(t)
	member := access.Actor{UserID: "member-1", Role: sec.RoleMember}

	_, err := service.Update(context.Background(), member, settings.UpdateInput{
		AllowSelfRegistration: pointer.To(false),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.As(err).Code)
	assert.True(t, repo.stored.AllowSelfRegistration)
	assert.True(t, service.AllowSelfRegistration())
}

/*
TestService_DefaultsBeforeLoad exposes defaults until the first load.
*/
func TestService_DefaultsBeforeLoad(t *testing.T) {
	repo := &memoryRepository{stored: settings.Settings{AllowSelfRegistration: false}}
	service := settings.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.True(t, service.AllowSelfRegistration())
	require.NoError(t, service.Load(context.Background()))
	assert.False(t, service.AllowSelfRegistration())
}
