// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/taibuivan/onnanoko/internal/access"
)

// Service owns the in-process settings snapshot.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	current atomic.Pointer[Settings]
}

// NewService constructs a [Service]. The snapshot holds [Defaults] until
// [Service.Load] succeeds.
func NewService(repo Repository, logger *slog.Logger) *Service {
	service := &Service{repo: repo, logger: logger}
	defaults := Defaults()
	service.current.Store(&defaults)
	return service
}

// Load reads the stored settings and publishes them as the current snapshot.
// It is called once at startup and after every write.
func (service *Service) Load(ctx context.Context) error {
	loaded, err := service.repo.Load(ctx)
	if err != nil {
		return err
	}

	service.current.Store(loaded)
	service.logger.Info("settings_reloaded",
		slog.Bool("allow_self_registration", loaded.AllowSelfRegistration),
	)
	return nil
}

// Current returns a copy of the snapshot.
func (service *Service) Current() Settings {
	return *service.current.Load()
}

// AllowSelfRegistration reports whether visitors may create accounts.
func (service *Service) AllowSelfRegistration() bool {
	return service.current.Load().AllowSelfRegistration
}

/*
Update applies a partial change, persists it and reloads the snapshot.

Parameters:
  - ctx: context.Context
  - actor: access.Actor (must be staff)
  - input: UpdateInput

Returns:
  - Settings: The reloaded snapshot
  - error: PermissionError, or storage failures
*/
func (service *Service) Update(ctx context.Context, actor access.Actor, input UpdateInput) (Settings, error) {
	if err := access.Require(actor, access.ActionUpdate, access.Settings()); err != nil {
		return Settings{}, err
	}

	next := service.Current()
	if input.AllowSelfRegistration != nil {
		next.AllowSelfRegistration = *input.AllowSelfRegistration
	}

	if err := service.repo.Save(ctx, next); err != nil {
		return Settings{}, err
	}

	if err := service.Load(ctx); err != nil {
		return Settings{}, err
	}

	service.logger.Info("settings_updated", slog.String("actor_id", actor.UserID))
	return service.Current(), nil
}
