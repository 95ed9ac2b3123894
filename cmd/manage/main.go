// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command manage runs operational tasks against the Onnanoko database.
//
// # Usage
//
//	manage migrate up
//	manage migrate down [-steps N]
//	manage seed
//	manage thumbnails
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/core/character"
	"github.com/taibuivan/onnanoko/internal/core/image"
	"github.com/taibuivan/onnanoko/internal/core/taxonomy"
	"github.com/taibuivan/onnanoko/internal/platform/blob"
	"github.com/taibuivan/onnanoko/internal/platform/config"
	"github.com/taibuivan/onnanoko/internal/platform/migration"
	pgstore "github.com/taibuivan/onnanoko/internal/platform/postgres"
	"github.com/taibuivan/onnanoko/internal/system/seed"
	"github.com/taibuivan/onnanoko/internal/users/auth"
)

const usage = `usage: manage <command> [flags]

commands:
  migrate up            apply all pending migrations
  migrate down -steps N roll back N migrations (default 1)
  seed                  load the demo dataset
  thumbnails            regenerate every image thumbnail
`

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("app", "onnanoko"), slog.String("component", "manage"))
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "migrate":
		err = runMigrate(cfg, log, os.Args[2:])
	case "seed":
		err = withApp(ctx, cfg, log, func(app *app) error { return app.seed.Run(ctx, cfg.SeedAdminPassword) })
	case "thumbnails":
		err = withApp(ctx, cfg, log, func(app *app) error {
			count, err := app.images.RegenerateThumbnails(ctx)
			if err != nil {
				return err
			}
			log.Info("thumbnails_regenerated", slog.Int("count", count))
			return nil
		})
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error("command_failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

// # Migrations

func runMigrate(cfg *config.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errors.New("migrate: missing direction (up or down)")
	}

	flags := flag.NewFlagSet("migrate "+args[0], flag.ContinueOnError)
	steps := flags.Int("steps", 1, "number of migrations to roll back")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "up":
		return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log)
	case "down":
		return migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, *steps, log)
	default:
		return fmt.Errorf("migrate: unknown direction %q", args[0])
	}
}

// # Application

// app holds the services the data commands need.
type app struct {
	seed   *seed.Loader
	images *image.Service
}

func withApp(ctx context.Context, cfg *config.Config, log *slog.Logger, run func(*app) error) error {
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := blob.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
	if err != nil {
		return err
	}

	return run(newApp(pool, store, log))
}

func newApp(pool *pgxpool.Pool, store blob.Store, log *slog.Logger) *app {
	users := auth.NewUserRepository(pool)
	terms := taxonomy.NewService(taxonomy.NewPostgresRepository(pool), log)
	characters := character.NewService(character.NewPostgresRepository(pool), terms, store, log)
	images := image.NewService(image.NewPostgresRepository(pool), characters, terms, store, log)

	// Sessions and tokens are never touched by the CLI.
	identities := auth.NewService(users, nil, nil, nil, log)

	return &app{
		seed:   seed.NewLoader(users, identities, terms, characters, images, log),
		images: images,
	}
}
