// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/onnanoko/internal/platform/database/schema"
	"github.com/taibuivan/onnanoko/internal/platform/dberr"
	"github.com/taibuivan/onnanoko/internal/platform/postgres"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed settings store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Load decodes each JSONB value into its typed field.
func (repository *PostgresRepository) Load(ctx context.Context) (*Settings, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s`,
		schema.SystemSetting.Key, schema.SystemSetting.Value, schema.SystemSetting.UpdatedAt,
		schema.SystemSetting.Table,
	)

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "load_settings")
	}
	defer rows.Close()

	settings := Defaults()
	for rows.Next() {
		var (
			key       string
			raw       []byte
			updatedAt time.Time
		)
		if err := rows.Scan(&key, &raw, &updatedAt); err != nil {
			return nil, dberr.Wrap(err, "scan_setting")
		}

		if updatedAt.After(settings.UpdatedAt) {
			settings.UpdatedAt = updatedAt
		}

		switch key {
		case KeyAllowSelfRegistration:
			if err := json.Unmarshal(raw, &settings.AllowSelfRegistration); err != nil {
				return nil, dberr.Wrap(fmt.Errorf("decode %s: %w", key, err), "load_settings")
			}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "load_settings")
	}

	return &settings, nil
}

// Save upserts every setting row.
func (repository *PostgresRepository) Save(ctx context.Context, settings Settings) error {
	values := map[string]any{
		KeyAllowSelfRegistration: settings.AllowSelfRegistration,
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, NOW())
		ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s, %s = NOW()
	`,
		schema.SystemSetting.Table,
		schema.SystemSetting.Key, schema.SystemSetting.Value, schema.SystemSetting.UpdatedAt,
		schema.SystemSetting.Key,
		schema.SystemSetting.Value, schema.SystemSetting.Value, schema.SystemSetting.UpdatedAt,
	)

	err := postgres.WithTx(ctx, repository.pool, func(tx pgx.Tx) error {
		for key, value := range values {
			encoded, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode %s: %w", key, err)
			}
			if _, err := tx.Exec(ctx, query, key, encoded); err != nil {
				return err
			}
		}
		return nil
	})
	return dberr.Wrap(err, "save_settings")
}
