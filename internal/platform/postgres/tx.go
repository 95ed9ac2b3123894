// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	transaction, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}

	// Rollback after Commit is a no-op
	defer transaction.Rollback(ctx)

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceLinks rewrites the rows of a many-to-many link table for one owner.
//
// Every existing link of ownerID is removed, then one row per value is
// inserted through a single batch.
func ReplaceLinks(ctx context.Context, tx pgx.Tx, table, ownerColumn, valueColumn, ownerID string, values []string) error {
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, ownerColumn)
	if _, err := tx.Exec(ctx, deleteQuery, ownerID); err != nil {
		return fmt.Errorf("postgres: failed to clear %s: %w", table, err)
	}

	if len(values) == 0 {
		return nil
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING", table, ownerColumn, valueColumn)
	batch := &pgx.Batch{}
	for _, value := range values {
		batch.Queue(insertQuery, ownerID, value)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: failed to batch insert into %s: %w", table, err)
	}
	return nil
}
