package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetCursor returns the stored cursor for a sync key, or "" when no sync
// has completed yet.
func (db *DB) GetCursor(ctx context.Context, key string) (string, error) {
	var value string
	err := db.pool.QueryRow(ctx,
		`SELECT value FROM sync_state WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get cursor %s: %w", key, err)
	}
	return value, nil
}

// AdvanceCursor stores a new cursor value, refusing to move backwards.
// Cursor values are numeric provider positions; the comparison happens in
// SQL so concurrent writers cannot interleave a regression. Returns whether
// the cursor actually moved.
func (db *DB) AdvanceCursor(ctx context.Context, key, value string) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`INSERT INTO sync_state (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		 WHERE sync_state.value::bigint < EXCLUDED.value::bigint`,
		key, value,
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance cursor %s: %w", key, err)
	}
	return result.RowsAffected() > 0, nil
}
