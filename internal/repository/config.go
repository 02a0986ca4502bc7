package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// configRepository implements ConfigRepository using sqlx
type configRepository struct {
	db *sqlx.DB
}

// NewConfigRepository creates a new site config repository
func NewConfigRepository(db *sqlx.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) Get(ctx context.Context, key string) (string, error) {
	var val string
	if err := r.db.GetContext(ctx, &val, `SELECT val FROM config WHERE key = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", model.ErrConfigNotFound
		}
		return "", fmt.Errorf("failed to get config: %w", err)
	}
	return val, nil
}

func (r *configRepository) Set(ctx context.Context, key, val string) error {
	query := `INSERT INTO config (key, val) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET val = EXCLUDED.val`
	if _, err := r.db.ExecContext(ctx, query, key, val); err != nil {
		return fmt.Errorf("failed to set config: %w", err)
	}
	return nil
}

func (r *configRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT key, val FROM config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		out[key] = val
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	return out, nil
}
