package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

const (
	connectAttempts = 5
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// Seams for tests.
var (
	connectFunc    = sqlx.ConnectContext
	connectBackoff = 500 * time.Millisecond
)

// Connect opens the shared connection pool, retrying transient failures
// with exponential backoff.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(connectBackoff))

	var db *sqlx.DB
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		conn, err := connectFunc(ctx, "postgres", dsn)
		if err != nil {
			if !isTransient(err) {
				return err
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("[Database] Connect failed, retrying")
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	log.Info().Int("attempts", attempt).Msg("[Database] Connected")
	return db, nil
}

// isTransient reports whether a connect error may succeed on retry.
// Authentication and unknown-database errors never do.
func isTransient(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "28", "3D":
			return false
		}
	}
	return true
}
