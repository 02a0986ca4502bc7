package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Counter names
const (
	counterPID = "pid"
	counterUID = "uid"
)

// nextValue atomically increments the named counter and returns the new
// value. On first use the counter is seeded from seedQuery, which must
// return the first value to hand out.
func nextValue(ctx context.Context, q sqlx.QueryerContext, name, seedQuery string) (int64, error) {
	query := `
		INSERT INTO counters (name, value)
		VALUES ($1, (` + seedQuery + `))
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`
	var value int64
	if err := sqlx.GetContext(ctx, q, &value, query, name); err != nil {
		return 0, fmt.Errorf("failed to allocate %s: %w", name, err)
	}
	return value, nil
}
