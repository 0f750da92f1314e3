package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// BelongsTo reports whether a row with id exists in table under branchID.
// table must be a trusted identifier, never user input.
func BelongsTo(ctx context.Context, q sqlx.QueryerContext, table, id, branchID string) (bool, error) {
	var ok bool
	err := sqlx.GetContext(ctx, q, &ok,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1 AND branch_id = $2)`, id, branchID)
	return ok, errors.Wrapf(err, "check %s ownership", table)
}

// Count runs a single-value COUNT query.
func Count(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, query, args...)
	return n, errors.Wrap(err, "count")
}
