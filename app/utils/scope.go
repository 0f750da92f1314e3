package utils

import (
	"context"

	"campus-management/app/database"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// EnsureBranch hides records of other branches behind a 404.
func EnsureBranch(c *fiber.Ctx, branchID string) error {
	if !CanAccessBranch(c, branchID) {
		return NotFound("Record not found")
	}
	return nil
}

// EnsureRef checks that the id sent in field references a row of table in branchID.
func EnsureRef(ctx context.Context, q sqlx.QueryerContext, field, table, id, branchID string) error {
	ok, err := database.BelongsTo(ctx, q, table, id, branchID)
	if err != nil {
		return err
	}
	if !ok {
		return Invalid(field, field+" does not exist in this branch")
	}
	return nil
}

// EnsureBranchExists rejects a branch_id that names no active branch.
func EnsureBranchExists(ctx context.Context, q sqlx.QueryerContext, branchID string) error {
	var ok bool
	err := sqlx.GetContext(ctx, q, &ok,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1 AND status = 'active')`, branchID)
	if err != nil {
		return errors.Wrap(err, "check branch")
	}
	if !ok {
		return Invalid("branch_id", "branch_id does not reference an active branch")
	}
	return nil
}
