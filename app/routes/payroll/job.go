package payroll

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// GenerateAll runs payroll generation for the month containing now in every active
// branch. A failing branch is logged and does not stop the others.
func GenerateAll(ctx context.Context, db *sqlx.DB, now time.Time) error {
	branches, err := ActiveBranches(ctx, db)
	if err != nil {
		return err
	}

	month, year := int(now.Month()), now.Year()
	created, failed := 0, 0
	for _, branchID := range branches {
		result, err := Generate(ctx, db, branchID, month, year)
		if err != nil {
			failed++
			log.Error().Err(err).Str("branch_id", branchID).Msg("payroll generation failed")
			continue
		}
		created += result.Created
	}

	log.Info().
		Int("month", month).
		Int("year", year).
		Int("branches", len(branches)).
		Int("failed", failed).
		Int("created", created).
		Msg("monthly payroll generated")
	return nil
}
