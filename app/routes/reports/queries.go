package reports

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Fee collection groupings.
const (
	GroupByClass = "class"
	GroupByMode  = "mode"
	GroupByDay   = "day"
)

var collectionGroups = map[string]struct{ key, label, group, order string }{
	GroupByClass: {"c.id::text", "c.name", "c.id, c.name", "c.name"},
	GroupByMode:  {"p.payment_mode", "p.payment_mode", "p.payment_mode", "amount DESC"},
	GroupByDay:   {"to_char(p.paid_on, 'YYYY-MM-DD')", "to_char(p.paid_on, 'DD Mon YYYY')", "p.paid_on", "p.paid_on"},
}

// FeeCollection sums paid fee receipts between from and to, one row per group.
func FeeCollection(ctx context.Context, db *sqlx.DB, branchID, groupBy string, from, to models.Date) ([]*models.CollectionRow, error) {
	g, ok := collectionGroups[groupBy]
	if !ok {
		return nil, errors.Errorf("unknown grouping %q", groupBy)
	}
	f := database.NewFilter().
		Where("p.status = ?", models.FeePaymentPaid).
		WhereIf(branchID != "", "p.branch_id = ?", branchID).
		Where("p.paid_on >= ?", from).
		Where("p.paid_on <= ?", to)

	rows := []*models.CollectionRow{}
	err := db.SelectContext(ctx, &rows, `
		SELECT `+g.key+` AS key, `+g.label+` AS label, COUNT(*) AS payments, COALESCE(SUM(p.amount), 0) AS amount
		FROM fee_payments p
		JOIN students s ON s.id = p.student_id
		JOIN classes c ON c.id = s.class_id`+f.Clause()+`
		GROUP BY `+g.group+`
		ORDER BY `+g.order, f.Args()...)
	return rows, errors.Wrap(err, "fee collection report")
}

// IndentsByStatus counts indents and their amounts per status.
func IndentsByStatus(ctx context.Context, db *sqlx.DB, branchID, status string) ([]*models.IndentStatusRow, error) {
	f := database.NewFilter().
		WhereIf(branchID != "", "i.branch_id = ?", branchID).
		WhereIf(status != "", "i.status = ?", status)

	rows := []*models.IndentStatusRow{}
	err := db.SelectContext(ctx, &rows, `
		SELECT i.status, COUNT(*) AS indents, COALESCE(SUM(i.total_amount), 0) AS total_amount,
			COALESCE(SUM(i.amount_paid), 0) AS amount_paid
		FROM textbook_indents i`+f.Clause()+`
		GROUP BY i.status
		ORDER BY i.status`, f.Args()...)
	return rows, errors.Wrap(err, "indent status report")
}
