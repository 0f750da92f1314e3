package database

import (
	"context"

	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// branchCond matches every branch when the first argument is empty.
const branchCond = `($1 = '' OR branch_id::text = $1)`

// GetDashboardStats returns the headline counts and this period's money movement.
func GetDashboardStats(ctx context.Context, q sqlx.QueryerContext, branchID string, from, to models.Date) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	err := sqlx.GetContext(ctx, q, stats, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE `+branchCond+` AND status = 'active') AS students,
			(SELECT COUNT(*) FROM staff WHERE `+branchCond+` AND status = 'active') AS staff,
			(SELECT COUNT(*) FROM classes WHERE `+branchCond+` AND status = 'active') AS classes,
			(SELECT COALESCE(SUM(amount), 0) FROM fee_payments
				WHERE `+branchCond+` AND status = 'paid' AND paid_on BETWEEN $2 AND $3) AS fee_collection,
			(SELECT COALESCE(SUM(amount), 0) FROM finance_entries
				WHERE `+branchCond+` AND kind = 'expense' AND entry_date BETWEEN $2 AND $3) AS expenses,
			(SELECT COALESCE(SUM(amount), 0) FROM finance_entries
				WHERE `+branchCond+` AND kind = 'income' AND entry_date BETWEEN $2 AND $3) AS income,
			(SELECT COALESCE(SUM(net_salary), 0) FROM payroll_entries
				WHERE `+branchCond+` AND status = 'pending') AS pending_payroll,
			(SELECT COUNT(*) FROM textbook_indents WHERE `+branchCond+` AND status = 'pending') AS pending_indents`,
		branchID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "dashboard stats")
	}
	return stats, nil
}

// DuesParams selects active students whose fees are summed. Limit 0 returns every row.
type DuesParams struct {
	BranchID        string
	ClassID         string
	StudentID       string
	AcademicYear    string
	PaidBy          *models.Date // count only payments made on or before this day
	OnlyOutstanding bool
	Limit           int
	Offset          int
}

// duesSelect totals the class fee structure and the transport fee of the student's
// distance group, and subtracts what was paid for the same academic year.
func duesSelect(paidCond string) string {
	return `
	SELECT d.*, GREATEST(d.total_fee - d.paid, 0) AS due FROM (
		SELECT s.id AS student_id, TRIM(s.first_name || ' ' || s.last_name) AS student_name,
			s.admission_no, s.class_id, c.name AS class_name, s.academic_year,
			COALESCE(fs.total_amount, 0) + COALESCE((
				SELECT (g->>'fee')::numeric FROM jsonb_array_elements(r.distance_groups) g
				WHERE g->>'name' = s.distance_group LIMIT 1
			), 0) AS total_fee,
			COALESCE((
				SELECT SUM(p.amount) FROM fee_payments p
				WHERE p.student_id = s.id AND p.academic_year = s.academic_year AND p.status = 'paid'` + paidCond + `
			), 0) AS paid
		FROM students s
		JOIN classes c ON c.id = s.class_id
		LEFT JOIN fee_structures fs ON fs.branch_id = s.branch_id AND fs.class_id = s.class_id
			AND fs.academic_year = s.academic_year AND fs.status = 'active'
		LEFT JOIN transport_routes r ON r.id = s.transport_route_id AND s.uses_transport`
}

// duesFilter returns the filter and the select it belongs to. The payment cutoff takes
// the first placeholder because it appears before the WHERE clause.
func duesFilter(p DuesParams) (*Filter, string) {
	f := NewFilter()
	paidCond := ""
	if p.PaidBy != nil {
		paidCond = " AND p.paid_on <= " + f.Arg(*p.PaidBy)
	}
	f.Where("s.status = ?", models.StatusActive).
		WhereIf(p.BranchID != "", "s.branch_id = ?", p.BranchID).
		WhereIf(p.ClassID != "", "s.class_id = ?", p.ClassID).
		WhereIf(p.StudentID != "", "s.id = ?", p.StudentID).
		WhereIf(p.AcademicYear != "", "s.academic_year = ?", p.AcademicYear)
	return f, duesSelect(paidCond)
}

func duesOuter(p DuesParams) string {
	if p.OnlyOutstanding {
		return `) d) x WHERE x.due > 0`
	}
	return `) d) x`
}

// ListStudentDues returns per-student dues and the number of matching students.
func ListStudentDues(ctx context.Context, q sqlx.QueryerContext, p DuesParams) ([]*models.StudentDue, int, error) {
	f, sel := duesFilter(p)
	inner := `SELECT x.* FROM (` + sel + f.Clause() + duesOuter(p)

	total, err := Count(ctx, q, `SELECT COUNT(*) FROM (`+inner+`) t`, f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	query, args := inner+` ORDER BY x.class_name, x.student_name`, f.Args()
	if p.Limit > 0 {
		var page string
		page, args = f.Page(p.Limit, p.Offset)
		query += page
	}

	dues := []*models.StudentDue{}
	err = sqlx.SelectContext(ctx, q, &dues, query, args...)
	return dues, total, errors.Wrap(err, "list student dues")
}

// TotalDues sums what every active student of the branch still owes. A nil paidBy
// counts every payment made so far.
func TotalDues(ctx context.Context, q sqlx.QueryerContext, branchID, academicYear string, paidBy *models.Date) (float64, error) {
	f, sel := duesFilter(DuesParams{BranchID: branchID, AcademicYear: academicYear, PaidBy: paidBy})
	var total float64
	err := sqlx.GetContext(ctx, q, &total,
		`SELECT COALESCE(SUM(x.due), 0) FROM (`+sel+f.Clause()+`) d) x`, f.Args()...)
	return total, errors.Wrap(err, "total dues")
}

// IndentBalances returns what students owe for issued textbooks and what the branch
// owes back to students who paid for books they returned, over indents created by asOf.
func IndentBalances(ctx context.Context, q sqlx.QueryerContext, branchID string, asOf models.Date) (receivable, refunds float64, err error) {
	var row struct {
		Receivable float64 `db:"receivable"`
		Refunds    float64 `db:"refunds"`
	}
	err = sqlx.GetContext(ctx, q, &row, `
		SELECT COALESCE(SUM(GREATEST(b.billable - i.amount_paid, 0)), 0) AS receivable,
			COALESCE(SUM(GREATEST(i.amount_paid - b.billable, 0)), 0) AS refunds
		FROM textbook_indents i
		JOIN LATERAL (
			SELECT COALESCE(SUM((it.quantity - it.returned_quantity) * it.unit_price), 0) AS billable
			FROM textbook_indent_items it WHERE it.indent_id = i.id
		) b ON true
		WHERE i.branch_id = $1 AND i.status <> 'cancelled' AND i.created_at::date <= $2`, branchID, asOf)
	if err != nil {
		return 0, 0, errors.Wrap(err, "indent balances")
	}
	return row.Receivable, row.Refunds, nil
}
