package payroll

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const entrySelect = `
	SELECT pe.id, pe.branch_id, pe.staff_id, pe.month, pe.year, pe.basic_salary, pe.allowances,
		pe.deductions, pe.net_salary, pe.status, pe.paid_on, pe.payment_mode, pe.account_id, pe.remarks,
		pe.created_at, pe.updated_at,
		st.name AS staff_name, st.employee_code, d.name AS department_name
	FROM payroll_entries pe
	JOIN staff st ON st.id = pe.staff_id
	LEFT JOIN departments d ON d.id = st.department_id`

type ListParams struct {
	BranchID     string
	Month        int
	Year         int
	Status       string
	StaffID      string
	DepartmentID string
	Limit        int
	Offset       int
}

func buildFilter(p ListParams) *database.Filter {
	return database.NewFilter().
		WhereIf(p.BranchID != "", "pe.branch_id = ?", p.BranchID).
		WhereIf(p.Month > 0, "pe.month = ?", p.Month).
		WhereIf(p.Year > 0, "pe.year = ?", p.Year).
		WhereIf(p.Status != "", "pe.status = ?", p.Status).
		WhereIf(p.StaffID != "", "pe.staff_id = ?", p.StaffID).
		WhereIf(p.DepartmentID != "", "st.department_id = ?", p.DepartmentID)
}

// ListEntries returns a page of entries plus totals over every matching entry.
func ListEntries(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.PayrollEntry, *models.PayrollTotals, error) {
	f := buildFilter(p)

	totals := &models.PayrollTotals{}
	err := db.GetContext(ctx, totals, `
		SELECT COUNT(*) AS entries,
			COALESCE(SUM(pe.basic_salary), 0) AS basic_salary,
			COALESCE(SUM(pe.allowances), 0) AS allowances,
			COALESCE(SUM(pe.deductions), 0) AS deductions,
			COALESCE(SUM(pe.net_salary), 0) AS net_salary,
			COALESCE(SUM(pe.net_salary) FILTER (WHERE pe.status = 'paid'), 0) AS paid,
			COALESCE(SUM(pe.net_salary) FILTER (WHERE pe.status = 'pending'), 0) AS pending
		FROM payroll_entries pe JOIN staff st ON st.id = pe.staff_id`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "payroll totals")
	}

	page, args := f.Page(p.Limit, p.Offset)
	entries := []*models.PayrollEntry{}
	err = db.SelectContext(ctx, &entries,
		entrySelect+f.Clause()+` ORDER BY pe.year DESC, pe.month DESC, st.name`+page, args...)
	return entries, totals, errors.Wrap(err, "list payroll entries")
}

func GetEntryByID(ctx context.Context, db *sqlx.DB, id string) (*models.PayrollEntry, error) {
	var e models.PayrollEntry
	if err := db.GetContext(ctx, &e, entrySelect+` WHERE pe.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get payroll entry")
	}
	return &e, nil
}

// UpdatePendingEntry rewrites the salary figures of an entry that is still pending.
func UpdatePendingEntry(ctx context.Context, db *sqlx.DB, e *models.PayrollEntry) error {
	res, err := db.ExecContext(ctx, `
		UPDATE payroll_entries SET basic_salary = $2, allowances = $3, deductions = $4, net_salary = $5,
			remarks = $6, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		e.ID, e.BasicSalary, e.Allowances, e.Deductions, e.NetSalary, e.Remarks)
	return database.Affected(res, err, "update payroll entry")
}

// MarkPaid settles a pending entry.
func MarkPaid(ctx context.Context, ex sqlx.ExecerContext, e *models.PayrollEntry) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE payroll_entries SET status = 'paid', paid_on = $2, payment_mode = $3, account_id = $4,
			remarks = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		e.ID, e.PaidOn, e.PaymentMode, e.AccountID, e.Remarks)
	return database.Affected(res, err, "pay payroll entry")
}

func DeletePendingEntry(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM payroll_entries WHERE id = $1 AND status = 'pending'`, id)
	return database.Affected(res, err, "delete payroll entry")
}

type salaryConfig struct {
	StaffID     string  `db:"id"`
	BasicSalary float64 `db:"basic_salary"`
	Allowances  float64 `db:"allowances"`
	Deductions  float64 `db:"deductions"`
}

// Generate creates a pending entry for every active staff member of the branch
// from their salary configuration. Staff who already have an entry for the period
// are skipped, as are configurations that would pay a negative net salary.
func Generate(ctx context.Context, db *sqlx.DB, branchID string, month, year int) (*models.GenerateResult, error) {
	result := &models.GenerateResult{Month: month, Year: year}

	err := database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		var staff []salaryConfig
		err := tx.SelectContext(ctx, &staff, `
			SELECT id, basic_salary, allowances, deductions FROM staff
			WHERE branch_id = $1 AND status = 'active'
			ORDER BY name`, branchID)
		if err != nil {
			return errors.Wrap(err, "load staff salaries")
		}

		for _, s := range staff {
			net, err := models.NetSalary(s.BasicSalary, s.Allowances, s.Deductions)
			if err != nil {
				result.Skipped++
				continue
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO payroll_entries (id, branch_id, staff_id, month, year, basic_salary, allowances, deductions, net_salary)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (staff_id, month, year) DO NOTHING`,
				uuid.NewString(), branchID, s.StaffID, month, year, s.BasicSalary, s.Allowances, s.Deductions, net)
			if err != nil {
				return errors.Wrap(err, "insert payroll entry")
			}
			if n, _ := res.RowsAffected(); n > 0 {
				result.Created++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ActiveBranches lists the ids of every active branch.
func ActiveBranches(ctx context.Context, db *sqlx.DB) ([]string, error) {
	ids := []string{}
	err := db.SelectContext(ctx, &ids, `SELECT id FROM branches WHERE status = 'active' ORDER BY name`)
	return ids, errors.Wrap(err, "list active branches")
}
