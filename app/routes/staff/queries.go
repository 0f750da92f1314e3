package staff

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const staffSelect = `
	SELECT st.id, st.branch_id, st.employee_code, st.name, st.email, st.phone, st.gender,
		st.department_id, st.designation_id, st.joining_date, st.basic_salary, st.allowances,
		st.deductions, st.bank_name, st.bank_account_no, st.status, st.created_at, st.updated_at,
		dp.name AS department_name, dg.name AS designation_name
	FROM staff st
	JOIN departments dp ON dp.id = st.department_id
	JOIN designations dg ON dg.id = st.designation_id`

type ListParams struct {
	BranchID      string
	DepartmentID  string
	DesignationID string
	Status        string
	Search        string
	Limit         int
	Offset        int
}

func ListStaff(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.Staff, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "st.branch_id = ?", p.BranchID).
		WhereIf(p.DepartmentID != "", "st.department_id = ?", p.DepartmentID).
		WhereIf(p.DesignationID != "", "st.designation_id = ?", p.DesignationID).
		WhereIf(p.Status != "", "st.status = ?", p.Status).
		Search(p.Search, "st.name", "st.employee_code", "st.email")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM staff st`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	staff := []*models.Staff{}
	err = db.SelectContext(ctx, &staff, staffSelect+f.Clause()+` ORDER BY st.name`+page, args...)
	return staff, total, errors.Wrap(err, "list staff")
}

func GetStaffByID(ctx context.Context, db *sqlx.DB, id string) (*models.Staff, error) {
	var s models.Staff
	if err := db.GetContext(ctx, &s, staffSelect+` WHERE st.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get staff")
	}
	return &s, nil
}

func CreateStaff(ctx context.Context, db *sqlx.DB, s *models.Staff) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO staff (id, branch_id, employee_code, name, email, phone, gender, department_id,
			designation_id, joining_date, basic_salary, allowances, deductions, bank_name, bank_account_no, status)
		VALUES (:id, :branch_id, :employee_code, :name, :email, :phone, :gender, :department_id,
			:designation_id, :joining_date, :basic_salary, :allowances, :deductions, :bank_name, :bank_account_no, :status)`, s)
	return errors.Wrap(err, "create staff")
}

func UpdateStaff(ctx context.Context, db *sqlx.DB, s *models.Staff) error {
	res, err := db.NamedExecContext(ctx, `
		UPDATE staff SET employee_code = :employee_code, name = :name, email = :email, phone = :phone,
			gender = :gender, department_id = :department_id, designation_id = :designation_id,
			joining_date = :joining_date, basic_salary = :basic_salary, allowances = :allowances,
			deductions = :deductions, bank_name = :bank_name, bank_account_no = :bank_account_no,
			updated_at = NOW()
		WHERE id = :id`, s)
	return database.Affected(res, err, "update staff")
}

func UpdateStaffStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE staff SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update staff status")
}
