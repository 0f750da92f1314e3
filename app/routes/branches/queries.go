package branches

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const branchSelect = `
	SELECT b.id, b.name, b.code, b.address, b.phone, b.email, b.status, b.created_at, b.updated_at,
		(SELECT COUNT(*) FROM students s WHERE s.branch_id = b.id AND s.status = 'active') AS student_count,
		(SELECT COUNT(*) FROM staff st WHERE st.branch_id = b.id AND st.status = 'active') AS staff_count
	FROM branches b`

type ListParams struct {
	BranchID string
	Search   string
	Status   string
	Limit    int
	Offset   int
}

func buildFilter(p ListParams) *database.Filter {
	return database.NewFilter().
		WhereIf(p.BranchID != "", "b.id = ?", p.BranchID).
		WhereIf(p.Status != "", "b.status = ?", p.Status).
		Search(p.Search, "b.name", "b.code")
}

func ListBranches(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.Branch, int, error) {
	f := buildFilter(p)

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM branches b`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	branches := []*models.Branch{}
	if err := db.SelectContext(ctx, &branches, branchSelect+f.Clause()+` ORDER BY b.name`+page, args...); err != nil {
		return nil, 0, errors.Wrap(err, "list branches")
	}
	return branches, total, nil
}

func GetBranchByID(ctx context.Context, db *sqlx.DB, id string) (*models.Branch, error) {
	var b models.Branch
	if err := db.GetContext(ctx, &b, branchSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get branch")
	}
	return &b, nil
}

func CreateBranch(ctx context.Context, db *sqlx.DB, b *models.Branch) error {
	err := db.GetContext(ctx, b, `
		INSERT INTO branches (id, name, code, address, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, code, address, phone, email, status, created_at, updated_at`,
		b.ID, b.Name, b.Code, b.Address, b.Phone, b.Email, b.Status)
	return errors.Wrap(err, "create branch")
}

func UpdateBranch(ctx context.Context, db *sqlx.DB, b *models.Branch) error {
	err := db.GetContext(ctx, b, `
		UPDATE branches SET name = $2, code = $3, address = $4, phone = $5, email = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, code, address, phone, email, status, created_at, updated_at`,
		b.ID, b.Name, b.Code, b.Address, b.Phone, b.Email)
	return errors.Wrap(err, "update branch")
}

func UpdateBranchStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE branches SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update branch status")
}

func CountActiveStudents(ctx context.Context, db *sqlx.DB, branchID string) (int, error) {
	return database.Count(ctx, db, `SELECT COUNT(*) FROM students WHERE branch_id = $1 AND status = 'active'`, branchID)
}
