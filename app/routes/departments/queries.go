package departments

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type ListParams struct {
	BranchID string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func (k kind) selectSQL() string {
	return `
		SELECT x.id, x.branch_id, x.name, x.description, x.status, x.created_at, x.updated_at,
			(SELECT COUNT(*) FROM staff st WHERE st.` + k.staffRef + ` = x.id AND st.status = 'active') AS staff_count
		FROM ` + k.table + ` x`
}

func (k kind) List(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.OrgUnit, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "x.branch_id = ?", p.BranchID).
		WhereIf(p.Status != "", "x.status = ?", p.Status).
		Search(p.Search, "x.name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM `+k.table+` x`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	units := []*models.OrgUnit{}
	err = db.SelectContext(ctx, &units, k.selectSQL()+f.Clause()+` ORDER BY x.name`+page, args...)
	return units, total, errors.Wrapf(err, "list %s", k.table)
}

func (k kind) Get(ctx context.Context, db *sqlx.DB, id string) (*models.OrgUnit, error) {
	var u models.OrgUnit
	if err := db.GetContext(ctx, &u, k.selectSQL()+` WHERE x.id = $1`, id); err != nil {
		return nil, errors.Wrapf(err, "get %s", k.table)
	}
	return &u, nil
}

func (k kind) Create(ctx context.Context, db *sqlx.DB, u *models.OrgUnit) error {
	err := db.GetContext(ctx, u, `
		INSERT INTO `+k.table+` (id, branch_id, name, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, branch_id, name, description, status, created_at, updated_at`,
		u.ID, u.BranchID, u.Name, u.Description, u.Status)
	return errors.Wrapf(err, "create %s", k.table)
}

func (k kind) Update(ctx context.Context, db *sqlx.DB, u *models.OrgUnit) error {
	err := db.GetContext(ctx, u, `
		UPDATE `+k.table+` SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, branch_id, name, description, status, created_at, updated_at`,
		u.ID, u.Name, u.Description)
	return errors.Wrapf(err, "update %s", k.table)
}

func (k kind) UpdateStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE `+k.table+` SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update "+k.table+" status")
}

// StaffCount counts staff of any status that reference the row.
func (k kind) StaffCount(ctx context.Context, db *sqlx.DB, id string) (int, error) {
	return database.Count(ctx, db, `SELECT COUNT(*) FROM staff WHERE `+k.staffRef+` = $1`, id)
}

func (k kind) Delete(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM `+k.table+` WHERE id = $1`, id)
	return database.Affected(res, err, "delete "+k.table)
}
