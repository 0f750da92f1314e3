package activitylogs

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const logColumns = `id, branch_id, user_id, user_name, role, module, action, entity_id, description, metadata, ip_address, created_at`

type ListParams struct {
	BranchID string
	Module   string
	Action   string
	UserID   string
	EntityID string
	From     *models.Date
	To       *models.Date
	Search   string
	Limit    int
	Offset   int
}

func ListLogs(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.ActivityLog, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "branch_id = ?", p.BranchID).
		WhereIf(p.Module != "", "module = ?", p.Module).
		WhereIf(p.Action != "", "action = ?", p.Action).
		WhereIf(p.UserID != "", "user_id = ?", p.UserID).
		WhereIf(p.EntityID != "", "entity_id = ?", p.EntityID)
	if p.From != nil {
		f.Where("created_at >= ?", p.From)
	}
	if p.To != nil {
		// to is inclusive of the whole day
		f.Where("created_at < ?", models.NewDate(p.To.AddDate(0, 0, 1)))
	}
	f.Search(p.Search, "description", "user_name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM activity_logs`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	logs := []*models.ActivityLog{}
	err = db.SelectContext(ctx, &logs,
		`SELECT `+logColumns+` FROM activity_logs`+f.Clause()+` ORDER BY created_at DESC`+page, args...)
	return logs, total, errors.Wrap(err, "list activity logs")
}
