package users

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const userSelect = `
	SELECT u.id, u.branch_id, u.name, u.email, u.password, u.role, u.status, u.last_login_at, u.created_at, u.updated_at,
		b.name AS branch_name
	FROM users u
	LEFT JOIN branches b ON b.id = u.branch_id`

type ListParams struct {
	BranchID string
	Role     string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func ListUsers(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.User, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "u.branch_id = ?", p.BranchID).
		WhereIf(p.Role != "", "u.role = ?", p.Role).
		WhereIf(p.Status != "", "u.status = ?", p.Status).
		Search(p.Search, "u.name", "u.email")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM users u`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	users := []*models.User{}
	if err := db.SelectContext(ctx, &users, userSelect+f.Clause()+` ORDER BY u.name`+page, args...); err != nil {
		return nil, 0, errors.Wrap(err, "list users")
	}
	return users, total, nil
}

func GetUserByID(ctx context.Context, db *sqlx.DB, id string) (*models.User, error) {
	var u models.User
	if err := db.GetContext(ctx, &u, userSelect+` WHERE u.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	return &u, nil
}

func CreateUser(ctx context.Context, db *sqlx.DB, u *models.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, branch_id, name, email, password, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.BranchID, u.Name, u.Email, u.Password, u.Role, u.Status)
	return errors.Wrap(err, "create user")
}

// UpdateUser saves profile fields; the password changes only when u.Password is set.
func UpdateUser(ctx context.Context, db *sqlx.DB, u *models.User) error {
	res, err := db.ExecContext(ctx, `
		UPDATE users SET branch_id = $2, name = $3, email = $4, role = $5,
			password = COALESCE(NULLIF($6, ''), password), updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.BranchID, u.Name, u.Email, u.Role, u.Password)
	return database.Affected(res, err, "update user")
}

func UpdateUserStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update user status")
}
