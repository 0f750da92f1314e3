package auth

import (
	"context"

	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const userColumns = `u.id, u.branch_id, u.name, u.email, u.password, u.role, u.status, u.last_login_at, u.created_at, u.updated_at, b.name AS branch_name`

func GetUserByEmail(ctx context.Context, db *sqlx.DB, email string) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN branches b ON b.id = u.branch_id
		WHERE LOWER(u.email) = LOWER($1)`, email)
	if err != nil {
		return nil, errors.Wrap(err, "get user by email")
	}
	return &user, nil
}

func GetUserByID(ctx context.Context, db *sqlx.DB, id string) (*models.User, error) {
	var user models.User
	err := db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN branches b ON b.id = u.branch_id
		WHERE u.id = $1`, id)
	if err != nil {
		return nil, errors.Wrap(err, "get user by id")
	}
	return &user, nil
}

func UpdateUserPassword(ctx context.Context, db *sqlx.DB, userID, hashedPassword string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hashedPassword, userID)
	return errors.Wrap(err, "update user password")
}

func TouchLastLogin(ctx context.Context, db *sqlx.DB, userID string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	return errors.Wrap(err, "update last login")
}
