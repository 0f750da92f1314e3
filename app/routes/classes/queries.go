package classes

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const classSelect = `
	SELECT c.id, c.branch_id, c.name, c.academic_year, c.status, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM divisions d WHERE d.class_id = c.id) AS division_count,
		(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id AND s.status = 'active') AS student_count
	FROM classes c`

const divisionSelect = `
	SELECT d.id, d.branch_id, d.class_id, d.name, d.capacity, d.status, d.created_at, d.updated_at,
		(SELECT COUNT(*) FROM students s WHERE s.division_id = d.id AND s.status = 'active') AS student_count
	FROM divisions d`

type ListParams struct {
	BranchID     string
	AcademicYear string
	Status       string
	Search       string
	Limit        int
	Offset       int
}

func ListClasses(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.Class, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "c.branch_id = ?", p.BranchID).
		WhereIf(p.AcademicYear != "", "c.academic_year = ?", p.AcademicYear).
		WhereIf(p.Status != "", "c.status = ?", p.Status).
		Search(p.Search, "c.name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM classes c`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	classes := []*models.Class{}
	err = db.SelectContext(ctx, &classes, classSelect+f.Clause()+` ORDER BY c.academic_year DESC, c.name`+page, args...)
	return classes, total, errors.Wrap(err, "list classes")
}

func GetClassByID(ctx context.Context, db *sqlx.DB, id string) (*models.Class, error) {
	var class models.Class
	if err := db.GetContext(ctx, &class, classSelect+` WHERE c.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get class")
	}
	return &class, nil
}

func CreateClass(ctx context.Context, db *sqlx.DB, class *models.Class) error {
	err := db.GetContext(ctx, class, `
		INSERT INTO classes (id, branch_id, name, academic_year, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, branch_id, name, academic_year, status, created_at, updated_at`,
		class.ID, class.BranchID, class.Name, class.AcademicYear, class.Status)
	return errors.Wrap(err, "create class")
}

func UpdateClass(ctx context.Context, db *sqlx.DB, class *models.Class) error {
	err := db.GetContext(ctx, class, `
		UPDATE classes SET name = $2, academic_year = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, branch_id, name, academic_year, status, created_at, updated_at`,
		class.ID, class.Name, class.AcademicYear)
	return errors.Wrap(err, "update class")
}

func UpdateClassStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE classes SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update class status")
}

// ClassUsage counts the rows that keep a class from being deleted.
func ClassUsage(ctx context.Context, db *sqlx.DB, id string) (students, divisions int, err error) {
	var row struct {
		Students  int `db:"students"`
		Divisions int `db:"divisions"`
	}
	err = db.GetContext(ctx, &row, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE class_id = $1) AS students,
			(SELECT COUNT(*) FROM divisions WHERE class_id = $1) AS divisions`, id)
	return row.Students, row.Divisions, errors.Wrap(err, "class usage")
}

func DeleteClass(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	return database.Affected(res, err, "delete class")
}

func ListDivisions(ctx context.Context, db *sqlx.DB, branchID, classID string) ([]*models.Division, error) {
	f := database.NewFilter().
		WhereIf(branchID != "", "d.branch_id = ?", branchID).
		WhereIf(classID != "", "d.class_id = ?", classID)

	divisions := []*models.Division{}
	err := db.SelectContext(ctx, &divisions, divisionSelect+f.Clause()+` ORDER BY d.name`, f.Args()...)
	return divisions, errors.Wrap(err, "list divisions")
}

func GetDivisionByID(ctx context.Context, db *sqlx.DB, id string) (*models.Division, error) {
	var d models.Division
	if err := db.GetContext(ctx, &d, divisionSelect+` WHERE d.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get division")
	}
	return &d, nil
}

func CreateDivision(ctx context.Context, db *sqlx.DB, d *models.Division) error {
	err := db.GetContext(ctx, d, `
		INSERT INTO divisions (id, branch_id, class_id, name, capacity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, branch_id, class_id, name, capacity, status, created_at, updated_at`,
		d.ID, d.BranchID, d.ClassID, d.Name, d.Capacity, d.Status)
	return errors.Wrap(err, "create division")
}

func UpdateDivision(ctx context.Context, db *sqlx.DB, d *models.Division) error {
	err := db.GetContext(ctx, d, `
		UPDATE divisions SET name = $2, capacity = $3, status = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, branch_id, class_id, name, capacity, status, created_at, updated_at`,
		d.ID, d.Name, d.Capacity, d.Status)
	return errors.Wrap(err, "update division")
}

func CountDivisionStudents(ctx context.Context, db *sqlx.DB, id string) (int, error) {
	return database.Count(ctx, db, `SELECT COUNT(*) FROM students WHERE division_id = $1`, id)
}

func DeleteDivision(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM divisions WHERE id = $1`, id)
	return database.Affected(res, err, "delete division")
}
