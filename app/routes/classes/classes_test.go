package classes

import (
	"database/sql"
	"testing"
	"time"

	"campus-management/app/models"
	"campus-management/app/services/activity"
	"campus-management/app/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	classID    = "55555555-5555-5555-5555-555555555555"
	divisionID = "66666666-6666-6666-6666-666666666666"
)

var (
	classColumns    = []string{"id", "branch_id", "name", "academic_year", "status", "created_at", "updated_at", "division_count", "student_count"}
	divisionColumns = []string{"id", "branch_id", "class_id", "name", "capacity", "status", "created_at", "updated_at", "student_count"}
)

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupClassesRoutes(r, db, audit) })
	return app, mock, audit
}

func classRow(branchID string) *sqlmock.Rows {
	return sqlmock.NewRows(classColumns).
		AddRow(classID, branchID, "Grade 5", "2024-2025", "active", time.Now(), time.Now(), 2, 40)
}

func TestListClassesFilters(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleTeacher))

	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM classes c WHERE c.branch_id = $1 AND c.academic_year = $2 AND (c.name ILIKE $3)`)).
		WithArgs(testutil.BranchID, "2024-2025", "%grade%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(testutil.Q(`ORDER BY c.academic_year DESC, c.name LIMIT $4 OFFSET $5`)).
		WithArgs(testutil.BranchID, "2024-2025", "%grade%", 20, 0).
		WillReturnRows(classRow(testutil.BranchID))

	status, env := testutil.Do(t, app, "GET", "/api/classes?academic_year=2024-2025&search=grade", nil)
	require.Equal(t, fiber.StatusOK, status)

	var classes []models.Class
	env.DataInto(t, &classes)
	require.Len(t, classes, 1)
	assert.Equal(t, 2, classes[0].DivisionCount)
	assert.Equal(t, 40, classes[0].StudentCount)
}

func TestCreateClassValidatesAcademicYear(t *testing.T) {
	app, _, _ := newApp(t, testutil.Admin())

	status, env := testutil.Do(t, app, "POST", "/api/classes", ClassRequest{Name: "Grade 5", AcademicYear: "2024-2026"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t)["academic_year"], "academic year")
}

func TestCreateClass(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`INSERT INTO classes`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, "Grade 5", "2024-2025", "active").
		WillReturnRows(sqlmock.NewRows(classColumns[:7]).
			AddRow(classID, testutil.BranchID, "Grade 5", "2024-2025", "active", time.Now(), time.Now()))

	status, _ := testutil.Do(t, app, "POST", "/api/classes", ClassRequest{Name: "Grade 5", AcademicYear: "2024-2025"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.ActionCreate, audit.Last().Action)
}

func TestCreateClassDuplicate(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`INSERT INTO classes`)).
		WillReturnError(&pq.Error{Code: "23505"})

	status, env := testutil.Do(t, app, "POST", "/api/classes", ClassRequest{Name: "Grade 5", AcademicYear: "2024-2025"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "already exists")
}

func TestGetClassIncludesDivisions(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.BranchID))
	mock.ExpectQuery(testutil.Q(`WHERE d.branch_id = $1 AND d.class_id = $2 ORDER BY d.name`)).
		WithArgs(testutil.BranchID, classID).
		WillReturnRows(sqlmock.NewRows(divisionColumns).
			AddRow(divisionID, testutil.BranchID, classID, "A", 40, "active", time.Now(), time.Now(), 20))

	status, env := testutil.Do(t, app, "GET", "/api/classes/"+classID, nil)
	require.Equal(t, fiber.StatusOK, status)

	var class models.Class
	env.DataInto(t, &class)
	require.Len(t, class.Divisions, 1)
	assert.Equal(t, "A", class.Divisions[0].Name)
}

func TestGetClassOtherBranch(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.OtherBranchID))

	status, _ := testutil.Do(t, app, "GET", "/api/classes/"+classID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGetClassMissing(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnError(sql.ErrNoRows)

	status, env := testutil.Do(t, app, "GET", "/api/classes/"+classID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Record not found", env.Message)
}

func TestDeleteClassBlockedByStudents(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.BranchID))
	mock.ExpectQuery(testutil.Q(`FROM students WHERE class_id = $1`)).
		WithArgs(classID).
		WillReturnRows(sqlmock.NewRows([]string{"students", "divisions"}).AddRow(4, 0))

	status, env := testutil.Do(t, app, "DELETE", "/api/classes/"+classID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "4 students")
}

func TestDeleteClassBlockedByDivisions(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.BranchID))
	mock.ExpectQuery(testutil.Q(`FROM divisions WHERE class_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"students", "divisions"}).AddRow(0, 2))

	status, env := testutil.Do(t, app, "DELETE", "/api/classes/"+classID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "2 divisions")
}

func TestDeleteClass(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.BranchID))
	mock.ExpectQuery(testutil.Q(`FROM divisions WHERE class_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"students", "divisions"}).AddRow(0, 0))
	mock.ExpectExec(testutil.Q(`DELETE FROM classes WHERE id = $1`)).
		WithArgs(classID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, _ := testutil.Do(t, app, "DELETE", "/api/classes/"+classID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.ActionDelete, audit.Last().Action)
}

func TestCreateDivisionUsesClassBranch(t *testing.T) {
	app, mock, _ := newApp(t, testutil.SuperAdmin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.OtherBranchID))
	mock.ExpectQuery(testutil.Q(`INSERT INTO divisions`)).
		WithArgs(sqlmock.AnyArg(), testutil.OtherBranchID, classID, "B", 35, "active").
		WillReturnRows(sqlmock.NewRows(divisionColumns[:8]).
			AddRow(divisionID, testutil.OtherBranchID, classID, "B", 35, "active", time.Now(), time.Now()))

	status, env := testutil.Do(t, app, "POST", "/api/divisions", DivisionRequest{ClassID: classID, Name: "B", Capacity: 35})
	require.Equal(t, fiber.StatusCreated, status, env.Message)
}

func TestCreateDivisionForeignClass(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE c.id = $1`)).
		WithArgs(classID).
		WillReturnRows(classRow(testutil.OtherBranchID))

	status, env := testutil.Do(t, app, "POST", "/api/divisions", DivisionRequest{ClassID: classID, Name: "B"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "class_id")
}

func TestUpdateDivisionCapacityBelowEnrolment(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE d.id = $1`)).
		WithArgs(divisionID).
		WillReturnRows(sqlmock.NewRows(divisionColumns).
			AddRow(divisionID, testutil.BranchID, classID, "A", 40, "active", time.Now(), time.Now(), 30))

	status, env := testutil.Do(t, app, "PUT", "/api/divisions/"+divisionID, DivisionRequest{ClassID: classID, Name: "A", Capacity: 25})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "capacity")
}

func TestDeleteDivisionBlockedByStudents(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE d.id = $1`)).
		WithArgs(divisionID).
		WillReturnRows(sqlmock.NewRows(divisionColumns).
			AddRow(divisionID, testutil.BranchID, classID, "A", 40, "active", time.Now(), time.Now(), 3))
	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM students WHERE division_id = $1`)).
		WithArgs(divisionID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	status, _ := testutil.Do(t, app, "DELETE", "/api/divisions/"+divisionID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}
