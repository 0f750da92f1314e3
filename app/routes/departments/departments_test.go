package departments

import (
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

const unitID = "99999999-9999-9999-9999-999999999999"

var unitColumns = []string{"id", "branch_id", "name", "description", "status", "created_at", "updated_at", "staff_count"}

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupDepartmentsRoutes(r, db, audit) })
	return app, mock, audit
}

func unitRow(branchID, name string, staff int) *sqlmock.Rows {
	return sqlmock.NewRows(unitColumns).AddRow(unitID, branchID, name, "", "active", time.Now(), time.Now(), staff)
}

func TestListDepartments(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleAccountant))

	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM departments x WHERE x.branch_id = $1`)).
		WithArgs(testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(testutil.Q(`st.department_id = x.id`)).
		WithArgs(testutil.BranchID, 20, 0).
		WillReturnRows(unitRow(testutil.BranchID, "Science", 6))

	status, env := testutil.Do(t, app, "GET", "/api/departments", nil)
	require.Equal(t, fiber.StatusOK, status)

	var units []models.OrgUnit
	env.DataInto(t, &units)
	require.Len(t, units, 1)
	assert.Equal(t, 6, units[0].StaffCount)
}

func TestListDesignationsUsesOwnTable(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM designations x WHERE x.branch_id = $1 AND (x.name ILIKE $2)`)).
		WithArgs(testutil.BranchID, "%teach%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(testutil.Q(`st.designation_id = x.id`)).
		WillReturnRows(sqlmock.NewRows(unitColumns))

	status, _ := testutil.Do(t, app, "GET", "/api/designations?search=teach", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestCreateDesignation(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`INSERT INTO designations`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, "Senior Teacher", "", "active").
		WillReturnRows(sqlmock.NewRows(unitColumns[:7]).
			AddRow(unitID, testutil.BranchID, "Senior Teacher", "", "active", time.Now(), time.Now()))

	status, env := testutil.Do(t, app, "POST", "/api/designations", UnitRequest{Name: "Senior Teacher"})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Designation created successfully", env.Message)
	assert.Equal(t, "Created designation Senior Teacher", audit.Last().Description)
}

func TestCreateDepartmentDuplicate(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`INSERT INTO departments`)).
		WillReturnError(&pq.Error{Code: "23505"})

	status, _ := testutil.Do(t, app, "POST", "/api/departments", UnitRequest{Name: "Science"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAccountantCannotCreateDepartment(t *testing.T) {
	app, _, _ := newApp(t, testutil.As(models.RoleAccountant))

	status, _ := testutil.Do(t, app, "POST", "/api/departments", UnitRequest{Name: "Science"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestDeleteDepartmentInUse(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE x.id = $1`)).
		WithArgs(unitID).
		WillReturnRows(unitRow(testutil.BranchID, "Science", 0))
	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM staff WHERE department_id = $1`)).
		WithArgs(unitID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	status, env := testutil.Do(t, app, "DELETE", "/api/departments/"+unitID, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "2 staff members")
}

func TestDeleteDesignation(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE x.id = $1`)).
		WithArgs(unitID).
		WillReturnRows(unitRow(testutil.BranchID, "Clerk", 0))
	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM staff WHERE designation_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(testutil.Q(`DELETE FROM designations WHERE id = $1`)).
		WithArgs(unitID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, _ := testutil.Do(t, app, "DELETE", "/api/designations/"+unitID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.ActionDelete, audit.Last().Action)
}

func TestUpdateDepartmentOtherBranch(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE x.id = $1`)).
		WithArgs(unitID).
		WillReturnRows(unitRow(testutil.OtherBranchID, "Science", 0))

	status, _ := testutil.Do(t, app, "PUT", "/api/departments/"+unitID, UnitRequest{Name: "Sciences"})
	assert.Equal(t, fiber.StatusNotFound, status)
}
