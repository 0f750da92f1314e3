package staff

import (
	"testing"
	"time"

	"campus-management/app/models"
	"campus-management/app/services/activity"
	"campus-management/app/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	staffID       = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	departmentID  = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	designationID = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

var staffColumns = []string{
	"id", "branch_id", "employee_code", "name", "email", "phone", "gender",
	"department_id", "designation_id", "joining_date", "basic_salary", "allowances",
	"deductions", "bank_name", "bank_account_no", "status", "created_at", "updated_at",
	"department_name", "designation_name",
}

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupStaffRoutes(r, db, audit) })
	return app, mock, audit
}

func staffRow(branchID string) *sqlmock.Rows {
	return sqlmock.NewRows(staffColumns).AddRow(
		staffID, branchID, "EMP-01", "Priya Nair", "priya@campus.test", "", "female",
		departmentID, designationID, "2023-04-01", 30000.0, 5000.0, 2000.0,
		"", "", "active", time.Now(), time.Now(), "Science", "Teacher",
	)
}

func validRequest() map[string]interface{} {
	return map[string]interface{}{
		"employee_code":  "emp-01",
		"name":           "Priya Nair",
		"email":          "Priya@campus.test",
		"gender":         "female",
		"department_id":  departmentID,
		"designation_id": designationID,
		"joining_date":   "2023-04-01",
		"basic_salary":   30000,
		"allowances":     5000,
		"deductions":     2000,
	}
}

func expectRefs(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(testutil.Q(`FROM departments WHERE id = $1 AND branch_id = $2`)).
		WithArgs(departmentID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(testutil.Q(`FROM designations WHERE id = $1 AND branch_id = $2`)).
		WithArgs(designationID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func TestListStaffFilters(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleAccountant))

	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) FROM staff st WHERE st.branch_id = $1 AND st.department_id = $2`)).
		WithArgs(testutil.BranchID, departmentID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(testutil.Q(`ORDER BY st.name LIMIT $3 OFFSET $4`)).
		WithArgs(testutil.BranchID, departmentID, 20, 0).
		WillReturnRows(staffRow(testutil.BranchID))

	status, env := testutil.Do(t, app, "GET", "/api/staff?department_id="+departmentID, nil)
	require.Equal(t, fiber.StatusOK, status)

	var staff []models.Staff
	env.DataInto(t, &staff)
	require.Len(t, staff, 1)
	assert.Equal(t, "Science", *staff[0].DepartmentName)
	assert.Equal(t, "2023-04-01", staff[0].JoiningDate.String())
}

func TestCreateStaff(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	expectRefs(mock)
	mock.ExpectExec(testutil.Q(`INSERT INTO staff`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, "EMP-01", "Priya Nair", "priya@campus.test", "", "female",
			departmentID, designationID, "2023-04-01", 30000.0, 5000.0, 2000.0, "", "", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(testutil.Q(`WHERE st.id = $1`)).
		WillReturnRows(staffRow(testutil.BranchID))

	status, env := testutil.Do(t, app, "POST", "/api/staff", validRequest())
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.Equal(t, models.ActionCreate, audit.Last().Action)
}

func TestCreateStaffRequiresJoiningDate(t *testing.T) {
	app, _, _ := newApp(t, testutil.Admin())

	req := validRequest()
	delete(req, "joining_date")

	status, env := testutil.Do(t, app, "POST", "/api/staff", req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "joining_date")
}

func TestCreateStaffNegativeNetSalary(t *testing.T) {
	app, _, _ := newApp(t, testutil.Admin())

	req := validRequest()
	req["deductions"] = 40000

	status, env := testutil.Do(t, app, "POST", "/api/staff", req)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "deductions")
}

func TestCreateStaffForeignDepartment(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`FROM departments WHERE id = $1 AND branch_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	status, env := testutil.Do(t, app, "POST", "/api/staff", validRequest())
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "department_id")
}

func TestDeleteStaffDeactivates(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE st.id = $1`)).
		WithArgs(staffID).
		WillReturnRows(staffRow(testutil.BranchID))
	mock.ExpectExec(testutil.Q(`UPDATE staff SET status = $2`)).
		WithArgs(staffID, "inactive").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, _ := testutil.Do(t, app, "DELETE", "/api/staff/"+staffID, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestGetStaffOtherBranch(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE st.id = $1`)).
		WithArgs(staffID).
		WillReturnRows(staffRow(testutil.OtherBranchID))

	status, _ := testutil.Do(t, app, "GET", "/api/staff/"+staffID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
