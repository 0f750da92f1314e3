package payroll

import (
	"context"
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
	entryID   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	staffA    = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	staffB    = "cccccccc-cccc-cccc-cccc-cccccccccccc"
	accountID = "dddddddd-dddd-dddd-dddd-dddddddddddd"
)

var entryCols = []string{
	"id", "branch_id", "staff_id", "month", "year", "basic_salary", "allowances", "deductions", "net_salary",
	"status", "paid_on", "payment_mode", "account_id", "remarks", "created_at", "updated_at",
	"staff_name", "employee_code", "department_name",
}

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupPayrollRoutes(r, db, audit) })
	return app, mock, audit
}

func expectEntry(mock sqlmock.Sqlmock, status string) {
	mock.ExpectQuery(testutil.Q(`WHERE pe.id = $1`)).
		WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(
			entryID, testutil.BranchID, staffA, 6, 2024, 30000.0, 5000.0, 2000.0, 33000.0,
			status, nil, "", nil, "", time.Now(), time.Now(),
			"Priya Nair", "EMP-01", "Science",
		))
}

func expectGenerate(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`FROM staff`)).
		WithArgs(testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "basic_salary", "allowances", "deductions"}).
			AddRow(staffA, 30000.0, 5000.0, 2000.0).
			AddRow(staffB, 25000.0, 0.0, 0.0))
	mock.ExpectExec(testutil.Q(`ON CONFLICT (staff_id, month, year) DO NOTHING`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, staffA, 6, 2024, 30000.0, 5000.0, 2000.0, 33000.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(testutil.Q(`ON CONFLICT (staff_id, month, year) DO NOTHING`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, staffB, 6, 2024, 25000.0, 0.0, 0.0, 25000.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestGeneratePayrollSkipsExisting(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleAccountant))
	expectGenerate(mock)

	status, env := testutil.Do(t, app, "POST", "/api/payroll/generate", map[string]interface{}{"month": 6, "year": 2024})
	require.Equal(t, fiber.StatusOK, status)

	var result models.GenerateResult
	env.DataInto(t, &result)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, models.ActionGenerate, audit.Last().Action)
}

func TestGeneratePayrollValidatesMonth(t *testing.T) {
	app, _, _ := newApp(t, testutil.Admin())

	status, env := testutil.Do(t, app, "POST", "/api/payroll/generate", map[string]interface{}{"month": 13, "year": 2024})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "month")
}

func TestUpdatePendingRecomputesNet(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectEntry(mock, models.PayrollPending)
	mock.ExpectExec(testutil.Q(`UPDATE payroll_entries SET basic_salary = $2`)).
		WithArgs(entryID, 32000.0, 4000.0, 1500.5, 34499.5, "Revised").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, env := testutil.Do(t, app, "PUT", "/api/payroll/"+entryID, map[string]interface{}{
		"basic_salary": 32000,
		"allowances":   4000,
		"deductions":   1500.5,
		"remarks":      "Revised",
	})
	require.Equal(t, fiber.StatusOK, status)

	var e models.PayrollEntry
	env.DataInto(t, &e)
	assert.Equal(t, 34499.5, e.NetSalary)
}

func TestUpdateRejectsNegativeNet(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectEntry(mock, models.PayrollPending)

	status, env := testutil.Do(t, app, "PUT", "/api/payroll/"+entryID, map[string]interface{}{
		"basic_salary": 1000,
		"deductions":   2000,
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "deductions")
}

func TestUpdatePaidEntryIsRefused(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectEntry(mock, models.PayrollPaid)

	status, _ := testutil.Do(t, app, "PUT", "/api/payroll/"+entryID, map[string]interface{}{"basic_salary": 1000})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPayEntryPostsDebit(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())
	expectEntry(mock, models.PayrollPending)
	mock.ExpectQuery(testutil.Q(`FROM accounts WHERE id = $1 AND branch_id = $2`)).
		WithArgs(accountID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectExec(testutil.Q(`UPDATE payroll_entries SET status = 'paid'`)).
		WithArgs(entryID, "2024-06-30", "bank", accountID, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-30", "debit", 33000.0,
			models.SourcePayroll, entryID, "Salary: Priya Nair 06/2024").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, env := testutil.Do(t, app, "POST", "/api/payroll/"+entryID+"/pay", map[string]interface{}{
		"paid_on":      "2024-06-30",
		"payment_mode": "bank",
		"account_id":   accountID,
	})
	require.Equal(t, fiber.StatusOK, status)

	var e models.PayrollEntry
	env.DataInto(t, &e)
	assert.Equal(t, models.PayrollPaid, e.Status)
	assert.Equal(t, models.ActionPayment, audit.Last().Action)
}

func TestDeletePaidEntryIsRefused(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectEntry(mock, models.PayrollPaid)

	status, env := testutil.Do(t, app, "DELETE", "/api/payroll/"+entryID, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Only pending payroll entries can be changed", env.Message)
}

func TestListEntriesWithTotals(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleAccountant))
	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) AS entries`)).
		WithArgs(testutil.BranchID, 6, 2024).
		WillReturnRows(sqlmock.NewRows([]string{"entries", "basic_salary", "allowances", "deductions", "net_salary", "paid", "pending"}).
			AddRow(1, 30000.0, 5000.0, 2000.0, 33000.0, 0.0, 33000.0))
	mock.ExpectQuery(testutil.Q(`ORDER BY pe.year DESC, pe.month DESC, st.name LIMIT $4 OFFSET $5`)).
		WithArgs(testutil.BranchID, 6, 2024, 20, 0).
		WillReturnRows(sqlmock.NewRows(entryCols).AddRow(
			entryID, testutil.BranchID, staffA, 6, 2024, 30000.0, 5000.0, 2000.0, 33000.0,
			"pending", nil, "", nil, "", time.Now(), time.Now(), "Priya Nair", "EMP-01", "Science",
		))

	status, env := testutil.Do(t, app, "GET", "/api/payroll?month=6&year=2024", nil)
	require.Equal(t, fiber.StatusOK, status)

	var list EntryList
	env.DataInto(t, &list)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, 33000.0, list.Totals.Pending)
	assert.Equal(t, 1, env.Pagination.Total)
}

func TestGenerateAllCoversEveryBranch(t *testing.T) {
	db, mock := testutil.NewMockDB(t)

	mock.ExpectQuery(testutil.Q(`SELECT id FROM branches WHERE status = 'active'`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testutil.BranchID))
	expectGenerate(mock)

	err := GenerateAll(context.Background(), db, time.Date(2024, time.June, 1, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}
