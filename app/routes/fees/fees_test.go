package fees

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
	studentID   = "77777777-7777-7777-7777-777777777777"
	classID     = "55555555-5555-5555-5555-555555555555"
	routeID     = "88888888-8888-8888-8888-888888888888"
	accountID   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	paymentID   = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	structureID = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

var (
	studentColumns = []string{
		"id", "branch_id", "admission_no", "first_name", "last_name", "gender", "date_of_birth",
		"class_id", "division_id", "academic_year", "guardian_name", "guardian_phone", "address",
		"admission_date", "uses_transport", "transport_route_id", "distance_group", "status",
		"created_at", "updated_at", "class_name", "division_name", "route_name",
	}
	paymentCols = []string{
		"id", "branch_id", "student_id", "academic_year", "receipt_no", "items", "amount", "payment_mode",
		"reference", "paid_on", "account_id", "status", "remarks", "collected_by", "cancelled_at", "created_at",
	}
	structureCols = []string{
		"id", "branch_id", "class_id", "academic_year", "components", "total_amount", "status", "created_at", "updated_at",
	}
)

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupFeesRoutes(r, db, audit) })
	return app, mock, audit
}

func expectStudent(mock sqlmock.Sqlmock, branchID string, transport bool) {
	var route, group interface{}
	if transport {
		route, group = routeID, "0-5km"
	}
	mock.ExpectQuery(testutil.Q(`WHERE s.id = $1`)).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(
			studentID, branchID, "ADM-001", "Anika", "Rao", "female", nil,
			classID, nil, "2024-2025", "", "", "",
			"2024-06-01", transport, route, group, "active",
			time.Now(), time.Now(), "Grade 5", nil, nil,
		))
}

func paymentRow(branchID, status string) *sqlmock.Rows {
	return sqlmock.NewRows(append(append([]string{}, paymentCols...), "student_name", "admission_no", "class_name")).AddRow(
		paymentID, branchID, studentID, "2024-2025", "RCPT-00042",
		[]byte(`[{"fee_head":"tuition","amount":1500}]`), 1500.0, "cash",
		"", "2024-06-03", accountID, status, "", testutil.UserID, nil, time.Now(),
		"Anika Rao", "ADM-001", "Grade 5",
	)
}

func TestCreatePaymentAllocatesReceiptAndPosts(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleAccountant))

	expectStudent(mock, testutil.BranchID, true)
	mock.ExpectQuery(testutil.Q(`FROM accounts WHERE id = $1 AND branch_id = $2 AND status = 'active'`)).
		WithArgs(accountID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`INSERT INTO receipt_configs`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"receipt_prefix", "number", "number_padding"}).AddRow("RCPT-", 42, 5))
	mock.ExpectQuery(testutil.Q(`INSERT INTO fee_payments`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, studentID, "2024-2025", "RCPT-00042", sqlmock.AnyArg(), 2300.0,
			"cash", "", "2024-06-03", accountID, "paid", "", testutil.UserID).
		WillReturnRows(sqlmock.NewRows(paymentCols).AddRow(
			paymentID, testutil.BranchID, studentID, "2024-2025", "RCPT-00042",
			[]byte(`[{"fee_head":"tuition","amount":1500},{"fee_head":"transport","amount":800,"distance_group":"0-5km"}]`),
			2300.0, "cash", "", "2024-06-03", accountID, "paid", "", testutil.UserID, nil, time.Now(),
		))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-03", "credit", 2300.0,
			models.SourceFeePayment, paymentID, "Fee receipt RCPT-00042: Anika Rao").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, env := testutil.Do(t, app, "POST", "/api/fees/payments", map[string]interface{}{
		"student_id": studentID,
		"items": []map[string]interface{}{
			{"fee_head": "tuition", "amount": 1500},
			{"fee_head": "transport", "amount": 800, "distance_group": "0-5km"},
		},
		"payment_mode": "cash",
		"paid_on":      "2024-06-03",
		"account_id":   accountID,
	})
	require.Equal(t, fiber.StatusCreated, status)

	var p models.FeePayment
	env.DataInto(t, &p)
	assert.Equal(t, "RCPT-00042", p.ReceiptNo)
	assert.Equal(t, 2300.0, p.Amount)
	assert.Equal(t, models.ActionPayment, audit.Last().Action)
}

func TestCreatePaymentTransportNeedsGroup(t *testing.T) {
	app, _, _ := newApp(t, testutil.Admin())

	status, env := testutil.Do(t, app, "POST", "/api/fees/payments", map[string]interface{}{
		"student_id":   studentID,
		"items":        []map[string]interface{}{{"fee_head": "transport", "amount": 800}},
		"payment_mode": "cash",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "items[0].distance_group")
}

func TestCreatePaymentWrongDistanceGroup(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectStudent(mock, testutil.BranchID, true)

	status, env := testutil.Do(t, app, "POST", "/api/fees/payments", map[string]interface{}{
		"student_id":   studentID,
		"items":        []map[string]interface{}{{"fee_head": "transport", "amount": 800, "distance_group": "5-10km"}},
		"payment_mode": "cash",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t)["items"], "0-5km")
}

func TestCreatePaymentStudentOfOtherBranch(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectStudent(mock, testutil.OtherBranchID, false)

	status, env := testutil.Do(t, app, "POST", "/api/fees/payments", map[string]interface{}{
		"student_id":   studentID,
		"items":        []map[string]interface{}{{"fee_head": "tuition", "amount": 100}},
		"payment_mode": "upi",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "student_id")
}

func TestCancelPaymentReversesPosting(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE p.id = $1`)).WithArgs(paymentID).WillReturnRows(paymentRow(testutil.BranchID, "paid"))
	mock.ExpectBegin()
	mock.ExpectExec(testutil.Q(`UPDATE fee_payments SET status = 'cancelled'`)).
		WithArgs(paymentID, "Duplicate entry").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(testutil.Q(`WHERE source_type = $1 AND source_id = $2`)).
		WithArgs(models.SourceFeePayment, paymentID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_id", "account_id", "txn_date", "type", "amount", "source_type", "source_id", "narration", "created_at"}).
			AddRow("dddddddd-dddd-dddd-dddd-dddddddddddd", testutil.BranchID, accountID, "2024-06-03", "credit", 1500.0,
				models.SourceFeePayment, paymentID, "Fee receipt RCPT-00042", time.Now()))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, sqlmock.AnyArg(), "debit", 1500.0,
			models.SourceFeePayment, paymentID, "Cancelled fee receipt RCPT-00042").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, _ := testutil.Do(t, app, "POST", "/api/fees/payments/"+paymentID+"/cancel", map[string]interface{}{
		"reason": "Duplicate entry",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.ActionCancel, audit.Last().Action)
}

func TestCancelPaymentTwice(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`WHERE p.id = $1`)).WithArgs(paymentID).WillReturnRows(paymentRow(testutil.BranchID, "cancelled"))

	status, env := testutil.Do(t, app, "POST", "/api/fees/payments/"+paymentID+"/cancel", nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Payment is already cancelled", env.Message)
}

func TestReceiptUsesBranchConfig(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`WHERE p.id = $1`)).WithArgs(paymentID).WillReturnRows(paymentRow(testutil.BranchID, "paid"))
	mock.ExpectQuery(testutil.Q(`FROM receipt_configs WHERE branch_id = $1`)).
		WithArgs(testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	status, env := testutil.Do(t, app, "GET", "/api/fees/payments/"+paymentID+"/receipt", nil)
	require.Equal(t, fiber.StatusOK, status)

	var receipt models.Receipt
	env.DataInto(t, &receipt)
	assert.Equal(t, "RCPT-00042", receipt.Payment.ReceiptNo)
	assert.Equal(t, models.DefaultReceiptPrefix, receipt.Config.ReceiptPrefix)
}

func TestCreateStructureTotalsComponents(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`FROM classes WHERE id = $1 AND branch_id = $2`)).
		WithArgs(classID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(testutil.Q(`INSERT INTO fee_structures`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, classID, "2024-2025", sqlmock.AnyArg(), 12500.5, "active").
		WillReturnRows(sqlmock.NewRows(structureCols).AddRow(
			structureID, testutil.BranchID, classID, "2024-2025",
			[]byte(`[{"name":"Tuition","amount":12000},{"name":"Lab","amount":500.5}]`), 12500.5, "active", time.Now(), time.Now(),
		))

	status, env := testutil.Do(t, app, "POST", "/api/fees/structures", map[string]interface{}{
		"class_id":      classID,
		"academic_year": "2024-2025",
		"components": []map[string]interface{}{
			{"name": "Tuition", "amount": 12000},
			{"name": "Lab", "amount": 500.5},
		},
	})
	require.Equal(t, fiber.StatusCreated, status)

	var s models.FeeStructure
	env.DataInto(t, &s)
	assert.Equal(t, 12500.5, s.TotalAmount)
}

func TestCreateStructureDuplicateComponent(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`FROM classes WHERE id = $1 AND branch_id = $2`)).
		WithArgs(classID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	status, env := testutil.Do(t, app, "POST", "/api/fees/structures", map[string]interface{}{
		"class_id":      classID,
		"academic_year": "2024-2025",
		"components": []map[string]interface{}{
			{"name": "Tuition", "amount": 12000},
			{"name": "tuition ", "amount": 100},
		},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "components")
}

func TestDuesOnlyOutstandingByDefault(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleAccountant))

	mock.ExpectQuery(testutil.Q(`WHERE x.due > 0) t`)).
		WithArgs(models.StatusActive, testutil.BranchID, classID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(testutil.Q(`ORDER BY x.class_name, x.student_name LIMIT $4 OFFSET $5`)).
		WithArgs(models.StatusActive, testutil.BranchID, classID, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "student_name", "admission_no", "class_id", "class_name", "academic_year", "total_fee", "paid", "due"}).
			AddRow(studentID, "Anika Rao", "ADM-001", classID, "Grade 5", "2024-2025", 12500.0, 5000.0, 7500.0))

	status, env := testutil.Do(t, app, "GET", "/api/fees/dues?class_id="+classID, nil)
	require.Equal(t, fiber.StatusOK, status)

	var dues []models.StudentDue
	env.DataInto(t, &dues)
	require.Len(t, dues, 1)
	assert.Equal(t, 7500.0, dues[0].Due)
	assert.Equal(t, 1, env.Pagination.Total)
}

func TestLibrarianCannotCollectFees(t *testing.T) {
	app, _, _ := newApp(t, testutil.As(models.RoleLibrarian))

	status, _ := testutil.Do(t, app, "POST", "/api/fees/payments", map[string]interface{}{})
	assert.Equal(t, fiber.StatusForbidden, status)
}
