package textbooks

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
	bookID    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	indentID  = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	itemID    = "cccccccc-cccc-cccc-cccc-cccccccccccc"
	studentID = "dddddddd-dddd-dddd-dddd-dddddddddddd"
	classID   = "eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee"
	accountID = "ffffffff-ffff-ffff-ffff-ffffffffffff"
)

var (
	bookCols = []string{
		"id", "branch_id", "title", "subject", "class_id", "publisher", "isbn", "price", "stock", "status",
		"created_at", "updated_at",
	}
	indentCols = []string{
		"id", "branch_id", "student_id", "academic_year", "status", "total_amount", "amount_paid", "remarks",
		"issued_at", "cancelled_at", "created_by", "created_at", "updated_at", "student_name", "admission_no",
	}
	itemCols       = []string{"id", "indent_id", "textbook_id", "title", "quantity", "returned_quantity", "unit_price"}
	studentColumns = []string{
		"id", "branch_id", "admission_no", "first_name", "last_name", "gender", "date_of_birth",
		"class_id", "division_id", "academic_year", "guardian_name", "guardian_phone", "address",
		"admission_date", "uses_transport", "transport_route_id", "distance_group", "status",
		"created_at", "updated_at", "class_name", "division_name", "route_name",
	}
)

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupTextbooksRoutes(r, db, audit) })
	return app, mock, audit
}

func expectStudent(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(testutil.Q(`WHERE s.id = $1`)).
		WithArgs(studentID).
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(
			studentID, testutil.BranchID, "ADM-001", "Anika", "Rao", "female", nil,
			classID, nil, "2024-2025", "", "", "",
			"2024-06-01", false, nil, nil, "active",
			time.Now(), time.Now(), "Grade 5", nil, nil,
		))
}

func expectBooks(mock sqlmock.Sqlmock, stock int, status string) {
	mock.ExpectQuery(testutil.Q(`FROM textbooks WHERE id = ANY($1) AND branch_id = $2`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID).
		WillReturnRows(sqlmock.NewRows(bookCols).AddRow(
			bookID, testutil.BranchID, "Maths Grade 5", "Maths", classID, "NCERT", "", 250.0, stock, status,
			time.Now(), time.Now(),
		))
}

// expectIndent stubs loading an indent with one item of quantity 3 at 250.
func expectIndent(mock sqlmock.Sqlmock, status string, returned int, paid float64) {
	mock.ExpectQuery(testutil.Q(`WHERE i.id = $1`)).
		WithArgs(indentID).
		WillReturnRows(sqlmock.NewRows(indentCols).AddRow(
			indentID, testutil.BranchID, studentID, "2024-2025", status, 750.0, paid, "",
			nil, nil, testutil.UserID, time.Now(), time.Now(), "Anika Rao", "ADM-001",
		))
	mock.ExpectQuery(testutil.Q(`FROM textbook_indent_items WHERE indent_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(itemID, indentID, bookID, "Maths Grade 5", 3, returned, 250.0))
}

func indentRequest(qty int) map[string]interface{} {
	return map[string]interface{}{
		"student_id": studentID,
		"items": []map[string]interface{}{
			{"textbook_id": bookID, "quantity": qty},
		},
	}
}

func TestCreateIndentReservesStock(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleLibrarian))

	expectStudent(mock)
	expectBooks(mock, 10, "active")
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`INSERT INTO textbook_indents`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, studentID, "2024-2025", models.IndentPending, 500.0, "", testutil.UserID).
		WillReturnRows(sqlmock.NewRows(indentCols[:13]).AddRow(
			indentID, testutil.BranchID, studentID, "2024-2025", "pending", 500.0, 0.0, "",
			nil, nil, testutil.UserID, time.Now(), time.Now(),
		))
	mock.ExpectQuery(testutil.Q(`UPDATE textbooks SET stock = stock + $2`)).
		WithArgs(bookID, -2).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(8))
	mock.ExpectExec(testutil.Q(`INSERT INTO textbook_indent_items`)).
		WithArgs(sqlmock.AnyArg(), indentID, bookID, "Maths Grade 5", 2, 250.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Two lines for the same book are merged into one reservation.
	req := indentRequest(1)
	req["items"] = []map[string]interface{}{
		{"textbook_id": bookID, "quantity": 1},
		{"textbook_id": bookID, "quantity": 1},
	}
	status, env := testutil.Do(t, app, "POST", "/api/indents", req)
	require.Equal(t, fiber.StatusCreated, status)

	var in models.TextbookIndent
	env.DataInto(t, &in)
	assert.Equal(t, 500.0, in.TotalAmount)
	assert.Equal(t, 500.0, in.BillableAmount)
	assert.Equal(t, models.PaymentUnpaid, in.PaymentStatus)
	require.Len(t, in.Items, 1)
	assert.Equal(t, 2, in.Items[0].Quantity)
	assert.Equal(t, indentID, in.ID)
	assert.Equal(t, indentID, in.Items[0].IndentID)
	assert.Equal(t, models.ActionCreate, audit.Last().Action)
}

func TestCreateIndentInsufficientStock(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())

	expectStudent(mock)
	expectBooks(mock, 1, "active")
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`INSERT INTO textbook_indents`)).
		WillReturnRows(sqlmock.NewRows(indentCols[:13]).AddRow(
			indentID, testutil.BranchID, studentID, "2024-2025", "pending", 500.0, 0.0, "",
			nil, nil, testutil.UserID, time.Now(), time.Now(),
		))
	mock.ExpectQuery(testutil.Q(`UPDATE textbooks SET stock = stock + $2`)).
		WithArgs(bookID, -2).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))
	mock.ExpectRollback()

	status, env := testutil.Do(t, app, "POST", "/api/indents", indentRequest(2))
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, `Insufficient stock for "Maths Grade 5"`, env.Message)
	assert.Empty(t, audit.Events())
}

func TestCreateIndentInactiveTextbook(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectStudent(mock)
	expectBooks(mock, 10, "inactive")

	status, env := testutil.Do(t, app, "POST", "/api/indents", indentRequest(1))
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "items")
}

func TestIssuePendingIndent(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentPending, 0, 0)
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indents SET status = $3`)).
		WithArgs(indentID, models.IndentPending, models.IndentIssued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/issue", nil)
	require.Equal(t, fiber.StatusOK, status)

	var in models.TextbookIndent
	env.DataInto(t, &in)
	assert.Equal(t, models.IndentIssued, in.Status)
	assert.NotNil(t, in.IssuedAt)
	assert.Equal(t, models.ActionIssue, audit.Last().Action)
}

func TestIssueRaceReportsConflict(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentPending, 0, 0)
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indents SET status = $3`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	status, _ := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/issue", nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		status string
		action string
	}{
		{models.IndentCancelled, "issue"},
		{models.IndentIssued, "issue"},
		{models.IndentIssued, "cancel"},
		{models.IndentPending, "return"},
		{models.IndentReturned, "return"},
	}
	for _, tc := range cases {
		t.Run(tc.status+"/"+tc.action, func(t *testing.T) {
			app, mock, _ := newApp(t, testutil.Admin())
			expectIndent(mock, tc.status, 0, 0)

			status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/"+tc.action,
				map[string]interface{}{"items": []map[string]interface{}{{"item_id": itemID, "quantity": 1}}})
			require.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, env.Message, "Cannot move an indent from "+tc.status)
		})
	}
}

func TestCancelReleasesStock(t *testing.T) {
	app, mock, audit := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentPending, 0, 0)
	mock.ExpectBegin()
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indents SET status = $3`)).
		WithArgs(indentID, models.IndentPending, models.IndentCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(testutil.Q(`UPDATE textbooks SET stock = stock + $2`)).
		WithArgs(bookID, 3).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(13))
	mock.ExpectCommit()

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, status)

	var in models.TextbookIndent
	env.DataInto(t, &in)
	assert.Equal(t, models.IndentCancelled, in.Status)
	assert.Equal(t, 0.0, in.BillableAmount)
	assert.Equal(t, models.ActionCancel, audit.Last().Action)
}

func TestPartialReturnRestocks(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentIssued, 0, 750)
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`FOR UPDATE`)).
		WithArgs(indentID).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(itemID, indentID, bookID, "Maths Grade 5", 3, 0, 250.0))
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indent_items SET returned_quantity = returned_quantity + $2`)).
		WithArgs(itemID, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(testutil.Q(`UPDATE textbooks SET stock = stock + $2`)).
		WithArgs(bookID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(11))
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indents SET status = $3`)).
		WithArgs(indentID, models.IndentIssued, models.IndentPartiallyReturned).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/return", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": itemID, "quantity": 1}},
	})
	require.Equal(t, fiber.StatusOK, status)

	var in models.TextbookIndent
	env.DataInto(t, &in)
	assert.Equal(t, models.IndentPartiallyReturned, in.Status)
	assert.Equal(t, 500.0, in.BillableAmount)
	assert.Equal(t, 250.0, in.RefundDue)
	assert.Equal(t, models.PaymentPaid, in.PaymentStatus)
}

func TestReturnMoreThanOutstanding(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentPartiallyReturned, 2, 0)
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`FOR UPDATE`)).
		WithArgs(indentID).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(itemID, indentID, bookID, "Maths Grade 5", 3, 2, 250.0))
	mock.ExpectRollback()

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/return", map[string]interface{}{
		"items": []map[string]interface{}{{"item_id": itemID, "quantity": 2}},
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t)["items"], "cannot return more than 1")
}

func TestPaymentPostsCredit(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleLibrarian))
	expectIndent(mock, models.IndentIssued, 0, 250)
	mock.ExpectQuery(testutil.Q(`FROM accounts WHERE id = $1 AND branch_id = $2`)).
		WithArgs(accountID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectExec(testutil.Q(`UPDATE textbook_indents SET amount_paid = amount_paid + $2`)).
		WithArgs(indentID, 500.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(testutil.Q(`INSERT INTO indent_payments`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, indentID, 500.0, "upi", "2024-06-05", accountID, testutil.UserID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "branch_id", "indent_id", "amount", "payment_mode", "paid_on", "account_id", "created_by", "created_at"}).
			AddRow("99999999-9999-9999-9999-999999999999", testutil.BranchID, indentID, 500.0, "upi", "2024-06-05", accountID, testutil.UserID, time.Now()))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-05", models.TxnCredit, 500.0,
			models.SourceIndentPayment, "99999999-9999-9999-9999-999999999999", "Textbook payment: Anika Rao").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/payments", map[string]interface{}{
		"amount":       500,
		"payment_mode": "upi",
		"paid_on":      "2024-06-05",
		"account_id":   accountID,
	})
	require.Equal(t, fiber.StatusCreated, status)

	var res PaymentResult
	env.DataInto(t, &res)
	assert.Equal(t, 750.0, res.Indent.AmountPaid)
	assert.Equal(t, models.PaymentPaid, res.Indent.PaymentStatus)
	assert.Equal(t, models.ActionPayment, audit.Last().Action)
}

func TestPaymentExceedingBalance(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentIssued, 0, 700)

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/payments", map[string]interface{}{
		"amount":       100,
		"payment_mode": "cash",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "amount exceeds the balance due of 50.00", env.FieldErrors(t)["amount"])
}

func TestPaymentOnCancelledIndent(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectIndent(mock, models.IndentCancelled, 0, 0)

	status, env := testutil.Do(t, app, "POST", "/api/indents/"+indentID+"/payments", map[string]interface{}{
		"amount":       100,
		"payment_mode": "cash",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Payments cannot be recorded against a cancelled indent", env.Message)
}

func TestAdjustStockBelowZero(t *testing.T) {
	app, mock, _ := newApp(t, testutil.As(models.RoleLibrarian))
	mock.ExpectQuery(testutil.Q(`WHERE t.id = $1`)).
		WithArgs(bookID).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, bookCols...), "class_name")).AddRow(
			bookID, testutil.BranchID, "Maths Grade 5", "Maths", nil, "", "", 250.0, 2, "active",
			time.Now(), time.Now(), nil,
		))
	mock.ExpectQuery(testutil.Q(`UPDATE textbooks SET stock = stock + $2`)).
		WithArgs(bookID, -5).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}))

	status, env := testutil.Do(t, app, "PATCH", "/api/textbooks/"+bookID+"/stock", map[string]interface{}{"adjustment": -5})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t)["adjustment"], "current stock 2")
}

func TestCreateTextbook(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleLibrarian))
	mock.ExpectQuery(testutil.Q(`SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1 AND branch_id = $2)`)).
		WithArgs(classID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(testutil.Q(`INSERT INTO textbooks`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, "Maths Grade 5", "Maths", classID, "", "", 249.99, 40, "active").
		WillReturnRows(sqlmock.NewRows(bookCols).AddRow(
			bookID, testutil.BranchID, "Maths Grade 5", "Maths", classID, "", "", 249.99, 40, "active",
			time.Now(), time.Now(),
		))

	status, _ := testutil.Do(t, app, "POST", "/api/textbooks", map[string]interface{}{
		"title":    " Maths Grade 5 ",
		"subject":  "Maths",
		"class_id": classID,
		"price":    249.99,
		"stock":    40,
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.ActionCreate, audit.Last().Action)
}

func TestAccountantCannotWriteTextbooks(t *testing.T) {
	app, _, _ := newApp(t, testutil.As(models.RoleAccountant))

	status, _ := testutil.Do(t, app, "POST", "/api/textbooks", map[string]interface{}{"title": "Atlas"})
	assert.Equal(t, fiber.StatusForbidden, status)
}
