package expenses

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

const (
	categoryID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	entryID    = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
	accountID  = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

var (
	categoryCols = []string{"id", "branch_id", "kind", "name", "description", "status", "created_at", "updated_at", "entry_count"}
	entryCols    = []string{
		"id", "branch_id", "kind", "category_id", "title", "amount", "entry_date", "payment_mode", "reference",
		"account_id", "notes", "created_by", "created_at", "updated_at",
	}
)

func newApp(t *testing.T, p *models.Principal) (*fiber.App, sqlmock.Sqlmock, *activity.Memory) {
	db, mock := testutil.NewMockDB(t)
	audit := &activity.Memory{}
	app := testutil.NewApp(p, func(r fiber.Router) { SetupExpensesRoutes(r, db, audit) })
	return app, mock, audit
}

func expectCategoryCheck(mock sqlmock.Sqlmock, kind string, ok bool) {
	mock.ExpectQuery(testutil.Q(`FROM finance_categories`)).
		WithArgs(categoryID, testutil.BranchID, kind).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(ok))
}

func expectAccountCheck(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(testutil.Q(`FROM accounts WHERE id = $1 AND branch_id = $2`)).
		WithArgs(accountID, testutil.BranchID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
}

func entryRow(kind string, amount float64) *sqlmock.Rows {
	return sqlmock.NewRows(entryCols).AddRow(
		entryID, testutil.BranchID, kind, categoryID, "Electricity", amount, "2024-06-03", "bank", "",
		accountID, "", testutil.UserID, time.Now(), time.Now(),
	)
}

func validEntry() map[string]interface{} {
	return map[string]interface{}{
		"category_id":  categoryID,
		"title":        "Electricity",
		"amount":       900,
		"entry_date":   "2024-06-03",
		"payment_mode": "bank",
		"account_id":   accountID,
	}
}

func TestCreateExpensePostsDebit(t *testing.T) {
	app, mock, audit := newApp(t, testutil.As(models.RoleAccountant))

	expectCategoryCheck(mock, models.KindExpense, true)
	expectAccountCheck(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`INSERT INTO finance_entries`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, models.KindExpense, categoryID, "Electricity", 900.0, "2024-06-03",
			"bank", "", accountID, "", testutil.UserID).
		WillReturnRows(entryRow(models.KindExpense, 900))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-03", models.TxnDebit, 900.0,
			models.SourceExpense, entryID, "Expense: Electricity").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, _ := testutil.Do(t, app, "POST", "/api/expenses", validEntry())
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, models.ActionCreate, audit.Last().Action)
}

func TestCreateIncomePostsCredit(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	expectCategoryCheck(mock, models.KindIncome, true)
	expectAccountCheck(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`INSERT INTO finance_entries`)).
		WillReturnRows(entryRow(models.KindIncome, 900))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-03", models.TxnCredit, 900.0,
			models.SourceIncome, entryID, "Income: Electricity").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, _ := testutil.Do(t, app, "POST", "/api/income", validEntry())
	require.Equal(t, fiber.StatusCreated, status)
}

func TestCreateExpenseWithIncomeCategory(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	expectCategoryCheck(mock, models.KindExpense, false)

	status, env := testutil.Do(t, app, "POST", "/api/expenses", validEntry())
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.FieldErrors(t), "category_id")
}

func TestUpdateExpenseReposts(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())

	mock.ExpectQuery(testutil.Q(`WHERE e.id = $1`)).
		WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, entryCols...), "category_name")).AddRow(
			entryID, testutil.BranchID, models.KindExpense, categoryID, "Electricity", 900.0, "2024-06-03", "bank", "",
			accountID, "", testutil.UserID, time.Now(), time.Now(), "Utilities",
		))
	expectCategoryCheck(mock, models.KindExpense, true)
	expectAccountCheck(mock)
	mock.ExpectBegin()
	mock.ExpectQuery(testutil.Q(`UPDATE finance_entries SET category_id = $2`)).
		WillReturnRows(entryRow(models.KindExpense, 950))
	mock.ExpectExec(testutil.Q(`DELETE FROM account_transactions WHERE source_type = $1 AND source_id = $2`)).
		WithArgs(models.SourceExpense, entryID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(testutil.Q(`INSERT INTO account_transactions`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, accountID, "2024-06-03", models.TxnDebit, 950.0,
			models.SourceExpense, entryID, "Expense: Electricity").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := validEntry()
	req["amount"] = 950
	status, _ := testutil.Do(t, app, "PUT", "/api/expenses/"+entryID, req)
	require.Equal(t, fiber.StatusOK, status)
}

func TestIncomeEntryNotServedAsExpense(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`WHERE e.id = $1`)).
		WithArgs(entryID).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, entryCols...), "category_name")).AddRow(
			entryID, testutil.BranchID, models.KindIncome, categoryID, "Donation", 900.0, "2024-06-03", "cash", "",
			nil, "", nil, time.Now(), time.Now(), "Donations",
		))

	status, _ := testutil.Do(t, app, "GET", "/api/expenses/"+entryID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestListExpensesWithTotals(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`SELECT COUNT(*) AS count, COALESCE(SUM(e.amount), 0) AS amount FROM finance_entries e WHERE e.kind = $1 AND e.branch_id = $2 AND e.entry_date >= $3`)).
		WithArgs(models.KindExpense, testutil.BranchID, "2024-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"count", "amount"}).AddRow(1, 900.0))
	mock.ExpectQuery(testutil.Q(`ORDER BY e.entry_date DESC, e.created_at DESC LIMIT $4 OFFSET $5`)).
		WithArgs(models.KindExpense, testutil.BranchID, "2024-06-01", 20, 0).
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, entryCols...), "category_name")).AddRow(
			entryID, testutil.BranchID, models.KindExpense, categoryID, "Electricity", 900.0, "2024-06-03", "bank", "",
			nil, "", nil, time.Now(), time.Now(), "Utilities",
		))

	status, env := testutil.Do(t, app, "GET", "/api/expenses?from=2024-06-01", nil)
	require.Equal(t, fiber.StatusOK, status)

	var list EntryList
	env.DataInto(t, &list)
	assert.Equal(t, 900.0, list.Totals.Amount)
	assert.Len(t, list.Entries, 1)
}

func TestDeleteCategoryInUse(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`WHERE fc.id = $1`)).
		WithArgs(categoryID).
		WillReturnRows(sqlmock.NewRows(categoryCols).AddRow(
			categoryID, testutil.BranchID, models.KindExpense, "Utilities", "", "active", time.Now(), time.Now(), 4,
		))

	status, env := testutil.Do(t, app, "DELETE", "/api/expense-categories/"+categoryID, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Message, "4 entries")
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	app, mock, _ := newApp(t, testutil.Admin())
	mock.ExpectQuery(testutil.Q(`INSERT INTO finance_categories`)).
		WithArgs(sqlmock.AnyArg(), testutil.BranchID, models.KindIncome, "Donations", "", "active").
		WillReturnError(&pq.Error{Code: "23505"})

	status, _ := testutil.Do(t, app, "POST", "/api/income-categories", map[string]interface{}{"name": "Donations"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
