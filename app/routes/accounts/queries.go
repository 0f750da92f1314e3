package accounts

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const accountColumns = `id, branch_id, name, type, account_number, bank_name, opening_balance, status, created_at, updated_at`

const accountSelect = `
	SELECT a.id, a.branch_id, a.name, a.type, a.account_number, a.bank_name, a.opening_balance,
		a.status, a.created_at, a.updated_at,
		(SELECT COALESCE(SUM(t.amount), 0) FROM account_transactions t WHERE t.account_id = a.id AND t.type = 'credit') AS total_credit,
		(SELECT COALESCE(SUM(t.amount), 0) FROM account_transactions t WHERE t.account_id = a.id AND t.type = 'debit') AS total_debit
	FROM accounts a`

const txnColumns = `id, branch_id, account_id, txn_date, type, amount, source_type, source_id, narration, created_at`

type ListParams struct {
	BranchID string
	Type     string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func ListAccounts(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.Account, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "a.branch_id = ?", p.BranchID).
		WhereIf(p.Type != "", "a.type = ?", p.Type).
		WhereIf(p.Status != "", "a.status = ?", p.Status).
		Search(p.Search, "a.name", "a.account_number", "a.bank_name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM accounts a`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	accounts := []*models.Account{}
	if err := db.SelectContext(ctx, &accounts, accountSelect+f.Clause()+` ORDER BY a.name`+page, args...); err != nil {
		return nil, 0, errors.Wrap(err, "list accounts")
	}
	for _, a := range accounts {
		a.Settle()
	}
	return accounts, total, nil
}

func GetAccountByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Account, error) {
	var a models.Account
	if err := sqlx.GetContext(ctx, q, &a, accountSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get account")
	}
	a.Settle()
	return &a, nil
}

func CreateAccount(ctx context.Context, db *sqlx.DB, a *models.Account) error {
	err := db.GetContext(ctx, a, `
		INSERT INTO accounts (id, branch_id, name, type, account_number, bank_name, opening_balance, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+accountColumns,
		a.ID, a.BranchID, a.Name, a.Type, a.AccountNumber, a.BankName, a.OpeningBalance, a.Status)
	return errors.Wrap(err, "create account")
}

func UpdateAccount(ctx context.Context, db *sqlx.DB, a *models.Account) error {
	err := db.GetContext(ctx, a, `
		UPDATE accounts SET name = $2, type = $3, account_number = $4, bank_name = $5,
			opening_balance = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns,
		a.ID, a.Name, a.Type, a.AccountNumber, a.BankName, a.OpeningBalance)
	return errors.Wrap(err, "update account")
}

func UpdateAccountStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE accounts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update account status")
}

// CountAccountUsage counts postings and business records that reference the account.
func CountAccountUsage(ctx context.Context, db *sqlx.DB, id string) (int, error) {
	return database.Count(ctx, db, `
		SELECT
			(SELECT COUNT(*) FROM account_transactions WHERE account_id = $1) +
			(SELECT COUNT(*) FROM fee_payments WHERE account_id = $1) +
			(SELECT COUNT(*) FROM finance_entries WHERE account_id = $1) +
			(SELECT COUNT(*) FROM payroll_entries WHERE account_id = $1) +
			(SELECT COUNT(*) FROM indent_payments WHERE account_id = $1)`, id)
}

func DeleteAccount(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return database.Affected(res, err, "delete account")
}

type TxnParams struct {
	AccountID  string
	From       *models.Date
	To         *models.Date
	Type       string
	SourceType string
	Limit      int
	Offset     int
}

func ListTransactions(ctx context.Context, db *sqlx.DB, p TxnParams) ([]*models.AccountTransaction, int, error) {
	f := database.NewFilter().
		Where("account_id = ?", p.AccountID).
		WhereIf(p.From != nil, "txn_date >= ?", p.From).
		WhereIf(p.To != nil, "txn_date <= ?", p.To).
		WhereIf(p.Type != "", "type = ?", p.Type).
		WhereIf(p.SourceType != "", "source_type = ?", p.SourceType)

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM account_transactions`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	txns := []*models.AccountTransaction{}
	err = db.SelectContext(ctx, &txns,
		`SELECT `+txnColumns+` FROM account_transactions`+f.Clause()+` ORDER BY txn_date DESC, created_at DESC`+page, args...)
	return txns, total, errors.Wrap(err, "list account transactions")
}

func GetTransaction(ctx context.Context, db *sqlx.DB, accountID, id string) (*models.AccountTransaction, error) {
	var t models.AccountTransaction
	err := db.GetContext(ctx, &t, `SELECT `+txnColumns+` FROM account_transactions WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return nil, errors.Wrap(err, "get account transaction")
	}
	return &t, nil
}

func DeleteTransaction(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM account_transactions WHERE id = $1`, id)
	return database.Affected(res, err, "delete account transaction")
}

// BalanceBefore is the account balance at the start of day: opening balance plus
// every posting dated before it.
func BalanceBefore(ctx context.Context, db *sqlx.DB, account *models.Account, day models.Date) (float64, error) {
	var movement float64
	err := db.GetContext(ctx, &movement, `
		SELECT COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE -amount END), 0)
		FROM account_transactions WHERE account_id = $1 AND txn_date < $2`, account.ID, day)
	if err != nil {
		return 0, errors.Wrap(err, "balance before")
	}
	return account.OpeningBalance + movement, nil
}

// LedgerTransactions lists postings of an account in date order, both bounds optional.
func LedgerTransactions(ctx context.Context, db *sqlx.DB, accountID string, from, to *models.Date) ([]*models.AccountTransaction, error) {
	f := database.NewFilter().
		Where("account_id = ?", accountID).
		WhereIf(from != nil, "txn_date >= ?", from).
		WhereIf(to != nil, "txn_date <= ?", to)

	txns := []*models.AccountTransaction{}
	err := db.SelectContext(ctx, &txns,
		`SELECT `+txnColumns+` FROM account_transactions`+f.Clause()+` ORDER BY txn_date, created_at`, f.Args()...)
	return txns, errors.Wrap(err, "ledger transactions")
}

// DaybookEntries collects every receipt and payment of the branch on day.
func DaybookEntries(ctx context.Context, db *sqlx.DB, branchID string, day models.Date) ([]*models.DaybookEntry, error) {
	entries := []*models.DaybookEntry{}
	err := db.SelectContext(ctx, &entries, `
		SELECT 'fee_payment' AS source_type, p.id::text AS source_id, 'credit' AS direction,
			p.receipt_no AS reference, 'Fee receipt: ' || TRIM(s.first_name || ' ' || s.last_name) AS description,
			p.amount, p.payment_mode
		FROM fee_payments p JOIN students s ON s.id = p.student_id
		WHERE p.branch_id = $1 AND p.paid_on = $2 AND p.status = 'paid'
		UNION ALL
		SELECT e.kind, e.id::text, CASE WHEN e.kind = 'income' THEN 'credit' ELSE 'debit' END,
			e.reference, e.title, e.amount, e.payment_mode
		FROM finance_entries e
		WHERE e.branch_id = $1 AND e.entry_date = $2
		UNION ALL
		SELECT 'indent_payment', ip.id::text, 'credit', '',
			'Textbook payment: ' || TRIM(s.first_name || ' ' || s.last_name), ip.amount, ip.payment_mode
		FROM indent_payments ip
		JOIN textbook_indents i ON i.id = ip.indent_id
		JOIN students s ON s.id = i.student_id
		WHERE ip.branch_id = $1 AND ip.paid_on = $2
		UNION ALL
		SELECT 'payroll', pe.id::text, 'debit', st.employee_code,
			'Salary: ' || st.name || ' ' || pe.month || '/' || pe.year, pe.net_salary, pe.payment_mode
		FROM payroll_entries pe JOIN staff st ON st.id = pe.staff_id
		WHERE pe.branch_id = $1 AND pe.paid_on = $2 AND pe.status = 'paid'
		ORDER BY 1, 4`, branchID, day)
	return entries, errors.Wrap(err, "daybook entries")
}

// AccountBalances returns the balance of every active account as of day.
func AccountBalances(ctx context.Context, db *sqlx.DB, branchID string, asOf models.Date) ([]*models.BalanceSheetLine, error) {
	lines := []*models.BalanceSheetLine{}
	err := db.SelectContext(ctx, &lines, `
		SELECT a.name, a.opening_balance + COALESCE((
			SELECT SUM(CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END)
			FROM account_transactions t WHERE t.account_id = a.id AND t.txn_date <= $2
		), 0) AS amount
		FROM accounts a
		WHERE a.branch_id = $1 AND a.status = 'active'
		ORDER BY a.type, a.name`, branchID, asOf)
	return lines, errors.Wrap(err, "account balances")
}

// SalariesPayable sums pending payroll for periods that started by asOf.
func SalariesPayable(ctx context.Context, db *sqlx.DB, branchID string, asOf models.Date) (float64, error) {
	var total float64
	err := db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(net_salary), 0) FROM payroll_entries
		WHERE branch_id = $1 AND status = 'pending' AND make_date(year, month, 1) <= $2`, branchID, asOf)
	return total, errors.Wrap(err, "salaries payable")
}

// monthlySources are the per-month sums of the annual report. Table and column
// names are constants.
var monthlySources = map[string]string{
	"fees":     `SELECT paid_on AS day, amount FROM fee_payments WHERE branch_id = $1 AND status = 'paid'`,
	"income":   `SELECT entry_date AS day, amount FROM finance_entries WHERE branch_id = $1 AND kind = 'income'`,
	"indents":  `SELECT paid_on AS day, amount FROM indent_payments WHERE branch_id = $1`,
	"expenses": `SELECT entry_date AS day, amount FROM finance_entries WHERE branch_id = $1 AND kind = 'expense'`,
	"payroll":  `SELECT paid_on AS day, net_salary AS amount FROM payroll_entries WHERE branch_id = $1 AND status = 'paid'`,
}

// MonthlyAmounts buckets one source by calendar month between from and to inclusive.
func MonthlyAmounts(ctx context.Context, db *sqlx.DB, source, branchID string, from, to models.Date) ([]*models.MonthlyAmount, error) {
	inner, ok := monthlySources[source]
	if !ok {
		return nil, errors.Errorf("unknown monthly source %q", source)
	}
	rows := []*models.MonthlyAmount{}
	err := db.SelectContext(ctx, &rows, `
		SELECT EXTRACT(YEAR FROM x.day)::int AS year, EXTRACT(MONTH FROM x.day)::int AS month,
			COALESCE(SUM(x.amount), 0) AS amount
		FROM (`+inner+`) x
		WHERE x.day BETWEEN $2 AND $3
		GROUP BY 1, 2
		ORDER BY 1, 2`, branchID, from, to)
	return rows, errors.Wrapf(err, "monthly %s", source)
}
