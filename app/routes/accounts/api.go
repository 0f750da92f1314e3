package accounts

import (
	"fmt"
	"strings"
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db         *sqlx.DB
	audit      activity.Logger
	startMonth int
	now        func() time.Time
}

type AccountRequest struct {
	BranchID       string  `json:"branch_id"`
	Name           string  `json:"name" validate:"required,max=100"`
	Type           string  `json:"type" validate:"required,oneof=cash bank"`
	AccountNumber  string  `json:"account_number" validate:"max=50"`
	BankName       string  `json:"bank_name" validate:"required_if=Type bank,max=100"`
	OpeningBalance float64 `json:"opening_balance"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type TransactionRequest struct {
	TxnDate   models.Date `json:"txn_date"`
	Type      string      `json:"type" validate:"required,oneof=credit debit"`
	Amount    float64     `json:"amount" validate:"gt=0"`
	Narration string      `json:"narration" validate:"required,max=500"`
}

func (h *handler) today() models.Date {
	if h.now == nil {
		return models.NewDate(time.Now())
	}
	return models.NewDate(h.now())
}

func (h *handler) GetAccountsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	accounts, total, err := ListAccounts(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, accounts, page.Paginate(total))
}

func (h *handler) loadAccount(c *fiber.Ctx, param string) (*models.Account, error) {
	id, err := utils.ParamID(c, param)
	if err != nil {
		return nil, err
	}
	a, err := GetAccountByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, a.BranchID); err != nil {
		return nil, err
	}
	return a, nil
}

func (h *handler) GetAccountAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	return utils.Success(c, "", a)
}

func (req *AccountRequest) apply(a *models.Account) {
	a.Name = strings.TrimSpace(req.Name)
	a.Type = req.Type
	a.AccountNumber = strings.TrimSpace(req.AccountNumber)
	a.BankName = strings.TrimSpace(req.BankName)
	a.OpeningBalance = models.RoundMoney(req.OpeningBalance)
	if a.Type == models.AccountCash {
		a.AccountNumber, a.BankName = "", ""
	}
}

func (h *handler) CreateAccountAPI(c *fiber.Ctx) error {
	var req AccountRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	a := &models.Account{ID: uuid.NewString(), BranchID: branchID, Status: models.StatusActive}
	req.apply(a)
	if err := CreateAccount(c.UserContext(), h.db, a); err != nil {
		return err
	}
	a.Settle()

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionCreate,
		EntityID:    a.ID,
		Description: fmt.Sprintf("Created %s account %s", a.Type, a.Name),
		Metadata:    models.Metadata{"opening_balance": a.OpeningBalance},
	})
	return utils.Created(c, "Account created successfully", a)
}

func (h *handler) UpdateAccountAPI(c *fiber.Ctx) error {
	existing, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	var req AccountRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	a := &models.Account{ID: existing.ID}
	req.apply(a)
	if err := UpdateAccount(c.UserContext(), h.db, a); err != nil {
		return err
	}
	a.TotalCredit, a.TotalDebit = existing.TotalCredit, existing.TotalDebit
	a.Settle()

	h.audit.Record(c, activity.Event{
		BranchID:    existing.BranchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionUpdate,
		EntityID:    a.ID,
		Description: fmt.Sprintf("Updated account %s", a.Name),
		Metadata: models.Metadata{
			"previous_opening_balance": existing.OpeningBalance,
			"opening_balance":          a.OpeningBalance,
		},
	})
	return utils.Success(c, "Account updated successfully", a)
}

func (h *handler) UpdateAccountStatusAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := UpdateAccountStatus(c.UserContext(), h.db, a.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    a.BranchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionStatus,
		EntityID:    a.ID,
		Description: fmt.Sprintf("Account %s set to %s", a.Name, req.Status),
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Account status updated", fiber.Map{"id": a.ID, "status": req.Status})
}

func (h *handler) DeleteAccountAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}

	n, err := CountAccountUsage(c.UserContext(), h.db, a.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete account: it is referenced by %d records, deactivate it instead", n))
	}
	if err := DeleteAccount(c.UserContext(), h.db, a.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    a.BranchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionDelete,
		EntityID:    a.ID,
		Description: fmt.Sprintf("Deleted account %s", a.Name),
	})
	return utils.Success(c, "Account deleted successfully", nil)
}

func (h *handler) GetTransactionsAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	from, err := utils.QueryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := utils.QueryDate(c, "to")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	txns, total, err := ListTransactions(c.UserContext(), h.db, TxnParams{
		AccountID:  a.ID,
		From:       from,
		To:         to,
		Type:       c.Query("type"),
		SourceType: c.Query("source_type"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, txns, page.Paginate(total))
}

func (h *handler) CreateTransactionAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	if a.Status != models.StatusActive {
		return utils.BadRequest("Cannot post to an inactive account")
	}
	var req TransactionRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if req.TxnDate.IsZero() {
		req.TxnDate = h.today()
	}

	t := &models.AccountTransaction{
		ID:         uuid.NewString(),
		BranchID:   a.BranchID,
		AccountID:  a.ID,
		TxnDate:    req.TxnDate,
		Type:       req.Type,
		Amount:     req.Amount,
		SourceType: models.SourceManual,
		Narration:  strings.TrimSpace(req.Narration),
	}
	if err := Post(c.UserContext(), h.db, t); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    a.BranchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionCreate,
		EntityID:    t.ID,
		Description: fmt.Sprintf("Manual %s of %.2f on %s", t.Type, t.Amount, a.Name),
		Metadata:    models.Metadata{"account_id": a.ID, "amount": t.Amount, "type": t.Type},
	})
	return utils.Created(c, "Transaction recorded successfully", t)
}

// DeleteTransactionAPI removes a manual posting. Postings made by fees, payroll and
// the other modules follow their source record and cannot be removed here.
func (h *handler) DeleteTransactionAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "id")
	if err != nil {
		return err
	}
	txnID, err := utils.ParamID(c, "txnId")
	if err != nil {
		return err
	}
	t, err := GetTransaction(c.UserContext(), h.db, a.ID, txnID)
	if err != nil {
		return err
	}
	if t.SourceType != models.SourceManual {
		return utils.BadRequest(fmt.Sprintf("This transaction was posted by %s and cannot be deleted directly", t.SourceType))
	}
	if err := DeleteTransaction(c.UserContext(), h.db, t.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    a.BranchID,
		Module:      auth.ModuleAccounts,
		Action:      models.ActionDelete,
		EntityID:    t.ID,
		Description: fmt.Sprintf("Deleted manual %s of %.2f on %s", t.Type, t.Amount, a.Name),
	})
	return utils.Success(c, "Transaction deleted successfully", nil)
}

func (h *handler) GetDaybookAPI(c *fiber.Ctx) error {
	branchID, err := utils.WriteBranch(c, "")
	if err != nil {
		return err
	}
	day, err := utils.QueryDate(c, "date")
	if err != nil {
		return err
	}
	if day == nil {
		d := h.today()
		day = &d
	}

	entries, err := DaybookEntries(c.UserContext(), h.db, branchID, *day)
	if err != nil {
		return err
	}
	return utils.Success(c, "", models.BuildDaybook(*day, entries))
}

func (h *handler) GetLedgerAPI(c *fiber.Ctx) error {
	a, err := h.loadAccount(c, "accountId")
	if err != nil {
		return err
	}
	from, err := utils.QueryDate(c, "from")
	if err != nil {
		return err
	}
	to, err := utils.QueryDate(c, "to")
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(from.Time) {
		return utils.Invalid("to", "to must not be before from")
	}

	opening := a.OpeningBalance
	if from != nil {
		if opening, err = BalanceBefore(c.UserContext(), h.db, a, *from); err != nil {
			return err
		}
	}
	txns, err := LedgerTransactions(c.UserContext(), h.db, a.ID, from, to)
	if err != nil {
		return err
	}

	ledger := models.BuildLedger(a, opening, txns)
	ledger.From, ledger.To = from, to
	return utils.Success(c, "", ledger)
}

func (h *handler) GetBalanceSheetAPI(c *fiber.Ctx) error {
	branchID, err := utils.WriteBranch(c, "")
	if err != nil {
		return err
	}
	asOf, err := utils.QueryDate(c, "as_of")
	if err != nil {
		return err
	}
	if asOf == nil {
		d := h.today()
		asOf = &d
	}
	ctx := c.UserContext()

	accounts, err := AccountBalances(ctx, h.db, branchID, *asOf)
	if err != nil {
		return err
	}
	feeDue, err := database.TotalDues(ctx, h.db, branchID, models.AcademicYearFor(asOf.Time, h.startMonth), asOf)
	if err != nil {
		return err
	}
	indentDue, refunds, err := database.IndentBalances(ctx, h.db, branchID, *asOf)
	if err != nil {
		return err
	}
	salaries, err := SalariesPayable(ctx, h.db, branchID, *asOf)
	if err != nil {
		return err
	}

	assets := append(accounts,
		&models.BalanceSheetLine{Name: "Fee receivables", Amount: models.RoundMoney(feeDue)},
		&models.BalanceSheetLine{Name: "Textbook receivables", Amount: models.RoundMoney(indentDue)},
	)
	liabilities := []*models.BalanceSheetLine{
		{Name: "Salaries payable", Amount: models.RoundMoney(salaries)},
		{Name: "Textbook refunds due", Amount: models.RoundMoney(refunds)},
	}
	sheet := &models.BalanceSheet{
		AsOf:        *asOf,
		Assets:      assets,
		Liabilities: liabilities,
	}
	sheet.Settle()
	return utils.Success(c, "", sheet)
}

func (h *handler) GetAnnualReportAPI(c *fiber.Ctx) error {
	branchID, err := utils.WriteBranch(c, "")
	if err != nil {
		return err
	}
	academicYear := strings.TrimSpace(c.Query("academic_year"))
	if academicYear == "" {
		academicYear = models.AcademicYearFor(h.today().Time, h.startMonth)
	}
	from, to, err := models.AcademicYearRange(academicYear, h.startMonth)
	if err != nil {
		return utils.Invalid("academic_year", "academic_year must be an academic year like 2024-2025")
	}

	sums := make(map[string][]*models.MonthlyAmount, len(monthlySources))
	for _, source := range []string{"fees", "income", "indents", "expenses", "payroll"} {
		rows, err := MonthlyAmounts(c.UserContext(), h.db, source, branchID, from, to)
		if err != nil {
			return err
		}
		sums[source] = rows
	}

	report := models.BuildAnnualReport(academicYear, from, to,
		sums["fees"], sums["income"], sums["indents"], sums["expenses"], sums["payroll"])
	return utils.Success(c, "", report)
}
