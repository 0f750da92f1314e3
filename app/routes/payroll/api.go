package payroll

import (
	"fmt"
	"strings"
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/accounts"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
}

type GenerateRequest struct {
	BranchID string `json:"branch_id"`
	Month    int    `json:"month" validate:"required,min=1,max=12"`
	Year     int    `json:"year" validate:"required,min=2000,max=2100"`
}

type UpdateRequest struct {
	BasicSalary float64 `json:"basic_salary" validate:"gte=0"`
	Allowances  float64 `json:"allowances" validate:"gte=0"`
	Deductions  float64 `json:"deductions" validate:"gte=0"`
	Remarks     string  `json:"remarks" validate:"max=1000"`
}

type PayRequest struct {
	PaidOn      models.Date `json:"paid_on"`
	PaymentMode string      `json:"payment_mode" validate:"required,oneof=cash bank upi cheque card"`
	AccountID   string      `json:"account_id" validate:"omitempty,uuid"`
	Remarks     string      `json:"remarks" validate:"max=1000"`
}

// EntryList is a payroll page with totals over every matching entry.
type EntryList struct {
	Entries []*models.PayrollEntry `json:"entries"`
	Totals  *models.PayrollTotals  `json:"totals"`
}

func (h *handler) GetEntriesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	staffID, err := utils.QueryID(c, "staff_id")
	if err != nil {
		return err
	}
	departmentID, err := utils.QueryID(c, "department_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	entries, totals, err := ListEntries(c.UserContext(), h.db, ListParams{
		BranchID:     branchID,
		Month:        c.QueryInt("month"),
		Year:         c.QueryInt("year"),
		Status:       c.Query("status"),
		StaffID:      staffID,
		DepartmentID: departmentID,
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, &EntryList{Entries: entries, Totals: totals}, page.Paginate(totals.Entries))
}

func (h *handler) GeneratePayrollAPI(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	result, err := Generate(c.UserContext(), h.db, branchID, req.Month, req.Year)
	if err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModulePayroll,
		Action:      models.ActionGenerate,
		Description: fmt.Sprintf("Generated payroll for %02d/%d", req.Month, req.Year),
		Metadata:    models.Metadata{"created": result.Created, "skipped": result.Skipped},
	})
	return utils.Success(c, fmt.Sprintf("Generated %d payroll entries, skipped %d", result.Created, result.Skipped), result)
}

func (h *handler) loadEntry(c *fiber.Ctx) (*models.PayrollEntry, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	e, err := GetEntryByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, e.BranchID); err != nil {
		return nil, err
	}
	return e, nil
}

func (h *handler) loadPending(c *fiber.Ctx) (*models.PayrollEntry, error) {
	e, err := h.loadEntry(c)
	if err != nil {
		return nil, err
	}
	if e.Status != models.PayrollPending {
		return nil, utils.BadRequest("Only pending payroll entries can be changed")
	}
	return e, nil
}

func staffLabel(e *models.PayrollEntry) string {
	if e.StaffName != nil {
		return *e.StaffName
	}
	return e.StaffID
}

func (h *handler) GetEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadEntry(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", e)
}

func (h *handler) UpdateEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadPending(c)
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	previous := e.NetSalary
	e.BasicSalary = models.RoundMoney(req.BasicSalary)
	e.Allowances = models.RoundMoney(req.Allowances)
	e.Deductions = models.RoundMoney(req.Deductions)
	e.Remarks = strings.TrimSpace(req.Remarks)
	if err := e.ComputeNet(); err != nil {
		return utils.Invalid("deductions", err.Error())
	}
	if err := UpdatePendingEntry(c.UserContext(), h.db, e); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    e.BranchID,
		Module:      auth.ModulePayroll,
		Action:      models.ActionUpdate,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Updated payroll of %s for %02d/%d", staffLabel(e), e.Month, e.Year),
		Metadata:    models.Metadata{"previous_net_salary": previous, "net_salary": e.NetSalary},
	})
	return utils.Success(c, "Payroll entry updated successfully", e)
}

// PayEntryAPI settles a pending entry and, when an account is named, posts the net
// salary as a debit in the same transaction.
func (h *handler) PayEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadEntry(c)
	if err != nil {
		return err
	}
	if e.Status == models.PayrollPaid {
		return utils.BadRequest("Payroll entry is already paid")
	}
	var req PayRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	ctx := c.UserContext()

	e.AccountID = utils.OptionalString(req.AccountID)
	if e.AccountID != nil {
		if err := accounts.EnsureAccount(ctx, h.db, *e.AccountID, e.BranchID); err != nil {
			return err
		}
	}
	paidOn := req.PaidOn
	if paidOn.IsZero() {
		paidOn = models.NewDate(time.Now())
	}
	e.PaidOn = &paidOn
	e.PaymentMode = req.PaymentMode
	if remarks := strings.TrimSpace(req.Remarks); remarks != "" {
		e.Remarks = remarks
	}

	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := MarkPaid(ctx, tx, e); err != nil {
			return err
		}
		return accounts.PostFor(ctx, tx, e.BranchID, e.AccountID, paidOn, models.TxnDebit, e.NetSalary,
			models.SourcePayroll, e.ID, fmt.Sprintf("Salary: %s %02d/%d", staffLabel(e), e.Month, e.Year))
	})
	if err != nil {
		return err
	}
	e.Status = models.PayrollPaid

	h.audit.Record(c, activity.Event{
		BranchID:    e.BranchID,
		Module:      auth.ModulePayroll,
		Action:      models.ActionPayment,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Paid %.2f salary to %s for %02d/%d", e.NetSalary, staffLabel(e), e.Month, e.Year),
		Metadata:    models.Metadata{"net_salary": e.NetSalary, "payment_mode": e.PaymentMode},
	})
	return utils.Success(c, "Payroll entry paid successfully", e)
}

func (h *handler) DeleteEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadPending(c)
	if err != nil {
		return err
	}
	if err := DeletePendingEntry(c.UserContext(), h.db, e.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    e.BranchID,
		Module:      auth.ModulePayroll,
		Action:      models.ActionDelete,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Deleted payroll of %s for %02d/%d", staffLabel(e), e.Month, e.Year),
	})
	return utils.Success(c, "Payroll entry deleted successfully", nil)
}
