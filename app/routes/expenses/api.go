package expenses

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
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EntryRequest struct {
	BranchID    string      `json:"branch_id"`
	CategoryID  string      `json:"category_id" validate:"required,uuid"`
	Title       string      `json:"title" validate:"required,max=255"`
	Amount      float64     `json:"amount" validate:"gt=0"`
	EntryDate   models.Date `json:"entry_date"`
	PaymentMode string      `json:"payment_mode" validate:"required,oneof=cash bank upi cheque card"`
	Reference   string      `json:"reference" validate:"max=100"`
	AccountID   string      `json:"account_id" validate:"omitempty,uuid"`
	Notes       string      `json:"notes" validate:"max=2000"`
}

// EntryList is a page of entries with totals over every match.
type EntryList struct {
	Entries []*models.FinanceEntry `json:"entries"`
	Totals  *EntryTotals           `json:"totals"`
}

func (h *handler) GetEntriesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
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
	categoryID, err := utils.QueryID(c, "category_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	entries, totals, err := ListEntries(c.UserContext(), h.db, EntryParams{
		BranchID:   branchID,
		Kind:       h.kind,
		CategoryID: categoryID,
		From:       from,
		To:         to,
		Search:     c.Query("search"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, &EntryList{Entries: entries, Totals: totals}, page.Paginate(totals.Count))
}

func (h *handler) loadEntry(c *fiber.Ctx) (*models.FinanceEntry, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	e, err := GetEntryByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if e.Kind != h.kind {
		return nil, utils.NotFound("Record not found")
	}
	if err := utils.EnsureBranch(c, e.BranchID); err != nil {
		return nil, err
	}
	return e, nil
}

func (h *handler) GetEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadEntry(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", e)
}

// build checks references and fills e from req.
func (h *handler) build(c *fiber.Ctx, req *EntryRequest, e *models.FinanceEntry) error {
	ctx := c.UserContext()
	ok, err := CategoryAccepts(ctx, h.db, req.CategoryID, e.BranchID, h.kind)
	if err != nil {
		return err
	}
	if !ok {
		return utils.Invalid("category_id", fmt.Sprintf("category_id does not reference an active %s category in this branch", h.kind))
	}

	e.AccountID = utils.OptionalString(req.AccountID)
	if e.AccountID != nil {
		if err := accounts.EnsureAccount(ctx, h.db, *e.AccountID, e.BranchID); err != nil {
			return err
		}
	}

	e.CategoryID = req.CategoryID
	e.Title = strings.TrimSpace(req.Title)
	e.Amount = models.RoundMoney(req.Amount)
	e.EntryDate = req.EntryDate
	if e.EntryDate.IsZero() {
		e.EntryDate = models.NewDate(time.Now())
	}
	e.PaymentMode = req.PaymentMode
	e.Reference = strings.TrimSpace(req.Reference)
	e.Notes = strings.TrimSpace(req.Notes)
	return nil
}

func (h *handler) post(c *fiber.Ctx, tx *sqlx.Tx, e *models.FinanceEntry) error {
	return accounts.PostFor(c.UserContext(), tx, e.BranchID, e.AccountID, e.EntryDate, e.TxnType(), e.Amount,
		e.Kind, e.ID, label(e.Kind)+": "+e.Title)
}

func (h *handler) CreateEntryAPI(c *fiber.Ctx) error {
	var req EntryRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	e := &models.FinanceEntry{ID: uuid.NewString(), BranchID: branchID, Kind: h.kind, CreatedBy: utils.UserID(c)}
	if err := h.build(c, &req, e); err != nil {
		return err
	}

	err = database.WithTx(c.UserContext(), h.db, func(tx *sqlx.Tx) error {
		if err := InsertEntry(c.UserContext(), tx, e); err != nil {
			return err
		}
		return h.post(c, tx, e)
	})
	if err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionCreate,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Recorded %s %s of %.2f", h.kind, e.Title, e.Amount),
		Metadata:    models.Metadata{"amount": e.Amount, "category_id": e.CategoryID},
	})
	return utils.Created(c, fmt.Sprintf("%s recorded successfully", label(h.kind)), e)
}

// UpdateEntryAPI rewrites an entry. Its account postings are dropped and made
// again from the new figures.
func (h *handler) UpdateEntryAPI(c *fiber.Ctx) error {
	existing, err := h.loadEntry(c)
	if err != nil {
		return err
	}
	var req EntryRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	e := &models.FinanceEntry{ID: existing.ID, BranchID: existing.BranchID, Kind: existing.Kind}
	if err := h.build(c, &req, e); err != nil {
		return err
	}

	ctx := c.UserContext()
	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := UpdateEntry(ctx, tx, e); err != nil {
			return err
		}
		if err := accounts.Unpost(ctx, tx, e.Kind, e.ID); err != nil {
			return err
		}
		return h.post(c, tx, e)
	})
	if err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    e.BranchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionUpdate,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Updated %s %s", h.kind, e.Title),
		Metadata:    models.Metadata{"previous_amount": existing.Amount, "amount": e.Amount},
	})
	return utils.Success(c, fmt.Sprintf("%s updated successfully", label(h.kind)), e)
}

// DeleteEntryAPI removes an entry and offsets its postings with reversals dated today.
func (h *handler) DeleteEntryAPI(c *fiber.Ctx) error {
	e, err := h.loadEntry(c)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := DeleteEntry(ctx, tx, e.ID); err != nil {
			return err
		}
		return accounts.Reverse(ctx, tx, e.Kind, e.ID, models.NewDate(time.Now()),
			fmt.Sprintf("Deleted %s: %s", h.kind, e.Title))
	})
	if err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    e.BranchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionDelete,
		EntityID:    e.ID,
		Description: fmt.Sprintf("Deleted %s %s of %.2f", h.kind, e.Title, e.Amount),
	})
	return utils.Success(c, fmt.Sprintf("%s deleted successfully", label(h.kind)), nil)
}

func label(kind string) string {
	if kind == models.KindIncome {
		return "Income"
	}
	return "Expense"
}
