package textbooks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/accounts"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/students"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type IndentLine struct {
	TextbookID string `json:"textbook_id" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

type IndentRequest struct {
	BranchID     string       `json:"branch_id"`
	StudentID    string       `json:"student_id" validate:"required,uuid"`
	AcademicYear string       `json:"academic_year" validate:"omitempty,academic_year"`
	Items        []IndentLine `json:"items" validate:"required,min=1,dive"`
	Remarks      string       `json:"remarks" validate:"max=1000"`
}

type ReturnRequest struct {
	Items []models.ReturnLine `json:"items" validate:"required,min=1,dive"`
}

type IndentPaymentRequest struct {
	Amount      float64     `json:"amount" validate:"gt=0"`
	PaymentMode string      `json:"payment_mode" validate:"required,oneof=cash bank upi cheque card"`
	PaidOn      models.Date `json:"paid_on"`
	AccountID   string      `json:"account_id" validate:"omitempty,uuid"`
}

// PaymentResult is a recorded payment with the indent it was applied to.
type PaymentResult struct {
	Payment *models.IndentPayment  `json:"payment"`
	Indent  *models.TextbookIndent `json:"indent"`
}

var errIndentChanged = utils.Conflict("Indent was changed by another request, reload and try again")

func (h *handler) GetIndentsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	studentID, err := utils.QueryID(c, "student_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	indents, total, err := ListIndents(c.UserContext(), h.db, IndentParams{
		BranchID:     branchID,
		StudentID:    studentID,
		Status:       c.Query("status"),
		AcademicYear: c.Query("academic_year"),
		Search:       c.Query("search"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, indents, page.Paginate(total))
}

func (h *handler) loadIndent(c *fiber.Ctx) (*models.TextbookIndent, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	in, err := GetIndentByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, in.BranchID); err != nil {
		return nil, err
	}
	return in, nil
}

func (h *handler) GetIndentAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", in)
}

// mergeLines folds repeated textbooks into one line and orders lines by textbook
// so concurrent reservations lock rows in the same order.
func mergeLines(lines []IndentLine) []IndentLine {
	qty := make(map[string]int, len(lines))
	for _, l := range lines {
		qty[l.TextbookID] += l.Quantity
	}
	merged := make([]IndentLine, 0, len(qty))
	for id, q := range qty {
		merged = append(merged, IndentLine{TextbookID: id, Quantity: q})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].TextbookID < merged[j].TextbookID })
	return merged
}

// CreateIndentAPI opens a pending indent and reserves stock for every line. Either
// every book is reserved or nothing is.
func (h *handler) CreateIndentAPI(c *fiber.Ctx) error {
	var req IndentRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	student, err := students.GetStudentByID(ctx, h.db, req.StudentID)
	if err != nil {
		if database.IsNotFound(err) {
			return utils.Invalid("student_id", "student_id does not reference a student in this branch")
		}
		return err
	}
	if student.BranchID != branchID {
		return utils.Invalid("student_id", "student_id does not reference a student in this branch")
	}
	if student.Status != models.StatusActive {
		return utils.Invalid("student_id", "student is not active")
	}

	lines := mergeLines(req.Items)
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.TextbookID
	}
	books, err := GetTextbooks(ctx, h.db, ids, branchID)
	if err != nil {
		return err
	}

	in := &models.TextbookIndent{
		ID:           uuid.NewString(),
		BranchID:     branchID,
		StudentID:    student.ID,
		AcademicYear: req.AcademicYear,
		Status:       models.IndentPending,
		Remarks:      strings.TrimSpace(req.Remarks),
		CreatedBy:    utils.UserID(c),
	}
	if in.AcademicYear == "" {
		in.AcademicYear = student.AcademicYear
	}
	for _, l := range lines {
		b, ok := books[l.TextbookID]
		if !ok {
			return utils.Invalid("items", fmt.Sprintf("textbook %s does not exist in this branch", l.TextbookID))
		}
		if b.Status != models.StatusActive {
			return utils.Invalid("items", fmt.Sprintf("textbook %q is inactive", b.Title))
		}
		in.Items = append(in.Items, &models.IndentItem{
			ID:         uuid.NewString(),
			TextbookID: b.ID,
			Title:      b.Title,
			Quantity:   l.Quantity,
			UnitPrice:  b.Price,
		})
	}
	in.TotalAmount = models.IndentTotal(in.Items)

	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := InsertIndent(ctx, tx, in); err != nil {
			return err
		}
		// Items reference the id the insert returned.
		for _, it := range in.Items {
			it.IndentID = in.ID
			_, ok, err := AdjustStock(ctx, tx, it.TextbookID, -it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return utils.BadRequest(fmt.Sprintf("Insufficient stock for %q", it.Title))
			}
			if err := InsertIndentItem(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	name, admissionNo := student.FullName(), student.AdmissionNo
	in.StudentName, in.AdmissionNo = &name, &admissionNo
	in.Derive()

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionCreate,
		EntityID:    in.ID,
		Description: fmt.Sprintf("Created textbook indent for %s", name),
		Metadata:    models.Metadata{"items": len(in.Items), "total_amount": in.TotalAmount},
	})
	return utils.Created(c, "Indent created successfully", in)
}

func checkTransition(in *models.TextbookIndent, to string) error {
	if !models.CanTransition(in.Status, to) {
		return utils.BadRequest(fmt.Sprintf("Cannot move an indent from %s to %s", in.Status, to))
	}
	return nil
}

func (h *handler) IssueIndentAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	if err := checkTransition(in, models.IndentIssued); err != nil {
		return err
	}

	if err := SetIndentStatus(c.UserContext(), h.db, in.ID, in.Status, models.IndentIssued); err != nil {
		if database.IsNotFound(err) {
			return errIndentChanged
		}
		return err
	}
	now := time.Now()
	in.Status, in.IssuedAt = models.IndentIssued, &now

	h.audit.Record(c, activity.Event{
		BranchID:    in.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionIssue,
		EntityID:    in.ID,
		Description: fmt.Sprintf("Issued textbooks to %s", deref(in.StudentName)),
	})
	return utils.Success(c, "Indent issued", in)
}

// CancelIndentAPI cancels a pending indent and puts its reserved copies back in stock.
func (h *handler) CancelIndentAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	if err := checkTransition(in, models.IndentCancelled); err != nil {
		return err
	}

	ctx := c.UserContext()
	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := SetIndentStatus(ctx, tx, in.ID, in.Status, models.IndentCancelled); err != nil {
			if database.IsNotFound(err) {
				return errIndentChanged
			}
			return err
		}
		for _, it := range in.Items {
			if _, _, err := AdjustStock(ctx, tx, it.TextbookID, it.Outstanding()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	now := time.Now()
	in.Status, in.CancelledAt = models.IndentCancelled, &now
	in.Derive()

	h.audit.Record(c, activity.Event{
		BranchID:    in.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionCancel,
		EntityID:    in.ID,
		Description: fmt.Sprintf("Cancelled textbook indent for %s", deref(in.StudentName)),
		Metadata:    models.Metadata{"amount_paid": in.AmountPaid},
	})
	return utils.Success(c, "Indent cancelled", in)
}

// ReturnIndentAPI takes back copies of issued books and restocks them.
func (h *handler) ReturnIndentAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	if err := checkTransition(in, models.IndentReturned); err != nil {
		return err
	}
	var req ReturnRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	var items []*models.IndentItem
	var status string
	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		var err error
		if items, err = LockIndentItems(ctx, tx, in.ID); err != nil {
			return err
		}
		byID := make(map[string]*models.IndentItem, len(items))
		for _, it := range items {
			byID[it.ID] = it
		}
		if status, err = models.ApplyReturns(items, req.Items); err != nil {
			return utils.Invalid("items", err.Error())
		}

		for _, l := range req.Items {
			if err := RecordReturn(ctx, tx, l.ItemID, l.Quantity); err != nil {
				return err
			}
			if _, _, err := AdjustStock(ctx, tx, byID[l.ItemID].TextbookID, l.Quantity); err != nil {
				return err
			}
		}
		if err := SetIndentStatus(ctx, tx, in.ID, in.Status, status); err != nil {
			if database.IsNotFound(err) {
				return errIndentChanged
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	returned := 0
	for _, l := range req.Items {
		returned += l.Quantity
	}
	in.Items, in.Status = items, status
	in.Derive()

	h.audit.Record(c, activity.Event{
		BranchID:    in.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionReturn,
		EntityID:    in.ID,
		Description: fmt.Sprintf("Took back %d books from %s", returned, deref(in.StudentName)),
		Metadata:    models.Metadata{"returned": returned, "status": status, "refund_due": in.RefundDue},
	})
	return utils.Success(c, "Return recorded", in)
}

func (h *handler) GetIndentPaymentsAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	payments, err := ListIndentPayments(c.UserContext(), h.db, in.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", payments)
}

// CreateIndentPaymentAPI records money received against an indent. A payment may
// not exceed what is still billable.
func (h *handler) CreateIndentPaymentAPI(c *fiber.Ctx) error {
	in, err := h.loadIndent(c)
	if err != nil {
		return err
	}
	if in.Status == models.IndentCancelled {
		return utils.BadRequest("Payments cannot be recorded against a cancelled indent")
	}
	var req IndentPaymentRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	amount := models.RoundMoney(req.Amount)
	balance := models.RoundMoney(in.BillableAmount - in.AmountPaid)
	if amount > balance {
		return utils.Invalid("amount", fmt.Sprintf("amount exceeds the balance due of %.2f", balance))
	}

	ctx := c.UserContext()
	p := &models.IndentPayment{
		ID:          uuid.NewString(),
		BranchID:    in.BranchID,
		IndentID:    in.ID,
		Amount:      amount,
		PaymentMode: req.PaymentMode,
		PaidOn:      req.PaidOn,
		AccountID:   utils.OptionalString(req.AccountID),
		CreatedBy:   utils.UserID(c),
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = models.NewDate(time.Now())
	}
	if p.AccountID != nil {
		if err := accounts.EnsureAccount(ctx, h.db, *p.AccountID, in.BranchID); err != nil {
			return err
		}
	}

	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := AddAmountPaid(ctx, tx, in.ID, amount); err != nil {
			if database.IsNotFound(err) {
				return errIndentChanged
			}
			return err
		}
		if err := InsertIndentPayment(ctx, tx, p); err != nil {
			return err
		}
		return accounts.PostFor(ctx, tx, in.BranchID, p.AccountID, p.PaidOn, models.TxnCredit, p.Amount,
			models.SourceIndentPayment, p.ID, fmt.Sprintf("Textbook payment: %s", deref(in.StudentName)))
	})
	if err != nil {
		return err
	}
	in.AmountPaid = models.RoundMoney(in.AmountPaid + amount)
	in.Derive()

	h.audit.Record(c, activity.Event{
		BranchID:    in.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionPayment,
		EntityID:    in.ID,
		Description: fmt.Sprintf("Received %.2f for textbooks from %s", amount, deref(in.StudentName)),
		Metadata:    models.Metadata{"payment_id": p.ID, "amount": amount, "payment_mode": p.PaymentMode},
	})
	return utils.Created(c, "Payment recorded", &PaymentResult{Payment: p, Indent: in})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
