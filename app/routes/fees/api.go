package fees

import (
	"fmt"
	"strings"
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/accounts"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/settings"
	"campus-management/app/routes/students"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
}

type StructureRequest struct {
	BranchID     string                `json:"branch_id"`
	ClassID      string                `json:"class_id" validate:"required,uuid"`
	AcademicYear string                `json:"academic_year" validate:"required,academic_year"`
	Components   []models.FeeComponent `json:"components" validate:"required,min=1,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type PaymentRequest struct {
	BranchID     string          `json:"branch_id"`
	StudentID    string          `json:"student_id" validate:"required,uuid"`
	AcademicYear string          `json:"academic_year" validate:"omitempty,academic_year"`
	Items        models.FeeItems `json:"items" validate:"required,min=1,dive"`
	PaymentMode  string          `json:"payment_mode" validate:"required,oneof=cash bank upi cheque card"`
	Reference    string          `json:"reference" validate:"max=100"`
	PaidOn       models.Date     `json:"paid_on"`
	AccountID    string          `json:"account_id" validate:"omitempty,uuid"`
	Remarks      string          `json:"remarks" validate:"max=1000"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// PaymentList is the payments page together with totals over every match.
type PaymentList struct {
	Payments []*models.FeePayment `json:"payments"`
	Totals   *PaymentTotals       `json:"totals"`
}

func (h *handler) GetStructuresAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	structures, total, err := ListStructures(c.UserContext(), h.db, StructureParams{
		BranchID:     branchID,
		ClassID:      classID,
		AcademicYear: c.Query("academic_year"),
		Status:       c.Query("status"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, structures, page.Paginate(total))
}

func (h *handler) loadStructure(c *fiber.Ctx) (*models.FeeStructure, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	s, err := GetStructureByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, s.BranchID); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *handler) GetStructureAPI(c *fiber.Ctx) error {
	s, err := h.loadStructure(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", s)
}

func (h *handler) buildStructure(c *fiber.Ctx, req *StructureRequest, s *models.FeeStructure) error {
	if err := utils.EnsureRef(c.UserContext(), h.db, "class_id", "classes", req.ClassID, s.BranchID); err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.Components))
	components := make(models.FeeComponents, 0, len(req.Components))
	for _, comp := range req.Components {
		name := strings.TrimSpace(comp.Name)
		key := strings.ToLower(name)
		if seen[key] {
			return utils.Invalid("components", fmt.Sprintf("component %q is listed more than once", name))
		}
		seen[key] = true
		components = append(components, models.FeeComponent{Name: name, Amount: models.RoundMoney(comp.Amount)})
	}

	s.ClassID = req.ClassID
	s.AcademicYear = req.AcademicYear
	s.Components = components
	s.TotalAmount = components.Total()
	return nil
}

func (h *handler) CreateStructureAPI(c *fiber.Ctx) error {
	var req StructureRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	s := &models.FeeStructure{ID: uuid.NewString(), BranchID: branchID, Status: models.StatusActive}
	if err := h.buildStructure(c, &req, s); err != nil {
		return err
	}
	if err := CreateStructure(c.UserContext(), h.db, s); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionCreate,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Created fee structure for %s", s.AcademicYear),
		Metadata:    models.Metadata{"class_id": s.ClassID, "total_amount": s.TotalAmount},
	})
	return utils.Created(c, "Fee structure created successfully", s)
}

func (h *handler) UpdateStructureAPI(c *fiber.Ctx) error {
	existing, err := h.loadStructure(c)
	if err != nil {
		return err
	}
	var req StructureRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	s := &models.FeeStructure{ID: existing.ID, BranchID: existing.BranchID}
	if err := h.buildStructure(c, &req, s); err != nil {
		return err
	}
	if err := UpdateStructure(c.UserContext(), h.db, s); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    s.BranchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionUpdate,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Updated fee structure for %s", s.AcademicYear),
		Metadata: models.Metadata{
			"previous_total": existing.TotalAmount,
			"total_amount":   s.TotalAmount,
		},
	})
	return utils.Success(c, "Fee structure updated successfully", s)
}

func (h *handler) UpdateStructureStatusAPI(c *fiber.Ctx) error {
	s, err := h.loadStructure(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := UpdateStructureStatus(c.UserContext(), h.db, s.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    s.BranchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionStatus,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Fee structure for %s set to %s", s.AcademicYear, req.Status),
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Fee structure status updated", fiber.Map{"id": s.ID, "status": req.Status})
}

func (h *handler) DeleteStructureAPI(c *fiber.Ctx) error {
	s, err := h.loadStructure(c)
	if err != nil {
		return err
	}
	if err := DeleteStructure(c.UserContext(), h.db, s.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    s.BranchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionDelete,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Deleted fee structure for %s", s.AcademicYear),
	})
	return utils.Success(c, "Fee structure deleted successfully", nil)
}

func (h *handler) GetPaymentsAPI(c *fiber.Ctx) error {
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
	studentID, err := utils.QueryID(c, "student_id")
	if err != nil {
		return err
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	payments, totals, err := ListPayments(c.UserContext(), h.db, PaymentParams{
		BranchID:     branchID,
		StudentID:    studentID,
		ClassID:      classID,
		AcademicYear: c.Query("academic_year"),
		PaymentMode:  c.Query("payment_mode"),
		Status:       c.Query("status"),
		From:         from,
		To:           to,
		Search:       c.Query("search"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, &PaymentList{Payments: payments, Totals: totals}, page.Paginate(totals.Count))
}

func (h *handler) loadPayment(c *fiber.Ctx) (*models.FeePayment, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	p, err := GetPaymentByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, p.BranchID); err != nil {
		return nil, err
	}
	return p, nil
}

func (h *handler) GetPaymentAPI(c *fiber.Ctx) error {
	p, err := h.loadPayment(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", p)
}

// checkItems normalises payment lines against the student. A transport line must
// name the distance group the student is assigned to.
func checkItems(student *models.Student, items models.FeeItems) (models.FeeItems, error) {
	out := make(models.FeeItems, 0, len(items))
	for _, item := range items {
		item.Amount = models.RoundMoney(item.Amount)
		item.DistanceGroup = strings.TrimSpace(item.DistanceGroup)
		if item.FeeHead != models.FeeHeadTransport {
			item.DistanceGroup = ""
		} else {
			if !student.UsesTransport || student.DistanceGroup == nil {
				return nil, utils.Invalid("items", "student does not use school transport")
			}
			if item.DistanceGroup != *student.DistanceGroup {
				return nil, utils.Invalid("items", fmt.Sprintf("student is assigned to distance group %q", *student.DistanceGroup))
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// CreatePaymentAPI records a fee receipt. The receipt number, the payment and its
// account posting are written in one transaction.
func (h *handler) CreatePaymentAPI(c *fiber.Ctx) error {
	var req PaymentRequest
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

	items, err := checkItems(student, req.Items)
	if err != nil {
		return err
	}
	if items.Total() <= 0 {
		return utils.Invalid("items", "total amount must be greater than zero")
	}

	accountID := utils.OptionalString(req.AccountID)
	if accountID != nil {
		if err := accounts.EnsureAccount(ctx, h.db, *accountID, branchID); err != nil {
			return err
		}
	}
	if req.PaidOn.IsZero() {
		req.PaidOn = models.NewDate(time.Now())
	}
	academicYear := req.AcademicYear
	if academicYear == "" {
		academicYear = student.AcademicYear
	}

	p := &models.FeePayment{
		ID:           uuid.NewString(),
		BranchID:     branchID,
		StudentID:    student.ID,
		AcademicYear: academicYear,
		Items:        items,
		Amount:       items.Total(),
		PaymentMode:  req.PaymentMode,
		Reference:    strings.TrimSpace(req.Reference),
		PaidOn:       req.PaidOn,
		AccountID:    accountID,
		Status:       models.FeePaymentPaid,
		Remarks:      strings.TrimSpace(req.Remarks),
		CollectedBy:  utils.UserID(c),
	}

	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		var err error
		if p.ReceiptNo, err = settings.AllocateReceiptNo(ctx, tx, branchID); err != nil {
			return err
		}
		if err := InsertPayment(ctx, tx, p); err != nil {
			return err
		}
		return accounts.PostFor(ctx, tx, branchID, p.AccountID, p.PaidOn, models.TxnCredit, p.Amount,
			models.SourceFeePayment, p.ID, fmt.Sprintf("Fee receipt %s: %s", p.ReceiptNo, student.FullName()))
	})
	if err != nil {
		return err
	}

	name, admissionNo := student.FullName(), student.AdmissionNo
	p.StudentName, p.AdmissionNo, p.ClassName = &name, &admissionNo, student.ClassName

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionPayment,
		EntityID:    p.ID,
		Description: fmt.Sprintf("Collected %.2f from %s, receipt %s", p.Amount, name, p.ReceiptNo),
		Metadata: models.Metadata{
			"receipt_no":   p.ReceiptNo,
			"amount":       p.Amount,
			"payment_mode": p.PaymentMode,
			"student_id":   p.StudentID,
		},
	})
	return utils.Created(c, "Payment recorded successfully", p)
}

// CancelPaymentAPI voids a receipt. Its account posting is offset by a reversal
// dated today rather than removed.
func (h *handler) CancelPaymentAPI(c *fiber.Ctx) error {
	p, err := h.loadPayment(c)
	if err != nil {
		return err
	}
	if p.Status == models.FeePaymentCancelled {
		return utils.BadRequest("Payment is already cancelled")
	}
	var req CancelRequest
	if len(c.Body()) > 0 {
		if err := utils.ParseBody(c, &req); err != nil {
			return err
		}
	}
	reason := strings.TrimSpace(req.Reason)
	ctx := c.UserContext()

	err = database.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := CancelPayment(ctx, tx, p.ID, reason); err != nil {
			return err
		}
		return accounts.Reverse(ctx, tx, models.SourceFeePayment, p.ID, models.NewDate(time.Now()),
			"Cancelled fee receipt "+p.ReceiptNo)
	})
	if err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    p.BranchID,
		Module:      auth.ModuleFees,
		Action:      models.ActionCancel,
		EntityID:    p.ID,
		Description: fmt.Sprintf("Cancelled receipt %s of %.2f", p.ReceiptNo, p.Amount),
		Metadata:    models.Metadata{"receipt_no": p.ReceiptNo, "reason": reason},
	})
	return utils.Success(c, "Payment cancelled successfully", fiber.Map{"id": p.ID, "status": models.FeePaymentCancelled})
}

func (h *handler) GetReceiptAPI(c *fiber.Ctx) error {
	p, err := h.loadPayment(c)
	if err != nil {
		return err
	}
	cfg, err := settings.GetReceiptConfig(c.UserContext(), h.db, p.BranchID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", &models.Receipt{Payment: p, Config: cfg})
}

// GetDuesAPI lists what active students still owe. Students who are settled are
// left out unless include_paid=true.
func (h *handler) GetDuesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	academicYear := c.Query("academic_year")
	if academicYear != "" && !utils.IsAcademicYear(academicYear) {
		return utils.Invalid("academic_year", "academic_year must be an academic year like 2024-2025")
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	studentID, err := utils.QueryID(c, "student_id")
	if err != nil {
		return err
	}
	includePaid := utils.QueryBool(c, "include_paid")
	page := utils.ParsePage(c)

	dues, total, err := database.ListStudentDues(c.UserContext(), h.db, database.DuesParams{
		BranchID:        branchID,
		ClassID:         classID,
		StudentID:       studentID,
		AcademicYear:    academicYear,
		OnlyOutstanding: includePaid == nil || !*includePaid,
		Limit:           page.Limit,
		Offset:          page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, dues, page.Paginate(total))
}
