package textbooks

import (
	"fmt"
	"strconv"
	"strings"

	"campus-management/app/models"
	"campus-management/app/routes/auth"
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

type TextbookRequest struct {
	BranchID  string  `json:"branch_id"`
	Title     string  `json:"title" validate:"required,max=255"`
	Subject   string  `json:"subject" validate:"max=100"`
	ClassID   string  `json:"class_id" validate:"omitempty,uuid"`
	Publisher string  `json:"publisher" validate:"max=255"`
	ISBN      string  `json:"isbn" validate:"max=30"`
	Price     float64 `json:"price" validate:"gte=0"`
	Stock     int     `json:"stock" validate:"gte=0"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type StockRequest struct {
	Adjustment int    `json:"adjustment" validate:"required"`
	Reason     string `json:"reason" validate:"max=255"`
}

func (h *handler) GetTextbooksAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	var lowStock *int
	if raw := c.Query("low_stock"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return utils.Invalid("low_stock", "low_stock must be a non-negative number")
		}
		lowStock = &n
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	books, total, err := ListTextbooks(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		ClassID:  classID,
		Subject:  c.Query("subject"),
		Status:   c.Query("status"),
		LowStock: lowStock,
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, books, page.Paginate(total))
}

func (h *handler) loadTextbook(c *fiber.Ctx) (*models.TextBook, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	b, err := GetTextbookByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, b.BranchID); err != nil {
		return nil, err
	}
	return b, nil
}

func (h *handler) GetTextbookAPI(c *fiber.Ctx) error {
	b, err := h.loadTextbook(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", b)
}

// fill copies the catalogue fields of req into b after checking the class reference.
func (h *handler) fill(c *fiber.Ctx, req *TextbookRequest, b *models.TextBook) error {
	b.ClassID = utils.OptionalString(req.ClassID)
	if b.ClassID != nil {
		if err := utils.EnsureRef(c.UserContext(), h.db, "class_id", "classes", *b.ClassID, b.BranchID); err != nil {
			return err
		}
	}
	b.Title = strings.TrimSpace(req.Title)
	b.Subject = strings.TrimSpace(req.Subject)
	b.Publisher = strings.TrimSpace(req.Publisher)
	b.ISBN = strings.TrimSpace(req.ISBN)
	b.Price = models.RoundMoney(req.Price)
	return nil
}

func (h *handler) CreateTextbookAPI(c *fiber.Ctx) error {
	var req TextbookRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	b := &models.TextBook{ID: uuid.NewString(), BranchID: branchID, Stock: req.Stock, Status: models.StatusActive}
	if err := h.fill(c, &req, b); err != nil {
		return err
	}
	if err := CreateTextbook(c.UserContext(), h.db, b); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionCreate,
		EntityID:    b.ID,
		Description: fmt.Sprintf("Added textbook %s", b.Title),
		Metadata:    models.Metadata{"stock": b.Stock, "price": b.Price},
	})
	return utils.Created(c, "Textbook created successfully", b)
}

func (h *handler) UpdateTextbookAPI(c *fiber.Ctx) error {
	existing, err := h.loadTextbook(c)
	if err != nil {
		return err
	}
	var req TextbookRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	b := &models.TextBook{ID: existing.ID, BranchID: existing.BranchID}
	if err := h.fill(c, &req, b); err != nil {
		return err
	}
	if err := UpdateTextbook(c.UserContext(), h.db, b); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    b.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionUpdate,
		EntityID:    b.ID,
		Description: fmt.Sprintf("Updated textbook %s", b.Title),
		Metadata:    models.Metadata{"previous_price": existing.Price, "price": b.Price},
	})
	return utils.Success(c, "Textbook updated successfully", b)
}

func (h *handler) UpdateTextbookStatusAPI(c *fiber.Ctx) error {
	b, err := h.loadTextbook(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := UpdateTextbookStatus(c.UserContext(), h.db, b.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    b.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionStatus,
		EntityID:    b.ID,
		Description: fmt.Sprintf("Textbook %s set to %s", b.Title, req.Status),
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Textbook status updated", fiber.Map{"id": b.ID, "status": req.Status})
}

// AdjustStockAPI adds or removes copies. The stock level never goes below zero.
func (h *handler) AdjustStockAPI(c *fiber.Ctx) error {
	b, err := h.loadTextbook(c)
	if err != nil {
		return err
	}
	var req StockRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	stock, ok, err := AdjustStock(c.UserContext(), h.db, b.ID, req.Adjustment)
	if err != nil {
		return err
	}
	if !ok {
		return utils.Invalid("adjustment", fmt.Sprintf("adjustment would take stock below zero (current stock %d)", b.Stock))
	}

	h.audit.Record(c, activity.Event{
		BranchID:    b.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionUpdate,
		EntityID:    b.ID,
		Description: fmt.Sprintf("Adjusted stock of %s by %+d", b.Title, req.Adjustment),
		Metadata:    models.Metadata{"adjustment": req.Adjustment, "stock": stock, "reason": strings.TrimSpace(req.Reason)},
	})
	b.Stock = stock
	return utils.Success(c, "Stock updated", b)
}

func (h *handler) DeleteTextbookAPI(c *fiber.Ctx) error {
	b, err := h.loadTextbook(c)
	if err != nil {
		return err
	}
	n, err := CountTextbookIndents(c.UserContext(), h.db, b.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete textbook: it appears on %d indents, deactivate it instead", n))
	}
	if err := DeleteTextbook(c.UserContext(), h.db, b.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    b.BranchID,
		Module:      auth.ModuleTextbooks,
		Action:      models.ActionDelete,
		EntityID:    b.ID,
		Description: fmt.Sprintf("Deleted textbook %s", b.Title),
	})
	return utils.Success(c, "Textbook deleted successfully", nil)
}
