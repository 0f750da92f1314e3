package expenses

import (
	"fmt"
	"strings"

	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// handler serves one kind, expense or income.
type handler struct {
	db    *sqlx.DB
	audit activity.Logger
	kind  string
}

type CategoryRequest struct {
	BranchID    string `json:"branch_id"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) GetCategoriesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	categories, total, err := ListCategories(c.UserContext(), h.db, CategoryParams{
		BranchID: branchID,
		Kind:     h.kind,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, categories, page.Paginate(total))
}

// loadCategory also hides categories of the other kind.
func (h *handler) loadCategory(c *fiber.Ctx) (*models.FinanceCategory, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	cat, err := GetCategoryByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if cat.Kind != h.kind {
		return nil, utils.NotFound("Category not found")
	}
	if err := utils.EnsureBranch(c, cat.BranchID); err != nil {
		return nil, err
	}
	return cat, nil
}

func (h *handler) GetCategoryAPI(c *fiber.Ctx) error {
	cat, err := h.loadCategory(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", cat)
}

func (h *handler) CreateCategoryAPI(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	cat := &models.FinanceCategory{
		ID:          uuid.NewString(),
		BranchID:    branchID,
		Kind:        h.kind,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Status:      models.StatusActive,
	}
	if err := CreateCategory(c.UserContext(), h.db, cat); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionCreate,
		EntityID:    cat.ID,
		Description: fmt.Sprintf("Created %s category %s", h.kind, cat.Name),
	})
	return utils.Created(c, "Category created successfully", cat)
}

func (h *handler) UpdateCategoryAPI(c *fiber.Ctx) error {
	existing, err := h.loadCategory(c)
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	cat := &models.FinanceCategory{
		ID:          existing.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := UpdateCategory(c.UserContext(), h.db, cat); err != nil {
		return err
	}
	cat.EntryCount = existing.EntryCount

	h.audit.Record(c, activity.Event{
		BranchID:    existing.BranchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionUpdate,
		EntityID:    cat.ID,
		Description: fmt.Sprintf("Updated %s category %s", h.kind, cat.Name),
		Metadata:    models.Metadata{"previous_name": existing.Name},
	})
	return utils.Success(c, "Category updated successfully", cat)
}

func (h *handler) UpdateCategoryStatusAPI(c *fiber.Ctx) error {
	cat, err := h.loadCategory(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := UpdateCategoryStatus(c.UserContext(), h.db, cat.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    cat.BranchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionStatus,
		EntityID:    cat.ID,
		Description: fmt.Sprintf("Category %s set to %s", cat.Name, req.Status),
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Category status updated", fiber.Map{"id": cat.ID, "status": req.Status})
}

func (h *handler) DeleteCategoryAPI(c *fiber.Ctx) error {
	cat, err := h.loadCategory(c)
	if err != nil {
		return err
	}
	if cat.EntryCount > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete category: %d entries use it", cat.EntryCount))
	}
	if err := DeleteCategory(c.UserContext(), h.db, cat.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    cat.BranchID,
		Module:      auth.ModuleFinance,
		Action:      models.ActionDelete,
		EntityID:    cat.ID,
		Description: fmt.Sprintf("Deleted %s category %s", h.kind, cat.Name),
	})
	return utils.Success(c, "Category deleted successfully", nil)
}
