package departments

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

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
	kind  kind
}

type UnitRequest struct {
	BranchID    string `json:"branch_id"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) record(c *fiber.Ctx, u *models.OrgUnit, action, description string, metadata models.Metadata) {
	h.audit.Record(c, activity.Event{
		BranchID:    u.BranchID,
		Module:      auth.ModuleStaff,
		Action:      action,
		EntityID:    u.ID,
		Description: description,
		Metadata:    metadata,
	})
}

func (h *handler) ListAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	units, total, err := h.kind.List(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, units, page.Paginate(total))
}

func (h *handler) load(c *fiber.Ctx) (*models.OrgUnit, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	u, err := h.kind.Get(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, u.BranchID); err != nil {
		return nil, err
	}
	return u, nil
}

func (h *handler) GetAPI(c *fiber.Ctx) error {
	u, err := h.load(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", u)
}

func (h *handler) CreateAPI(c *fiber.Ctx) error {
	var req UnitRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	u := &models.OrgUnit{
		ID:          uuid.NewString(),
		BranchID:    branchID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Status:      models.StatusActive,
	}
	if err := h.kind.Create(c.UserContext(), h.db, u); err != nil {
		return err
	}

	h.record(c, u, models.ActionCreate, fmt.Sprintf("Created %s %s", strings.ToLower(h.kind.label), u.Name), nil)
	return utils.Created(c, h.kind.label+" created successfully", u)
}

func (h *handler) UpdateAPI(c *fiber.Ctx) error {
	existing, err := h.load(c)
	if err != nil {
		return err
	}
	var req UnitRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	u := &models.OrgUnit{
		ID:          existing.ID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := h.kind.Update(c.UserContext(), h.db, u); err != nil {
		return err
	}
	u.StaffCount = existing.StaffCount

	h.record(c, u, models.ActionUpdate, fmt.Sprintf("Updated %s %s", strings.ToLower(h.kind.label), u.Name), nil)
	return utils.Success(c, h.kind.label+" updated successfully", u)
}

func (h *handler) UpdateStatusAPI(c *fiber.Ctx) error {
	u, err := h.load(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if err := h.kind.UpdateStatus(c.UserContext(), h.db, u.ID, req.Status); err != nil {
		return err
	}

	h.record(c, u, models.ActionStatus, fmt.Sprintf("%s %s set to %s", h.kind.label, u.Name, req.Status),
		models.Metadata{"status": req.Status})
	return utils.Success(c, h.kind.label+" status updated", fiber.Map{"id": u.ID, "status": req.Status})
}

func (h *handler) DeleteAPI(c *fiber.Ctx) error {
	u, err := h.load(c)
	if err != nil {
		return err
	}

	n, err := h.kind.StaffCount(c.UserContext(), h.db, u.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete %s: %d staff members are assigned to it", strings.ToLower(h.kind.label), n))
	}

	if err := h.kind.Delete(c.UserContext(), h.db, u.ID); err != nil {
		return err
	}

	h.record(c, u, models.ActionDelete, fmt.Sprintf("Deleted %s %s", strings.ToLower(h.kind.label), u.Name), nil)
	return utils.Success(c, h.kind.label+" deleted successfully", nil)
}
