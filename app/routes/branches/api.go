package branches

import (
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

type BranchRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Code    string `json:"code" validate:"required,max=50"`
	Address string `json:"address" validate:"max=1000"`
	Phone   string `json:"phone" validate:"max=30"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) GetBranchesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	branches, total, err := ListBranches(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, branches, page.Paginate(total))
}

func (h *handler) GetBranchAPI(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := utils.EnsureBranch(c, id); err != nil {
		return err
	}

	branch, err := GetBranchByID(c.UserContext(), h.db, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", branch)
}

func (h *handler) CreateBranchAPI(c *fiber.Ctx) error {
	var req BranchRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	branch := &models.Branch{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Status:  models.StatusActive,
	}
	if err := CreateBranch(c.UserContext(), h.db, branch); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branch.ID,
		Module:      auth.ModuleBranches,
		Action:      models.ActionCreate,
		EntityID:    branch.ID,
		Description: "Created branch " + branch.Name,
	})
	return utils.Created(c, "Branch created successfully", branch)
}

func (h *handler) UpdateBranchAPI(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req BranchRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	branch := &models.Branch{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := UpdateBranch(c.UserContext(), h.db, branch); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branch.ID,
		Module:      auth.ModuleBranches,
		Action:      models.ActionUpdate,
		EntityID:    branch.ID,
		Description: "Updated branch " + branch.Name,
	})
	return utils.Success(c, "Branch updated successfully", branch)
}

func (h *handler) UpdateBranchStatusAPI(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if req.Status == models.StatusInactive {
		active, err := CountActiveStudents(c.UserContext(), h.db, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return utils.BadRequest("Cannot deactivate a branch with active students")
		}
	}

	if err := UpdateBranchStatus(c.UserContext(), h.db, id, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    id,
		Module:      auth.ModuleBranches,
		Action:      models.ActionStatus,
		EntityID:    id,
		Description: "Branch status set to " + req.Status,
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Branch status updated", fiber.Map{"id": id, "status": req.Status})
}
