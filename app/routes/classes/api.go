package classes

import (
	"fmt"
	"strings"

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
	db    *sqlx.DB
	audit activity.Logger
}

type ClassRequest struct {
	BranchID     string `json:"branch_id"`
	Name         string `json:"name" validate:"required,max=100"`
	AcademicYear string `json:"academic_year" validate:"required,academic_year"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type DivisionRequest struct {
	ClassID  string `json:"class_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required,max=50"`
	Capacity int    `json:"capacity" validate:"gte=0,lte=1000"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (h *handler) GetClassesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	classes, total, err := ListClasses(c.UserContext(), h.db, ListParams{
		BranchID:     branchID,
		AcademicYear: c.Query("academic_year"),
		Status:       c.Query("status"),
		Search:       c.Query("search"),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, classes, page.Paginate(total))
}

func (h *handler) loadClass(c *fiber.Ctx) (*models.Class, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	class, err := GetClassByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, class.BranchID); err != nil {
		return nil, err
	}
	return class, nil
}

func (h *handler) GetClassAPI(c *fiber.Ctx) error {
	class, err := h.loadClass(c)
	if err != nil {
		return err
	}
	if class.Divisions, err = ListDivisions(c.UserContext(), h.db, class.BranchID, class.ID); err != nil {
		return err
	}
	return utils.Success(c, "", class)
}

func (h *handler) CreateClassAPI(c *fiber.Ctx) error {
	var req ClassRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	class := &models.Class{
		ID:           uuid.NewString(),
		BranchID:     branchID,
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: req.AcademicYear,
		Status:       models.StatusActive,
	}
	if err := CreateClass(c.UserContext(), h.db, class); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionCreate,
		EntityID:    class.ID,
		Description: fmt.Sprintf("Created class %s (%s)", class.Name, class.AcademicYear),
	})
	return utils.Created(c, "Class created successfully", class)
}

func (h *handler) UpdateClassAPI(c *fiber.Ctx) error {
	existing, err := h.loadClass(c)
	if err != nil {
		return err
	}
	var req ClassRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	class := &models.Class{
		ID:           existing.ID,
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: req.AcademicYear,
	}
	if err := UpdateClass(c.UserContext(), h.db, class); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    class.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionUpdate,
		EntityID:    class.ID,
		Description: fmt.Sprintf("Updated class %s (%s)", class.Name, class.AcademicYear),
	})
	return utils.Success(c, "Class updated successfully", class)
}

func (h *handler) UpdateClassStatusAPI(c *fiber.Ctx) error {
	class, err := h.loadClass(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if err := UpdateClassStatus(c.UserContext(), h.db, class.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    class.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionStatus,
		EntityID:    class.ID,
		Description: "Class " + class.Name + " set to " + req.Status,
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Class status updated", fiber.Map{"id": class.ID, "status": req.Status})
}

func (h *handler) DeleteClassAPI(c *fiber.Ctx) error {
	class, err := h.loadClass(c)
	if err != nil {
		return err
	}

	students, divisions, err := ClassUsage(c.UserContext(), h.db, class.ID)
	if err != nil {
		return err
	}
	if students > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete class: %d students are assigned to it", students))
	}
	if divisions > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete class: it has %d divisions", divisions))
	}

	if err := DeleteClass(c.UserContext(), h.db, class.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    class.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionDelete,
		EntityID:    class.ID,
		Description: fmt.Sprintf("Deleted class %s (%s)", class.Name, class.AcademicYear),
	})
	return utils.Success(c, "Class deleted successfully", nil)
}

func (h *handler) GetClassDivisionsAPI(c *fiber.Ctx) error {
	class, err := h.loadClass(c)
	if err != nil {
		return err
	}
	divisions, err := ListDivisions(c.UserContext(), h.db, class.BranchID, class.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", divisions)
}

func (h *handler) GetDivisionsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}

	divisions, err := ListDivisions(c.UserContext(), h.db, branchID, classID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", divisions)
}

func (h *handler) loadDivision(c *fiber.Ctx) (*models.Division, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	d, err := GetDivisionByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, d.BranchID); err != nil {
		return nil, err
	}
	return d, nil
}

func (h *handler) GetDivisionAPI(c *fiber.Ctx) error {
	d, err := h.loadDivision(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", d)
}

func (h *handler) CreateDivisionAPI(c *fiber.Ctx) error {
	var req DivisionRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	// the division lives in its class's branch
	class, err := GetClassByID(c.UserContext(), h.db, req.ClassID)
	if err != nil {
		if database.IsNotFound(err) {
			return utils.Invalid("class_id", "class_id does not exist")
		}
		return err
	}
	if !utils.CanAccessBranch(c, class.BranchID) {
		return utils.Invalid("class_id", "class_id does not exist")
	}

	d := &models.Division{
		ID:       uuid.NewString(),
		BranchID: class.BranchID,
		ClassID:  class.ID,
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
		Status:   models.StatusActive,
	}
	if req.Status != "" {
		d.Status = req.Status
	}
	if err := CreateDivision(c.UserContext(), h.db, d); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    d.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionCreate,
		EntityID:    d.ID,
		Description: fmt.Sprintf("Created division %s in class %s", d.Name, class.Name),
	})
	return utils.Created(c, "Division created successfully", d)
}

func (h *handler) UpdateDivisionAPI(c *fiber.Ctx) error {
	existing, err := h.loadDivision(c)
	if err != nil {
		return err
	}
	var req DivisionRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if req.ClassID != existing.ClassID {
		return utils.Invalid("class_id", "a division cannot be moved to another class")
	}
	if req.Capacity > 0 && existing.StudentCount > req.Capacity {
		return utils.Invalid("capacity", fmt.Sprintf("capacity cannot be below the %d students already assigned", existing.StudentCount))
	}

	d := &models.Division{
		ID:       existing.ID,
		Name:     strings.TrimSpace(req.Name),
		Capacity: req.Capacity,
		Status:   existing.Status,
	}
	if req.Status != "" {
		d.Status = req.Status
	}
	if err := UpdateDivision(c.UserContext(), h.db, d); err != nil {
		return err
	}
	d.StudentCount = existing.StudentCount

	h.audit.Record(c, activity.Event{
		BranchID:    d.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionUpdate,
		EntityID:    d.ID,
		Description: "Updated division " + d.Name,
	})
	return utils.Success(c, "Division updated successfully", d)
}

func (h *handler) DeleteDivisionAPI(c *fiber.Ctx) error {
	d, err := h.loadDivision(c)
	if err != nil {
		return err
	}

	students, err := CountDivisionStudents(c.UserContext(), h.db, d.ID)
	if err != nil {
		return err
	}
	if students > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete division: %d students are assigned to it", students))
	}

	if err := DeleteDivision(c.UserContext(), h.db, d.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    d.BranchID,
		Module:      auth.ModuleClasses,
		Action:      models.ActionDelete,
		EntityID:    d.ID,
		Description: "Deleted division " + d.Name,
	})
	return utils.Success(c, "Division deleted successfully", nil)
}
