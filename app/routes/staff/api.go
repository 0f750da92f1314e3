package staff

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
}

type StaffRequest struct {
	BranchID      string      `json:"branch_id"`
	EmployeeCode  string      `json:"employee_code" validate:"required,max=50"`
	Name          string      `json:"name" validate:"required,max=255"`
	Email         string      `json:"email" validate:"omitempty,email"`
	Phone         string      `json:"phone" validate:"max=30"`
	Gender        string      `json:"gender" validate:"omitempty,oneof=male female other"`
	DepartmentID  string      `json:"department_id" validate:"required,uuid"`
	DesignationID string      `json:"designation_id" validate:"required,uuid"`
	JoiningDate   models.Date `json:"joining_date"`
	BasicSalary   float64     `json:"basic_salary" validate:"gte=0"`
	Allowances    float64     `json:"allowances" validate:"gte=0"`
	Deductions    float64     `json:"deductions" validate:"gte=0"`
	BankName      string      `json:"bank_name" validate:"max=100"`
	BankAccountNo string      `json:"bank_account_no" validate:"max=50"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) GetStaffListAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	departmentID, err := utils.QueryID(c, "department_id")
	if err != nil {
		return err
	}
	designationID, err := utils.QueryID(c, "designation_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	staff, total, err := ListStaff(c.UserContext(), h.db, ListParams{
		BranchID:      branchID,
		DepartmentID:  departmentID,
		DesignationID: designationID,
		Status:        c.Query("status"),
		Search:        c.Query("search"),
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, staff, page.Paginate(total))
}

func (h *handler) loadStaff(c *fiber.Ctx) (*models.Staff, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	s, err := GetStaffByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, s.BranchID); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *handler) GetStaffAPI(c *fiber.Ctx) error {
	s, err := h.loadStaff(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", s)
}

func (h *handler) build(c *fiber.Ctx, req *StaffRequest, branchID string) (*models.Staff, error) {
	if req.JoiningDate.IsZero() {
		return nil, utils.Invalid("joining_date", "joining_date is required")
	}
	if _, err := models.NetSalary(req.BasicSalary, req.Allowances, req.Deductions); err != nil {
		return nil, utils.Invalid("deductions", "deductions cannot exceed basic salary plus allowances")
	}
	ctx := c.UserContext()
	if err := utils.EnsureRef(ctx, h.db, "department_id", "departments", req.DepartmentID, branchID); err != nil {
		return nil, err
	}
	if err := utils.EnsureRef(ctx, h.db, "designation_id", "designations", req.DesignationID, branchID); err != nil {
		return nil, err
	}

	gender := req.Gender
	if gender == "" {
		gender = models.Other
	}
	return &models.Staff{
		BranchID:      branchID,
		EmployeeCode:  strings.ToUpper(strings.TrimSpace(req.EmployeeCode)),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		Gender:        gender,
		DepartmentID:  req.DepartmentID,
		DesignationID: req.DesignationID,
		JoiningDate:   req.JoiningDate,
		BasicSalary:   models.RoundMoney(req.BasicSalary),
		Allowances:    models.RoundMoney(req.Allowances),
		Deductions:    models.RoundMoney(req.Deductions),
		BankName:      strings.TrimSpace(req.BankName),
		BankAccountNo: strings.TrimSpace(req.BankAccountNo),
		Status:        models.StatusActive,
	}, nil
}

func (h *handler) CreateStaffAPI(c *fiber.Ctx) error {
	var req StaffRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	s, err := h.build(c, &req, branchID)
	if err != nil {
		return err
	}
	s.ID = uuid.NewString()

	if err := CreateStaff(c.UserContext(), h.db, s); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleStaff,
		Action:      models.ActionCreate,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Added staff %s (%s)", s.Name, s.EmployeeCode),
	})

	created, err := GetStaffByID(c.UserContext(), h.db, s.ID)
	if err != nil {
		return err
	}
	return utils.Created(c, "Staff created successfully", created)
}

func (h *handler) UpdateStaffAPI(c *fiber.Ctx) error {
	existing, err := h.loadStaff(c)
	if err != nil {
		return err
	}
	var req StaffRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	s, err := h.build(c, &req, existing.BranchID)
	if err != nil {
		return err
	}
	s.ID = existing.ID

	if err := UpdateStaff(c.UserContext(), h.db, s); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    existing.BranchID,
		Module:      auth.ModuleStaff,
		Action:      models.ActionUpdate,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Updated staff %s (%s)", s.Name, s.EmployeeCode),
		Metadata: models.Metadata{
			"basic_salary": s.BasicSalary,
			"allowances":   s.Allowances,
			"deductions":   s.Deductions,
		},
	})

	updated, err := GetStaffByID(c.UserContext(), h.db, s.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, "Staff updated successfully", updated)
}

func (h *handler) setStatus(c *fiber.Ctx, s *models.Staff, status string) error {
	if err := UpdateStaffStatus(c.UserContext(), h.db, s.ID, status); err != nil {
		return err
	}
	h.audit.Record(c, activity.Event{
		BranchID:    s.BranchID,
		Module:      auth.ModuleStaff,
		Action:      models.ActionStatus,
		EntityID:    s.ID,
		Description: fmt.Sprintf("Staff %s (%s) set to %s", s.Name, s.EmployeeCode, status),
		Metadata:    models.Metadata{"status": status},
	})
	return nil
}

func (h *handler) UpdateStaffStatusAPI(c *fiber.Ctx) error {
	s, err := h.loadStaff(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.setStatus(c, s, req.Status); err != nil {
		return err
	}
	return utils.Success(c, "Staff status updated", fiber.Map{"id": s.ID, "status": req.Status})
}

// DeleteStaffAPI deactivates the staff member so payroll history stays intact.
func (h *handler) DeleteStaffAPI(c *fiber.Ctx) error {
	s, err := h.loadStaff(c)
	if err != nil {
		return err
	}
	if err := h.setStatus(c, s, models.StatusInactive); err != nil {
		return err
	}
	return utils.Success(c, "Staff deactivated successfully", nil)
}
