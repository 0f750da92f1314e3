package users

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

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_admin admin accountant librarian teacher"`
	BranchID string `json:"branch_id" validate:"omitempty,uuid"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_admin admin accountant librarian teacher"`
	BranchID string `json:"branch_id" validate:"omitempty,uuid"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// resolveBranch decides which branch a user account is attached to.
// Super admin accounts have none; everyone else needs one.
func resolveBranch(c *fiber.Ctx, role, requested string) (*string, error) {
	caller := utils.CurrentUser(c)
	if role == models.RoleSuperAdmin {
		if !caller.IsSuperAdmin() {
			return nil, utils.ErrForbidden
		}
		return nil, nil
	}
	branchID, err := utils.WriteBranch(c, requested)
	if err != nil {
		return nil, err
	}
	return &branchID, nil
}

func (h *handler) GetUsersAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	users, total, err := ListUsers(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, users, page.Paginate(total))
}

// loadUser fetches a user the caller is allowed to see.
func (h *handler) loadUser(c *fiber.Ctx) (*models.User, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	user, err := GetUserByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if caller := utils.CurrentUser(c); !caller.IsSuperAdmin() {
		if user.BranchID == nil || *user.BranchID != caller.BranchID {
			return nil, utils.NotFound("User not found")
		}
	}
	return user, nil
}

func (h *handler) GetUserAPI(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", user)
}

func (h *handler) CreateUserAPI(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	branchID, err := resolveBranch(c, req.Role, req.BranchID)
	if err != nil {
		return err
	}
	if branchID != nil {
		if err := utils.EnsureBranchExists(c.UserContext(), h.db, *branchID); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		BranchID: branchID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: hash,
		Role:     req.Role,
		Status:   models.StatusActive,
	}
	if err := CreateUser(c.UserContext(), h.db, user); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    stringValue(branchID),
		Module:      auth.ModuleUsers,
		Action:      models.ActionCreate,
		EntityID:    user.ID,
		Description: "Created user " + user.Email,
		Metadata:    models.Metadata{"role": user.Role},
	})

	created, err := GetUserByID(c.UserContext(), h.db, user.ID)
	if err != nil {
		return err
	}
	return utils.Created(c, "User created successfully", created)
}

func (h *handler) UpdateUserAPI(c *fiber.Ctx) error {
	existing, err := h.loadUser(c)
	if err != nil {
		return err
	}
	var req UpdateUserRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if existing.Role == models.RoleSuperAdmin && !utils.CurrentUser(c).IsSuperAdmin() {
		return utils.ErrForbidden
	}

	branchID, err := resolveBranch(c, req.Role, req.BranchID)
	if err != nil {
		return err
	}
	if branchID != nil {
		if err := utils.EnsureBranchExists(c.UserContext(), h.db, *branchID); err != nil {
			return err
		}
	}

	user := &models.User{
		ID:       existing.ID,
		BranchID: branchID,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     req.Role,
	}
	if req.Password != "" {
		if user.Password, err = auth.HashPassword(req.Password); err != nil {
			return err
		}
	}
	if err := UpdateUser(c.UserContext(), h.db, user); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    stringValue(branchID),
		Module:      auth.ModuleUsers,
		Action:      models.ActionUpdate,
		EntityID:    user.ID,
		Description: "Updated user " + user.Email,
		Metadata:    models.Metadata{"role": user.Role, "password_changed": req.Password != ""},
	})

	updated, err := GetUserByID(c.UserContext(), h.db, user.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, "User updated successfully", updated)
}

func (h *handler) UpdateUserStatusAPI(c *fiber.Ctx) error {
	existing, err := h.loadUser(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	caller := utils.CurrentUser(c)
	if existing.ID == caller.UserID && req.Status == models.StatusInactive {
		return utils.BadRequest("You cannot deactivate your own account")
	}
	if existing.Role == models.RoleSuperAdmin && !caller.IsSuperAdmin() {
		return utils.ErrForbidden
	}

	if err := UpdateUserStatus(c.UserContext(), h.db, existing.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    stringValue(existing.BranchID),
		Module:      auth.ModuleUsers,
		Action:      models.ActionStatus,
		EntityID:    existing.ID,
		Description: "User " + existing.Email + " set to " + req.Status,
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "User status updated", fiber.Map{"id": existing.ID, "status": req.Status})
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
