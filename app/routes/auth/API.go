package auth

import (
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type handler struct {
	db     *sqlx.DB
	tokens *TokenManager
	audit  activity.Logger
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
	Permissions []string     `json:"permissions"`
}

func (h *handler) LoginAPI(c *fiber.Ctx) error {
	var req LoginRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := GetUserByEmail(c.UserContext(), h.db, req.Email)
	if err != nil {
		if database.IsNotFound(err) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	if !CheckPasswordHash(req.Password, user.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
	}
	if !user.IsActive() {
		return fiber.NewError(fiber.StatusUnauthorized, "Account is inactive")
	}

	token, expiresAt, err := h.tokens.GenerateJWT(user)
	if err != nil {
		return err
	}

	if err := TouchLastLogin(c.UserContext(), h.db, user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	principal := &models.Principal{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
	if user.BranchID != nil {
		principal.BranchID = *user.BranchID
	}
	utils.SetPrincipal(c, principal)
	h.audit.Record(c, activity.Event{
		Module:      ModuleUsers,
		Action:      models.ActionLogin,
		EntityID:    user.ID,
		Description: user.Email + " logged in",
	})

	return utils.Success(c, "Login successful", LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		User:        user,
		Permissions: Permissions(user.Role),
	})
}

func (h *handler) MeAPI(c *fiber.Ctx) error {
	p := utils.CurrentUser(c)
	user, err := GetUserByID(c.UserContext(), h.db, p.UserID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", fiber.Map{
		"user":        user,
		"permissions": Permissions(user.Role),
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

func (h *handler) ChangePasswordAPI(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	p := utils.CurrentUser(c)
	user, err := GetUserByID(c.UserContext(), h.db, p.UserID)
	if err != nil {
		return err
	}

	if !CheckPasswordHash(req.CurrentPassword, user.Password) {
		return utils.Invalid("current_password", "Current password is incorrect")
	}

	hashedPassword, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := UpdateUserPassword(c.UserContext(), h.db, user.ID, hashedPassword); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		Module:      ModuleUsers,
		Action:      models.ActionUpdate,
		EntityID:    user.ID,
		Description: "Changed own password",
	})
	return utils.Success(c, "Password changed successfully", nil)
}
