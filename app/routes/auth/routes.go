package auth

import (
	"strings"

	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// SetupAuthRoutes must run before any group-level auth middleware is mounted on router.
func SetupAuthRoutes(router fiber.Router, db *sqlx.DB, tokens *TokenManager, audit activity.Logger) {
	h := &handler{db: db, tokens: tokens, audit: audit}

	auth := router.Group("/auth")

	// Public routes
	auth.Post("/login", h.LoginAPI)

	// Protected routes
	auth.Get("/me", tokens.AuthMiddleware, h.MeAPI)
	auth.Post("/change-password", tokens.AuthMiddleware, h.ChangePasswordAPI)
}

// AuthMiddleware validates the bearer token and stores the caller's principal.
func (m *TokenManager) AuthMiddleware(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return fiber.NewError(fiber.StatusUnauthorized, "No token found")
	}

	claims, err := m.ValidateJWT(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	utils.SetPrincipal(c, claims.Principal())
	return c.Next()
}

// Require allows the request only when the caller's role holds every permission.
func Require(permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := utils.CurrentUser(c)
		if p == nil {
			return utils.ErrUnauthorized
		}
		for _, perm := range permissions {
			if !HasPermission(p.Role, perm) {
				return utils.ErrForbidden
			}
		}
		return c.Next()
	}
}

// RoleMiddleware allows only the listed roles.
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := utils.CurrentUser(c)
		if p == nil {
			return utils.ErrUnauthorized
		}
		for _, role := range allowedRoles {
			if p.Role == role {
				return c.Next()
			}
		}
		return utils.ErrForbidden
	}
}
