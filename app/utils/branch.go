package utils

import (
	"strings"

	"campus-management/app/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const principalKey = "principal"

func SetPrincipal(c *fiber.Ctx, p *models.Principal) {
	c.Locals(principalKey, p)
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *fiber.Ctx) *models.Principal {
	p, _ := c.Locals(principalKey).(*models.Principal)
	return p
}

// UserID returns the caller's id as a nullable column value.
func UserID(c *fiber.Ctx) *string {
	if p := CurrentUser(c); p != nil && p.UserID != "" {
		id := p.UserID
		return &id
	}
	return nil
}

// ReadBranch is the branch a read is scoped to. Users other than super admin are
// always pinned to their own branch. For super admin an empty result means every branch.
func ReadBranch(c *fiber.Ctx) (string, error) {
	p := CurrentUser(c)
	if p == nil {
		return "", ErrUnauthorized
	}
	if !p.IsSuperAdmin() {
		return p.BranchID, nil
	}
	requested := strings.TrimSpace(c.Query("branch_id"))
	if requested != "" {
		if _, err := uuid.Parse(requested); err != nil {
			return "", Invalid("branch_id", "branch_id must be a valid UUID")
		}
	}
	return requested, nil
}

// WriteBranch is the branch a new record is created in. Super admin must name it
// explicitly; everyone else writes into their own branch whatever they send.
func WriteBranch(c *fiber.Ctx, requested string) (string, error) {
	p := CurrentUser(c)
	if p == nil {
		return "", ErrUnauthorized
	}
	if !p.IsSuperAdmin() {
		return p.BranchID, nil
	}
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = strings.TrimSpace(c.Query("branch_id"))
	}
	if requested == "" {
		return "", Invalid("branch_id", "branch_id is required")
	}
	if _, err := uuid.Parse(requested); err != nil {
		return "", Invalid("branch_id", "branch_id must be a valid UUID")
	}
	return requested, nil
}

// CanAccessBranch reports whether the caller may touch a record of branchID.
func CanAccessBranch(c *fiber.Ctx, branchID string) bool {
	p := CurrentUser(c)
	if p == nil {
		return false
	}
	return p.IsSuperAdmin() || p.BranchID == branchID
}

// ParamID reads a UUID route parameter.
func ParamID(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", BadRequest("Invalid " + name)
	}
	return id, nil
}
