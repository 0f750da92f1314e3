package branches

import (
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupBranchesRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	api := router.Group("/branches")
	api.Get("/", auth.Require(auth.Read(auth.ModuleBranches)), h.GetBranchesAPI)
	api.Get("/:id", auth.Require(auth.Read(auth.ModuleBranches)), h.GetBranchAPI)

	// Branch management is reserved for super admins
	admin := auth.RoleMiddleware(models.RoleSuperAdmin)
	api.Post("/", admin, h.CreateBranchAPI)
	api.Put("/:id", admin, h.UpdateBranchAPI)
	api.Patch("/:id/status", admin, h.UpdateBranchStatusAPI)
}
