package staff

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupStaffRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleStaff))
	write := auth.Require(auth.Write(auth.ModuleStaff))

	api := router.Group("/staff")
	api.Get("/", read, h.GetStaffListAPI)
	api.Post("/", write, h.CreateStaffAPI)
	api.Get("/:id", read, h.GetStaffAPI)
	api.Put("/:id", write, h.UpdateStaffAPI)
	api.Patch("/:id/status", write, h.UpdateStaffStatusAPI)
	api.Delete("/:id", write, h.DeleteStaffAPI)
}
