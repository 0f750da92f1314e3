package users

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupUsersRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleUsers))
	write := auth.Require(auth.Write(auth.ModuleUsers))

	api := router.Group("/users")
	api.Get("/", read, h.GetUsersAPI)
	api.Get("/:id", read, h.GetUserAPI)
	api.Post("/", write, h.CreateUserAPI)
	api.Put("/:id", write, h.UpdateUserAPI)
	api.Patch("/:id/status", write, h.UpdateUserStatusAPI)
}
