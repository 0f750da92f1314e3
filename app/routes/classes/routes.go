package classes

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupClassesRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleClasses))
	write := auth.Require(auth.Write(auth.ModuleClasses))

	classes := router.Group("/classes")
	classes.Get("/", read, h.GetClassesAPI)
	classes.Post("/", write, h.CreateClassAPI)
	classes.Get("/:id", read, h.GetClassAPI)
	classes.Put("/:id", write, h.UpdateClassAPI)
	classes.Patch("/:id/status", write, h.UpdateClassStatusAPI)
	classes.Delete("/:id", write, h.DeleteClassAPI)
	classes.Get("/:id/divisions", read, h.GetClassDivisionsAPI)

	divisions := router.Group("/divisions")
	divisions.Get("/", read, h.GetDivisionsAPI)
	divisions.Post("/", write, h.CreateDivisionAPI)
	divisions.Get("/:id", read, h.GetDivisionAPI)
	divisions.Put("/:id", write, h.UpdateDivisionAPI)
	divisions.Delete("/:id", write, h.DeleteDivisionAPI)
}
