package students

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupStudentsRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleStudents))
	write := auth.Require(auth.Write(auth.ModuleStudents))

	api := router.Group("/students")
	api.Get("/", read, h.GetStudentsAPI)
	api.Get("/stats", read, h.GetStudentsStatsAPI)
	api.Post("/", write, h.CreateStudentAPI)
	api.Get("/:id", read, h.GetStudentAPI)
	api.Put("/:id", write, h.UpdateStudentAPI)
	api.Patch("/:id/status", write, h.UpdateStudentStatusAPI)
	api.Delete("/:id", write, h.DeleteStudentAPI)
	api.Get("/:id/fee-summary", read, auth.Require(auth.Read(auth.ModuleFees)), h.GetFeeSummaryAPI)
}
