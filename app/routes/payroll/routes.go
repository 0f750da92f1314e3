package payroll

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupPayrollRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModulePayroll))
	write := auth.Require(auth.Write(auth.ModulePayroll))

	api := router.Group("/payroll")
	api.Get("/", read, h.GetEntriesAPI)
	api.Post("/generate", write, h.GeneratePayrollAPI)
	api.Get("/:id", read, h.GetEntryAPI)
	api.Put("/:id", write, h.UpdateEntryAPI)
	api.Post("/:id/pay", write, h.PayEntryAPI)
	api.Delete("/:id", write, h.DeleteEntryAPI)
}
