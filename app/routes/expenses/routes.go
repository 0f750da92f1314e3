package expenses

import (
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// SetupExpensesRoutes mounts expenses and income. Both kinds share one table and
// one set of handlers; the path decides the kind.
func SetupExpensesRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	mount(router, &handler{db: db, audit: audit, kind: models.KindExpense}, "/expenses", "/expense-categories")
	mount(router, &handler{db: db, audit: audit, kind: models.KindIncome}, "/income", "/income-categories")
}

func mount(router fiber.Router, h *handler, entriesPath, categoriesPath string) {
	read := auth.Require(auth.Read(auth.ModuleFinance))
	write := auth.Require(auth.Write(auth.ModuleFinance))

	api := router.Group(entriesPath)
	api.Get("/", read, h.GetEntriesAPI)
	api.Post("/", write, h.CreateEntryAPI)
	api.Get("/:id", read, h.GetEntryAPI)
	api.Put("/:id", write, h.UpdateEntryAPI)
	api.Delete("/:id", write, h.DeleteEntryAPI)

	catAPI := router.Group(categoriesPath)
	catAPI.Get("/", read, h.GetCategoriesAPI)
	catAPI.Post("/", write, h.CreateCategoryAPI)
	catAPI.Get("/:id", read, h.GetCategoryAPI)
	catAPI.Put("/:id", write, h.UpdateCategoryAPI)
	catAPI.Patch("/:id/status", write, h.UpdateCategoryStatusAPI)
	catAPI.Delete("/:id", write, h.DeleteCategoryAPI)
}
