package textbooks

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupTextbooksRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleTextbooks))
	write := auth.Require(auth.Write(auth.ModuleTextbooks))

	books := router.Group("/textbooks")
	books.Get("/", read, h.GetTextbooksAPI)
	books.Post("/", write, h.CreateTextbookAPI)
	books.Get("/:id", read, h.GetTextbookAPI)
	books.Put("/:id", write, h.UpdateTextbookAPI)
	books.Patch("/:id/status", write, h.UpdateTextbookStatusAPI)
	books.Patch("/:id/stock", write, h.AdjustStockAPI)
	books.Delete("/:id", write, h.DeleteTextbookAPI)

	indents := router.Group("/indents")
	indents.Get("/", read, h.GetIndentsAPI)
	indents.Post("/", write, h.CreateIndentAPI)
	indents.Get("/:id", read, h.GetIndentAPI)
	indents.Post("/:id/issue", write, h.IssueIndentAPI)
	indents.Post("/:id/return", write, h.ReturnIndentAPI)
	indents.Post("/:id/cancel", write, h.CancelIndentAPI)
	indents.Get("/:id/payments", read, h.GetIndentPaymentsAPI)
	indents.Post("/:id/payments", write, h.CreateIndentPaymentAPI)
}
