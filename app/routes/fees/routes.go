package fees

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// SetupFeesRoutes mounts fee structures, payments and dues under /fees.
func SetupFeesRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleFees))
	write := auth.Require(auth.Write(auth.ModuleFees))

	fees := router.Group("/fees")

	structures := fees.Group("/structures")
	structures.Get("/", read, h.GetStructuresAPI)
	structures.Post("/", write, h.CreateStructureAPI)
	structures.Get("/:id", read, h.GetStructureAPI)
	structures.Put("/:id", write, h.UpdateStructureAPI)
	structures.Patch("/:id/status", write, h.UpdateStructureStatusAPI)
	structures.Delete("/:id", write, h.DeleteStructureAPI)

	payments := fees.Group("/payments")
	payments.Get("/", read, h.GetPaymentsAPI)
	payments.Post("/", write, h.CreatePaymentAPI)
	payments.Get("/:id", read, h.GetPaymentAPI)
	payments.Get("/:id/receipt", read, auth.Require(auth.Read(auth.ModuleReceipts)), h.GetReceiptAPI)
	payments.Post("/:id/cancel", write, h.CancelPaymentAPI)

	fees.Get("/dues", read, h.GetDuesAPI)
}
