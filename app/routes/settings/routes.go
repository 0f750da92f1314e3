package settings

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupSettingsRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	api := router.Group("/settings")
	api.Get("/receipt", auth.Require(auth.Read(auth.ModuleReceipts)), h.GetReceiptConfigAPI)
	api.Put("/receipt", auth.Require(auth.Write(auth.ModuleReceipts)), h.SaveReceiptConfigAPI)
}
