package activitylogs

import (
	"campus-management/app/routes/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupActivityLogsRoutes(router fiber.Router, db *sqlx.DB) {
	h := &handler{db: db}

	router.Get("/activity-logs", auth.Require(auth.Read(auth.ModuleActivity)), h.GetLogsAPI)
}
