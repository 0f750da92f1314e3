package reports

import (
	"time"

	"campus-management/app/routes/auth"
	"campus-management/app/services/cache"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// SetupReportsRoutes mounts the reports. Dashboard figures are cached in c for ttl.
func SetupReportsRoutes(router fiber.Router, db *sqlx.DB, c cache.Cache, ttl time.Duration, startMonth int) {
	h := &handler{db: db, cache: c, ttl: ttl, startMonth: startMonth}
	h.mount(router)
}

func (h *handler) mount(router fiber.Router) {
	api := router.Group("/reports", auth.Require(auth.Read(auth.ModuleReports)))
	api.Get("/dashboard", h.GetDashboardAPI)
	api.Get("/fee-collection", h.GetFeeCollectionAPI)
	api.Get("/outstanding-fees", h.GetOutstandingFeesAPI)
	api.Get("/indents", h.GetIndentReportAPI)
}
