package server

import (
	"context"
	"strings"
	"time"

	"campus-management/app/config"
	"campus-management/app/metrics"
	"campus-management/app/routes/accounts"
	"campus-management/app/routes/activitylogs"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/branches"
	"campus-management/app/routes/classes"
	"campus-management/app/routes/departments"
	"campus-management/app/routes/expenses"
	"campus-management/app/routes/fees"
	"campus-management/app/routes/payroll"
	"campus-management/app/routes/reports"
	"campus-management/app/routes/settings"
	"campus-management/app/routes/staff"
	"campus-management/app/routes/students"
	"campus-management/app/routes/textbooks"
	"campus-management/app/routes/transport"
	"campus-management/app/routes/users"
	"campus-management/app/services/activity"
	"campus-management/app/services/cache"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Config  *config.Config
	DB      *sqlx.DB
	Tokens  *auth.TokenManager
	Audit   activity.Logger
	Cache   cache.Cache
	Limiter *utils.RateLimiter
}

// New builds the fiber app with middleware, health checks and every API module.
func New(d Deps) *fiber.App {
	cfg := d.Config
	app := fiber.New(fiber.Config{
		AppName:      "campus-management",
		ErrorHandler: utils.NewErrorHandler(cfg.IsDevelopment()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(metrics.Middleware())
	app.Use(utils.RequestLogger())

	app.Get("/health", health(d.DB))
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")
	if d.Limiter != nil {
		api.Use(d.Limiter.Handler())
	}

	// Login must stay reachable without a token.
	auth.SetupAuthRoutes(api, d.DB, d.Tokens, d.Audit)

	protected := api.Group("", d.Tokens.AuthMiddleware, reports.InvalidateDashboard(d.Cache))
	branches.SetupBranchesRoutes(protected, d.DB, d.Audit)
	users.SetupUsersRoutes(protected, d.DB, d.Audit)
	classes.SetupClassesRoutes(protected, d.DB, d.Audit)
	departments.SetupDepartmentsRoutes(protected, d.DB, d.Audit)
	students.SetupStudentsRoutes(protected, d.DB, d.Audit)
	staff.SetupStaffRoutes(protected, d.DB, d.Audit)
	fees.SetupFeesRoutes(protected, d.DB, d.Audit)
	payroll.SetupPayrollRoutes(protected, d.DB, d.Audit)
	expenses.SetupExpensesRoutes(protected, d.DB, d.Audit)
	textbooks.SetupTextbooksRoutes(protected, d.DB, d.Audit)
	transport.SetupTransportRoutes(protected, d.DB, d.Audit)
	settings.SetupSettingsRoutes(protected, d.DB, d.Audit)
	accounts.SetupAccountsRoutes(protected, d.DB, d.Audit, cfg.AcademicYearStartMonth)
	reports.SetupReportsRoutes(protected, d.DB, d.Cache, cfg.ReportCacheTTL, cfg.AcademicYearStartMonth)
	activitylogs.SetupActivityLogsRoutes(protected, d.DB)

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFound("Route not found")
	})
	return app
}

func health(db *sqlx.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "up"})
	}
}
