package departments

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// kind is one of the staff master tables served by this package.
type kind struct {
	path     string
	table    string
	staffRef string
	label    string
}

var (
	departmentKind  = kind{path: "/departments", table: "departments", staffRef: "department_id", label: "Department"}
	designationKind = kind{path: "/designations", table: "designations", staffRef: "designation_id", label: "Designation"}
)

func SetupDepartmentsRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	for _, k := range []kind{departmentKind, designationKind} {
		mount(router, &handler{db: db, audit: audit, kind: k})
	}
}

func mount(router fiber.Router, h *handler) {
	read := auth.Require(auth.Read(auth.ModuleStaff))
	write := auth.Require(auth.Write(auth.ModuleStaff))

	api := router.Group(h.kind.path)
	api.Get("/", read, h.ListAPI)
	api.Post("/", write, h.CreateAPI)
	api.Get("/:id", read, h.GetAPI)
	api.Put("/:id", write, h.UpdateAPI)
	api.Patch("/:id/status", write, h.UpdateStatusAPI)
	api.Delete("/:id", write, h.DeleteAPI)
}
