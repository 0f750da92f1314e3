package transport

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

func SetupTransportRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger) {
	h := &handler{db: db, audit: audit}

	read := auth.Require(auth.Read(auth.ModuleTransport))
	write := auth.Require(auth.Write(auth.ModuleTransport))

	api := router.Group("/transport-routes")
	api.Get("/", read, h.GetRoutesAPI)
	api.Post("/", write, h.CreateRouteAPI)
	api.Get("/:id", read, h.GetRouteAPI)
	api.Put("/:id", write, h.UpdateRouteAPI)
	api.Patch("/:id/status", write, h.UpdateRouteStatusAPI)
	api.Delete("/:id", write, h.DeleteRouteAPI)
	api.Get("/:id/students", read, auth.Require(auth.Read(auth.ModuleStudents)), h.GetRouteStudentsAPI)
}
