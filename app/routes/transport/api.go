package transport

import (
	"fmt"
	"strings"

	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/routes/students"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
}

type RouteRequest struct {
	BranchID       string                `json:"branch_id"`
	Name           string                `json:"name" validate:"required,max=100"`
	VehicleNo      string                `json:"vehicle_no" validate:"max=30"`
	DriverName     string                `json:"driver_name" validate:"max=100"`
	DriverPhone    string                `json:"driver_phone" validate:"max=30"`
	Stops          []string              `json:"stops" validate:"dive,required,max=255"`
	DistanceGroups models.DistanceGroups `json:"distance_groups" validate:"required,min=1,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) GetRoutesAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	routes, total, err := ListRoutes(c.UserContext(), h.db, ListParams{
		BranchID: branchID,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, routes, page.Paginate(total))
}

func (h *handler) loadRoute(c *fiber.Ctx) (*models.TransportRoute, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	r, err := GetRouteByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, r.BranchID); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *handler) GetRouteAPI(c *fiber.Ctx) error {
	r, err := h.loadRoute(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", r)
}

// build normalizes the request into a route and rejects repeated group names.
func build(req *RouteRequest) (*models.TransportRoute, error) {
	groups := make(models.DistanceGroups, len(req.DistanceGroups))
	for i, g := range req.DistanceGroups {
		groups[i] = models.DistanceGroup{
			Name:  strings.TrimSpace(g.Name),
			MinKM: g.MinKM,
			MaxKM: g.MaxKM,
			Fee:   models.RoundMoney(g.Fee),
		}
	}
	if dup := groups.Duplicate(); dup != "" {
		return nil, utils.Invalid("distance_groups", fmt.Sprintf("distance group %q is listed more than once", dup))
	}

	stops := make(pq.StringArray, 0, len(req.Stops))
	for _, s := range req.Stops {
		stops = append(stops, strings.TrimSpace(s))
	}

	return &models.TransportRoute{
		Name:           strings.TrimSpace(req.Name),
		VehicleNo:      strings.ToUpper(strings.TrimSpace(req.VehicleNo)),
		DriverName:     strings.TrimSpace(req.DriverName),
		DriverPhone:    strings.TrimSpace(req.DriverPhone),
		Stops:          stops,
		DistanceGroups: groups,
	}, nil
}

func (h *handler) CreateRouteAPI(c *fiber.Ctx) error {
	var req RouteRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	r, err := build(&req)
	if err != nil {
		return err
	}
	r.ID = uuid.NewString()
	r.BranchID = branchID
	r.Status = models.StatusActive

	if err := CreateRoute(c.UserContext(), h.db, r); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleTransport,
		Action:      models.ActionCreate,
		EntityID:    r.ID,
		Description: fmt.Sprintf("Created transport route %s", r.Name),
	})
	return utils.Created(c, "Transport route created successfully", r)
}

func (h *handler) UpdateRouteAPI(c *fiber.Ctx) error {
	existing, err := h.loadRoute(c)
	if err != nil {
		return err
	}
	var req RouteRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	r, err := build(&req)
	if err != nil {
		return err
	}
	r.ID = existing.ID

	// Students riding the route keep their group, so it cannot disappear under them.
	inUse, err := GroupsInUse(c.UserContext(), h.db, existing.ID)
	if err != nil {
		return err
	}
	for _, name := range inUse {
		if _, ok := r.DistanceGroups.Find(name); !ok {
			return utils.Invalid("distance_groups",
				fmt.Sprintf("distance group %q is assigned to students and cannot be removed", name))
		}
	}

	if err := UpdateRoute(c.UserContext(), h.db, r); err != nil {
		return err
	}
	r.StudentCount = existing.StudentCount

	h.audit.Record(c, activity.Event{
		BranchID:    existing.BranchID,
		Module:      auth.ModuleTransport,
		Action:      models.ActionUpdate,
		EntityID:    r.ID,
		Description: fmt.Sprintf("Updated transport route %s", r.Name),
	})
	return utils.Success(c, "Transport route updated successfully", r)
}

func (h *handler) UpdateRouteStatusAPI(c *fiber.Ctx) error {
	r, err := h.loadRoute(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if req.Status == models.StatusInactive && r.StudentCount > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot deactivate route: %d active students use it", r.StudentCount))
	}
	if err := UpdateRouteStatus(c.UserContext(), h.db, r.ID, req.Status); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    r.BranchID,
		Module:      auth.ModuleTransport,
		Action:      models.ActionStatus,
		EntityID:    r.ID,
		Description: fmt.Sprintf("Transport route %s set to %s", r.Name, req.Status),
		Metadata:    models.Metadata{"status": req.Status},
	})
	return utils.Success(c, "Transport route status updated", fiber.Map{"id": r.ID, "status": req.Status})
}

func (h *handler) DeleteRouteAPI(c *fiber.Ctx) error {
	r, err := h.loadRoute(c)
	if err != nil {
		return err
	}

	n, err := CountRouteStudents(c.UserContext(), h.db, r.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.BadRequest(fmt.Sprintf("Cannot delete route: %d students are assigned to it", n))
	}

	if err := DeleteRoute(c.UserContext(), h.db, r.ID); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    r.BranchID,
		Module:      auth.ModuleTransport,
		Action:      models.ActionDelete,
		EntityID:    r.ID,
		Description: fmt.Sprintf("Deleted transport route %s", r.Name),
	})
	return utils.Success(c, "Transport route deleted successfully", nil)
}

func (h *handler) GetRouteStudentsAPI(c *fiber.Ctx) error {
	r, err := h.loadRoute(c)
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	list, total, err := students.ListStudents(c.UserContext(), h.db, students.ListParams{
		BranchID: r.BranchID,
		RouteID:  r.ID,
		Status:   c.Query("status", models.StatusActive),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, list, page.Paginate(total))
}
