package transport

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const routeColumns = `id, branch_id, name, vehicle_no, driver_name, driver_phone, stops, distance_groups, status, created_at, updated_at`

const routeSelect = `
	SELECT r.id, r.branch_id, r.name, r.vehicle_no, r.driver_name, r.driver_phone, r.stops,
		r.distance_groups, r.status, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM students s WHERE s.transport_route_id = r.id AND s.status = 'active') AS student_count
	FROM transport_routes r`

type ListParams struct {
	BranchID string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func ListRoutes(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.TransportRoute, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "r.branch_id = ?", p.BranchID).
		WhereIf(p.Status != "", "r.status = ?", p.Status).
		Search(p.Search, "r.name", "r.vehicle_no", "r.driver_name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM transport_routes r`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	routes := []*models.TransportRoute{}
	err = db.SelectContext(ctx, &routes, routeSelect+f.Clause()+` ORDER BY r.name`+page, args...)
	return routes, total, errors.Wrap(err, "list transport routes")
}

func GetRouteByID(ctx context.Context, db *sqlx.DB, id string) (*models.TransportRoute, error) {
	var r models.TransportRoute
	if err := db.GetContext(ctx, &r, routeSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get transport route")
	}
	return &r, nil
}

func CreateRoute(ctx context.Context, db *sqlx.DB, r *models.TransportRoute) error {
	err := db.GetContext(ctx, r, `
		INSERT INTO transport_routes (id, branch_id, name, vehicle_no, driver_name, driver_phone, stops, distance_groups, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+routeColumns,
		r.ID, r.BranchID, r.Name, r.VehicleNo, r.DriverName, r.DriverPhone, r.Stops, r.DistanceGroups, r.Status)
	return errors.Wrap(err, "create transport route")
}

func UpdateRoute(ctx context.Context, db *sqlx.DB, r *models.TransportRoute) error {
	err := db.GetContext(ctx, r, `
		UPDATE transport_routes SET name = $2, vehicle_no = $3, driver_name = $4, driver_phone = $5,
			stops = $6, distance_groups = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+routeColumns,
		r.ID, r.Name, r.VehicleNo, r.DriverName, r.DriverPhone, r.Stops, r.DistanceGroups)
	return errors.Wrap(err, "update transport route")
}

func UpdateRouteStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE transport_routes SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update transport route status")
}

// CountRouteStudents counts students of any status still pointing at the route.
func CountRouteStudents(ctx context.Context, db *sqlx.DB, id string) (int, error) {
	return database.Count(ctx, db, `SELECT COUNT(*) FROM students WHERE transport_route_id = $1`, id)
}

// GroupsInUse lists the distance groups active students of the route are assigned to.
func GroupsInUse(ctx context.Context, db *sqlx.DB, id string) ([]string, error) {
	groups := []string{}
	err := db.SelectContext(ctx, &groups, `
		SELECT DISTINCT distance_group FROM students
		WHERE transport_route_id = $1 AND status = 'active' AND distance_group IS NOT NULL
		ORDER BY distance_group`, id)
	return groups, errors.Wrap(err, "distance groups in use")
}

func DeleteRoute(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM transport_routes WHERE id = $1`, id)
	return database.Affected(res, err, "delete transport route")
}
