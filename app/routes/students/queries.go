package students

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const studentSelect = `
	SELECT s.id, s.branch_id, s.admission_no, s.first_name, s.last_name, s.gender, s.date_of_birth,
		s.class_id, s.division_id, s.academic_year, s.guardian_name, s.guardian_phone, s.address,
		s.admission_date, s.uses_transport, s.transport_route_id, s.distance_group, s.status,
		s.created_at, s.updated_at,
		c.name AS class_name, d.name AS division_name, r.name AS route_name
	FROM students s
	JOIN classes c ON c.id = s.class_id
	LEFT JOIN divisions d ON d.id = s.division_id
	LEFT JOIN transport_routes r ON r.id = s.transport_route_id`

type ListParams struct {
	BranchID      string
	ClassID       string
	DivisionID    string
	RouteID       string
	AcademicYear  string
	Status        string
	UsesTransport *bool
	Search        string
	Limit         int
	Offset        int
}

func buildFilter(p ListParams) *database.Filter {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "s.branch_id = ?", p.BranchID).
		WhereIf(p.ClassID != "", "s.class_id = ?", p.ClassID).
		WhereIf(p.DivisionID != "", "s.division_id = ?", p.DivisionID).
		WhereIf(p.RouteID != "", "s.transport_route_id = ?", p.RouteID).
		WhereIf(p.AcademicYear != "", "s.academic_year = ?", p.AcademicYear).
		WhereIf(p.Status != "", "s.status = ?", p.Status)
	if p.UsesTransport != nil {
		f.Where("s.uses_transport = ?", *p.UsesTransport)
	}
	return f.Search(p.Search, "s.first_name", "s.last_name", "s.admission_no")
}

func ListStudents(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.Student, int, error) {
	f := buildFilter(p)

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM students s`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	students := []*models.Student{}
	err = db.SelectContext(ctx, &students, studentSelect+f.Clause()+` ORDER BY s.first_name, s.last_name`+page, args...)
	return students, total, errors.Wrap(err, "list students")
}

func GetStudentByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Student, error) {
	var s models.Student
	if err := sqlx.GetContext(ctx, q, &s, studentSelect+` WHERE s.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get student")
	}
	return &s, nil
}

func CreateStudent(ctx context.Context, db *sqlx.DB, s *models.Student) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO students (id, branch_id, admission_no, first_name, last_name, gender, date_of_birth,
			class_id, division_id, academic_year, guardian_name, guardian_phone, address, admission_date,
			uses_transport, transport_route_id, distance_group, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		s.ID, s.BranchID, s.AdmissionNo, s.FirstName, s.LastName, s.Gender, s.DateOfBirth,
		s.ClassID, s.DivisionID, s.AcademicYear, s.GuardianName, s.GuardianPhone, s.Address, s.AdmissionDate,
		s.UsesTransport, s.TransportRouteID, s.DistanceGroup, s.Status)
	return errors.Wrap(err, "create student")
}

func UpdateStudent(ctx context.Context, db *sqlx.DB, s *models.Student) error {
	res, err := db.ExecContext(ctx, `
		UPDATE students SET admission_no = $2, first_name = $3, last_name = $4, gender = $5, date_of_birth = $6,
			class_id = $7, division_id = $8, academic_year = $9, guardian_name = $10, guardian_phone = $11,
			address = $12, admission_date = $13, uses_transport = $14, transport_route_id = $15,
			distance_group = $16, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.AdmissionNo, s.FirstName, s.LastName, s.Gender, s.DateOfBirth,
		s.ClassID, s.DivisionID, s.AcademicYear, s.GuardianName, s.GuardianPhone,
		s.Address, s.AdmissionDate, s.UsesTransport, s.TransportRouteID, s.DistanceGroup)
	return database.Affected(res, err, "update student")
}

func UpdateStudentStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE students SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update student status")
}

// DivisionSeats reports whether the division belongs to the class and how many
// active students other than exclude already sit in it.
type DivisionSeats struct {
	Found    bool `db:"found"`
	Capacity int  `db:"capacity"`
	Enrolled int  `db:"enrolled"`
}

func GetDivisionSeats(ctx context.Context, db *sqlx.DB, divisionID, classID string, exclude *string) (*DivisionSeats, error) {
	seats := &DivisionSeats{}
	err := db.GetContext(ctx, seats, `
		SELECT true AS found, d.capacity,
			(SELECT COUNT(*) FROM students s
			 WHERE s.division_id = d.id AND s.status = 'active' AND s.id IS DISTINCT FROM $3) AS enrolled
		FROM divisions d
		WHERE d.id = $1 AND d.class_id = $2`, divisionID, classID, exclude)
	if database.IsNotFound(err) {
		return &DivisionSeats{}, nil
	}
	return seats, errors.Wrap(err, "division seats")
}

// GetRouteGroups loads the distance groups of an active route in branchID.
func GetRouteGroups(ctx context.Context, q sqlx.QueryerContext, routeID, branchID string) (models.DistanceGroups, error) {
	var groups models.DistanceGroups
	err := sqlx.GetContext(ctx, q, &groups, `
		SELECT distance_groups FROM transport_routes
		WHERE id = $1 AND branch_id = $2 AND status = 'active'`, routeID, branchID)
	return groups, errors.Wrap(err, "route distance groups")
}

// GetFeeStructureTotal is the active structure total for a class and year, 0 when none exists.
func GetFeeStructureTotal(ctx context.Context, q sqlx.QueryerContext, branchID, classID, academicYear string) (float64, error) {
	var total float64
	err := sqlx.GetContext(ctx, q, &total, `
		SELECT COALESCE((
			SELECT total_amount FROM fee_structures
			WHERE branch_id = $1 AND class_id = $2 AND academic_year = $3 AND status = 'active'
		), 0)`, branchID, classID, academicYear)
	return total, errors.Wrap(err, "fee structure total")
}

func GetFeesPaid(ctx context.Context, q sqlx.QueryerContext, studentID, academicYear string) (float64, error) {
	var paid float64
	err := sqlx.GetContext(ctx, q, &paid, `
		SELECT COALESCE(SUM(amount), 0) FROM fee_payments
		WHERE student_id = $1 AND academic_year = $2 AND status = 'paid'`, studentID, academicYear)
	return paid, errors.Wrap(err, "fees paid")
}

type Stats struct {
	Total     int `json:"total" db:"total"`
	Active    int `json:"active" db:"active"`
	Inactive  int `json:"inactive" db:"inactive"`
	Male      int `json:"male" db:"male"`
	Female    int `json:"female" db:"female"`
	Transport int `json:"uses_transport" db:"transport"`
}

func GetStats(ctx context.Context, db *sqlx.DB, branchID string) (*Stats, error) {
	f := database.NewFilter().WhereIf(branchID != "", "branch_id = ?", branchID)

	stats := &Stats{}
	err := db.GetContext(ctx, stats, `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'active') AS active,
			COUNT(*) FILTER (WHERE status = 'inactive') AS inactive,
			COUNT(*) FILTER (WHERE status = 'active' AND gender = 'male') AS male,
			COUNT(*) FILTER (WHERE status = 'active' AND gender = 'female') AS female,
			COUNT(*) FILTER (WHERE status = 'active' AND uses_transport) AS transport
		FROM students`+f.Clause(), f.Args()...)
	return stats, errors.Wrap(err, "student stats")
}
