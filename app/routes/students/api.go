package students

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-management/app/database"
	"campus-management/app/models"
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"
	"campus-management/app/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type handler struct {
	db    *sqlx.DB
	audit activity.Logger
}

type StudentRequest struct {
	BranchID         string       `json:"branch_id"`
	AdmissionNo      string       `json:"admission_no" validate:"required,max=50"`
	FirstName        string       `json:"first_name" validate:"required,max=100"`
	LastName         string       `json:"last_name" validate:"max=100"`
	Gender           string       `json:"gender" validate:"required,oneof=male female other"`
	DateOfBirth      *models.Date `json:"date_of_birth"`
	ClassID          string       `json:"class_id" validate:"required,uuid"`
	DivisionID       string       `json:"division_id" validate:"omitempty,uuid"`
	AcademicYear     string       `json:"academic_year" validate:"required,academic_year"`
	GuardianName     string       `json:"guardian_name" validate:"max=255"`
	GuardianPhone    string       `json:"guardian_phone" validate:"max=30"`
	Address          string       `json:"address" validate:"max=1000"`
	AdmissionDate    *models.Date `json:"admission_date"`
	UsesTransport    bool         `json:"uses_transport"`
	TransportRouteID string       `json:"transport_route_id" validate:"required_if=UsesTransport true"`
	DistanceGroup    string       `json:"distance_group" validate:"required_if=UsesTransport true,max=50"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

func (h *handler) GetStudentsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	classID, err := utils.QueryID(c, "class_id")
	if err != nil {
		return err
	}
	divisionID, err := utils.QueryID(c, "division_id")
	if err != nil {
		return err
	}
	routeID, err := utils.QueryID(c, "transport_route_id")
	if err != nil {
		return err
	}
	page := utils.ParsePage(c)

	students, total, err := ListStudents(c.UserContext(), h.db, ListParams{
		BranchID:      branchID,
		ClassID:       classID,
		DivisionID:    divisionID,
		RouteID:       routeID,
		AcademicYear:  c.Query("academic_year"),
		Status:        c.Query("status"),
		UsesTransport: utils.QueryBool(c, "uses_transport"),
		Search:        c.Query("search"),
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		return err
	}
	return utils.Paginated(c, students, page.Paginate(total))
}

func (h *handler) GetStudentsStatsAPI(c *fiber.Ctx) error {
	branchID, err := utils.ReadBranch(c)
	if err != nil {
		return err
	}
	stats, err := GetStats(c.UserContext(), h.db, branchID)
	if err != nil {
		return err
	}
	return utils.Success(c, "", stats)
}

func (h *handler) loadStudent(c *fiber.Ctx) (*models.Student, error) {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return nil, err
	}
	student, err := GetStudentByID(c.UserContext(), h.db, id)
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureBranch(c, student.BranchID); err != nil {
		return nil, err
	}
	return student, nil
}

func (h *handler) GetStudentAPI(c *fiber.Ctx) error {
	student, err := h.loadStudent(c)
	if err != nil {
		return err
	}
	return utils.Success(c, "", student)
}

// build turns a request into a student of branchID after checking every reference.
func (h *handler) build(c *fiber.Ctx, req *StudentRequest, branchID string, existing *models.Student) (*models.Student, error) {
	ctx := c.UserContext()

	if req.DateOfBirth != nil && !req.DateOfBirth.IsZero() && req.DateOfBirth.After(time.Now()) {
		return nil, utils.Invalid("date_of_birth", "date_of_birth cannot be in the future")
	}
	if err := utils.EnsureRef(ctx, h.db, "class_id", "classes", req.ClassID, branchID); err != nil {
		return nil, err
	}

	student := &models.Student{
		BranchID:      branchID,
		AdmissionNo:   strings.TrimSpace(req.AdmissionNo),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Gender:        req.Gender,
		DateOfBirth:   req.DateOfBirth,
		ClassID:       req.ClassID,
		DivisionID:    utils.OptionalString(req.DivisionID),
		AcademicYear:  req.AcademicYear,
		GuardianName:  strings.TrimSpace(req.GuardianName),
		GuardianPhone: strings.TrimSpace(req.GuardianPhone),
		Address:       req.Address,
		UsesTransport: req.UsesTransport,
		Status:        models.StatusActive,
	}
	if req.DateOfBirth != nil && req.DateOfBirth.IsZero() {
		student.DateOfBirth = nil
	}
	if req.AdmissionDate != nil && !req.AdmissionDate.IsZero() {
		student.AdmissionDate = *req.AdmissionDate
	} else if existing != nil {
		student.AdmissionDate = existing.AdmissionDate
	} else {
		student.AdmissionDate = models.NewDate(time.Now())
	}

	if student.DivisionID != nil {
		var exclude *string
		if existing != nil {
			exclude = &existing.ID
		}
		seats, err := GetDivisionSeats(ctx, h.db, *student.DivisionID, student.ClassID, exclude)
		if err != nil {
			return nil, err
		}
		if !seats.Found {
			return nil, utils.Invalid("division_id", "division_id does not belong to the selected class")
		}
		// a student already seated in this division keeps the seat
		moving := existing == nil || existing.DivisionID == nil || *existing.DivisionID != *student.DivisionID
		if moving && seats.Capacity > 0 && seats.Enrolled >= seats.Capacity {
			return nil, utils.Invalid("division_id", fmt.Sprintf("division is full (capacity %d)", seats.Capacity))
		}
	}

	if student.UsesTransport {
		if _, err := uuid.Parse(req.TransportRouteID); err != nil {
			return nil, utils.Invalid("transport_route_id", "transport_route_id must be a valid UUID")
		}
		groups, err := GetRouteGroups(ctx, h.db, req.TransportRouteID, branchID)
		if database.IsNotFound(err) {
			return nil, utils.Invalid("transport_route_id", "transport_route_id does not reference an active route in this branch")
		}
		if err != nil {
			return nil, err
		}
		group := strings.TrimSpace(req.DistanceGroup)
		if _, ok := groups.Find(group); !ok {
			return nil, utils.Invalid("distance_group", fmt.Sprintf("distance group %q is not defined on the route", group))
		}
		student.TransportRouteID = &req.TransportRouteID
		student.DistanceGroup = &group
	}

	return student, nil
}

func (h *handler) CreateStudentAPI(c *fiber.Ctx) error {
	var req StudentRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	branchID, err := utils.WriteBranch(c, req.BranchID)
	if err != nil {
		return err
	}

	student, err := h.build(c, &req, branchID, nil)
	if err != nil {
		return err
	}
	student.ID = uuid.NewString()

	if err := CreateStudent(c.UserContext(), h.db, student); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    branchID,
		Module:      auth.ModuleStudents,
		Action:      models.ActionCreate,
		EntityID:    student.ID,
		Description: fmt.Sprintf("Admitted %s (%s)", student.FullName(), student.AdmissionNo),
	})

	created, err := GetStudentByID(c.UserContext(), h.db, student.ID)
	if err != nil {
		return err
	}
	return utils.Created(c, "Student created successfully", created)
}

func (h *handler) UpdateStudentAPI(c *fiber.Ctx) error {
	existing, err := h.loadStudent(c)
	if err != nil {
		return err
	}
	var req StudentRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	student, err := h.build(c, &req, existing.BranchID, existing)
	if err != nil {
		return err
	}
	student.ID = existing.ID

	if err := UpdateStudent(c.UserContext(), h.db, student); err != nil {
		return err
	}

	h.audit.Record(c, activity.Event{
		BranchID:    existing.BranchID,
		Module:      auth.ModuleStudents,
		Action:      models.ActionUpdate,
		EntityID:    student.ID,
		Description: fmt.Sprintf("Updated %s (%s)", student.FullName(), student.AdmissionNo),
	})

	updated, err := GetStudentByID(c.UserContext(), h.db, student.ID)
	if err != nil {
		return err
	}
	return utils.Success(c, "Student updated successfully", updated)
}

func (h *handler) setStatus(c *fiber.Ctx, student *models.Student, status string) error {
	if err := UpdateStudentStatus(c.UserContext(), h.db, student.ID, status); err != nil {
		return err
	}
	h.audit.Record(c, activity.Event{
		BranchID:    student.BranchID,
		Module:      auth.ModuleStudents,
		Action:      models.ActionStatus,
		EntityID:    student.ID,
		Description: fmt.Sprintf("%s (%s) set to %s", student.FullName(), student.AdmissionNo, status),
		Metadata:    models.Metadata{"status": status, "previous": student.Status},
	})
	return nil
}

func (h *handler) UpdateStudentStatusAPI(c *fiber.Ctx) error {
	student, err := h.loadStudent(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.setStatus(c, student, req.Status); err != nil {
		return err
	}
	return utils.Success(c, "Student status updated", fiber.Map{"id": student.ID, "status": req.Status})
}

// DeleteStudentAPI deactivates the student; payment history keeps referencing the row.
func (h *handler) DeleteStudentAPI(c *fiber.Ctx) error {
	student, err := h.loadStudent(c)
	if err != nil {
		return err
	}
	if err := h.setStatus(c, student, models.StatusInactive); err != nil {
		return err
	}
	return utils.Success(c, "Student deactivated successfully", nil)
}

func (h *handler) GetFeeSummaryAPI(c *fiber.Ctx) error {
	student, err := h.loadStudent(c)
	if err != nil {
		return err
	}
	academicYear := c.Query("academic_year", student.AcademicYear)
	if !utils.IsAcademicYear(academicYear) {
		return utils.Invalid("academic_year", "academic_year must be an academic year like 2024-2025")
	}

	summary, err := BuildFeeSummary(c.UserContext(), h.db, student, academicYear)
	if err != nil {
		return err
	}
	return utils.Success(c, "", summary)
}

// BuildFeeSummary totals the class fee structure, the transport fee of the
// student's distance group and what has been paid for academicYear.
func BuildFeeSummary(ctx context.Context, q sqlx.QueryerContext, student *models.Student, academicYear string) (*models.FeeSummary, error) {
	summary := &models.FeeSummary{
		StudentID:    student.ID,
		StudentName:  student.FullName(),
		AdmissionNo:  student.AdmissionNo,
		AcademicYear: academicYear,
	}
	if student.ClassName != nil {
		summary.ClassName = *student.ClassName
	}

	var err error
	if summary.StructureTotal, err = GetFeeStructureTotal(ctx, q, student.BranchID, student.ClassID, academicYear); err != nil {
		return nil, err
	}

	if student.UsesTransport && student.TransportRouteID != nil && student.DistanceGroup != nil {
		groups, err := GetRouteGroups(ctx, q, *student.TransportRouteID, student.BranchID)
		if err != nil && !database.IsNotFound(err) {
			return nil, err
		}
		if g, ok := groups.Find(*student.DistanceGroup); ok {
			summary.TransportFee = g.Fee
		}
	}

	if summary.Paid, err = GetFeesPaid(ctx, q, student.ID, academicYear); err != nil {
		return nil, err
	}
	summary.Settle()
	return summary, nil
}
