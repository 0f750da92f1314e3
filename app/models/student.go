package models

import "time"

// Gender values accepted for students and staff.
const (
	Male   = "male"
	Female = "female"
	Other  = "other"
)

type Student struct {
	ID               string    `json:"id" db:"id"`
	BranchID         string    `json:"branch_id" db:"branch_id"`
	AdmissionNo      string    `json:"admission_no" db:"admission_no"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	Gender           string    `json:"gender" db:"gender"`
	DateOfBirth      *Date     `json:"date_of_birth" db:"date_of_birth"`
	ClassID          string    `json:"class_id" db:"class_id"`
	DivisionID       *string   `json:"division_id" db:"division_id"`
	AcademicYear     string    `json:"academic_year" db:"academic_year"`
	GuardianName     string    `json:"guardian_name" db:"guardian_name"`
	GuardianPhone    string    `json:"guardian_phone" db:"guardian_phone"`
	Address          string    `json:"address" db:"address"`
	AdmissionDate    Date      `json:"admission_date" db:"admission_date"`
	UsesTransport    bool      `json:"uses_transport" db:"uses_transport"`
	TransportRouteID *string   `json:"transport_route_id" db:"transport_route_id"`
	DistanceGroup    *string   `json:"distance_group" db:"distance_group"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	ClassName    *string `json:"class_name,omitempty" db:"class_name"`
	DivisionName *string `json:"division_name,omitempty" db:"division_name"`
	RouteName    *string `json:"transport_route_name,omitempty" db:"route_name"`
}

func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// FeeSummary is what a student owes for an academic year.
type FeeSummary struct {
	StudentID      string  `json:"student_id" db:"student_id"`
	StudentName    string  `json:"student_name" db:"student_name"`
	AdmissionNo    string  `json:"admission_no" db:"admission_no"`
	ClassName      string  `json:"class_name" db:"class_name"`
	AcademicYear   string  `json:"academic_year" db:"academic_year"`
	StructureTotal float64 `json:"structure_total" db:"structure_total"`
	TransportFee   float64 `json:"transport_fee" db:"transport_fee"`
	TotalFee       float64 `json:"total_fee" db:"total_fee"`
	Paid           float64 `json:"paid" db:"paid"`
	Due            float64 `json:"due" db:"due"`
}

// Settle computes TotalFee and Due from the component amounts.
func (f *FeeSummary) Settle() {
	f.TotalFee = RoundMoney(f.StructureTotal + f.TransportFee)
	f.Due = RoundMoney(f.TotalFee - f.Paid)
	if f.Due < 0 {
		f.Due = 0
	}
}
