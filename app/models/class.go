package models

import "time"

type Class struct {
	ID           string    `json:"id" db:"id"`
	BranchID     string    `json:"branch_id" db:"branch_id"`
	Name         string    `json:"name" db:"name"`
	AcademicYear string    `json:"academic_year" db:"academic_year"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	DivisionCount int         `json:"division_count" db:"division_count"`
	StudentCount  int         `json:"student_count" db:"student_count"`
	Divisions     []*Division `json:"divisions,omitempty" db:"-"`
}

type Division struct {
	ID        string    `json:"id" db:"id"`
	BranchID  string    `json:"branch_id" db:"branch_id"`
	ClassID   string    `json:"class_id" db:"class_id"`
	Name      string    `json:"name" db:"name"`
	Capacity  int       `json:"capacity" db:"capacity"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	StudentCount int `json:"student_count" db:"student_count"`
}
