package models

import "time"

// OrgUnit is a department (e.g. Science) or a designation (e.g. Senior Teacher).
// Both are branch scoped named lists that staff records point at.
type OrgUnit struct {
	ID          string    `json:"id" db:"id"`
	BranchID    string    `json:"branch_id" db:"branch_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	StaffCount int `json:"staff_count" db:"staff_count"`
}

type Staff struct {
	ID            string    `json:"id" db:"id"`
	BranchID      string    `json:"branch_id" db:"branch_id"`
	EmployeeCode  string    `json:"employee_code" db:"employee_code"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Gender        string    `json:"gender" db:"gender"`
	DepartmentID  string    `json:"department_id" db:"department_id"`
	DesignationID string    `json:"designation_id" db:"designation_id"`
	JoiningDate   Date      `json:"joining_date" db:"joining_date"`
	BasicSalary   float64   `json:"basic_salary" db:"basic_salary"`
	Allowances    float64   `json:"allowances" db:"allowances"`
	Deductions    float64   `json:"deductions" db:"deductions"`
	BankName      string    `json:"bank_name" db:"bank_name"`
	BankAccountNo string    `json:"bank_account_no" db:"bank_account_no"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	DepartmentName  *string `json:"department_name,omitempty" db:"department_name"`
	DesignationName *string `json:"designation_name,omitempty" db:"designation_name"`
}
