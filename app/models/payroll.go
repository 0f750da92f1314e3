package models

import (
	"errors"
	"time"
)

const (
	PayrollPending = "pending"
	PayrollPaid    = "paid"
)

var ErrNegativeNetSalary = errors.New("net salary cannot be negative")

type PayrollEntry struct {
	ID          string    `json:"id" db:"id"`
	BranchID    string    `json:"branch_id" db:"branch_id"`
	StaffID     string    `json:"staff_id" db:"staff_id"`
	Month       int       `json:"month" db:"month"`
	Year        int       `json:"year" db:"year"`
	BasicSalary float64   `json:"basic_salary" db:"basic_salary"`
	Allowances  float64   `json:"allowances" db:"allowances"`
	Deductions  float64   `json:"deductions" db:"deductions"`
	NetSalary   float64   `json:"net_salary" db:"net_salary"`
	Status      string    `json:"status" db:"status"`
	PaidOn      *Date     `json:"paid_on" db:"paid_on"`
	PaymentMode string    `json:"payment_mode" db:"payment_mode"`
	AccountID   *string   `json:"account_id" db:"account_id"`
	Remarks     string    `json:"remarks" db:"remarks"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	StaffName      *string `json:"staff_name,omitempty" db:"staff_name"`
	EmployeeCode   *string `json:"employee_code,omitempty" db:"employee_code"`
	DepartmentName *string `json:"department_name,omitempty" db:"department_name"`
}

// ComputeNet sets NetSalary from the salary components.
func (p *PayrollEntry) ComputeNet() error {
	net, err := NetSalary(p.BasicSalary, p.Allowances, p.Deductions)
	if err != nil {
		return err
	}
	p.NetSalary = net
	return nil
}

// NetSalary is basic + allowances - deductions, rounded to cents.
func NetSalary(basic, allowances, deductions float64) (float64, error) {
	net := RoundMoney(basic + allowances - deductions)
	if net < 0 {
		return 0, ErrNegativeNetSalary
	}
	return net, nil
}

// PayrollTotals summarizes a payroll listing.
type PayrollTotals struct {
	Entries     int     `json:"entries" db:"entries"`
	BasicSalary float64 `json:"basic_salary" db:"basic_salary"`
	Allowances  float64 `json:"allowances" db:"allowances"`
	Deductions  float64 `json:"deductions" db:"deductions"`
	NetSalary   float64 `json:"net_salary" db:"net_salary"`
	Paid        float64 `json:"paid" db:"paid"`
	Pending     float64 `json:"pending" db:"pending"`
}

// GenerateResult reports what a payroll generation run did.
type GenerateResult struct {
	Month   int `json:"month"`
	Year    int `json:"year"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
