package models

import (
	"database/sql/driver"
	"time"
)

// Fee heads accepted on a payment line.
const (
	FeeHeadTuition   = "tuition"
	FeeHeadAdmission = "admission"
	FeeHeadExam      = "exam"
	FeeHeadTransport = "transport"
	FeeHeadOther     = "other"
)

// Payment modes shared by fees, payroll, finance entries and indent payments.
const (
	PaymentModeCash   = "cash"
	PaymentModeBank   = "bank"
	PaymentModeUPI    = "upi"
	PaymentModeCheque = "cheque"
	PaymentModeCard   = "card"
)

const (
	FeePaymentPaid      = "paid"
	FeePaymentCancelled = "cancelled"
)

type FeeComponent struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

type FeeComponents []FeeComponent

func (f *FeeComponents) Scan(value interface{}) error {
	return scanJSON(value, f)
}

func (f FeeComponents) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return jsonValue([]FeeComponent(f))
}

func (f FeeComponents) Total() float64 {
	var total float64
	for _, c := range f {
		total += c.Amount
	}
	return RoundMoney(total)
}

type FeeStructure struct {
	ID           string        `json:"id" db:"id"`
	BranchID     string        `json:"branch_id" db:"branch_id"`
	ClassID      string        `json:"class_id" db:"class_id"`
	AcademicYear string        `json:"academic_year" db:"academic_year"`
	Components   FeeComponents `json:"components" db:"components"`
	TotalAmount  float64       `json:"total_amount" db:"total_amount"`
	Status       string        `json:"status" db:"status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`

	ClassName *string `json:"class_name,omitempty" db:"class_name"`
}

type FeeItem struct {
	FeeHead       string  `json:"fee_head" validate:"required,oneof=tuition admission exam transport other"`
	Amount        float64 `json:"amount" validate:"gt=0"`
	DistanceGroup string  `json:"distance_group,omitempty" validate:"required_if=FeeHead transport"`
}

type FeeItems []FeeItem

func (f *FeeItems) Scan(value interface{}) error {
	return scanJSON(value, f)
}

func (f FeeItems) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	return jsonValue([]FeeItem(f))
}

func (f FeeItems) Total() float64 {
	var total float64
	for _, item := range f {
		total += item.Amount
	}
	return RoundMoney(total)
}

type FeePayment struct {
	ID           string     `json:"id" db:"id"`
	BranchID     string     `json:"branch_id" db:"branch_id"`
	StudentID    string     `json:"student_id" db:"student_id"`
	AcademicYear string     `json:"academic_year" db:"academic_year"`
	ReceiptNo    string     `json:"receipt_no" db:"receipt_no"`
	Items        FeeItems   `json:"items" db:"items"`
	Amount       float64    `json:"amount" db:"amount"`
	PaymentMode  string     `json:"payment_mode" db:"payment_mode"`
	Reference    string     `json:"reference" db:"reference"`
	PaidOn       Date       `json:"paid_on" db:"paid_on"`
	AccountID    *string    `json:"account_id" db:"account_id"`
	Status       string     `json:"status" db:"status"`
	Remarks      string     `json:"remarks" db:"remarks"`
	CollectedBy  *string    `json:"collected_by" db:"collected_by"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`

	StudentName *string `json:"student_name,omitempty" db:"student_name"`
	AdmissionNo *string `json:"admission_no,omitempty" db:"admission_no"`
	ClassName   *string `json:"class_name,omitempty" db:"class_name"`
}

// StudentDue is one row of the outstanding dues listing.
type StudentDue struct {
	StudentID    string  `json:"student_id" db:"student_id"`
	StudentName  string  `json:"student_name" db:"student_name"`
	AdmissionNo  string  `json:"admission_no" db:"admission_no"`
	ClassID      string  `json:"class_id" db:"class_id"`
	ClassName    string  `json:"class_name" db:"class_name"`
	AcademicYear string  `json:"academic_year" db:"academic_year"`
	TotalFee     float64 `json:"total_fee" db:"total_fee"`
	Paid         float64 `json:"paid" db:"paid"`
	Due          float64 `json:"due" db:"due"`
}
