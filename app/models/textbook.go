package models

import (
	"fmt"
	"time"
)

type TextBook struct {
	ID        string    `json:"id" db:"id"`
	BranchID  string    `json:"branch_id" db:"branch_id"`
	Title     string    `json:"title" db:"title"`
	Subject   string    `json:"subject" db:"subject"`
	ClassID   *string   `json:"class_id" db:"class_id"`
	Publisher string    `json:"publisher" db:"publisher"`
	ISBN      string    `json:"isbn" db:"isbn"`
	Price     float64   `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	ClassName *string `json:"class_name,omitempty" db:"class_name"`
}

// Indent statuses.
const (
	IndentPending           = "pending"
	IndentIssued            = "issued"
	IndentPartiallyReturned = "partially_returned"
	IndentReturned          = "returned"
	IndentCancelled         = "cancelled"
)

// Derived indent payment statuses.
const (
	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"
)

var indentTransitions = map[string][]string{
	IndentPending:           {IndentIssued, IndentCancelled},
	IndentIssued:            {IndentPartiallyReturned, IndentReturned},
	IndentPartiallyReturned: {IndentPartiallyReturned, IndentReturned},
}

// CanTransition reports whether an indent may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range indentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type TextbookIndent struct {
	ID           string     `json:"id" db:"id"`
	BranchID     string     `json:"branch_id" db:"branch_id"`
	StudentID    string     `json:"student_id" db:"student_id"`
	AcademicYear string     `json:"academic_year" db:"academic_year"`
	Status       string     `json:"status" db:"status"`
	TotalAmount  float64    `json:"total_amount" db:"total_amount"`
	AmountPaid   float64    `json:"amount_paid" db:"amount_paid"`
	Remarks      string     `json:"remarks" db:"remarks"`
	IssuedAt     *time.Time `json:"issued_at,omitempty" db:"issued_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedBy    *string    `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	StudentName *string `json:"student_name,omitempty" db:"student_name"`
	AdmissionNo *string `json:"admission_no,omitempty" db:"admission_no"`

	Items          []*IndentItem `json:"items,omitempty" db:"-"`
	BillableAmount float64       `json:"billable_amount" db:"-"`
	PaymentStatus  string        `json:"payment_status" db:"-"`
	RefundDue      float64       `json:"refund_due" db:"-"`
}

type IndentItem struct {
	ID               string  `json:"id" db:"id"`
	IndentID         string  `json:"indent_id" db:"indent_id"`
	TextbookID       string  `json:"textbook_id" db:"textbook_id"`
	Title            string  `json:"title" db:"title"`
	Quantity         int     `json:"quantity" db:"quantity"`
	ReturnedQuantity int     `json:"returned_quantity" db:"returned_quantity"`
	UnitPrice        float64 `json:"unit_price" db:"unit_price"`
}

// Outstanding is the quantity still with the student.
func (i *IndentItem) Outstanding() int {
	return i.Quantity - i.ReturnedQuantity
}

// IndentTotal is the sum of quantity x unit price over all items.
func IndentTotal(items []*IndentItem) float64 {
	var total float64
	for _, i := range items {
		total += float64(i.Quantity) * i.UnitPrice
	}
	return RoundMoney(total)
}

// BillableAmount charges only for books not returned.
func BillableAmount(items []*IndentItem) float64 {
	var total float64
	for _, i := range items {
		total += float64(i.Outstanding()) * i.UnitPrice
	}
	return RoundMoney(total)
}

// DerivePaymentStatus classifies what has been paid against what is billable.
func DerivePaymentStatus(amountPaid, billable float64) string {
	switch {
	case amountPaid >= billable:
		return PaymentPaid
	case amountPaid > 0:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// RefundDue is the overpayment after returns, never negative.
func RefundDue(amountPaid, billable float64) float64 {
	if amountPaid <= billable {
		return 0
	}
	return RoundMoney(amountPaid - billable)
}

// Derive fills the computed payment fields from Items and AmountPaid.
func (t *TextbookIndent) Derive() {
	if t.Status == IndentCancelled {
		t.BillableAmount = 0
	} else {
		t.BillableAmount = BillableAmount(t.Items)
	}
	t.PaymentStatus = DerivePaymentStatus(t.AmountPaid, t.BillableAmount)
	t.RefundDue = RefundDue(t.AmountPaid, t.BillableAmount)
}

// ReturnLine asks to take back quantity copies of one indent item.
type ReturnLine struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// ApplyReturns adds the returned quantities to items and yields the resulting status.
// It fails without mutating anything when a line names an unknown item or returns
// more than is outstanding.
func ApplyReturns(items []*IndentItem, lines []ReturnLine) (string, error) {
	byID := make(map[string]*IndentItem, len(items))
	for _, i := range items {
		byID[i.ID] = i
	}

	pending := make(map[string]int, len(lines))
	for _, l := range lines {
		item, ok := byID[l.ItemID]
		if !ok {
			return "", fmt.Errorf("item %s is not part of this indent", l.ItemID)
		}
		pending[l.ItemID] += l.Quantity
		if pending[l.ItemID] > item.Outstanding() {
			return "", fmt.Errorf("cannot return more than %d copies of %q", item.Outstanding(), item.Title)
		}
	}

	for id, qty := range pending {
		byID[id].ReturnedQuantity += qty
	}

	for _, i := range items {
		if i.Outstanding() > 0 {
			return IndentPartiallyReturned, nil
		}
	}
	return IndentReturned, nil
}

type IndentPayment struct {
	ID          string    `json:"id" db:"id"`
	BranchID    string    `json:"branch_id" db:"branch_id"`
	IndentID    string    `json:"indent_id" db:"indent_id"`
	Amount      float64   `json:"amount" db:"amount"`
	PaymentMode string    `json:"payment_mode" db:"payment_mode"`
	PaidOn      Date      `json:"paid_on" db:"paid_on"`
	AccountID   *string   `json:"account_id" db:"account_id"`
	CreatedBy   *string   `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
