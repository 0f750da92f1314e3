package models

import "time"

// Finance kinds; expenses and income share one table keyed by kind.
const (
	KindExpense = "expense"
	KindIncome  = "income"
)

type FinanceCategory struct {
	ID          string    `json:"id" db:"id"`
	BranchID    string    `json:"branch_id" db:"branch_id"`
	Kind        string    `json:"kind" db:"kind"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	EntryCount int `json:"entry_count" db:"entry_count"`
}

type FinanceEntry struct {
	ID          string    `json:"id" db:"id"`
	BranchID    string    `json:"branch_id" db:"branch_id"`
	Kind        string    `json:"kind" db:"kind"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	Title       string    `json:"title" db:"title"`
	Amount      float64   `json:"amount" db:"amount"`
	EntryDate   Date      `json:"entry_date" db:"entry_date"`
	PaymentMode string    `json:"payment_mode" db:"payment_mode"`
	Reference   string    `json:"reference" db:"reference"`
	AccountID   *string   `json:"account_id" db:"account_id"`
	Notes       string    `json:"notes" db:"notes"`
	CreatedBy   *string   `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	CategoryName *string `json:"category_name,omitempty" db:"category_name"`
}

// TxnType is the account posting direction for an entry of this kind.
func (e *FinanceEntry) TxnType() string {
	if e.Kind == KindIncome {
		return TxnCredit
	}
	return TxnDebit
}
