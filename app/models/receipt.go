package models

import (
	"fmt"
	"time"
)

const (
	DefaultReceiptPrefix  = "RCPT-"
	DefaultReceiptPadding = 5
)

type ReceiptConfig struct {
	ID            string    `json:"id" db:"id"`
	BranchID      string    `json:"branch_id" db:"branch_id"`
	SchoolName    string    `json:"school_name" db:"school_name"`
	Address       string    `json:"address" db:"address"`
	Phone         string    `json:"phone" db:"phone"`
	Email         string    `json:"email" db:"email"`
	LogoURL       string    `json:"logo_url" db:"logo_url"`
	HeaderText    string    `json:"header_text" db:"header_text"`
	FooterText    string    `json:"footer_text" db:"footer_text"`
	ReceiptPrefix string    `json:"receipt_prefix" db:"receipt_prefix"`
	NextNumber    int64     `json:"next_number" db:"next_number"`
	NumberPadding int       `json:"number_padding" db:"number_padding"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultReceiptConfig is served for branches that never saved one.
func DefaultReceiptConfig(branchID string) *ReceiptConfig {
	return &ReceiptConfig{
		BranchID:      branchID,
		ReceiptPrefix: DefaultReceiptPrefix,
		NextNumber:    1,
		NumberPadding: DefaultReceiptPadding,
	}
}

// FormatReceiptNo renders prefix + number zero padded to padding digits.
func FormatReceiptNo(prefix string, number int64, padding int) string {
	if padding < 1 {
		return fmt.Sprintf("%s%d", prefix, number)
	}
	return fmt.Sprintf("%s%0*d", prefix, padding, number)
}

// Preview is the number the next payment will receive.
func (r *ReceiptConfig) Preview() string {
	return FormatReceiptNo(r.ReceiptPrefix, r.NextNumber, r.NumberPadding)
}

// Receipt is a printable fee receipt.
type Receipt struct {
	Payment *FeePayment    `json:"payment"`
	Config  *ReceiptConfig `json:"config"`
}
