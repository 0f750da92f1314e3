package fees

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const structureColumns = `id, branch_id, class_id, academic_year, components, total_amount, status, created_at, updated_at`

const structureSelect = `
	SELECT fs.id, fs.branch_id, fs.class_id, fs.academic_year, fs.components, fs.total_amount,
		fs.status, fs.created_at, fs.updated_at, c.name AS class_name
	FROM fee_structures fs
	JOIN classes c ON c.id = fs.class_id`

type StructureParams struct {
	BranchID     string
	ClassID      string
	AcademicYear string
	Status       string
	Limit        int
	Offset       int
}

func ListStructures(ctx context.Context, db *sqlx.DB, p StructureParams) ([]*models.FeeStructure, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "fs.branch_id = ?", p.BranchID).
		WhereIf(p.ClassID != "", "fs.class_id = ?", p.ClassID).
		WhereIf(p.AcademicYear != "", "fs.academic_year = ?", p.AcademicYear).
		WhereIf(p.Status != "", "fs.status = ?", p.Status)

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM fee_structures fs`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	structures := []*models.FeeStructure{}
	err = db.SelectContext(ctx, &structures,
		structureSelect+f.Clause()+` ORDER BY fs.academic_year DESC, c.name`+page, args...)
	return structures, total, errors.Wrap(err, "list fee structures")
}

func GetStructureByID(ctx context.Context, db *sqlx.DB, id string) (*models.FeeStructure, error) {
	var s models.FeeStructure
	if err := db.GetContext(ctx, &s, structureSelect+` WHERE fs.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get fee structure")
	}
	return &s, nil
}

func CreateStructure(ctx context.Context, db *sqlx.DB, s *models.FeeStructure) error {
	err := db.GetContext(ctx, s, `
		INSERT INTO fee_structures (id, branch_id, class_id, academic_year, components, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+structureColumns,
		s.ID, s.BranchID, s.ClassID, s.AcademicYear, s.Components, s.TotalAmount, s.Status)
	return errors.Wrap(err, "create fee structure")
}

func UpdateStructure(ctx context.Context, db *sqlx.DB, s *models.FeeStructure) error {
	err := db.GetContext(ctx, s, `
		UPDATE fee_structures SET class_id = $2, academic_year = $3, components = $4, total_amount = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+structureColumns,
		s.ID, s.ClassID, s.AcademicYear, s.Components, s.TotalAmount)
	return errors.Wrap(err, "update fee structure")
}

func UpdateStructureStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE fee_structures SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update fee structure status")
}

func DeleteStructure(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM fee_structures WHERE id = $1`, id)
	return database.Affected(res, err, "delete fee structure")
}

const paymentColumns = `id, branch_id, student_id, academic_year, receipt_no, items, amount, payment_mode,
	reference, paid_on, account_id, status, remarks, collected_by, cancelled_at, created_at`

const paymentSelect = `
	SELECT p.id, p.branch_id, p.student_id, p.academic_year, p.receipt_no, p.items, p.amount,
		p.payment_mode, p.reference, p.paid_on, p.account_id, p.status, p.remarks, p.collected_by,
		p.cancelled_at, p.created_at,
		TRIM(s.first_name || ' ' || s.last_name) AS student_name, s.admission_no, c.name AS class_name
	FROM fee_payments p
	JOIN students s ON s.id = p.student_id
	JOIN classes c ON c.id = s.class_id`

type PaymentParams struct {
	BranchID     string
	StudentID    string
	ClassID      string
	AcademicYear string
	PaymentMode  string
	Status       string
	From         *models.Date
	To           *models.Date
	Search       string
	Limit        int
	Offset       int
}

// PaymentTotals summarises the payments matching a listing.
type PaymentTotals struct {
	Count  int     `json:"count" db:"count"`
	Amount float64 `json:"amount" db:"amount"`
}

func paymentFilter(p PaymentParams) *database.Filter {
	return database.NewFilter().
		WhereIf(p.BranchID != "", "p.branch_id = ?", p.BranchID).
		WhereIf(p.StudentID != "", "p.student_id = ?", p.StudentID).
		WhereIf(p.ClassID != "", "s.class_id = ?", p.ClassID).
		WhereIf(p.AcademicYear != "", "p.academic_year = ?", p.AcademicYear).
		WhereIf(p.PaymentMode != "", "p.payment_mode = ?", p.PaymentMode).
		WhereIf(p.Status != "", "p.status = ?", p.Status).
		WhereIf(p.From != nil, "p.paid_on >= ?", p.From).
		WhereIf(p.To != nil, "p.paid_on <= ?", p.To).
		Search(p.Search, "p.receipt_no", "s.first_name", "s.last_name", "s.admission_no")
}

// ListPayments returns a page of payments and the count and sum over every match.
// Cancelled payments count but add nothing to the amount.
func ListPayments(ctx context.Context, db *sqlx.DB, p PaymentParams) ([]*models.FeePayment, *PaymentTotals, error) {
	f := paymentFilter(p)

	totals := &PaymentTotals{}
	err := db.GetContext(ctx, totals, `
		SELECT COUNT(*) AS count, COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'paid'), 0) AS amount
		FROM fee_payments p JOIN students s ON s.id = p.student_id`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "total fee payments")
	}

	page, args := f.Page(p.Limit, p.Offset)
	payments := []*models.FeePayment{}
	err = db.SelectContext(ctx, &payments,
		paymentSelect+f.Clause()+` ORDER BY p.paid_on DESC, p.created_at DESC`+page, args...)
	return payments, totals, errors.Wrap(err, "list fee payments")
}

func GetPaymentByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.FeePayment, error) {
	var p models.FeePayment
	if err := sqlx.GetContext(ctx, q, &p, paymentSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get fee payment")
	}
	return &p, nil
}

func InsertPayment(ctx context.Context, q sqlx.QueryerContext, p *models.FeePayment) error {
	err := sqlx.GetContext(ctx, q, p, `
		INSERT INTO fee_payments (id, branch_id, student_id, academic_year, receipt_no, items, amount,
			payment_mode, reference, paid_on, account_id, status, remarks, collected_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+paymentColumns,
		p.ID, p.BranchID, p.StudentID, p.AcademicYear, p.ReceiptNo, p.Items, p.Amount,
		p.PaymentMode, p.Reference, p.PaidOn, p.AccountID, p.Status, p.Remarks, p.CollectedBy)
	return errors.Wrap(err, "insert fee payment")
}

// CancelPayment flips a paid payment to cancelled. A payment that is already
// cancelled matches nothing and reports ErrNoRows.
func CancelPayment(ctx context.Context, ex sqlx.ExecerContext, id, reason string) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE fee_payments SET status = 'cancelled', cancelled_at = NOW(),
			remarks = CASE WHEN $2 = '' THEN remarks ELSE $2 END
		WHERE id = $1 AND status = 'paid'`, id, reason)
	return database.Affected(res, err, "cancel fee payment")
}
