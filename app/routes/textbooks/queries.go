package textbooks

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Textbook queries

const textbookColumns = `id, branch_id, title, subject, class_id, publisher, isbn, price, stock, status, created_at, updated_at`

const textbookSelect = `
	SELECT t.id, t.branch_id, t.title, t.subject, t.class_id, t.publisher, t.isbn, t.price, t.stock,
		t.status, t.created_at, t.updated_at, c.name AS class_name
	FROM textbooks t
	LEFT JOIN classes c ON c.id = t.class_id`

type ListParams struct {
	BranchID string
	ClassID  string
	Subject  string
	Status   string
	LowStock *int
	Search   string
	Limit    int
	Offset   int
}

func ListTextbooks(ctx context.Context, db *sqlx.DB, p ListParams) ([]*models.TextBook, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "t.branch_id = ?", p.BranchID).
		WhereIf(p.ClassID != "", "t.class_id = ?", p.ClassID).
		WhereIf(p.Subject != "", "t.subject ILIKE ?", p.Subject).
		WhereIf(p.Status != "", "t.status = ?", p.Status)
	if p.LowStock != nil {
		f.Where("t.stock <= ?", *p.LowStock)
	}
	f.Search(p.Search, "t.title", "t.publisher", "t.isbn")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM textbooks t`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	books := []*models.TextBook{}
	err = db.SelectContext(ctx, &books, textbookSelect+f.Clause()+` ORDER BY t.title`+page, args...)
	return books, total, errors.Wrap(err, "list textbooks")
}

func GetTextbookByID(ctx context.Context, db *sqlx.DB, id string) (*models.TextBook, error) {
	var b models.TextBook
	if err := db.GetContext(ctx, &b, textbookSelect+` WHERE t.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get textbook")
	}
	return &b, nil
}

// GetTextbooks loads every textbook in ids that belongs to branchID.
func GetTextbooks(ctx context.Context, q sqlx.QueryerContext, ids []string, branchID string) (map[string]*models.TextBook, error) {
	var books []*models.TextBook
	err := sqlx.SelectContext(ctx, q, &books,
		`SELECT `+textbookColumns+` FROM textbooks WHERE id = ANY($1) AND branch_id = $2`, pq.Array(ids), branchID)
	if err != nil {
		return nil, errors.Wrap(err, "load textbooks")
	}
	byID := make(map[string]*models.TextBook, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	return byID, nil
}

func CreateTextbook(ctx context.Context, db *sqlx.DB, b *models.TextBook) error {
	err := db.GetContext(ctx, b, `
		INSERT INTO textbooks (id, branch_id, title, subject, class_id, publisher, isbn, price, stock, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+textbookColumns,
		b.ID, b.BranchID, b.Title, b.Subject, b.ClassID, b.Publisher, b.ISBN, b.Price, b.Stock, b.Status)
	return errors.Wrap(err, "create textbook")
}

// UpdateTextbook rewrites the catalogue fields. Stock only moves through AdjustStock.
func UpdateTextbook(ctx context.Context, db *sqlx.DB, b *models.TextBook) error {
	err := db.GetContext(ctx, b, `
		UPDATE textbooks SET title = $2, subject = $3, class_id = $4, publisher = $5, isbn = $6, price = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+textbookColumns,
		b.ID, b.Title, b.Subject, b.ClassID, b.Publisher, b.ISBN, b.Price)
	return errors.Wrap(err, "update textbook")
}

func UpdateTextbookStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE textbooks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update textbook status")
}

func CountTextbookIndents(ctx context.Context, db *sqlx.DB, id string) (int, error) {
	return database.Count(ctx, db, `SELECT COUNT(*) FROM textbook_indent_items WHERE textbook_id = $1`, id)
}

func DeleteTextbook(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM textbooks WHERE id = $1`, id)
	return database.Affected(res, err, "delete textbook")
}

// AdjustStock adds delta to a textbook's stock and returns the new level. It reports
// ok=false without changing anything when the result would be negative.
func AdjustStock(ctx context.Context, q sqlx.QueryerContext, id string, delta int) (stock int, ok bool, err error) {
	err = sqlx.GetContext(ctx, q, &stock, `
		UPDATE textbooks SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock`, id, delta)
	if database.IsNotFound(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "adjust textbook stock")
	}
	return stock, true, nil
}

// Indent queries

const indentColumns = `id, branch_id, student_id, academic_year, status, total_amount, amount_paid, remarks,
	issued_at, cancelled_at, created_by, created_at, updated_at`

const indentSelect = `
	SELECT i.id, i.branch_id, i.student_id, i.academic_year, i.status, i.total_amount, i.amount_paid,
		i.remarks, i.issued_at, i.cancelled_at, i.created_by, i.created_at, i.updated_at,
		s.first_name || ' ' || s.last_name AS student_name, s.admission_no
	FROM textbook_indents i
	JOIN students s ON s.id = i.student_id`

const itemColumns = `id, indent_id, textbook_id, title, quantity, returned_quantity, unit_price`

type IndentParams struct {
	BranchID     string
	StudentID    string
	Status       string
	AcademicYear string
	Search       string
	Limit        int
	Offset       int
}

func ListIndents(ctx context.Context, db *sqlx.DB, p IndentParams) ([]*models.TextbookIndent, int, error) {
	f := database.NewFilter().
		WhereIf(p.BranchID != "", "i.branch_id = ?", p.BranchID).
		WhereIf(p.StudentID != "", "i.student_id = ?", p.StudentID).
		WhereIf(p.Status != "", "i.status = ?", p.Status).
		WhereIf(p.AcademicYear != "", "i.academic_year = ?", p.AcademicYear).
		Search(p.Search, "s.first_name", "s.last_name", "s.admission_no")

	total, err := database.Count(ctx, db,
		`SELECT COUNT(*) FROM textbook_indents i JOIN students s ON s.id = i.student_id`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	indents := []*models.TextbookIndent{}
	err = db.SelectContext(ctx, &indents, indentSelect+f.Clause()+` ORDER BY i.created_at DESC`+page, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list indents")
	}
	if err := attachItems(ctx, db, indents); err != nil {
		return nil, 0, err
	}
	return indents, total, nil
}

// attachItems loads the items of every indent in one query and derives their payment fields.
func attachItems(ctx context.Context, q sqlx.QueryerContext, indents []*models.TextbookIndent) error {
	if len(indents) == 0 {
		return nil
	}
	ids := make([]string, len(indents))
	byID := make(map[string]*models.TextbookIndent, len(indents))
	for i, in := range indents {
		ids[i] = in.ID
		byID[in.ID] = in
		in.Items = []*models.IndentItem{}
	}

	var items []*models.IndentItem
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM textbook_indent_items WHERE indent_id = ANY($1) ORDER BY title`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "list indent items")
	}
	for _, it := range items {
		if in, ok := byID[it.IndentID]; ok {
			in.Items = append(in.Items, it)
		}
	}
	for _, in := range indents {
		in.Derive()
	}
	return nil
}

// GetIndentByID returns an indent with its items and derived payment fields.
func GetIndentByID(ctx context.Context, q sqlx.QueryerContext, id string) (*models.TextbookIndent, error) {
	var in models.TextbookIndent
	if err := sqlx.GetContext(ctx, q, &in, indentSelect+` WHERE i.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get indent")
	}
	if err := attachItems(ctx, q, []*models.TextbookIndent{&in}); err != nil {
		return nil, err
	}
	return &in, nil
}

// LockIndentItems returns the items of an indent locked for the rest of the transaction.
func LockIndentItems(ctx context.Context, tx *sqlx.Tx, indentID string) ([]*models.IndentItem, error) {
	var items []*models.IndentItem
	err := tx.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM textbook_indent_items WHERE indent_id = $1 ORDER BY title FOR UPDATE`, indentID)
	return items, errors.Wrap(err, "lock indent items")
}

func InsertIndent(ctx context.Context, tx *sqlx.Tx, in *models.TextbookIndent) error {
	err := tx.GetContext(ctx, in, `
		INSERT INTO textbook_indents (id, branch_id, student_id, academic_year, status, total_amount, remarks, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+indentColumns,
		in.ID, in.BranchID, in.StudentID, in.AcademicYear, in.Status, in.TotalAmount, in.Remarks, in.CreatedBy)
	return errors.Wrap(err, "insert indent")
}

func InsertIndentItem(ctx context.Context, tx *sqlx.Tx, it *models.IndentItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO textbook_indent_items (id, indent_id, textbook_id, title, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		it.ID, it.IndentID, it.TextbookID, it.Title, it.Quantity, it.UnitPrice)
	return errors.Wrap(err, "insert indent item")
}

// SetIndentStatus moves an indent from one status to another. It matches nothing
// when another request changed the status first.
func SetIndentStatus(ctx context.Context, ex sqlx.ExecerContext, id, from, to string) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE textbook_indents SET status = $3,
			issued_at = CASE WHEN $3 = 'issued' THEN NOW() ELSE issued_at END,
			cancelled_at = CASE WHEN $3 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, to)
	return database.Affected(res, err, "update indent status")
}

func RecordReturn(ctx context.Context, ex sqlx.ExecerContext, itemID string, quantity int) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE textbook_indent_items SET returned_quantity = returned_quantity + $2
		WHERE id = $1 AND returned_quantity + $2 <= quantity`, itemID, quantity)
	return database.Affected(res, err, "record indent return")
}

// Indent payment queries

const paymentColumns = `id, branch_id, indent_id, amount, payment_mode, paid_on, account_id, created_by, created_at`

func ListIndentPayments(ctx context.Context, db *sqlx.DB, indentID string) ([]*models.IndentPayment, error) {
	payments := []*models.IndentPayment{}
	err := db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM indent_payments WHERE indent_id = $1 ORDER BY paid_on, created_at`, indentID)
	return payments, errors.Wrap(err, "list indent payments")
}

func InsertIndentPayment(ctx context.Context, tx *sqlx.Tx, p *models.IndentPayment) error {
	err := tx.GetContext(ctx, p, `
		INSERT INTO indent_payments (id, branch_id, indent_id, amount, payment_mode, paid_on, account_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+paymentColumns,
		p.ID, p.BranchID, p.IndentID, p.Amount, p.PaymentMode, p.PaidOn, p.AccountID, p.CreatedBy)
	return errors.Wrap(err, "insert indent payment")
}

// AddAmountPaid credits a payment to an indent that is not cancelled.
func AddAmountPaid(ctx context.Context, ex sqlx.ExecerContext, id string, amount float64) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE textbook_indents SET amount_paid = amount_paid + $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'`, id, amount)
	return database.Affected(res, err, "record indent payment")
}
