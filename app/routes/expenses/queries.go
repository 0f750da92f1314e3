package expenses

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Category queries

const categoryColumns = `id, branch_id, kind, name, description, status, created_at, updated_at`

const categorySelect = `
	SELECT fc.id, fc.branch_id, fc.kind, fc.name, fc.description, fc.status, fc.created_at, fc.updated_at,
		(SELECT COUNT(*) FROM finance_entries e WHERE e.category_id = fc.id) AS entry_count
	FROM finance_categories fc`

type CategoryParams struct {
	BranchID string
	Kind     string
	Status   string
	Search   string
	Limit    int
	Offset   int
}

func ListCategories(ctx context.Context, db *sqlx.DB, p CategoryParams) ([]*models.FinanceCategory, int, error) {
	f := database.NewFilter().
		Where("fc.kind = ?", p.Kind).
		WhereIf(p.BranchID != "", "fc.branch_id = ?", p.BranchID).
		WhereIf(p.Status != "", "fc.status = ?", p.Status).
		Search(p.Search, "fc.name")

	total, err := database.Count(ctx, db, `SELECT COUNT(*) FROM finance_categories fc`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, 0, err
	}

	page, args := f.Page(p.Limit, p.Offset)
	categories := []*models.FinanceCategory{}
	err = db.SelectContext(ctx, &categories, categorySelect+f.Clause()+` ORDER BY fc.name`+page, args...)
	return categories, total, errors.Wrap(err, "list finance categories")
}

func GetCategoryByID(ctx context.Context, db *sqlx.DB, id string) (*models.FinanceCategory, error) {
	var cat models.FinanceCategory
	if err := db.GetContext(ctx, &cat, categorySelect+` WHERE fc.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get finance category")
	}
	return &cat, nil
}

func CreateCategory(ctx context.Context, db *sqlx.DB, cat *models.FinanceCategory) error {
	err := db.GetContext(ctx, cat, `
		INSERT INTO finance_categories (id, branch_id, kind, name, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+categoryColumns,
		cat.ID, cat.BranchID, cat.Kind, cat.Name, cat.Description, cat.Status)
	return errors.Wrap(err, "create finance category")
}

func UpdateCategory(ctx context.Context, db *sqlx.DB, cat *models.FinanceCategory) error {
	err := db.GetContext(ctx, cat, `
		UPDATE finance_categories SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+categoryColumns,
		cat.ID, cat.Name, cat.Description)
	return errors.Wrap(err, "update finance category")
}

func UpdateCategoryStatus(ctx context.Context, db *sqlx.DB, id, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE finance_categories SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return database.Affected(res, err, "update finance category status")
}

func DeleteCategory(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM finance_categories WHERE id = $1`, id)
	return database.Affected(res, err, "delete finance category")
}

// CategoryAccepts reports whether categoryID is an active category of kind in branchID.
func CategoryAccepts(ctx context.Context, db *sqlx.DB, categoryID, branchID, kind string) (bool, error) {
	var ok bool
	err := db.GetContext(ctx, &ok, `
		SELECT EXISTS (SELECT 1 FROM finance_categories
			WHERE id = $1 AND branch_id = $2 AND kind = $3 AND status = 'active')`,
		categoryID, branchID, kind)
	return ok, errors.Wrap(err, "check finance category")
}

// Entry queries

const entryColumns = `id, branch_id, kind, category_id, title, amount, entry_date, payment_mode, reference,
	account_id, notes, created_by, created_at, updated_at`

const entrySelect = `
	SELECT e.id, e.branch_id, e.kind, e.category_id, e.title, e.amount, e.entry_date, e.payment_mode,
		e.reference, e.account_id, e.notes, e.created_by, e.created_at, e.updated_at,
		fc.name AS category_name
	FROM finance_entries e
	JOIN finance_categories fc ON fc.id = e.category_id`

type EntryParams struct {
	BranchID   string
	Kind       string
	CategoryID string
	From       *models.Date
	To         *models.Date
	Search     string
	Limit      int
	Offset     int
}

// EntryTotals summarises the entries matching a listing.
type EntryTotals struct {
	Count  int     `json:"count" db:"count"`
	Amount float64 `json:"amount" db:"amount"`
}

func ListEntries(ctx context.Context, db *sqlx.DB, p EntryParams) ([]*models.FinanceEntry, *EntryTotals, error) {
	f := database.NewFilter().
		Where("e.kind = ?", p.Kind).
		WhereIf(p.BranchID != "", "e.branch_id = ?", p.BranchID).
		WhereIf(p.CategoryID != "", "e.category_id = ?", p.CategoryID).
		WhereIf(p.From != nil, "e.entry_date >= ?", p.From).
		WhereIf(p.To != nil, "e.entry_date <= ?", p.To).
		Search(p.Search, "e.title", "e.reference", "e.notes")

	totals := &EntryTotals{}
	err := db.GetContext(ctx, totals,
		`SELECT COUNT(*) AS count, COALESCE(SUM(e.amount), 0) AS amount FROM finance_entries e`+f.Clause(), f.Args()...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "total finance entries")
	}

	page, args := f.Page(p.Limit, p.Offset)
	entries := []*models.FinanceEntry{}
	err = db.SelectContext(ctx, &entries,
		entrySelect+f.Clause()+` ORDER BY e.entry_date DESC, e.created_at DESC`+page, args...)
	return entries, totals, errors.Wrap(err, "list finance entries")
}

func GetEntryByID(ctx context.Context, db *sqlx.DB, id string) (*models.FinanceEntry, error) {
	var e models.FinanceEntry
	if err := db.GetContext(ctx, &e, entrySelect+` WHERE e.id = $1`, id); err != nil {
		return nil, errors.Wrap(err, "get finance entry")
	}
	return &e, nil
}

func InsertEntry(ctx context.Context, q sqlx.QueryerContext, e *models.FinanceEntry) error {
	err := sqlx.GetContext(ctx, q, e, `
		INSERT INTO finance_entries (id, branch_id, kind, category_id, title, amount, entry_date, payment_mode,
			reference, account_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+entryColumns,
		e.ID, e.BranchID, e.Kind, e.CategoryID, e.Title, e.Amount, e.EntryDate, e.PaymentMode,
		e.Reference, e.AccountID, e.Notes, e.CreatedBy)
	return errors.Wrap(err, "insert finance entry")
}

func UpdateEntry(ctx context.Context, q sqlx.QueryerContext, e *models.FinanceEntry) error {
	err := sqlx.GetContext(ctx, q, e, `
		UPDATE finance_entries SET category_id = $2, title = $3, amount = $4, entry_date = $5,
			payment_mode = $6, reference = $7, account_id = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+entryColumns,
		e.ID, e.CategoryID, e.Title, e.Amount, e.EntryDate, e.PaymentMode, e.Reference, e.AccountID, e.Notes)
	return errors.Wrap(err, "update finance entry")
}

func DeleteEntry(ctx context.Context, ex sqlx.ExecerContext, id string) error {
	res, err := ex.ExecContext(ctx, `DELETE FROM finance_entries WHERE id = $1`, id)
	return database.Affected(res, err, "delete finance entry")
}
