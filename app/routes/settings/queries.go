package settings

import (
	"context"

	"campus-management/app/database"
	"campus-management/app/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const receiptColumns = `id, branch_id, school_name, address, phone, email, logo_url, header_text, footer_text,
	receipt_prefix, next_number, number_padding, updated_at`

// GetReceiptConfig returns the branch's saved config, or the defaults when none was saved.
func GetReceiptConfig(ctx context.Context, q sqlx.QueryerContext, branchID string) (*models.ReceiptConfig, error) {
	var cfg models.ReceiptConfig
	err := sqlx.GetContext(ctx, q, &cfg, `SELECT `+receiptColumns+` FROM receipt_configs WHERE branch_id = $1`, branchID)
	if database.IsNotFound(err) {
		return models.DefaultReceiptConfig(branchID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get receipt config")
	}
	return &cfg, nil
}

func SaveReceiptConfig(ctx context.Context, db *sqlx.DB, cfg *models.ReceiptConfig) error {
	err := db.GetContext(ctx, cfg, `
		INSERT INTO receipt_configs (id, branch_id, school_name, address, phone, email, logo_url,
			header_text, footer_text, receipt_prefix, next_number, number_padding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (branch_id) DO UPDATE SET
			school_name = EXCLUDED.school_name, address = EXCLUDED.address, phone = EXCLUDED.phone,
			email = EXCLUDED.email, logo_url = EXCLUDED.logo_url, header_text = EXCLUDED.header_text,
			footer_text = EXCLUDED.footer_text, receipt_prefix = EXCLUDED.receipt_prefix,
			next_number = EXCLUDED.next_number, number_padding = EXCLUDED.number_padding,
			updated_at = NOW()
		RETURNING `+receiptColumns,
		cfg.ID, cfg.BranchID, cfg.SchoolName, cfg.Address, cfg.Phone, cfg.Email, cfg.LogoURL,
		cfg.HeaderText, cfg.FooterText, cfg.ReceiptPrefix, cfg.NextNumber, cfg.NumberPadding)
	return errors.Wrap(err, "save receipt config")
}

// AllocateReceiptNo takes the branch's next receipt number and advances the sequence.
// Run it inside the payment transaction so a rolled back payment gives the number back.
// A branch without a saved config starts at 1 with the default prefix and padding.
func AllocateReceiptNo(ctx context.Context, q sqlx.QueryerContext, branchID string) (string, error) {
	var row struct {
		Prefix  string `db:"receipt_prefix"`
		Number  int64  `db:"number"`
		Padding int    `db:"number_padding"`
	}
	err := sqlx.GetContext(ctx, q, &row, `
		INSERT INTO receipt_configs (id, branch_id, next_number) VALUES ($1, $2, 2)
		ON CONFLICT (branch_id) DO UPDATE SET next_number = receipt_configs.next_number + 1, updated_at = NOW()
		RETURNING receipt_prefix, next_number - 1 AS number, number_padding`, uuid.NewString(), branchID)
	if err != nil {
		return "", errors.Wrap(err, "allocate receipt number")
	}
	return models.FormatReceiptNo(row.Prefix, row.Number, row.Padding), nil
}
