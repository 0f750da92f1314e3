package accounts

import (
	"context"

	"campus-management/app/models"
	"campus-management/app/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Other modules call these inside their own transactions so that a business record
// and its account postings are written or rolled back together.

// EnsureAccount rejects an account_id that is not an active account of branchID.
func EnsureAccount(ctx context.Context, q sqlx.QueryerContext, accountID, branchID string) error {
	if _, err := uuid.Parse(accountID); err != nil {
		return utils.Invalid("account_id", "account_id must be a valid UUID")
	}
	var ok bool
	err := sqlx.GetContext(ctx, q, &ok, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND branch_id = $2 AND status = 'active')`,
		accountID, branchID)
	if err != nil {
		return errors.Wrap(err, "check account")
	}
	if !ok {
		return utils.Invalid("account_id", "account_id does not reference an active account in this branch")
	}
	return nil
}

// Post records one movement on an account.
func Post(ctx context.Context, ex sqlx.ExtContext, t *models.AccountTransaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Amount = models.RoundMoney(t.Amount)
	_, err := ex.ExecContext(ctx, `
		INSERT INTO account_transactions (id, branch_id, account_id, txn_date, type, amount, source_type, source_id, narration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.BranchID, t.AccountID, t.TxnDate, t.Type, t.Amount, t.SourceType, t.SourceID, t.Narration)
	return errors.Wrap(err, "post account transaction")
}

// Unpost removes the postings of a business record that is being rewritten or deleted.
func Unpost(ctx context.Context, ex sqlx.ExtContext, sourceType, sourceID string) error {
	_, err := ex.ExecContext(ctx,
		`DELETE FROM account_transactions WHERE source_type = $1 AND source_id = $2`, sourceType, sourceID)
	return errors.Wrap(err, "remove account postings")
}

// Reverse offsets every posting of a record with one of the opposite type dated on,
// leaving the original movement visible in the ledger.
func Reverse(ctx context.Context, ex sqlx.ExtContext, sourceType, sourceID string, on models.Date, narration string) error {
	var originals []*models.AccountTransaction
	err := sqlx.SelectContext(ctx, ex, &originals, `
		SELECT `+txnColumns+` FROM account_transactions
		WHERE source_type = $1 AND source_id = $2
		ORDER BY created_at`, sourceType, sourceID)
	if err != nil {
		return errors.Wrap(err, "load postings to reverse")
	}

	for _, o := range originals {
		reversal := &models.AccountTransaction{
			BranchID:   o.BranchID,
			AccountID:  o.AccountID,
			TxnDate:    on,
			Type:       opposite(o.Type),
			Amount:     o.Amount,
			SourceType: o.SourceType,
			SourceID:   o.SourceID,
			Narration:  narration,
		}
		if err := Post(ctx, ex, reversal); err != nil {
			return err
		}
	}
	return nil
}

func opposite(txnType string) string {
	if txnType == models.TxnCredit {
		return models.TxnDebit
	}
	return models.TxnCredit
}

// PostFor is a shorthand for the common case of one posting per record.
func PostFor(ctx context.Context, ex sqlx.ExtContext, branchID string, accountID *string, on models.Date,
	txnType string, amount float64, sourceType, sourceID, narration string) error {
	if accountID == nil || amount <= 0 {
		return nil
	}
	id := sourceID
	return Post(ctx, ex, &models.AccountTransaction{
		BranchID:   branchID,
		AccountID:  *accountID,
		TxnDate:    on,
		Type:       txnType,
		Amount:     amount,
		SourceType: sourceType,
		SourceID:   &id,
		Narration:  narration,
	})
}
