package models

import "time"

const (
	AccountCash = "cash"
	AccountBank = "bank"
)

const (
	TxnCredit = "credit"
	TxnDebit  = "debit"
)

// Source types recorded on account transactions.
const (
	SourceFeePayment    = "fee_payment"
	SourceExpense       = "expense"
	SourceIncome        = "income"
	SourcePayroll       = "payroll"
	SourceIndentPayment = "indent_payment"
	SourceManual        = "manual"
)

type Account struct {
	ID             string    `json:"id" db:"id"`
	BranchID       string    `json:"branch_id" db:"branch_id"`
	Name           string    `json:"name" db:"name"`
	Type           string    `json:"type" db:"type"`
	AccountNumber  string    `json:"account_number" db:"account_number"`
	BankName       string    `json:"bank_name" db:"bank_name"`
	OpeningBalance float64   `json:"opening_balance" db:"opening_balance"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	TotalCredit    float64 `json:"total_credit" db:"total_credit"`
	TotalDebit     float64 `json:"total_debit" db:"total_debit"`
	CurrentBalance float64 `json:"current_balance" db:"current_balance"`
}

// Settle computes CurrentBalance from the opening balance and posted totals.
func (a *Account) Settle() {
	a.CurrentBalance = RoundMoney(a.OpeningBalance + a.TotalCredit - a.TotalDebit)
}

type AccountTransaction struct {
	ID         string    `json:"id" db:"id"`
	BranchID   string    `json:"branch_id" db:"branch_id"`
	AccountID  string    `json:"account_id" db:"account_id"`
	TxnDate    Date      `json:"txn_date" db:"txn_date"`
	Type       string    `json:"type" db:"type"`
	Amount     float64   `json:"amount" db:"amount"`
	SourceType string    `json:"source_type" db:"source_type"`
	SourceID   *string   `json:"source_id" db:"source_id"`
	Narration  string    `json:"narration" db:"narration"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Signed is the effect of the transaction on the account balance.
func (t *AccountTransaction) Signed() float64 {
	if t.Type == TxnDebit {
		return -t.Amount
	}
	return t.Amount
}

type LedgerLine struct {
	AccountTransaction
	Balance float64 `json:"balance"`
}

type Ledger struct {
	Account        *Account      `json:"account"`
	From           *Date         `json:"from"`
	To             *Date         `json:"to"`
	OpeningBalance float64       `json:"opening_balance"`
	TotalCredit    float64       `json:"total_credit"`
	TotalDebit     float64       `json:"total_debit"`
	ClosingBalance float64       `json:"closing_balance"`
	Lines          []*LedgerLine `json:"transactions"`
}

// BuildLedger walks txns in order and computes running balances starting from opening.
func BuildLedger(account *Account, opening float64, txns []*AccountTransaction) *Ledger {
	l := &Ledger{
		Account:        account,
		OpeningBalance: RoundMoney(opening),
		Lines:          make([]*LedgerLine, 0, len(txns)),
	}
	balance := opening
	for _, t := range txns {
		balance += t.Signed()
		if t.Type == TxnDebit {
			l.TotalDebit += t.Amount
		} else {
			l.TotalCredit += t.Amount
		}
		l.Lines = append(l.Lines, &LedgerLine{AccountTransaction: *t, Balance: RoundMoney(balance)})
	}
	l.TotalCredit = RoundMoney(l.TotalCredit)
	l.TotalDebit = RoundMoney(l.TotalDebit)
	l.ClosingBalance = RoundMoney(balance)
	return l
}

// DaybookEntry is one receipt or payment on a day.
type DaybookEntry struct {
	SourceType  string  `json:"source_type" db:"source_type"`
	SourceID    string  `json:"source_id" db:"source_id"`
	Direction   string  `json:"direction" db:"direction"`
	Reference   string  `json:"reference" db:"reference"`
	Description string  `json:"description" db:"description"`
	Amount      float64 `json:"amount" db:"amount"`
	PaymentMode string  `json:"payment_mode" db:"payment_mode"`
}

type Daybook struct {
	Date          Date            `json:"date"`
	Receipts      []*DaybookEntry `json:"receipts"`
	Payments      []*DaybookEntry `json:"payments"`
	TotalReceipts float64         `json:"total_receipts"`
	TotalPayments float64         `json:"total_payments"`
	Net           float64         `json:"net"`
}

// BuildDaybook splits entries by direction (credit = receipt) and totals them.
func BuildDaybook(date Date, entries []*DaybookEntry) *Daybook {
	d := &Daybook{
		Date:     date,
		Receipts: []*DaybookEntry{},
		Payments: []*DaybookEntry{},
	}
	for _, e := range entries {
		if e.Direction == TxnCredit {
			d.Receipts = append(d.Receipts, e)
			d.TotalReceipts += e.Amount
		} else {
			d.Payments = append(d.Payments, e)
			d.TotalPayments += e.Amount
		}
	}
	d.TotalReceipts = RoundMoney(d.TotalReceipts)
	d.TotalPayments = RoundMoney(d.TotalPayments)
	d.Net = RoundMoney(d.TotalReceipts - d.TotalPayments)
	return d
}

type BalanceSheetLine struct {
	Name   string  `json:"name" db:"name"`
	Amount float64 `json:"amount" db:"amount"`
}

type BalanceSheet struct {
	AsOf             Date                `json:"as_of"`
	Assets           []*BalanceSheetLine `json:"assets"`
	Liabilities      []*BalanceSheetLine `json:"liabilities"`
	TotalAssets      float64             `json:"total_assets"`
	TotalLiabilities float64             `json:"total_liabilities"`
	NetWorth         float64             `json:"net_worth"`
}

func (b *BalanceSheet) Settle() {
	b.TotalAssets, b.TotalLiabilities = 0, 0
	for _, l := range b.Assets {
		b.TotalAssets += l.Amount
	}
	for _, l := range b.Liabilities {
		b.TotalLiabilities += l.Amount
	}
	b.TotalAssets = RoundMoney(b.TotalAssets)
	b.TotalLiabilities = RoundMoney(b.TotalLiabilities)
	b.NetWorth = RoundMoney(b.TotalAssets - b.TotalLiabilities)
}
