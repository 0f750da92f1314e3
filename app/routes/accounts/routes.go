package accounts

import (
	"campus-management/app/routes/auth"
	"campus-management/app/services/activity"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// SetupAccountsRoutes mounts account management and the accounting reports.
// startMonth is the month an academic year begins in.
func SetupAccountsRoutes(router fiber.Router, db *sqlx.DB, audit activity.Logger, startMonth int) {
	h := &handler{db: db, audit: audit, startMonth: startMonth}

	read := auth.Require(auth.Read(auth.ModuleAccounts))
	write := auth.Require(auth.Write(auth.ModuleAccounts))

	accounts := router.Group("/accounts")
	accounts.Get("/", read, h.GetAccountsAPI)
	accounts.Post("/", write, h.CreateAccountAPI)
	accounts.Get("/:id", read, h.GetAccountAPI)
	accounts.Put("/:id", write, h.UpdateAccountAPI)
	accounts.Patch("/:id/status", write, h.UpdateAccountStatusAPI)
	accounts.Delete("/:id", write, h.DeleteAccountAPI)
	accounts.Get("/:id/transactions", read, h.GetTransactionsAPI)
	accounts.Post("/:id/transactions", write, h.CreateTransactionAPI)
	accounts.Delete("/:id/transactions/:txnId", write, h.DeleteTransactionAPI)

	accounting := router.Group("/accounting", read)
	accounting.Get("/daybook", h.GetDaybookAPI)
	accounting.Get("/ledger/:accountId", h.GetLedgerAPI)
	accounting.Get("/balance-sheet", h.GetBalanceSheetAPI)
	accounting.Get("/annual-report", h.GetAnnualReportAPI)
}
