package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry represents a general ledger row. Rows are never updated.
type LedgerEntry struct {
	EntryID          string          `db:"entry_id"`
	OrganizationID   string          `db:"organization_id"`
	AccountID        string          `db:"account_id"`
	VoucherID        string          `db:"voucher_id"`
	LineID           string          `db:"line_id"`
	EntryDate        time.Time       `db:"entry_date"`
	DebitAmount      decimal.Decimal `db:"debit_amount"`
	CreditAmount     decimal.Decimal `db:"credit_amount"`
	FunctionalDebit  decimal.Decimal `db:"functional_debit"`
	FunctionalCredit decimal.Decimal `db:"functional_credit"`
	CurrencyCode     string          `db:"currency_code"`
	ExchangeRate     decimal.Decimal `db:"exchange_rate"`
	IsClosingEntry   bool            `db:"is_closing_entry"`
	IsArchived       bool            `db:"is_archived"`
	CreatedAt        time.Time       `db:"created_at"`
	CreatedBy        string          `db:"created_by"`
}
