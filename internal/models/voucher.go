package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher represents a voucher header row. Metadata is stored as JSONB.
type Voucher struct {
	VoucherID      string          `db:"voucher_id"`
	OrganizationID string          `db:"organization_id"`
	JournalType    string          `db:"journal_type"`
	PeriodID       *string         `db:"period_id"`
	VoucherDate    time.Time       `db:"voucher_date"`
	Description    string          `db:"description"`
	CurrencyCode   string          `db:"currency_code"`
	ExchangeRate   decimal.Decimal `db:"exchange_rate"`
	Status         string          `db:"status"`
	TotalDebit     decimal.Decimal `db:"total_debit"`
	TotalCredit    decimal.Decimal `db:"total_credit"`
	IdempotencyKey *string         `db:"idempotency_key"`
	Metadata       []byte          `db:"metadata"`
	ApprovedBy     *string         `db:"approved_by"`
	ApprovedAt     *time.Time      `db:"approved_at"`
	PostedBy       *string         `db:"posted_by"`
	PostedAt       *time.Time      `db:"posted_at"`
	ReversalOfID   *string         `db:"reversal_of_id"`
	ReversedByID   *string         `db:"reversed_by_id"`
	AuditFields
}

// VoucherLine represents a voucher line row.
type VoucherLine struct {
	LineID       string          `db:"line_id"`
	VoucherID    string          `db:"voucher_id"`
	LineNumber   int             `db:"line_number"`
	AccountID    string          `db:"account_id"`
	Description  string          `db:"description"`
	DebitAmount  decimal.Decimal `db:"debit_amount"`
	CreditAmount decimal.Decimal `db:"credit_amount"`
	CurrencyCode string          `db:"currency_code"`
	ExchangeRate decimal.Decimal `db:"exchange_rate"`
	CostCenterID *string         `db:"cost_center_id"`
	DepartmentID *string         `db:"department_id"`
	ProjectID    *string         `db:"project_id"`
	TaxCodeID    *string         `db:"tax_code_id"`
}
