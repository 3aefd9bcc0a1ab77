package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherStatus indicates where a voucher is in its posting lifecycle.
type VoucherStatus string

const (
	VoucherDraft            VoucherStatus = "DRAFT"
	VoucherAwaitingApproval VoucherStatus = "AWAITING_APPROVAL"
	VoucherApproved         VoucherStatus = "APPROVED"
	VoucherPosted           VoucherStatus = "POSTED" // Terminal, immutable
	VoucherRejected         VoucherStatus = "REJECTED"
)

// IsEditable reports whether header and lines may still be changed.
func (s VoucherStatus) IsEditable() bool {
	return s == VoucherDraft || s == VoucherRejected
}

// CommitType is the intent a caller expresses when processing a voucher.
type CommitType string

const (
	CommitSave   CommitType = "save"
	CommitSubmit CommitType = "submit"
	CommitPost   CommitType = "post"
)

// IsValid reports whether c is a known commit type.
func (c CommitType) IsValid() bool {
	switch c {
	case CommitSave, CommitSubmit, CommitPost:
		return true
	}
	return false
}

// Metadata keys understood by the pipeline.
const (
	MetadataInventoryTransactions = "inventory_transactions"
	MetadataClosingEntry          = "closing_entry"
)

// Voucher is the header of one double-entry accounting transaction.
type Voucher struct {
	VoucherID      string          `json:"voucherID"`
	OrganizationID string          `json:"organizationID"`
	JournalType    string          `json:"journalType"` // e.g. GENERAL, SALES, PURCHASE
	PeriodID       *string         `json:"periodID"`    // Stamped at posting time
	VoucherDate    time.Time       `json:"voucherDate"`
	Description    string          `json:"description"`
	CurrencyCode   string          `json:"currencyCode"`
	ExchangeRate   decimal.Decimal `json:"exchangeRate"` // Voucher currency -> functional currency
	Status         VoucherStatus   `json:"status"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	IdempotencyKey *string         `json:"idempotencyKey"` // Set once, then immutable
	Metadata       map[string]any  `json:"metadata"`
	ApprovedBy     *string         `json:"approvedBy"`
	ApprovedAt     *time.Time      `json:"approvedAt"`
	PostedBy       *string         `json:"postedBy"`
	PostedAt       *time.Time      `json:"postedAt"`
	ReversalOfID   *string         `json:"reversalOfID"` // Set on a reversing voucher
	ReversedByID   *string         `json:"reversedByID"` // Set on the voucher that was reversed
	Lines          []VoucherLine   `json:"lines"`
	AuditFields
}

// IsClosingEntry reports whether the voucher is tagged as a period closing entry.
func (v *Voucher) IsClosingEntry() bool {
	if v.Metadata == nil {
		return false
	}
	flag, ok := v.Metadata[MetadataClosingEntry].(bool)
	return ok && flag
}

// RecalculateTotals sums the line amounts into TotalDebit and TotalCredit.
func (v *Voucher) RecalculateTotals() {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range v.Lines {
		debit = debit.Add(l.DebitAmount)
		credit = credit.Add(l.CreditAmount)
	}
	v.TotalDebit = debit
	v.TotalCredit = credit
}

// VoucherLine is a single debit or credit entry of a voucher.
type VoucherLine struct {
	LineID       string          `json:"lineID"`
	VoucherID    string          `json:"voucherID"`
	LineNumber   int             `json:"lineNumber"` // Unique ordering within the voucher
	AccountID    string          `json:"accountID"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	CostCenterID *string         `json:"costCenterID"`
	DepartmentID *string         `json:"departmentID"`
	ProjectID    *string         `json:"projectID"`
	TaxCodeID    *string         `json:"taxCodeID"`
}

// IsPlaceholder reports whether both sides are zero.
func (l VoucherLine) IsPlaceholder() bool {
	return l.DebitAmount.IsZero() && l.CreditAmount.IsZero()
}

// VoucherModeConfig is the per organization and journal type behaviour switchboard.
type VoucherModeConfig struct {
	ConfigID         string `json:"configID"`
	OrganizationID   string `json:"organizationID"`
	JournalType      string `json:"journalType"`
	Name             string `json:"name"`
	RequiresApproval bool   `json:"requiresApproval"`
	AffectsInventory bool   `json:"affectsInventory"`
	IsActive         bool   `json:"isActive"`
	AuditFields
}
