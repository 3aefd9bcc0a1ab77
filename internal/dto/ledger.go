package dto

import (
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListLedgerEntriesParams defines query parameters for listing an account's entries.
type ListLedgerEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListLedgerEntriesResponse wraps a page of ledger entries.
type ListLedgerEntriesResponse struct {
	Entries   []domain.LedgerEntry `json:"entries"`
	NextToken *string              `json:"nextToken,omitempty"`
}

// AccountBalanceResponse defines the derived balance of an account.
type AccountBalanceResponse struct {
	AccountID   string             `json:"accountID"`
	AccountType domain.AccountType `json:"accountType"`
	TotalDebit  decimal.Decimal    `json:"totalDebit"`
	TotalCredit decimal.Decimal    `json:"totalCredit"`
	Balance     decimal.Decimal    `json:"balance"`
}
