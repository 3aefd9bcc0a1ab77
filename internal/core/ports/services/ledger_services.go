package services

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
)

// LedgerSvc reads the general ledger. Balances are always derived from entries.
type LedgerSvc interface {
	// ListEntriesByVoucher retrieves the entries a voucher produced.
	ListEntriesByVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccount retrieves a page of an account's entries.
	ListEntriesByAccount(ctx context.Context, organizationID, accountID string, params dto.ListLedgerEntriesParams, requestingUserID string) (*dto.ListLedgerEntriesResponse, error)

	// GetAccountBalance derives an account's balance from its entries.
	GetAccountBalance(ctx context.Context, organizationID, accountID, requestingUserID string) (*dto.AccountBalanceResponse, error)
}
