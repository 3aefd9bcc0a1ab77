package repositories

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerReader defines read operations for general ledger entries
type LedgerReader interface {
	// ListEntriesByVoucher retrieves the entries a voucher produced, in line order.
	ListEntriesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccount retrieves a page of an account's entries, newest first, using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntriesByAccount(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// SumByAccount returns the functional debit and credit totals of an account's non-archived entries.
	SumByAccount(ctx context.Context, organizationID, accountID string) (decimal.Decimal, decimal.Decimal, error)
}

// LedgerWriter defines the only write the ledger accepts: appending entries.
type LedgerWriter interface {
	// InsertEntries appends entries inside the caller's transaction.
	InsertEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
