package repositories

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account of an organization.
	FindAccountByID(ctx context.Context, organizationID, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves the organization's accounts among accountIDs, keyed by ID.
	// Missing IDs are simply absent from the map. tx may be nil to read outside a transaction.
	FindAccountsByIDs(ctx context.Context, tx pgx.Tx, organizationID string, accountIDs []string) (map[string]domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
}
