package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// PeriodReader defines read operations for accounting periods
type PeriodReader interface {
	// FindPeriodForDate retrieves the period covering date. When tx is not nil
	// the row is share-locked so it cannot be closed until tx ends.
	// Returns apperrors.ErrNotFound when no period covers the date.
	FindPeriodForDate(ctx context.Context, tx pgx.Tx, organizationID string, date time.Time) (*domain.AccountingPeriod, error)
}
