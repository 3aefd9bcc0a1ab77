package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting periods.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodReader {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodReader = (*PgxPeriodRepository)(nil)

// FindPeriodForDate retrieves the period covering date, share-locked when tx is set.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, tx pgx.Tx, organizationID string, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT period_id, organization_id, name, start_date, end_date, status
		FROM accounting_periods
		WHERE organization_id = $1 AND start_date <= $2::date AND end_date >= $2::date
		ORDER BY start_date DESC
		LIMIT 1
	`
	if tx != nil {
		query += ` FOR SHARE`
	}

	var p domain.AccountingPeriod
	var status string
	err := r.db(tx).QueryRow(ctx, query, organizationID, date.UTC()).Scan(
		&p.PeriodID,
		&p.OrganizationID,
		&p.Name,
		&p.StartDate,
		&p.EndDate,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find accounting period", err)
	}
	p.Status = domain.PeriodStatus(status)
	return &p, nil
}
