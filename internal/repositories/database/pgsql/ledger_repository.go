package pgsql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/SscSPs/voucher_posting_service/internal/models"
	"github.com/SscSPs/voucher_posting_service/internal/utils/mapping"
	"github.com/SscSPs/voucher_posting_service/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `e.entry_id, e.organization_id, e.account_id, e.voucher_id, e.line_id, e.entry_date,
	e.debit_amount, e.credit_amount, e.functional_debit, e.functional_credit, e.currency_code,
	e.exchange_rate, e.is_closing_entry, e.is_archived, e.created_at, e.created_by`

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for general ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryFacade
var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// InsertEntries appends entries inside tx as one batch.
func (r *PgxLedgerRepository) InsertEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO ledger_entries (
			entry_id, organization_id, account_id, voucher_id, line_id, entry_date,
			debit_amount, credit_amount, functional_debit, functional_credit, currency_code,
			exchange_rate, is_closing_entry, is_archived, created_at, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	for _, entry := range entries {
		m := mapping.ToModelLedgerEntry(entry)
		batch.Queue(query,
			m.EntryID,
			m.OrganizationID,
			m.AccountID,
			m.VoucherID,
			m.LineID,
			m.EntryDate,
			m.DebitAmount,
			m.CreditAmount,
			m.FunctionalDebit,
			m.FunctionalCredit,
			m.CurrencyCode,
			m.ExchangeRate,
			m.IsClosingEntry,
			m.IsArchived,
			m.CreatedAt,
			m.CreatedBy,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entries for voucher "+entries[0].VoucherID, err)
	}
	return nil
}

func scanLedgerRows(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var m models.LedgerEntry
		err := rows.Scan(
			&m.EntryID,
			&m.OrganizationID,
			&m.AccountID,
			&m.VoucherID,
			&m.LineID,
			&m.EntryDate,
			&m.DebitAmount,
			&m.CreditAmount,
			&m.FunctionalDebit,
			&m.FunctionalCredit,
			&m.CurrencyCode,
			&m.ExchangeRate,
			&m.IsClosingEntry,
			&m.IsArchived,
			&m.CreatedAt,
			&m.CreatedBy,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// ListEntriesByVoucher retrieves the entries a voucher produced, in line order.
func (r *PgxLedgerRepository) ListEntriesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries e
		LEFT JOIN voucher_lines l ON l.line_id = e.line_id
		WHERE e.organization_id = $1 AND e.voucher_id = $2
		ORDER BY l.line_number, e.entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, organizationID, voucherID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger entries for voucher "+voucherID, err)
	}
	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan ledger entries for voucher "+voucherID, err)
	}
	return mapping.ToDomainLedgerEntrySlice(entries), nil
}

// ListEntriesByAccount retrieves a page of an account's entries, newest first.
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// One extra row tells whether another page exists
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries e
		WHERE e.organization_id = $1 AND e.account_id = $2 AND NOT e.is_archived
	`
	orderByClause := `ORDER BY e.entry_date DESC, e.created_at DESC, e.entry_id DESC`
	args := []any{organizationID, accountID}

	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid nextToken: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (e.entry_date, e.created_at, e.entry_id) < ($3, $4, $5)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.ID)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query ledger entries for account "+accountID, err)
	}
	entries, err := scanLedgerRows(rows)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to scan ledger entries for account "+accountID, err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
		nextTokenVal = &token
		entries = entries[:limit]
	}

	return mapping.ToDomainLedgerEntrySlice(entries), nextTokenVal, nil
}

// SumByAccount returns the functional debit and credit totals of an account's non-archived entries.
func (r *PgxLedgerRepository) SumByAccount(ctx context.Context, organizationID, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(functional_debit), 0), COALESCE(SUM(functional_credit), 0)
		FROM ledger_entries
		WHERE organization_id = $1 AND account_id = $2 AND NOT is_archived;
	`
	var debit, credit decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, organizationID, accountID).Scan(&debit, &credit); err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewAppError(500, "failed to sum ledger entries for account "+accountID, err)
	}
	return debit, credit, nil
}
