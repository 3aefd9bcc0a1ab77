package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/SscSPs/voucher_posting_service/internal/models"
	"github.com/SscSPs/voucher_posting_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	voucherColumns = `voucher_id, organization_id, journal_type, period_id, voucher_date, description,
		currency_code, exchange_rate, status, total_debit, total_credit, idempotency_key, metadata,
		approved_by, approved_at, posted_by, posted_at, reversal_of_id, reversed_by_id,
		created_at, created_by, last_updated_at, last_updated_by`

	voucherLineColumns = `line_id, voucher_id, line_number, account_id, description, debit_amount, credit_amount,
		currency_code, exchange_rate, cost_center_id, department_id, project_id, tax_code_id`

	voucherIdempotencyIndex = "vouchers_org_idempotency_key"
)

type PgxVoucherRepository struct {
	BaseRepository
}

// newPgxVoucherRepository creates a new repository for voucher headers and lines.
func newPgxVoucherRepository(pool *pgxpool.Pool) portsrepo.VoucherRepositoryWithTx {
	return &PgxVoucherRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxVoucherRepository implements portsrepo.VoucherRepositoryWithTx
var _ portsrepo.VoucherRepositoryWithTx = (*PgxVoucherRepository)(nil)

func scanVoucher(row pgx.Row) (models.Voucher, error) {
	var m models.Voucher
	err := row.Scan(
		&m.VoucherID,
		&m.OrganizationID,
		&m.JournalType,
		&m.PeriodID,
		&m.VoucherDate,
		&m.Description,
		&m.CurrencyCode,
		&m.ExchangeRate,
		&m.Status,
		&m.TotalDebit,
		&m.TotalCredit,
		&m.IdempotencyKey,
		&m.Metadata,
		&m.ApprovedBy,
		&m.ApprovedAt,
		&m.PostedBy,
		&m.PostedAt,
		&m.ReversalOfID,
		&m.ReversedByID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// findOne runs a single-voucher query on q and loads the lines with the same querier.
func (r *PgxVoucherRepository) findOne(ctx context.Context, q querier, query string, args ...any) (*domain.Voucher, error) {
	m, err := scanVoucher(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to read voucher", err)
	}

	lines, err := r.loadLines(ctx, q, m.VoucherID)
	if err != nil {
		return nil, err
	}

	v, err := mapping.ToDomainVoucher(m, lines)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to map voucher "+m.VoucherID, err)
	}
	return &v, nil
}

func (r *PgxVoucherRepository) loadLines(ctx context.Context, q querier, voucherID string) ([]models.VoucherLine, error) {
	query := `SELECT ` + voucherLineColumns + ` FROM voucher_lines WHERE voucher_id = $1 ORDER BY line_number;`
	rows, err := q.Query(ctx, query, voucherID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for voucher "+voucherID, err)
	}
	defer rows.Close()

	lines := []models.VoucherLine{}
	for rows.Next() {
		var l models.VoucherLine
		err := rows.Scan(
			&l.LineID,
			&l.VoucherID,
			&l.LineNumber,
			&l.AccountID,
			&l.Description,
			&l.DebitAmount,
			&l.CreditAmount,
			&l.CurrencyCode,
			&l.ExchangeRate,
			&l.CostCenterID,
			&l.DepartmentID,
			&l.ProjectID,
			&l.TaxCodeID,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for voucher "+voucherID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for voucher "+voucherID, err)
	}
	return lines, nil
}

// FindVoucherByID retrieves a voucher of an organization with its lines.
func (r *PgxVoucherRepository) FindVoucherByID(ctx context.Context, organizationID, voucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1 AND organization_id = $2;`
	return r.findOne(ctx, r.Pool, query, voucherID, organizationID)
}

// FindVoucherByIdempotencyKey retrieves the voucher that carries key.
func (r *PgxVoucherRepository) FindVoucherByIdempotencyKey(ctx context.Context, organizationID, key string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE organization_id = $1 AND idempotency_key = $2;`
	return r.findOne(ctx, r.Pool, query, organizationID, key)
}

// LockVoucherForUpdate reads a voucher holding its row lock until tx ends.
func (r *PgxVoucherRepository) LockVoucherForUpdate(ctx context.Context, tx pgx.Tx, voucherID string) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1 FOR UPDATE;`
	return r.findOne(ctx, tx, query, voucherID)
}

// SaveVoucher inserts a voucher header and its lines.
func (r *PgxVoucherRepository) SaveVoucher(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	m, err := mapping.ToModelVoucher(voucher)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map voucher "+voucher.VoucherID, err)
	}

	query := `
		INSERT INTO vouchers (` + voucherColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23);
	`
	_, err = tx.Exec(ctx, query,
		m.VoucherID,
		m.OrganizationID,
		m.JournalType,
		m.PeriodID,
		m.VoucherDate,
		m.Description,
		m.CurrencyCode,
		m.ExchangeRate,
		m.Status,
		m.TotalDebit,
		m.TotalCredit,
		m.IdempotencyKey,
		m.Metadata,
		m.ApprovedBy,
		m.ApprovedAt,
		m.PostedBy,
		m.PostedAt,
		m.ReversalOfID,
		m.ReversedByID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if uniqueViolationOn(err, voucherIdempotencyIndex) {
			return apperrors.ErrConflict
		}
		return apperrors.NewAppError(500, "failed to insert voucher "+m.VoucherID, err)
	}

	return r.insertLines(ctx, tx, voucher.VoucherID, voucher.Lines)
}

func (r *PgxVoucherRepository) insertLines(ctx context.Context, tx pgx.Tx, voucherID string, lines []domain.VoucherLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	query := `
		INSERT INTO voucher_lines (` + voucherLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, line := range lines {
		l := mapping.ToModelVoucherLine(line)
		batch.Queue(query,
			l.LineID,
			voucherID,
			l.LineNumber,
			l.AccountID,
			l.Description,
			l.DebitAmount,
			l.CreditAmount,
			l.CurrencyCode,
			l.ExchangeRate,
			l.CostCenterID,
			l.DepartmentID,
			l.ProjectID,
			l.TaxCodeID,
		)
	}

	// Close reports the first failed statement of the batch
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for voucher "+voucherID, err)
	}
	return nil
}

// ReplaceVoucherLines rewrites an editable voucher's header and replaces all of its lines.
func (r *PgxVoucherRepository) ReplaceVoucherLines(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	m, err := mapping.ToModelVoucher(voucher)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map voucher "+voucher.VoucherID, err)
	}

	query := `
		UPDATE vouchers
		SET journal_type = $2, voucher_date = $3, description = $4, currency_code = $5, exchange_rate = $6,
		    status = $7, total_debit = $8, total_credit = $9, metadata = $10,
		    last_updated_at = $11, last_updated_by = $12
		WHERE voucher_id = $1 AND status IN ('DRAFT', 'REJECTED');
	`
	tag, err := tx.Exec(ctx, query,
		m.VoucherID,
		m.JournalType,
		m.VoucherDate,
		m.Description,
		m.CurrencyCode,
		m.ExchangeRate,
		m.Status,
		m.TotalDebit,
		m.TotalCredit,
		m.Metadata,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update voucher "+m.VoucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM voucher_lines WHERE voucher_id = $1;`, m.VoucherID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines for voucher "+m.VoucherID, err)
	}
	return r.insertLines(ctx, tx, voucher.VoucherID, voucher.Lines)
}

// DeleteDraftVoucher removes an editable voucher. Lines go with it; attempts keep their snapshot id.
func (r *PgxVoucherRepository) DeleteDraftVoucher(ctx context.Context, tx pgx.Tx, organizationID, voucherID string) error {
	query := `DELETE FROM vouchers WHERE voucher_id = $1 AND organization_id = $2 AND status IN ('DRAFT', 'REJECTED');`
	tag, err := tx.Exec(ctx, query, voucherID, organizationID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete voucher "+voucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateVoucherStatus persists status, period, metadata, approval and posting stamps.
func (r *PgxVoucherRepository) UpdateVoucherStatus(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	metadata, err := mapping.EncodeMetadata(voucher.Metadata)
	if err != nil {
		return apperrors.NewAppError(500, "failed to map voucher "+voucher.VoucherID, err)
	}

	query := `
		UPDATE vouchers
		SET status = $2, period_id = $3, metadata = $4, approved_by = $5, approved_at = $6,
		    posted_by = $7, posted_at = $8, total_debit = $9, total_credit = $10,
		    last_updated_at = $11, last_updated_by = $12
		WHERE voucher_id = $1;
	`
	tag, err := tx.Exec(ctx, query,
		voucher.VoucherID,
		string(voucher.Status),
		voucher.PeriodID,
		metadata,
		voucher.ApprovedBy,
		voucher.ApprovedAt,
		voucher.PostedBy,
		voucher.PostedAt,
		voucher.TotalDebit,
		voucher.TotalCredit,
		voucher.LastUpdatedAt,
		voucher.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of voucher "+voucher.VoucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetIdempotencyKey stamps key on a voucher that has none yet.
func (r *PgxVoucherRepository) SetIdempotencyKey(ctx context.Context, tx pgx.Tx, voucherID, key string) error {
	query := `UPDATE vouchers SET idempotency_key = $2 WHERE voucher_id = $1 AND idempotency_key IS NULL;`
	tag, err := tx.Exec(ctx, query, voucherID, key)
	if err != nil {
		if uniqueViolationOn(err, voucherIdempotencyIndex) {
			return apperrors.ErrConflict
		}
		return apperrors.NewAppError(500, "failed to set idempotency key on voucher "+voucherID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// MarkReversed links a posted voucher to the voucher that reverses it.
func (r *PgxVoucherRepository) MarkReversed(ctx context.Context, tx pgx.Tx, voucherID, reversedByID, actorID string, now time.Time) error {
	query := `
		UPDATE vouchers
		SET reversed_by_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE voucher_id = $1 AND reversed_by_id IS NULL;
	`
	tag, err := tx.Exec(ctx, query, voucherID, reversedByID, now, actorID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark voucher "+voucherID+" reversed", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}
