package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/SscSPs/voucher_posting_service/internal/models"
	"github.com/SscSPs/voucher_posting_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// oneInFlightIndex is the partial unique index allowing one PROCESSING attempt per voucher.
const oneInFlightIndex = "voucher_processes_one_in_flight"

type PgxVoucherProcessRepository struct {
	BaseRepository
}

// newPgxVoucherProcessRepository creates a new repository for orchestration attempts.
func newPgxVoucherProcessRepository(pool *pgxpool.Pool) portsrepo.VoucherProcessRepositoryFacade {
	return &PgxVoucherProcessRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxVoucherProcessRepository implements portsrepo.VoucherProcessRepositoryFacade
var _ portsrepo.VoucherProcessRepositoryFacade = (*PgxVoucherProcessRepository)(nil)

// CreateProcess inserts an attempt. voucher_id is resolved by subselect so an
// attempt against a missing voucher is still recorded under its snapshot id.
func (r *PgxVoucherProcessRepository) CreateProcess(ctx context.Context, process domain.VoucherProcess) error {
	m := mapping.ToModelVoucherProcess(process)
	query := `
		INSERT INTO voucher_processes (
			process_id, voucher_id, voucher_snapshot_id, organization_id, actor_id, commit_type,
			idempotency_key, saved_status, journal_status, gl_status, inventory_status, status,
			error_code, error_details, started_at, ended_at, duration_ms
		)
		VALUES ($1, (SELECT voucher_id FROM vouchers WHERE voucher_id = $2), $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ProcessID,
		m.VoucherSnapshotID,
		m.OrganizationID,
		m.ActorID,
		m.CommitType,
		m.IdempotencyKey,
		m.SavedStatus,
		m.JournalStatus,
		m.GLStatus,
		m.InventoryStatus,
		m.Status,
		m.ErrorCode,
		m.ErrorDetails,
		m.StartedAt,
		m.EndedAt,
		m.DurationMS,
	)
	if err != nil {
		if uniqueViolationOn(err, oneInFlightIndex) {
			return apperrors.ErrConflict
		}
		return apperrors.NewAppError(500, "failed to insert voucher process "+m.ProcessID, err)
	}
	return nil
}

// UpdateProcess persists step statuses, outcome and timing of an attempt.
func (r *PgxVoucherProcessRepository) UpdateProcess(ctx context.Context, process domain.VoucherProcess) error {
	m := mapping.ToModelVoucherProcess(process)
	query := `
		UPDATE voucher_processes
		SET saved_status = $2, journal_status = $3, gl_status = $4, inventory_status = $5, status = $6,
		    error_code = $7, error_details = $8, ended_at = $9, duration_ms = $10
		WHERE process_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.ProcessID,
		m.SavedStatus,
		m.JournalStatus,
		m.GLStatus,
		m.InventoryStatus,
		m.Status,
		m.ErrorCode,
		m.ErrorDetails,
		m.EndedAt,
		m.DurationMS,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update voucher process "+m.ProcessID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ExpireStaleProcesses fails PROCESSING attempts started before olderThan.
// In-progress steps fall back to pending and the save step carries the failure.
func (r *PgxVoucherProcessRepository) ExpireStaleProcesses(ctx context.Context, olderThan time.Time, errorCode string, now time.Time) (int64, error) {
	query := `
		UPDATE voucher_processes
		SET status = 'FAILED',
		    saved_status = 'failed',
		    journal_status = CASE WHEN journal_status = 'in_progress' THEN 'pending' ELSE journal_status END,
		    gl_status = CASE WHEN gl_status = 'in_progress' THEN 'pending' ELSE gl_status END,
		    inventory_status = CASE WHEN inventory_status = 'in_progress' THEN 'pending' ELSE inventory_status END,
		    error_code = $2,
		    error_details = 'attempt expired',
		    ended_at = $3,
		    duration_ms = GREATEST(0, (EXTRACT(EPOCH FROM ($3 - started_at)) * 1000)::bigint)
		WHERE status = 'PROCESSING' AND started_at < $1;
	`
	tag, err := r.Pool.Exec(ctx, query, olderThan, errorCode, now)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to expire stale voucher processes", err)
	}
	return tag.RowsAffected(), nil
}

// HasOtherProcessing reports whether another attempt is PROCESSING for the voucher.
func (r *PgxVoucherProcessRepository) HasOtherProcessing(ctx context.Context, tx pgx.Tx, voucherID, excludeProcessID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM voucher_processes
			WHERE voucher_snapshot_id = $1 AND process_id <> $2 AND status = 'PROCESSING'
		);
	`
	var exists bool
	if err := r.db(tx).QueryRow(ctx, query, voucherID, excludeProcessID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check in-flight processes for voucher "+voucherID, err)
	}
	return exists, nil
}

// ListProcessesByVoucher retrieves every attempt for a voucher, newest first.
func (r *PgxVoucherProcessRepository) ListProcessesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.VoucherProcess, error) {
	query := `
		SELECT process_id, voucher_id, voucher_snapshot_id, organization_id, actor_id, commit_type,
		       idempotency_key, saved_status, journal_status, gl_status, inventory_status, status,
		       error_code, error_details, started_at, ended_at, duration_ms
		FROM voucher_processes
		WHERE organization_id = $1 AND voucher_snapshot_id = $2
		ORDER BY started_at DESC, process_id;
	`
	rows, err := r.Pool.Query(ctx, query, organizationID, voucherID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query processes for voucher "+voucherID, err)
	}
	defer rows.Close()

	processes := []domain.VoucherProcess{}
	for rows.Next() {
		var m models.VoucherProcess
		err := rows.Scan(
			&m.ProcessID,
			&m.VoucherID,
			&m.VoucherSnapshotID,
			&m.OrganizationID,
			&m.ActorID,
			&m.CommitType,
			&m.IdempotencyKey,
			&m.SavedStatus,
			&m.JournalStatus,
			&m.GLStatus,
			&m.InventoryStatus,
			&m.Status,
			&m.ErrorCode,
			&m.ErrorDetails,
			&m.StartedAt,
			&m.EndedAt,
			&m.DurationMS,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan process row for voucher "+voucherID, err)
		}
		processes = append(processes, mapping.ToDomainVoucherProcess(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating process rows for voucher "+voucherID, err)
	}
	return processes, nil
}
