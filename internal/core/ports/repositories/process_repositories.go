package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// VoucherProcessWriter persists attempt records. Both methods write through the
// pool, outside any business transaction, so the record survives a rollback.
type VoucherProcessWriter interface {
	// CreateProcess inserts an attempt. Returns apperrors.ErrConflict when a
	// PROCESSING attempt already exists for the same voucher.
	CreateProcess(ctx context.Context, process domain.VoucherProcess) error

	// UpdateProcess persists step statuses, outcome and timing of an attempt.
	UpdateProcess(ctx context.Context, process domain.VoucherProcess) error

	// ExpireStaleProcesses fails PROCESSING attempts started before olderThan with errorCode.
	ExpireStaleProcesses(ctx context.Context, olderThan time.Time, errorCode string, now time.Time) (int64, error)
}

// VoucherProcessReader defines read operations for attempt records
type VoucherProcessReader interface {
	// HasOtherProcessing reports whether an attempt other than excludeProcessID is PROCESSING for the voucher.
	HasOtherProcessing(ctx context.Context, tx pgx.Tx, voucherID, excludeProcessID string) (bool, error)

	// ListProcessesByVoucher retrieves every attempt for a voucher, newest first.
	ListProcessesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.VoucherProcess, error)
}

// VoucherProcessRepositoryFacade combines all attempt-related repository interfaces
type VoucherProcessRepositoryFacade interface {
	VoucherProcessWriter
	VoucherProcessReader
}
