package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// VoucherReader defines read operations for voucher data
type VoucherReader interface {
	// FindVoucherByID retrieves a voucher of an organization with its lines.
	FindVoucherByID(ctx context.Context, organizationID, voucherID string) (*domain.Voucher, error)

	// FindVoucherByIdempotencyKey retrieves the voucher that carries key, if any.
	FindVoucherByIdempotencyKey(ctx context.Context, organizationID, key string) (*domain.Voucher, error)
}

// VoucherWriter defines write operations for voucher data. Every method runs
// inside the caller's transaction.
type VoucherWriter interface {
	// SaveVoucher inserts a new voucher header and its lines.
	SaveVoucher(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error

	// ReplaceVoucherLines updates an editable voucher's header and replaces all of its lines.
	ReplaceVoucherLines(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error

	// DeleteDraftVoucher removes an editable voucher and its lines.
	DeleteDraftVoucher(ctx context.Context, tx pgx.Tx, organizationID, voucherID string) error
}

// VoucherLocker defines the row-locked operations the orchestrator performs.
type VoucherLocker interface {
	// LockVoucherForUpdate reads the voucher and its lines holding a row lock until tx ends.
	LockVoucherForUpdate(ctx context.Context, tx pgx.Tx, voucherID string) (*domain.Voucher, error)

	// UpdateVoucherStatus persists status, period, approval and posting stamps.
	UpdateVoucherStatus(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error

	// SetIdempotencyKey stamps key on a voucher that has none yet.
	// Returns apperrors.ErrConflict when another voucher already owns the key.
	SetIdempotencyKey(ctx context.Context, tx pgx.Tx, voucherID, key string) error

	// MarkReversed links a posted voucher to the voucher that reverses it.
	// Returns apperrors.ErrConflict when the voucher is already reversed.
	MarkReversed(ctx context.Context, tx pgx.Tx, voucherID, reversedByID, actorID string, now time.Time) error
}

// VoucherRepositoryFacade combines all voucher-related repository interfaces
type VoucherRepositoryFacade interface {
	VoucherReader
	VoucherWriter
	VoucherLocker
}

// VoucherRepositoryWithTx extends VoucherRepositoryFacade with transaction capabilities
type VoucherRepositoryWithTx interface {
	VoucherRepositoryFacade
	TransactionManager
}
