package services

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/jackc/pgx/v5"
)

// ProcessRequest carries one orchestration call.
type ProcessRequest struct {
	OrganizationID string
	VoucherID      string
	CommitType     domain.CommitType
	ActorID        string
	IdempotencyKey *string
	Config         *domain.VoucherModeConfig // Resolved from the journal type when nil
}

// VoucherProcessorSvc drives vouchers through draft, approval and posting.
type VoucherProcessorSvc interface {
	// Process advances a voucher according to commitType, recording one attempt.
	Process(ctx context.Context, req ProcessRequest) (*domain.Voucher, error)

	// CreateAndProcess builds a voucher and immediately processes it with the commit type derived from the action.
	CreateAndProcess(ctx context.Context, organizationID string, req dto.CreateAndProcessRequest, actorID string, idempotencyKey *string) (*domain.Voucher, error)

	// RejectVoucher sends a voucher awaiting approval back as REJECTED.
	RejectVoucher(ctx context.Context, organizationID, voucherID, actorID, reason string) (*domain.Voucher, error)

	// ReverseVoucher creates and posts a mirror voucher that cancels a posted one.
	ReverseVoucher(ctx context.Context, organizationID, voucherID, actorID string) (*domain.Voucher, error)

	// ExpireStaleProcesses fails attempts left PROCESSING for longer than olderThan.
	ExpireStaleProcesses(ctx context.Context, olderThan time.Duration) (int64, error)
}

// VoucherReaderSvc defines read operations for vouchers and their attempts
type VoucherReaderSvc interface {
	// GetVoucher retrieves a voucher with its lines.
	GetVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) (*domain.Voucher, error)

	// ListProcesses retrieves the attempt history of a voucher.
	ListProcesses(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.VoucherProcess, error)
}

// VoucherSvcFacade combines all voucher-related service interfaces
type VoucherSvcFacade interface {
	VoucherProcessorSvc
	VoucherReaderSvc
}

// VoucherBuilderSvc constructs and edits draft vouchers.
type VoucherBuilderSvc interface {
	// CreateVoucherTransaction validates the request shape and saves a new voucher,
	// or rewrites an editable one when req.VoucherID is set.
	CreateVoucherTransaction(ctx context.Context, organizationID string, req dto.CreateVoucherRequest, actorID string) (*domain.Voucher, error)

	// DeleteDraft removes an editable voucher and its lines.
	DeleteDraft(ctx context.Context, organizationID, voucherID, actorID string) error
}

// PostingEngineSvc is the single producer of general ledger entries.
type PostingEngineSvc interface {
	// Post writes the ledger entries of voucher inside tx and returns it in POSTED state.
	Post(ctx context.Context, tx pgx.Tx, voucher *domain.Voucher, actorID string) (*domain.Voucher, error)
}

// InventoryValidatorSvc checks inventory metadata of inventory-affecting vouchers.
type InventoryValidatorSvc interface {
	// ValidateInventoryMetadata is a no-op unless config affects inventory.
	ValidateInventoryMetadata(voucher *domain.Voucher, config *domain.VoucherModeConfig) error

	// DecodeInventoryTransactions parses the typed transactions from voucher metadata.
	DecodeInventoryTransactions(voucher *domain.Voucher) ([]domain.InventoryTransaction, error)
}

// PermissionGateSvc answers capability and membership checks.
type PermissionGateSvc interface {
	// CanPerform never returns an error; a failed lookup reads as a denial.
	CanPerform(ctx context.Context, actorID, organizationID, domain, resource, action string) bool

	// AuthorizeRole fails unless actorID is a member of organizationID holding
	// required or a higher role. Membership is read on every call.
	AuthorizeRole(ctx context.Context, actorID, organizationID string, required domain.OrganizationRole) error
}

// VoucherTaskEnqueuer hands processing requests to the background worker.
type VoucherTaskEnqueuer interface {
	// EnqueueProcess queues req and returns the task ID.
	EnqueueProcess(ctx context.Context, req ProcessRequest) (string, error)
}
