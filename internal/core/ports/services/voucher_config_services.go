package services

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
)

// VoucherConfigSvc resolves and maintains voucher mode configurations.
type VoucherConfigSvc interface {
	// ResolveConfig returns the active configuration of a journal type, or apperrors.ErrNotFound.
	ResolveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error)

	// GetActiveConfig is ResolveConfig for a caller that must be a member of organizationID.
	GetActiveConfig(ctx context.Context, organizationID, journalType, requestingUserID string) (*domain.VoucherModeConfig, error)

	// GetConfig retrieves a configuration by ID.
	GetConfig(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error)

	// UpsertConfig creates or replaces the configuration of a journal type.
	UpsertConfig(ctx context.Context, organizationID string, req dto.UpsertVoucherConfigRequest, actorID string) (*domain.VoucherModeConfig, error)
}
