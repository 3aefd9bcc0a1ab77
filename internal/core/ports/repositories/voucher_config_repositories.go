package repositories

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
)

// VoucherConfigReader defines read operations for voucher mode configurations
type VoucherConfigReader interface {
	// FindActiveConfig retrieves the active configuration of an organization and journal type.
	FindActiveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error)

	// FindConfigByID retrieves a configuration of an organization by ID.
	FindConfigByID(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error)
}

// VoucherConfigWriter defines write operations for voucher mode configurations
type VoucherConfigWriter interface {
	// UpsertConfig inserts or updates the configuration of (organization, journal type).
	UpsertConfig(ctx context.Context, config domain.VoucherModeConfig) error
}

// VoucherConfigRepositoryFacade combines all configuration repository interfaces
type VoucherConfigRepositoryFacade interface {
	VoucherConfigReader
	VoucherConfigWriter
}

// VoucherConfigCache is a versioned cache in front of the configuration store.
// Invalidate bumps the version for (organization, journal type) so every
// previously cached entry becomes unreachable.
type VoucherConfigCache interface {
	Get(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, bool, error)
	Set(ctx context.Context, config domain.VoucherModeConfig) error
	Invalidate(ctx context.Context, organizationID, journalType string) error
}
