package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const configColumns = `config_id, organization_id, journal_type, name, requires_approval, affects_inventory, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxVoucherConfigRepository struct {
	BaseRepository
}

// newPgxVoucherConfigRepository creates a new repository for voucher mode configurations.
func newPgxVoucherConfigRepository(pool *pgxpool.Pool) portsrepo.VoucherConfigRepositoryFacade {
	return &PgxVoucherConfigRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.VoucherConfigRepositoryFacade = (*PgxVoucherConfigRepository)(nil)

func (r *PgxVoucherConfigRepository) findOne(ctx context.Context, query string, args ...any) (*domain.VoucherModeConfig, error) {
	var c domain.VoucherModeConfig
	err := r.Pool.QueryRow(ctx, query, args...).Scan(
		&c.ConfigID,
		&c.OrganizationID,
		&c.JournalType,
		&c.Name,
		&c.RequiresApproval,
		&c.AffectsInventory,
		&c.IsActive,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to read voucher config", err)
	}
	return &c, nil
}

// FindActiveConfig retrieves the active configuration of an organization and journal type.
func (r *PgxVoucherConfigRepository) FindActiveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error) {
	query := `SELECT ` + configColumns + ` FROM voucher_mode_configs
		WHERE organization_id = $1 AND journal_type = $2 AND is_active;`
	return r.findOne(ctx, query, organizationID, journalType)
}

// FindConfigByID retrieves a configuration by ID.
func (r *PgxVoucherConfigRepository) FindConfigByID(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error) {
	query := `SELECT ` + configColumns + ` FROM voucher_mode_configs WHERE config_id = $1 AND organization_id = $2;`
	return r.findOne(ctx, query, configID, organizationID)
}

// UpsertConfig inserts the configuration of (organization, journal type) or replaces its settings.
func (r *PgxVoucherConfigRepository) UpsertConfig(ctx context.Context, config domain.VoucherModeConfig) error {
	query := `
		INSERT INTO voucher_mode_configs (` + configColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (organization_id, journal_type) DO UPDATE
		SET name = EXCLUDED.name,
		    requires_approval = EXCLUDED.requires_approval,
		    affects_inventory = EXCLUDED.affects_inventory,
		    is_active = EXCLUDED.is_active,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		config.ConfigID,
		config.OrganizationID,
		config.JournalType,
		config.Name,
		config.RequiresApproval,
		config.AffectsInventory,
		config.IsActive,
		config.CreatedAt,
		config.CreatedBy,
		config.LastUpdatedAt,
		config.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to upsert voucher config for "+config.JournalType, err)
	}
	return nil
}
