package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/google/uuid"
)

// voucherConfigService resolves voucher mode configurations through a versioned cache.
type voucherConfigService struct {
	BaseService
	configRepo portsrepo.VoucherConfigRepositoryFacade
	cache      portsrepo.VoucherConfigCache
	gate       portssvc.PermissionGateSvc
}

// NewVoucherConfigService creates a VoucherConfigSvc. cache may be nil.
func NewVoucherConfigService(configRepo portsrepo.VoucherConfigRepositoryFacade, cache portsrepo.VoucherConfigCache, gate portssvc.PermissionGateSvc) portssvc.VoucherConfigSvc {
	return &voucherConfigService{configRepo: configRepo, cache: cache, gate: gate}
}

// Ensure voucherConfigService implements the VoucherConfigSvc interface
var _ portssvc.VoucherConfigSvc = (*voucherConfigService)(nil)

// ResolveConfig returns the active configuration for a journal type.
// Cache failures fall through to the repository.
func (s *voucherConfigService) ResolveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error) {
	if journalType == "" {
		return nil, apperrors.ErrNotFound
	}

	if s.cache != nil {
		cfg, ok, err := s.cache.Get(ctx, organizationID, journalType)
		if err != nil {
			s.LogError(ctx, err, "Voucher config cache read failed",
				slog.String("organization_id", organizationID),
				slog.String("journal_type", journalType))
		} else if ok {
			return cfg, nil
		}
	}

	cfg, err := s.configRepo.FindActiveConfig(ctx, organizationID, journalType)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find voucher config",
				slog.String("organization_id", organizationID),
				slog.String("journal_type", journalType))
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, *cfg); err != nil {
			s.LogError(ctx, err, "Voucher config cache write failed", slog.String("config_id", cfg.ConfigID))
		}
	}
	return cfg, nil
}

// GetActiveConfig returns the active configuration of a journal type to an organization member.
func (s *voucherConfigService) GetActiveConfig(ctx context.Context, organizationID, journalType, requestingUserID string) (*domain.VoucherModeConfig, error) {
	if err := s.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.ResolveConfig(ctx, organizationID, journalType)
}

// GetConfig retrieves a configuration by ID.
func (s *voucherConfigService) GetConfig(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error) {
	cfg, err := s.configRepo.FindConfigByID(ctx, organizationID, configID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find voucher config by ID", slog.String("config_id", configID))
		}
		return nil, err
	}
	return cfg, nil
}

// UpsertConfig creates or replaces a journal type's configuration and
// invalidates its cached versions. Only organization admins may call it.
func (s *voucherConfigService) UpsertConfig(ctx context.Context, organizationID string, req dto.UpsertVoucherConfigRequest, actorID string) (*domain.VoucherModeConfig, error) {
	if err := s.gate.AuthorizeRole(ctx, actorID, organizationID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if req.JournalType == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: journal type and name are required", apperrors.ErrValidation)
	}

	now := s.Now()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	cfg := domain.VoucherModeConfig{
		ConfigID:         uuid.NewString(),
		OrganizationID:   organizationID,
		JournalType:      req.JournalType,
		Name:             req.Name,
		RequiresApproval: req.RequiresApproval,
		AffectsInventory: req.AffectsInventory,
		IsActive:         isActive,
		AuditFields:      domain.NewAuditFields(actorID, now),
	}

	// Keep the ID of an existing row so references stay valid
	existing, err := s.configRepo.FindActiveConfig(ctx, organizationID, req.JournalType)
	switch {
	case err == nil:
		cfg.ConfigID = existing.ConfigID
		cfg.CreatedAt = existing.CreatedAt
		cfg.CreatedBy = existing.CreatedBy
	case !errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Failed to look up existing voucher config", slog.String("journal_type", req.JournalType))
		return nil, err
	}

	if err := s.configRepo.UpsertConfig(ctx, cfg); err != nil {
		s.LogError(ctx, err, "Failed to upsert voucher config", slog.String("journal_type", req.JournalType))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, organizationID, req.JournalType); err != nil {
			s.LogError(ctx, err, "Voucher config cache invalidation failed", slog.String("journal_type", req.JournalType))
		}
	}

	s.LogInfo(ctx, "Voucher config saved",
		slog.String("config_id", cfg.ConfigID),
		slog.String("journal_type", cfg.JournalType),
		slog.Bool("requires_approval", cfg.RequiresApproval),
		slog.Bool("affects_inventory", cfg.AffectsInventory))
	return &cfg, nil
}
