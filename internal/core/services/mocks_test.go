package services_test

import (
	"context"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockPermissionReader is a mock type for the PermissionReader interface
type MockPermissionReader struct {
	mock.Mock
}

func (m *MockPermissionReader) HasPermission(ctx context.Context, actorID, organizationID, permissionCode string) (bool, error) {
	args := m.Called(ctx, actorID, organizationID, permissionCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionReader) FindMemberRole(ctx context.Context, actorID, organizationID string) (domain.OrganizationRole, error) {
	args := m.Called(ctx, actorID, organizationID)
	return args.Get(0).(domain.OrganizationRole), args.Error(1)
}

// MockVoucherConfigRepository is a mock type for the VoucherConfigRepositoryFacade interface
type MockVoucherConfigRepository struct {
	mock.Mock
}

func (m *MockVoucherConfigRepository) FindActiveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, journalType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

func (m *MockVoucherConfigRepository) FindConfigByID(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

func (m *MockVoucherConfigRepository) UpsertConfig(ctx context.Context, config domain.VoucherModeConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

// MockVoucherConfigCache is a mock type for the VoucherConfigCache interface
type MockVoucherConfigCache struct {
	mock.Mock
}

func (m *MockVoucherConfigCache) Get(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, bool, error) {
	args := m.Called(ctx, organizationID, journalType)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Bool(1), args.Error(2)
}

func (m *MockVoucherConfigCache) Set(ctx context.Context, config domain.VoucherModeConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func (m *MockVoucherConfigCache) Invalidate(ctx context.Context, organizationID, journalType string) error {
	args := m.Called(ctx, organizationID, journalType)
	return args.Error(0)
}
