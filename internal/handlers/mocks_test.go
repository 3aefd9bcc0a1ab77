package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock VoucherService ---
type MockVoucherService struct {
	mock.Mock
}

func (m *MockVoucherService) Process(ctx context.Context, req portssvc.ProcessRequest) (*domain.Voucher, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherService) CreateAndProcess(ctx context.Context, organizationID string, req dto.CreateAndProcessRequest, actorID string, idempotencyKey *string) (*domain.Voucher, error) {
	args := m.Called(ctx, organizationID, req, actorID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherService) RejectVoucher(ctx context.Context, organizationID, voucherID, actorID, reason string) (*domain.Voucher, error) {
	args := m.Called(ctx, organizationID, voucherID, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherService) ReverseVoucher(ctx context.Context, organizationID, voucherID, actorID string) (*domain.Voucher, error) {
	args := m.Called(ctx, organizationID, voucherID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherService) ExpireStaleProcesses(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherService) GetVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) (*domain.Voucher, error) {
	args := m.Called(ctx, organizationID, voucherID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherService) ListProcesses(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.VoucherProcess, error) {
	args := m.Called(ctx, organizationID, voucherID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VoucherProcess), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.VoucherSvcFacade = (*MockVoucherService)(nil)

// --- Mock VoucherBuilder ---
type MockVoucherBuilder struct {
	mock.Mock
}

func (m *MockVoucherBuilder) CreateVoucherTransaction(ctx context.Context, organizationID string, req dto.CreateVoucherRequest, actorID string) (*domain.Voucher, error) {
	args := m.Called(ctx, organizationID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voucher), args.Error(1)
}

func (m *MockVoucherBuilder) DeleteDraft(ctx context.Context, organizationID, voucherID, actorID string) error {
	args := m.Called(ctx, organizationID, voucherID, actorID)
	return args.Error(0)
}

var _ portssvc.VoucherBuilderSvc = (*MockVoucherBuilder)(nil)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ListEntriesByVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, organizationID, voucherID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerService) ListEntriesByAccount(ctx context.Context, organizationID, accountID string, params dto.ListLedgerEntriesParams, requestingUserID string) (*dto.ListLedgerEntriesResponse, error) {
	args := m.Called(ctx, organizationID, accountID, params, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListLedgerEntriesResponse), args.Error(1)
}

func (m *MockLedgerService) GetAccountBalance(ctx context.Context, organizationID, accountID, requestingUserID string) (*dto.AccountBalanceResponse, error) {
	args := m.Called(ctx, organizationID, accountID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AccountBalanceResponse), args.Error(1)
}

var _ portssvc.LedgerSvc = (*MockLedgerService)(nil)

// --- Mock Enqueuer ---
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueProcess(ctx context.Context, req portssvc.ProcessRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var _ portssvc.VoucherTaskEnqueuer = (*MockEnqueuer)(nil)

// --- Mock VoucherConfigService ---
type MockVoucherConfigService struct {
	mock.Mock
}

func (m *MockVoucherConfigService) ResolveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, journalType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

func (m *MockVoucherConfigService) GetActiveConfig(ctx context.Context, organizationID, journalType, requestingUserID string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, journalType, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

func (m *MockVoucherConfigService) GetConfig(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

func (m *MockVoucherConfigService) UpsertConfig(ctx context.Context, organizationID string, req dto.UpsertVoucherConfigRequest, actorID string) (*domain.VoucherModeConfig, error) {
	args := m.Called(ctx, organizationID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VoucherModeConfig), args.Error(1)
}

var _ portssvc.VoucherConfigSvc = (*MockVoucherConfigService)(nil)
