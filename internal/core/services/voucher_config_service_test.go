package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/core/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type VoucherConfigServiceTestSuite struct {
	suite.Suite
	mockRepo  *MockVoucherConfigRepository
	mockCache *MockVoucherConfigCache
	mockPerms *MockPermissionReader
	service   portssvc.VoucherConfigSvc
	ctx       context.Context
}

func (suite *VoucherConfigServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockVoucherConfigRepository)
	suite.mockCache = new(MockVoucherConfigCache)
	suite.mockPerms = new(MockPermissionReader)
	suite.service = services.NewVoucherConfigService(suite.mockRepo, suite.mockCache, services.NewPermissionGate(suite.mockPerms, 0, 0))
	suite.ctx = context.Background()
}

func (suite *VoucherConfigServiceTestSuite) asAdmin() {
	suite.mockPerms.On("FindMemberRole", suite.ctx, "user-1", "org-1").Return(domain.RoleAdmin, nil)
}

func TestVoucherConfigServiceTestSuite(t *testing.T) {
	suite.Run(t, new(VoucherConfigServiceTestSuite))
}

func (suite *VoucherConfigServiceTestSuite) TestResolveConfig_CacheHit() {
	cfg := &domain.VoucherModeConfig{ConfigID: "cfg-1", OrganizationID: "org-1", JournalType: "SALES", RequiresApproval: true}
	suite.mockCache.On("Get", suite.ctx, "org-1", "SALES").Return(cfg, true, nil).Once()

	got, err := suite.service.ResolveConfig(suite.ctx, "org-1", "SALES")

	suite.Require().NoError(err)
	suite.Equal(cfg, got)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindActiveConfig", mock.Anything, mock.Anything, mock.Anything)
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *VoucherConfigServiceTestSuite) TestResolveConfig_MissFillsCache() {
	cfg := &domain.VoucherModeConfig{ConfigID: "cfg-1", OrganizationID: "org-1", JournalType: "SALES"}
	suite.mockCache.On("Get", suite.ctx, "org-1", "SALES").Return(nil, false, nil).Once()
	suite.mockRepo.On("FindActiveConfig", suite.ctx, "org-1", "SALES").Return(cfg, nil).Once()
	suite.mockCache.On("Set", suite.ctx, *cfg).Return(nil).Once()

	got, err := suite.service.ResolveConfig(suite.ctx, "org-1", "SALES")

	suite.Require().NoError(err)
	suite.Equal("cfg-1", got.ConfigID)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *VoucherConfigServiceTestSuite) TestResolveConfig_CacheErrorFallsThrough() {
	cfg := &domain.VoucherModeConfig{ConfigID: "cfg-1", OrganizationID: "org-1", JournalType: "SALES"}
	suite.mockCache.On("Get", suite.ctx, "org-1", "SALES").Return(nil, false, errors.New("redis down")).Once()
	suite.mockRepo.On("FindActiveConfig", suite.ctx, "org-1", "SALES").Return(cfg, nil).Once()
	suite.mockCache.On("Set", suite.ctx, *cfg).Return(errors.New("redis down")).Once()

	got, err := suite.service.ResolveConfig(suite.ctx, "org-1", "SALES")

	suite.Require().NoError(err)
	suite.Equal(cfg, got)
}

func (suite *VoucherConfigServiceTestSuite) TestResolveConfig_NotFound() {
	suite.mockCache.On("Get", suite.ctx, "org-1", "SALES").Return(nil, false, nil).Once()
	suite.mockRepo.On("FindActiveConfig", suite.ctx, "org-1", "SALES").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ResolveConfig(suite.ctx, "org-1", "SALES")

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockCache.AssertNotCalled(suite.T(), "Set", mock.Anything, mock.Anything)
}

func (suite *VoucherConfigServiceTestSuite) TestUpsertConfig_InvalidatesCache() {
	suite.asAdmin()
	existing := &domain.VoucherModeConfig{ConfigID: "cfg-existing", OrganizationID: "org-1", JournalType: "SALES"}
	suite.mockRepo.On("FindActiveConfig", suite.ctx, "org-1", "SALES").Return(existing, nil).Once()
	suite.mockRepo.On("UpsertConfig", suite.ctx, mock.MatchedBy(func(c domain.VoucherModeConfig) bool {
		return c.ConfigID == "cfg-existing" && c.RequiresApproval && c.IsActive
	})).Return(nil).Once()
	suite.mockCache.On("Invalidate", suite.ctx, "org-1", "SALES").Return(nil).Once()

	got, err := suite.service.UpsertConfig(suite.ctx, "org-1", dto.UpsertVoucherConfigRequest{
		JournalType:      "SALES",
		Name:             "Sales invoices",
		RequiresApproval: true,
	}, "user-1")

	suite.Require().NoError(err)
	suite.Equal("cfg-existing", got.ConfigID)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func (suite *VoucherConfigServiceTestSuite) TestUpsertConfig_RepositoryError() {
	suite.asAdmin()
	suite.mockRepo.On("FindActiveConfig", suite.ctx, "org-1", "SALES").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("UpsertConfig", suite.ctx, mock.AnythingOfType("domain.VoucherModeConfig")).Return(errors.New("db down")).Once()

	_, err := suite.service.UpsertConfig(suite.ctx, "org-1", dto.UpsertVoucherConfigRequest{JournalType: "SALES", Name: "Sales"}, "user-1")

	suite.Error(err)
	suite.mockCache.AssertNotCalled(suite.T(), "Invalidate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherConfigServiceTestSuite) TestUpsertConfig_RequiresAdmin() {
	suite.mockPerms.On("FindMemberRole", suite.ctx, "user-2", "org-1").Return(domain.RoleMember, nil).Once()
	suite.mockPerms.On("FindMemberRole", suite.ctx, "user-3", "org-1").Return(domain.OrganizationRole(""), apperrors.ErrNotFound).Once()
	req := dto.UpsertVoucherConfigRequest{JournalType: "SALES", Name: "Sales"}

	_, err := suite.service.UpsertConfig(suite.ctx, "org-1", req, "user-2")
	suite.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))

	_, err = suite.service.UpsertConfig(suite.ctx, "org-1", req, "user-3")
	suite.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))

	suite.mockRepo.AssertNotCalled(suite.T(), "UpsertConfig", mock.Anything, mock.Anything)
	suite.mockPerms.AssertExpectations(suite.T())
}

func (suite *VoucherConfigServiceTestSuite) TestGetActiveConfig_RequiresMembership() {
	cfg := &domain.VoucherModeConfig{ConfigID: "cfg-1", OrganizationID: "org-1", JournalType: "SALES"}
	suite.mockPerms.On("FindMemberRole", suite.ctx, "viewer", "org-1").Return(domain.RoleReadOnly, nil).Once()
	suite.mockPerms.On("FindMemberRole", suite.ctx, "stranger", "org-1").Return(domain.OrganizationRole(""), apperrors.ErrNotFound).Once()
	suite.mockCache.On("Get", suite.ctx, "org-1", "SALES").Return(cfg, true, nil).Once()

	got, err := suite.service.GetActiveConfig(suite.ctx, "org-1", "SALES", "viewer")
	suite.Require().NoError(err)
	suite.Equal("cfg-1", got.ConfigID)

	_, err = suite.service.GetActiveConfig(suite.ctx, "org-1", "SALES", "stranger")
	suite.True(apperrors.HasCode(err, apperrors.CodeAccessDenied))

	suite.mockCache.AssertExpectations(suite.T())
	suite.mockPerms.AssertExpectations(suite.T())
}
