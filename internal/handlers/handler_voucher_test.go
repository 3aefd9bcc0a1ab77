package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/SscSPs/voucher_posting_service/internal/handlers"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite ---
type VoucherHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockVoucher  *MockVoucherService
	mockBuilder  *MockVoucherBuilder
	mockLedger   *MockLedgerService
	mockEnqueuer *MockEnqueuer
	jwtSecret    string
	orgID        string
	userID       string
}

// generateTestToken creates a signed JWT for userID.
func (suite *VoucherHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "voucher-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *VoucherHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.orgID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockVoucher = new(MockVoucherService)
	suite.mockBuilder = new(MockVoucherBuilder)
	suite.mockLedger = new(MockLedgerService)
	suite.mockEnqueuer = new(MockEnqueuer)

	org := suite.router.Group("/api/v1/organizations/:organization_id")
	handlers.RegisterVoucherRoutes(org, suite.mockVoucher, suite.mockBuilder, suite.mockEnqueuer)
	handlers.RegisterLedgerRoutes(org, suite.mockLedger)
}

func (suite *VoucherHandlerTestSuite) request(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, fmt.Sprintf("/api/v1/organizations/%s%s", suite.orgID, path), &buf)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *VoucherHandlerTestSuite) decodeError(w *httptest.ResponseRecorder) dto.ErrorResponse {
	var resp dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (suite *VoucherHandlerTestSuite) postedVoucher(id string) *domain.Voucher {
	return &domain.Voucher{
		VoucherID:      id,
		OrganizationID: suite.orgID,
		Status:         domain.VoucherPosted,
		CurrencyCode:   "USD",
		TotalDebit:     decimal.NewFromInt(100),
		TotalCredit:    decimal.NewFromInt(100),
	}
}

// --- Test Cases ---

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_Inline() {
	voucherID := uuid.NewString()
	key := "key-1"

	suite.mockVoucher.On("Process", mock.Anything, mock.MatchedBy(func(req portssvc.ProcessRequest) bool {
		return req.VoucherID == voucherID && req.OrganizationID == suite.orgID && req.ActorID == suite.userID &&
			req.CommitType == domain.CommitPost && req.IdempotencyKey != nil && *req.IdempotencyKey == key
	})).Return(suite.postedVoucher(voucherID), nil).Once()

	w := suite.request(http.MethodPost, "/vouchers/"+voucherID+"/process",
		dto.ProcessVoucherRequest{CommitType: "post"}, map[string]string{handlers.IdempotencyKeyHeader: key})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.VoucherResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(domain.VoucherPosted, resp.Status)
	suite.mockVoucher.AssertExpectations(suite.T())
	suite.mockEnqueuer.AssertNotCalled(suite.T(), "EnqueueProcess", mock.Anything, mock.Anything)
}

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_Async() {
	voucherID := uuid.NewString()
	suite.mockEnqueuer.On("EnqueueProcess", mock.Anything, mock.MatchedBy(func(req portssvc.ProcessRequest) bool {
		return req.VoucherID == voucherID && req.IdempotencyKey == nil
	})).Return("task-1", nil).Once()

	w := suite.request(http.MethodPost, "/vouchers/"+voucherID+"/process?async=true", dto.ProcessVoucherRequest{CommitType: "submit"}, nil)

	suite.Equal(http.StatusAccepted, w.Code)
	var resp dto.ProcessAcceptedResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("task-1", resp.TaskID)
	suite.mockVoucher.AssertNotCalled(suite.T(), "Process", mock.Anything, mock.Anything)
}

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_ErrorCodes() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unbalanced", apperrors.NewUnbalancedEntryError(decimal.NewFromInt(2), decimal.NewFromInt(1)), http.StatusUnprocessableEntity, apperrors.CodeUnbalancedEntry},
		{"conflict", apperrors.NewConflictError("busy"), http.StatusConflict, apperrors.CodeConflict},
		{"not found", apperrors.NewVoucherNotFoundError("v"), http.StatusNotFound, apperrors.CodeVoucherNotFound},
		{"forbidden", apperrors.NewPostForbiddenError("no"), http.StatusForbidden, apperrors.CodePostForbidden},
		{"inventory", apperrors.NewInventoryValidationError(apperrors.CodeInventoryWarehouse, 1, "WarehouseID", "warehouse is required"), http.StatusUnprocessableEntity, apperrors.CodeInventoryWarehouse},
		{"unexpected", fmt.Errorf("db down"), http.StatusInternalServerError, apperrors.CodeUnexpected},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			voucherID := uuid.NewString()
			suite.mockVoucher.On("Process", mock.Anything, mock.MatchedBy(func(req portssvc.ProcessRequest) bool {
				return req.VoucherID == voucherID
			})).Return(nil, tt.err).Once()

			w := suite.request(http.MethodPost, "/vouchers/"+voucherID+"/process", dto.ProcessVoucherRequest{CommitType: "post"}, nil)

			suite.Equal(tt.wantStatus, w.Code)
			suite.Equal(tt.wantCode, suite.decodeError(w).Code)
		})
	}
}

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_InvalidCommitType() {
	w := suite.request(http.MethodPost, "/vouchers/v-1/process", map[string]string{"commitType": "publish"}, nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal(apperrors.CodeValidation, suite.decodeError(w).Code)
	suite.mockVoucher.AssertNotCalled(suite.T(), "Process", mock.Anything, mock.Anything)
}

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_MalformedBody() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/organizations/"+suite.orgID+"/vouchers/v-1/process", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *VoucherHandlerTestSuite) TestProcessVoucher_Unauthenticated() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/organizations/"+suite.orgID+"/vouchers/v-1/process", nil)
	w := httptest.NewRecorder()

	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *VoucherHandlerTestSuite) TestCreateAndProcess_PassesIdempotencyKey() {
	voucherID := uuid.NewString()
	body := dto.CreateAndProcessRequest{
		CreateVoucherRequest: dto.CreateVoucherRequest{
			Header: dto.VoucherHeaderRequest{VoucherDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CurrencyCode: "USD"},
			Lines: []dto.VoucherLineRequest{
				{AccountID: "cash", DebitAmount: decimal.NewFromInt(100)},
				{AccountID: "revenue", CreditAmount: decimal.NewFromInt(100)},
			},
		},
		Action: dto.ActionPostVoucher,
	}

	suite.mockVoucher.On("CreateAndProcess", mock.Anything, suite.orgID,
		mock.MatchedBy(func(req dto.CreateAndProcessRequest) bool {
			return req.Action == dto.ActionPostVoucher && len(req.Lines) == 2
		}),
		suite.userID,
		mock.MatchedBy(func(key *string) bool { return key != nil && *key == "abc" }),
	).Return(suite.postedVoucher(voucherID), nil).Once()

	w := suite.request(http.MethodPost, "/vouchers/process", body, map[string]string{handlers.IdempotencyKeyHeader: "abc"})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockVoucher.AssertExpectations(suite.T())
}

func (suite *VoucherHandlerTestSuite) TestCreateAndProcess_UnknownAction() {
	body := map[string]any{
		"header": map[string]any{"voucherDate": "2024-01-15T00:00:00Z", "currencyCode": "USD"},
		"lines":  []map[string]any{{"accountID": "cash", "debitAmount": "1"}},
		"action": "archive",
	}

	w := suite.request(http.MethodPost, "/vouchers/process", body, nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.mockVoucher.AssertNotCalled(suite.T(), "CreateAndProcess", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherHandlerTestSuite) TestCreateVoucher_Created() {
	voucherID := uuid.NewString()
	body := dto.CreateVoucherRequest{
		Header: dto.VoucherHeaderRequest{VoucherDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CurrencyCode: "USD"},
		Lines:  []dto.VoucherLineRequest{{AccountID: "cash", DebitAmount: decimal.NewFromInt(5)}},
	}
	suite.mockBuilder.On("CreateVoucherTransaction", mock.Anything, suite.orgID, mock.Anything, suite.userID).
		Return(&domain.Voucher{VoucherID: voucherID, Status: domain.VoucherDraft}, nil).Once()

	w := suite.request(http.MethodPost, "/vouchers", body, nil)

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockBuilder.AssertExpectations(suite.T())
}

func (suite *VoucherHandlerTestSuite) TestCreateVoucher_StaleEdit() {
	voucherID := uuid.NewString()
	body := dto.CreateVoucherRequest{
		VoucherID: &voucherID,
		Header:    dto.VoucherHeaderRequest{VoucherDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CurrencyCode: "USD"},
		Lines:     []dto.VoucherLineRequest{{AccountID: "cash", DebitAmount: decimal.NewFromInt(5)}},
	}
	suite.mockBuilder.On("CreateVoucherTransaction", mock.Anything, suite.orgID, mock.Anything, suite.userID).
		Return(nil, apperrors.NewStaleVoucherError(voucherID)).Once()

	w := suite.request(http.MethodPost, "/vouchers", body, nil)

	suite.Equal(apperrors.CodeStaleVoucher, suite.decodeError(w).Code)
}

func (suite *VoucherHandlerTestSuite) TestDeleteVoucher() {
	suite.mockBuilder.On("DeleteDraft", mock.Anything, suite.orgID, "v-1", suite.userID).Return(nil).Once()

	w := suite.request(http.MethodDelete, "/vouchers/v-1", nil, nil)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockBuilder.AssertExpectations(suite.T())
}

func (suite *VoucherHandlerTestSuite) TestRejectVoucher_RequiresReason() {
	w := suite.request(http.MethodPost, "/vouchers/v-1/reject", map[string]string{}, nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.mockVoucher.AssertNotCalled(suite.T(), "RejectVoucher", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *VoucherHandlerTestSuite) TestRejectVoucher() {
	suite.mockVoucher.On("RejectVoucher", mock.Anything, suite.orgID, "v-1", suite.userID, "missing invoice").
		Return(&domain.Voucher{VoucherID: "v-1", Status: domain.VoucherRejected}, nil).Once()

	w := suite.request(http.MethodPost, "/vouchers/v-1/reject", dto.RejectVoucherRequest{Reason: "missing invoice"}, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockVoucher.AssertExpectations(suite.T())
}

func (suite *VoucherHandlerTestSuite) TestReverseVoucher() {
	suite.mockVoucher.On("ReverseVoucher", mock.Anything, suite.orgID, "v-1", suite.userID).
		Return(suite.postedVoucher("v-2"), nil).Once()

	w := suite.request(http.MethodPost, "/vouchers/v-1/reverse", nil, nil)

	suite.Equal(http.StatusCreated, w.Code)
}

func (suite *VoucherHandlerTestSuite) TestListProcesses_EmptyIsArray() {
	suite.mockVoucher.On("ListProcesses", mock.Anything, suite.orgID, "v-1", suite.userID).Return(nil, nil).Once()

	w := suite.request(http.MethodGet, "/vouchers/v-1/processes", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"processes":[]}`, w.Body.String())
}

func (suite *VoucherHandlerTestSuite) TestGetVoucher_NonMemberForbidden() {
	suite.mockVoucher.On("GetVoucher", mock.Anything, suite.orgID, "v-1", suite.userID).
		Return(nil, apperrors.NewAccessDeniedError("actor is not a member of the organization")).Once()

	w := suite.request(http.MethodGet, "/vouchers/v-1", nil, nil)

	suite.Equal(http.StatusForbidden, w.Code)
	var resp dto.ErrorResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(apperrors.CodeAccessDenied, resp.Code)
}

func (suite *VoucherHandlerTestSuite) TestListAccountEntries() {
	accountID := uuid.NewString()
	token := "next"
	suite.mockLedger.On("ListEntriesByAccount", mock.Anything, suite.orgID, accountID,
		mock.MatchedBy(func(p dto.ListLedgerEntriesParams) bool { return p.Limit == 10 }), suite.userID,
	).Return(&dto.ListLedgerEntriesResponse{Entries: []domain.LedgerEntry{{EntryID: "e-1"}}, NextToken: &token}, nil).Once()

	w := suite.request(http.MethodGet, "/accounts/"+accountID+"/ledger-entries?limit=10", nil, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListLedgerEntriesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 1)
	suite.Equal("next", *resp.NextToken)
}

func (suite *VoucherHandlerTestSuite) TestListAccountEntries_LimitOutOfRange() {
	w := suite.request(http.MethodGet, "/accounts/a-1/ledger-entries?limit=500", nil, nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *VoucherHandlerTestSuite) TestGetAccountBalance_NotFound() {
	suite.mockLedger.On("GetAccountBalance", mock.Anything, suite.orgID, "a-1", suite.userID).
		Return(nil, apperrors.NewNotFoundError("account a-1")).Once()

	w := suite.request(http.MethodGet, "/accounts/a-1/balance", nil, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

// --- Run Test Suite ---
func TestVoucherHandler(t *testing.T) {
	suite.Run(t, new(VoucherHandlerTestSuite))
}
