package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/SscSPs/voucher_posting_service/internal/utils/accounting"
)

const defaultLedgerPageSize = 20

// ledgerService reads the general ledger. It never writes; the posting engine does.
type ledgerService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerReader
	accountRepo portsrepo.AccountReader
	gate        portssvc.PermissionGateSvc
}

// NewLedgerService creates a new LedgerSvc. Every read requires organization membership.
func NewLedgerService(ledgerRepo portsrepo.LedgerReader, accountRepo portsrepo.AccountReader, gate portssvc.PermissionGateSvc) portssvc.LedgerSvc {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		gate:        gate,
	}
}

// Ensure ledgerService implements the LedgerSvc interface
var _ portssvc.LedgerSvc = (*ledgerService)(nil)

// ListEntriesByVoucher retrieves the entries a voucher produced.
func (s *ledgerService) ListEntriesByVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.LedgerEntry, error) {
	if err := s.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.ListEntriesByVoucher(ctx, organizationID, voucherID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries by voucher", slog.String("voucher_id", voucherID))
		return nil, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return entries, nil
}

// ListEntriesByAccount retrieves a page of an account's entries, newest first.
func (s *ledgerService) ListEntriesByAccount(ctx context.Context, organizationID, accountID string, params dto.ListLedgerEntriesParams, requestingUserID string) (*dto.ListLedgerEntriesResponse, error) {
	if err := s.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.findAccount(ctx, organizationID, accountID); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLedgerPageSize
	}

	entries, nextToken, err := s.ledgerRepo.ListEntriesByAccount(ctx, organizationID, accountID, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger entries by account", slog.String("account_id", accountID))
		return nil, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	return &dto.ListLedgerEntriesResponse{
		Entries:   entries,
		NextToken: nextToken,
	}, nil
}

// GetAccountBalance derives an account's balance from its ledger entries,
// signed by the account's normal side.
func (s *ledgerService) GetAccountBalance(ctx context.Context, organizationID, accountID, requestingUserID string) (*dto.AccountBalanceResponse, error) {
	if err := s.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	account, err := s.findAccount(ctx, organizationID, accountID)
	if err != nil {
		return nil, err
	}

	debit, credit, err := s.ledgerRepo.SumByAccount(ctx, organizationID, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum ledger entries", slog.String("account_id", accountID))
		return nil, err
	}

	balance, err := accounting.SignedBalance(account.AccountType, debit, credit)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign account balance", slog.String("account_id", accountID))
		return nil, apperrors.NewAppError(500, "invalid account type", err)
	}

	return &dto.AccountBalanceResponse{
		AccountID:   account.AccountID,
		AccountType: account.AccountType,
		TotalDebit:  debit,
		TotalCredit: credit,
		Balance:     balance,
	}, nil
}

func (s *ledgerService) findAccount(ctx context.Context, organizationID, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, organizationID, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		s.LogError(ctx, err, "Failed to find account", slog.String("account_id", accountID))
		return nil, err
	}
	return account, nil
}
