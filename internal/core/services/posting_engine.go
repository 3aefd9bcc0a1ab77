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
	"github.com/SscSPs/voucher_posting_service/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// postingEngine is the only writer of general ledger entries.
type postingEngine struct {
	BaseService
	accountRepo portsrepo.AccountReader
	ledgerRepo  portsrepo.LedgerWriter
	periodRepo  portsrepo.PeriodReader
	voucherRepo portsrepo.VoucherLocker
}

// NewPostingEngine creates a PostingEngineSvc.
func NewPostingEngine(
	accountRepo portsrepo.AccountReader,
	ledgerRepo portsrepo.LedgerWriter,
	periodRepo portsrepo.PeriodReader,
	voucherRepo portsrepo.VoucherLocker,
	clock Clock,
) portssvc.PostingEngineSvc {
	return &postingEngine{
		BaseService: BaseService{now: clock},
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		periodRepo:  periodRepo,
		voucherRepo: voucherRepo,
	}
}

// Ensure postingEngine implements the PostingEngineSvc interface
var _ portssvc.PostingEngineSvc = (*postingEngine)(nil)

// Post writes one ledger entry per line and flips voucher to POSTED, all inside tx.
// The caller must have ruled out already-posted vouchers and checked post permission.
func (e *postingEngine) Post(ctx context.Context, tx pgx.Tx, voucher *domain.Voucher, actorID string) (*domain.Voucher, error) {
	logger := e.GetLogger(ctx).With(slog.String("voucher_id", voucher.VoucherID))

	if voucher.Status == domain.VoucherPosted {
		return nil, apperrors.NewInvalidTransitionError(fmt.Sprintf("voucher %s is already posted", voucher.VoucherID))
	}

	if err := accounting.CheckBalance(voucher.Lines); err != nil {
		return nil, err
	}

	period, err := e.periodRepo.FindPeriodForDate(ctx, tx, voucher.OrganizationID, voucher.VoucherDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to read accounting period", slog.String("error", err.Error()))
		return nil, err
	}
	if err := accounting.CheckPeriodOpen(period, voucher.VoucherDate); err != nil {
		return nil, err
	}

	if err := e.checkAccounts(ctx, tx, voucher); err != nil {
		return nil, err
	}

	now := e.Now()
	entries := make([]domain.LedgerEntry, 0, len(voucher.Lines))
	for _, line := range voucher.Lines {
		entries = append(entries, domain.NewLedgerEntry(uuid.NewString(), voucher, line, actorID, now))
	}

	if err := e.ledgerRepo.InsertEntries(ctx, tx, entries); err != nil {
		logger.Error("Failed to insert ledger entries", slog.String("error", err.Error()))
		return nil, apperrors.NewPostingWriteError(err)
	}

	if voucher.ReversalOfID != nil {
		err := e.voucherRepo.MarkReversed(ctx, tx, *voucher.ReversalOfID, voucher.VoucherID, actorID, now)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.NewConflictError(fmt.Sprintf("voucher %s is already reversed", *voucher.ReversalOfID))
			}
			return nil, err
		}
	}

	posted := *voucher
	periodID := period.PeriodID
	posted.PeriodID = &periodID
	posted.Status = domain.VoucherPosted
	posted.PostedBy = &actorID
	posted.PostedAt = &now
	posted.RecalculateTotals()
	posted.Touch(actorID, now)

	if err := e.voucherRepo.UpdateVoucherStatus(ctx, tx, posted); err != nil {
		logger.Error("Failed to mark voucher posted", slog.String("error", err.Error()))
		return nil, apperrors.NewPostingWriteError(err)
	}

	logger.Info("Voucher posted",
		slog.Int("entries", len(entries)),
		slog.String("period_id", periodID),
		slog.String("total", posted.TotalDebit.String()))
	return &posted, nil
}

// checkAccounts verifies every line account exists, is active and belongs to the organization.
func (e *postingEngine) checkAccounts(ctx context.Context, tx pgx.Tx, voucher *domain.Voucher) error {
	ids := make([]string, 0, len(voucher.Lines))
	seen := make(map[string]struct{}, len(voucher.Lines))
	for _, l := range voucher.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}

	accounts, err := e.accountRepo.FindAccountsByIDs(ctx, tx, voucher.OrganizationID, ids)
	if err != nil {
		e.LogError(ctx, err, "Failed to load line accounts", slog.String("voucher_id", voucher.VoucherID))
		return err
	}

	for _, l := range voucher.Lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return apperrors.NewValidationError(apperrors.CodeInvalidAccount,
				fmt.Sprintf("line %d: account %s not found", l.LineNumber, l.AccountID))
		}
		if !acc.IsActive {
			return apperrors.NewValidationError(apperrors.CodeInvalidAccount,
				fmt.Sprintf("line %d: account %s is inactive", l.LineNumber, acc.Code))
		}
	}
	return nil
}
