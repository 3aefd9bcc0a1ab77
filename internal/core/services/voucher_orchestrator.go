package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// bookkeepingTimeout bounds attempt writes made after the caller's context is gone.
const bookkeepingTimeout = 5 * time.Second

const metadataRejectionReason = "rejection_reason"

var actionCommitTypes = map[string]domain.CommitType{
	dto.ActionSave:          domain.CommitSave,
	dto.ActionSubmitVoucher: domain.CommitSubmit,
	dto.ActionPostVoucher:   domain.CommitPost,
}

var allSteps = []domain.ProcessStep{
	domain.ProcessStepSaved,
	domain.ProcessStepJournal,
	domain.ProcessStepGL,
	domain.ProcessStepInventory,
}

// voucherOrchestrator drives vouchers through the posting state machine.
// Every Process call leaves exactly one attempt record behind.
type voucherOrchestrator struct {
	BaseService
	voucherRepo portsrepo.VoucherRepositoryWithTx
	processRepo portsrepo.VoucherProcessRepositoryFacade
	builder     portssvc.VoucherBuilderSvc
	engine      portssvc.PostingEngineSvc
	inventory   portssvc.InventoryValidatorSvc
	gate        portssvc.PermissionGateSvc
	configSvc   portssvc.VoucherConfigSvc
}

// NewVoucherOrchestrator creates a VoucherSvcFacade.
func NewVoucherOrchestrator(
	voucherRepo portsrepo.VoucherRepositoryWithTx,
	processRepo portsrepo.VoucherProcessRepositoryFacade,
	builder portssvc.VoucherBuilderSvc,
	engine portssvc.PostingEngineSvc,
	inventory portssvc.InventoryValidatorSvc,
	gate portssvc.PermissionGateSvc,
	configSvc portssvc.VoucherConfigSvc,
	clock Clock,
) portssvc.VoucherSvcFacade {
	return &voucherOrchestrator{
		BaseService: BaseService{now: clock},
		voucherRepo: voucherRepo,
		processRepo: processRepo,
		builder:     builder,
		engine:      engine,
		inventory:   inventory,
		gate:        gate,
		configSvc:   configSvc,
	}
}

// Ensure voucherOrchestrator implements the VoucherSvcFacade interface
var _ portssvc.VoucherSvcFacade = (*voucherOrchestrator)(nil)

// Process advances a voucher according to req.CommitType.
//
// The attempt row is written through the pool before the voucher lock is taken
// and finalised after the business transaction has committed or rolled back,
// so it records failures the transaction itself cannot keep.
func (o *voucherOrchestrator) Process(ctx context.Context, req portssvc.ProcessRequest) (*domain.Voucher, error) {
	if !req.CommitType.IsValid() {
		return nil, apperrors.NewValidationError(apperrors.CodeValidation,
			fmt.Sprintf("unknown commit type %q", req.CommitType))
	}
	if req.IdempotencyKey != nil && *req.IdempotencyKey == "" {
		req.IdempotencyKey = nil
	}
	// Outsiders leave no attempt behind
	if err := o.gate.AuthorizeRole(ctx, req.ActorID, req.OrganizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	logger := o.GetLogger(ctx).With(
		slog.String("voucher_id", req.VoucherID),
		slog.String("commit_type", string(req.CommitType)),
		slog.String("actor_id", req.ActorID))

	attempt := domain.NewVoucherProcess(uuid.NewString(), req.VoucherID, req.OrganizationID,
		req.ActorID, req.CommitType, req.IdempotencyKey, o.Now())

	if err := o.processRepo.CreateProcess(ctx, *attempt); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Voucher already has an attempt in flight")
			return nil, o.recordRejectedAttempt(ctx, req)
		}
		logger.Error("Failed to create voucher process attempt", slog.String("error", err.Error()))
		return nil, apperrors.MapError(err)
	}

	voucher, err := o.runAttempt(ctx, attempt, req)
	if err != nil {
		return nil, o.failAttempt(ctx, attempt, err)
	}

	o.saveAttempt(ctx, attempt)
	logger.Info("Voucher processed",
		slog.String("process_id", attempt.ProcessID),
		slog.String("status", string(voucher.Status)),
		slog.Int64("duration_ms", attempt.DurationMS))
	return voucher, nil
}

// runAttempt performs every step that happens under the voucher row lock.
// On success attempt is already marked succeeded; on error the transaction
// has been rolled back by the time it returns.
func (o *voucherOrchestrator) runAttempt(ctx context.Context, attempt *domain.VoucherProcess, req portssvc.ProcessRequest) (*domain.Voucher, error) {
	tx, err := o.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer o.voucherRepo.Rollback(ctx, tx)

	voucher, err := o.voucherRepo.LockVoucherForUpdate(ctx, tx, req.VoucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewVoucherNotFoundError(req.VoucherID)
		}
		return nil, err
	}
	if voucher.OrganizationID != req.OrganizationID {
		return nil, apperrors.NewVoucherNotFoundError(req.VoucherID)
	}

	if err := o.checkIdempotencyKey(ctx, tx, voucher, req.IdempotencyKey); err != nil {
		return nil, err
	}
	attempt.SetStep(domain.ProcessStepSaved, domain.StepDone)
	attempt.SetStep(domain.ProcessStepJournal, domain.StepDone)

	if voucher.Status == domain.VoucherPosted {
		if err := o.voucherRepo.Commit(ctx, tx); err != nil {
			return nil, err
		}
		attempt.Succeed(o.Now(), allSteps...)
		return voucher, nil
	}

	busy, err := o.processRepo.HasOtherProcessing(ctx, tx, voucher.VoucherID, attempt.ProcessID)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, apperrors.NewConflictError(fmt.Sprintf("voucher %s is already being processed", voucher.VoucherID))
	}

	cfg, err := o.resolveConfig(ctx, req.Config, voucher)
	if err != nil {
		return nil, err
	}

	canPost := o.gate.CanPerform(ctx, req.ActorID, req.OrganizationID,
		domain.PermissionDomainAccounting, domain.PermissionResourceJournal, domain.ActionPostJournal)
	canApprove := o.gate.CanPerform(ctx, req.ActorID, req.OrganizationID,
		domain.PermissionDomainAccounting, domain.PermissionResourceJournal, domain.ActionApproveJournal)

	outcome, err := decideTransition(TransitionInput{
		Current:          voucher.Status,
		Commit:           req.CommitType,
		CanPost:          canPost,
		CanApprove:       canApprove,
		RequiresApproval: cfg != nil && cfg.RequiresApproval,
	})
	if err != nil {
		return nil, err
	}
	o.LogDebug(ctx, "Transition decided",
		slog.String("voucher_id", voucher.VoucherID),
		slog.String("status", string(voucher.Status)),
		slog.String("outcome", outcome.String()))

	switch outcome {
	case OutcomeNoop, OutcomeAlreadyPosted:
		if err := o.voucherRepo.Commit(ctx, tx); err != nil {
			return nil, err
		}
		attempt.Succeed(o.Now())
		return voucher, nil

	case OutcomeRouteToApproval:
		if voucher.Status != domain.VoucherAwaitingApproval {
			voucher.Status = domain.VoucherAwaitingApproval
			voucher.ApprovedBy, voucher.ApprovedAt = nil, nil
			voucher.Touch(req.ActorID, o.Now())
			if err := o.voucherRepo.UpdateVoucherStatus(ctx, tx, *voucher); err != nil {
				return nil, err
			}
		}
		if err := o.voucherRepo.Commit(ctx, tx); err != nil {
			return nil, err
		}
		// GL and inventory stay pending until someone posts
		attempt.Succeed(o.Now())
		return voucher, nil
	}

	attempt.SetStep(domain.ProcessStepGL, domain.StepInProgress)

	if outcome == OutcomeApproveThenPost {
		now := o.Now()
		voucher.Status = domain.VoucherApproved
		voucher.ApprovedBy = &req.ActorID
		voucher.ApprovedAt = &now
	}

	if cfg != nil && cfg.AffectsInventory {
		attempt.SetStep(domain.ProcessStepInventory, domain.StepInProgress)
		if err := o.inventory.ValidateInventoryMetadata(voucher, cfg); err != nil {
			return nil, err
		}
	}

	posted, err := o.engine.Post(ctx, tx, voucher, req.ActorID)
	if err != nil {
		return nil, err
	}
	if err := o.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, apperrors.NewPostingWriteError(err)
	}

	attempt.Succeed(o.Now(), allSteps...)
	return posted, nil
}

// checkIdempotencyKey compares key with the stored one, stamping it when the voucher has none.
func (o *voucherOrchestrator) checkIdempotencyKey(ctx context.Context, tx pgx.Tx, voucher *domain.Voucher, key *string) error {
	if key == nil {
		return nil
	}
	if voucher.IdempotencyKey != nil {
		if *voucher.IdempotencyKey != *key {
			return apperrors.NewConflictError("idempotency key does not match the voucher")
		}
		return nil
	}

	if err := o.voucherRepo.SetIdempotencyKey(ctx, tx, voucher.VoucherID, *key); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.NewConflictError("idempotency key is already used by another voucher")
		}
		return err
	}
	stored := *key
	voucher.IdempotencyKey = &stored
	return nil
}

// resolveConfig returns supplied, or the active config of the voucher's journal type.
// A missing config is not an error.
func (o *voucherOrchestrator) resolveConfig(ctx context.Context, supplied *domain.VoucherModeConfig, voucher *domain.Voucher) (*domain.VoucherModeConfig, error) {
	if supplied != nil {
		return supplied, nil
	}
	cfg, err := o.configSvc.ResolveConfig(ctx, voucher.OrganizationID, voucher.JournalType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

// failAttempt attributes err to a step, persists the failed attempt and
// returns the error the caller should see.
func (o *voucherOrchestrator) failAttempt(ctx context.Context, attempt *domain.VoucherProcess, err error) error {
	vpe, isDomain := apperrors.AsProcessError(err)
	step := domain.ProcessStepGL
	if isDomain {
		step = domain.ProcessStep(vpe.Step())
	} else {
		vpe = apperrors.MapError(err)
		err = vpe
	}

	details := vpe.Message
	if vpe.Details != "" && vpe.Details != vpe.Message {
		details = fmt.Sprintf("%s (%s)", vpe.Message, vpe.Details)
	}
	attempt.Fail(o.Now(), step, vpe.Code, details)
	o.saveAttempt(ctx, attempt)

	logger := o.GetLogger(ctx)
	if vpe.Kind == apperrors.KindUnexpected {
		logger.Error("Voucher processing failed",
			slog.String("process_id", attempt.ProcessID),
			slog.String("voucher_id", attempt.VoucherSnapshotID),
			slog.String("code", vpe.Code),
			slog.String("error", details))
	} else {
		logger.Info("Voucher processing rejected",
			slog.String("process_id", attempt.ProcessID),
			slog.String("voucher_id", attempt.VoucherSnapshotID),
			slog.String("code", vpe.Code),
			slog.String("step", string(step)))
	}
	return err
}

// recordRejectedAttempt stores a separate failed attempt for a call that lost
// the race for the in-flight slot.
func (o *voucherOrchestrator) recordRejectedAttempt(ctx context.Context, req portssvc.ProcessRequest) error {
	conflict := apperrors.NewConflictError(fmt.Sprintf("voucher %s is already being processed", req.VoucherID))

	now := o.Now()
	attempt := domain.NewVoucherProcess(uuid.NewString(), req.VoucherID, req.OrganizationID,
		req.ActorID, req.CommitType, req.IdempotencyKey, now)
	attempt.Fail(now, domain.ProcessStepSaved, conflict.Code, conflict.Message)

	bctx, cancel := bookkeepingContext(ctx)
	defer cancel()
	if err := o.processRepo.CreateProcess(bctx, *attempt); err != nil {
		o.LogError(ctx, err, "Failed to record rejected attempt", slog.String("voucher_id", req.VoucherID))
	}
	return conflict
}

// saveAttempt persists the attempt, even if ctx was cancelled mid-flight.
func (o *voucherOrchestrator) saveAttempt(ctx context.Context, attempt *domain.VoucherProcess) {
	bctx, cancel := bookkeepingContext(ctx)
	defer cancel()
	if err := o.processRepo.UpdateProcess(bctx, *attempt); err != nil {
		o.LogError(ctx, err, "Failed to persist voucher process attempt",
			slog.String("process_id", attempt.ProcessID),
			slog.String("status", string(attempt.Status)))
	}
}

func bookkeepingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

// CreateAndProcess builds a voucher and processes it with the commit type derived from req.Action.
// A request whose idempotency key already belongs to a voucher processes that voucher instead.
func (o *voucherOrchestrator) CreateAndProcess(ctx context.Context, organizationID string, req dto.CreateAndProcessRequest, actorID string, idempotencyKey *string) (*domain.Voucher, error) {
	commit, ok := actionCommitTypes[req.Action]
	if !ok {
		return nil, apperrors.NewValidationError(apperrors.CodeValidation, fmt.Sprintf("unknown action %q", req.Action))
	}
	if idempotencyKey != nil && *idempotencyKey == "" {
		idempotencyKey = nil
	}

	var cfg *domain.VoucherModeConfig
	if req.ConfigID != nil && *req.ConfigID != "" {
		found, err := o.configSvc.GetConfig(ctx, organizationID, *req.ConfigID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		cfg = found
	}

	if idempotencyKey != nil && (req.VoucherID == nil || *req.VoucherID == "") {
		existing, err := o.voucherRepo.FindVoucherByIdempotencyKey(ctx, organizationID, *idempotencyKey)
		switch {
		case err == nil:
			o.LogInfo(ctx, "Replaying request for existing voucher",
				slog.String("voucher_id", existing.VoucherID),
				slog.String("idempotency_key", *idempotencyKey))
			return o.Process(ctx, portssvc.ProcessRequest{
				OrganizationID: organizationID,
				VoucherID:      existing.VoucherID,
				CommitType:     commit,
				ActorID:        actorID,
				IdempotencyKey: idempotencyKey,
				Config:         cfg,
			})
		case !errors.Is(err, apperrors.ErrNotFound):
			o.LogError(ctx, err, "Failed to look up idempotency key")
			return nil, err
		}
	}

	voucher, err := o.builder.CreateVoucherTransaction(ctx, organizationID, req.CreateVoucherRequest, actorID)
	if err != nil {
		return nil, err
	}

	return o.Process(ctx, portssvc.ProcessRequest{
		OrganizationID: organizationID,
		VoucherID:      voucher.VoucherID,
		CommitType:     commit,
		ActorID:        actorID,
		IdempotencyKey: idempotencyKey,
		Config:         cfg,
	})
}

// RejectVoucher sends a voucher awaiting approval back to its author.
func (o *voucherOrchestrator) RejectVoucher(ctx context.Context, organizationID, voucherID, actorID, reason string) (*domain.Voucher, error) {
	if !o.gate.CanPerform(ctx, actorID, organizationID,
		domain.PermissionDomainAccounting, domain.PermissionResourceJournal, domain.ActionApproveJournal) {
		return nil, apperrors.NewApprovalRequiredError("actor is not allowed to approve journals")
	}

	tx, err := o.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer o.voucherRepo.Rollback(ctx, tx)

	voucher, err := o.voucherRepo.LockVoucherForUpdate(ctx, tx, voucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewVoucherNotFoundError(voucherID)
		}
		return nil, err
	}
	if voucher.OrganizationID != organizationID {
		return nil, apperrors.NewVoucherNotFoundError(voucherID)
	}
	if voucher.Status != domain.VoucherAwaitingApproval {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("only vouchers awaiting approval can be rejected, voucher is %s", voucher.Status))
	}

	voucher.Status = domain.VoucherRejected
	if voucher.Metadata == nil {
		voucher.Metadata = map[string]any{}
	}
	voucher.Metadata[metadataRejectionReason] = reason
	voucher.Touch(actorID, o.Now())

	if err := o.voucherRepo.UpdateVoucherStatus(ctx, tx, *voucher); err != nil {
		o.LogError(ctx, err, "Failed to reject voucher", slog.String("voucher_id", voucherID))
		return nil, err
	}
	if err := o.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	o.LogInfo(ctx, "Voucher rejected", slog.String("voucher_id", voucherID), slog.String("actor_id", actorID))
	return voucher, nil
}

// ReverseVoucher saves a mirror of a posted voucher and posts it. The mirror
// is dated today; posting it links the original through ReversedByID.
func (o *voucherOrchestrator) ReverseVoucher(ctx context.Context, organizationID, voucherID, actorID string) (*domain.Voucher, error) {
	if err := o.gate.AuthorizeRole(ctx, actorID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}

	original, err := o.voucherRepo.FindVoucherByID(ctx, organizationID, voucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewVoucherNotFoundError(voucherID)
		}
		return nil, err
	}
	if original.Status != domain.VoucherPosted {
		return nil, apperrors.NewInvalidTransitionError("only posted vouchers can be reversed")
	}
	if original.ReversedByID != nil {
		return nil, apperrors.NewConflictError(fmt.Sprintf("voucher %s is already reversed by %s", voucherID, *original.ReversedByID))
	}

	mirror := buildReversal(original, actorID, o.Now())

	tx, err := o.voucherRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer o.voucherRepo.Rollback(ctx, tx)

	if err := o.voucherRepo.SaveVoucher(ctx, tx, mirror); err != nil {
		o.LogError(ctx, err, "Failed to save reversal voucher", slog.String("voucher_id", voucherID))
		return nil, err
	}
	if err := o.voucherRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	// Reversals never move stock, so inventory validation is switched off
	cfg, err := o.resolveConfig(ctx, nil, &mirror)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		c := *cfg
		c.AffectsInventory = false
		cfg = &c
	}

	o.LogInfo(ctx, "Reversal voucher created",
		slog.String("voucher_id", mirror.VoucherID),
		slog.String("reversal_of", voucherID))
	return o.Process(ctx, portssvc.ProcessRequest{
		OrganizationID: organizationID,
		VoucherID:      mirror.VoucherID,
		CommitType:     domain.CommitPost,
		ActorID:        actorID,
		Config:         cfg,
	})
}

// buildReversal mirrors original with debit and credit swapped on every line.
func buildReversal(original *domain.Voucher, actorID string, now time.Time) domain.Voucher {
	originalID := original.VoucherID
	y, m, d := now.Date()

	mirror := domain.Voucher{
		VoucherID:      uuid.NewString(),
		OrganizationID: original.OrganizationID,
		JournalType:    original.JournalType,
		VoucherDate:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Description:    "Reversal of " + originalID,
		CurrencyCode:   original.CurrencyCode,
		ExchangeRate:   original.ExchangeRate,
		Status:         domain.VoucherDraft,
		Metadata:       map[string]any{"reversal_of": originalID},
		ReversalOfID:   &originalID,
		AuditFields:    domain.NewAuditFields(actorID, now),
	}
	if original.Description != "" {
		mirror.Description = "Reversal: " + original.Description
	}

	mirror.Lines = make([]domain.VoucherLine, len(original.Lines))
	for i, l := range original.Lines {
		l.LineID = uuid.NewString()
		l.VoucherID = mirror.VoucherID
		l.DebitAmount, l.CreditAmount = l.CreditAmount, l.DebitAmount
		mirror.Lines[i] = l
	}
	mirror.RecalculateTotals()
	return mirror
}

// ExpireStaleProcesses fails attempts left PROCESSING for longer than olderThan.
func (o *voucherOrchestrator) ExpireStaleProcesses(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := o.Now()
	expired, err := o.processRepo.ExpireStaleProcesses(ctx, now.Add(-olderThan), apperrors.CodeStaleProcess, now)
	if err != nil {
		o.LogError(ctx, err, "Failed to expire stale voucher processes")
		return 0, err
	}
	if expired > 0 {
		o.LogWarn(ctx, "Expired stale voucher processes", slog.Int64("count", expired))
	}
	return expired, nil
}

// GetVoucher retrieves a voucher with its lines.
func (o *voucherOrchestrator) GetVoucher(ctx context.Context, organizationID, voucherID, requestingUserID string) (*domain.Voucher, error) {
	if err := o.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	voucher, err := o.voucherRepo.FindVoucherByID(ctx, organizationID, voucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewVoucherNotFoundError(voucherID)
		}
		o.LogError(ctx, err, "Failed to find voucher", slog.String("voucher_id", voucherID))
		return nil, err
	}
	return voucher, nil
}

// ListProcesses retrieves the attempt history of a voucher, including attempts
// made before the voucher was deleted.
func (o *voucherOrchestrator) ListProcesses(ctx context.Context, organizationID, voucherID, requestingUserID string) ([]domain.VoucherProcess, error) {
	if err := o.gate.AuthorizeRole(ctx, requestingUserID, organizationID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	processes, err := o.processRepo.ListProcessesByVoucher(ctx, organizationID, voucherID)
	if err != nil {
		o.LogError(ctx, err, "Failed to list voucher processes", slog.String("voucher_id", voucherID))
		return nil, err
	}
	return processes, nil
}
