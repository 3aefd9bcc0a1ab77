package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultJournalType = "GENERAL"

	// maxAmountScale is the number of fractional digits a line amount may carry.
	maxAmountScale = 4

	// inventoryLineNumberKey lets a client point an inventory transaction at a
	// line before the line has an ID.
	inventoryLineNumberKey = "line_number"
)

// voucherBuilder creates and edits draft vouchers.
type voucherBuilder struct {
	BaseService
	voucherRepo portsrepo.VoucherRepositoryWithTx
	configSvc   portssvc.VoucherConfigSvc
	gate        portssvc.PermissionGateSvc
	validate    *validator.Validate
}

// NewVoucherBuilder creates a VoucherBuilderSvc. Requests are checked against
// their binding tags so callers outside HTTP get the same shape validation.
func NewVoucherBuilder(voucherRepo portsrepo.VoucherRepositoryWithTx, configSvc portssvc.VoucherConfigSvc, gate portssvc.PermissionGateSvc, clock Clock) portssvc.VoucherBuilderSvc {
	v := validator.New()
	v.SetTagName("binding")
	return &voucherBuilder{
		BaseService: BaseService{now: clock},
		voucherRepo: voucherRepo,
		configSvc:   configSvc,
		gate:        gate,
		validate:    v,
	}
}

// Ensure voucherBuilder implements the VoucherBuilderSvc interface
var _ portssvc.VoucherBuilderSvc = (*voucherBuilder)(nil)

// CreateVoucherTransaction saves a new draft, or rewrites an editable voucher when req.VoucherID is set.
func (b *voucherBuilder) CreateVoucherTransaction(ctx context.Context, organizationID string, req dto.CreateVoucherRequest, actorID string) (*domain.Voucher, error) {
	if err := b.gate.AuthorizeRole(ctx, actorID, organizationID, domain.RoleMember); err != nil {
		return nil, err
	}
	if err := b.validate.Struct(req); err != nil {
		return nil, err
	}
	for i, l := range req.Lines {
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			return nil, apperrors.NewValidationError(apperrors.CodeNegativeAmount, fmt.Sprintf("line %d has a negative amount", i+1))
		}
		if exceedsScale(l.DebitAmount) || exceedsScale(l.CreditAmount) {
			return nil, apperrors.NewValidationError(apperrors.CodeAmountPrecision,
				fmt.Sprintf("line %d has more than %d decimal places", i+1, maxAmountScale))
		}
	}

	journalType, err := b.resolveJournalType(ctx, organizationID, req)
	if err != nil {
		return nil, err
	}

	if req.VoucherID != nil && *req.VoucherID != "" {
		return b.updateVoucher(ctx, organizationID, *req.VoucherID, journalType, req, actorID)
	}

	now := b.Now()
	voucher := domain.Voucher{
		VoucherID:      uuid.NewString(),
		OrganizationID: organizationID,
		Status:         domain.VoucherDraft,
		AuditFields:    domain.NewAuditFields(actorID, now),
	}
	if err := applyHeader(&voucher, journalType, req); err != nil {
		return nil, err
	}

	tx, err := b.voucherRepo.Begin(ctx)
	if err != nil {
		b.LogError(ctx, err, "Failed to begin transaction")
		return nil, err
	}
	defer b.voucherRepo.Rollback(ctx, tx)

	if err := b.voucherRepo.SaveVoucher(ctx, tx, voucher); err != nil {
		b.LogError(ctx, err, "Failed to save voucher", slog.String("voucher_id", voucher.VoucherID))
		return nil, err
	}
	if err := b.voucherRepo.Commit(ctx, tx); err != nil {
		b.LogError(ctx, err, "Failed to commit voucher", slog.String("voucher_id", voucher.VoucherID))
		return nil, err
	}

	b.LogInfo(ctx, "Voucher created",
		slog.String("voucher_id", voucher.VoucherID),
		slog.String("journal_type", voucher.JournalType),
		slog.Int("lines", len(voucher.Lines)))
	return &voucher, nil
}

func (b *voucherBuilder) updateVoucher(ctx context.Context, organizationID, voucherID, journalType string, req dto.CreateVoucherRequest, actorID string) (*domain.Voucher, error) {
	tx, err := b.voucherRepo.Begin(ctx)
	if err != nil {
		b.LogError(ctx, err, "Failed to begin transaction")
		return nil, err
	}
	defer b.voucherRepo.Rollback(ctx, tx)

	voucher, err := b.voucherRepo.LockVoucherForUpdate(ctx, tx, voucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewVoucherNotFoundError(voucherID)
		}
		return nil, err
	}
	if voucher.OrganizationID != organizationID {
		return nil, apperrors.NewVoucherNotFoundError(voucherID)
	}
	if !voucher.Status.IsEditable() {
		return nil, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("voucher %s is %s and can no longer be edited", voucherID, voucher.Status))
	}
	if req.LastModifiedAt != nil && !req.LastModifiedAt.Equal(voucher.LastUpdatedAt) {
		return nil, apperrors.NewStaleVoucherError(voucherID)
	}

	now := b.Now()
	if err := applyHeader(voucher, journalType, req); err != nil {
		return nil, err
	}
	// Editing a rejected voucher returns it to draft
	voucher.Status = domain.VoucherDraft
	voucher.Touch(actorID, now)

	if err := b.voucherRepo.ReplaceVoucherLines(ctx, tx, *voucher); err != nil {
		b.LogError(ctx, err, "Failed to replace voucher lines", slog.String("voucher_id", voucherID))
		return nil, err
	}
	if err := b.voucherRepo.Commit(ctx, tx); err != nil {
		b.LogError(ctx, err, "Failed to commit voucher edit", slog.String("voucher_id", voucherID))
		return nil, err
	}

	b.LogInfo(ctx, "Voucher updated", slog.String("voucher_id", voucherID), slog.Int("lines", len(voucher.Lines)))
	return voucher, nil
}

// DeleteDraft removes an editable voucher and its lines.
func (b *voucherBuilder) DeleteDraft(ctx context.Context, organizationID, voucherID, actorID string) error {
	if err := b.gate.AuthorizeRole(ctx, actorID, organizationID, domain.RoleMember); err != nil {
		return err
	}

	tx, err := b.voucherRepo.Begin(ctx)
	if err != nil {
		b.LogError(ctx, err, "Failed to begin transaction")
		return err
	}
	defer b.voucherRepo.Rollback(ctx, tx)

	voucher, err := b.voucherRepo.LockVoucherForUpdate(ctx, tx, voucherID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewVoucherNotFoundError(voucherID)
		}
		return err
	}
	if voucher.OrganizationID != organizationID {
		return apperrors.NewVoucherNotFoundError(voucherID)
	}
	if !voucher.Status.IsEditable() {
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("voucher %s is %s and cannot be deleted", voucherID, voucher.Status))
	}

	if err := b.voucherRepo.DeleteDraftVoucher(ctx, tx, organizationID, voucherID); err != nil {
		b.LogError(ctx, err, "Failed to delete voucher", slog.String("voucher_id", voucherID))
		return err
	}
	if err := b.voucherRepo.Commit(ctx, tx); err != nil {
		return err
	}

	b.LogInfo(ctx, "Draft voucher deleted", slog.String("voucher_id", voucherID), slog.String("actor_id", actorID))
	return nil
}

// resolveJournalType prefers the configuration's journal type over the header's.
func (b *voucherBuilder) resolveJournalType(ctx context.Context, organizationID string, req dto.CreateVoucherRequest) (string, error) {
	if req.ConfigID != nil && *req.ConfigID != "" {
		cfg, err := b.configSvc.GetConfig(ctx, organizationID, *req.ConfigID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return "", apperrors.NewValidationError(apperrors.CodeValidation,
					fmt.Sprintf("voucher config %s not found", *req.ConfigID))
			}
			return "", err
		}
		if !cfg.IsActive {
			return "", apperrors.NewValidationError(apperrors.CodeValidation,
				fmt.Sprintf("voucher config %s is inactive", *req.ConfigID))
		}
		return cfg.JournalType, nil
	}

	jt := strings.ToUpper(strings.TrimSpace(req.Header.JournalType))
	if jt == "" {
		jt = defaultJournalType
	}
	return jt, nil
}

// applyHeader copies header and lines from req onto voucher, numbering lines from 1.
// A line keeps the ID of the stored line with the same number, and inventory
// transactions in the metadata are linked to the voucher and its lines.
func applyHeader(voucher *domain.Voucher, journalType string, req dto.CreateVoucherRequest) error {
	h := req.Header
	rate := h.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}

	existingIDs := make(map[int]string, len(voucher.Lines))
	for _, l := range voucher.Lines {
		existingIDs[l.LineNumber] = l.LineID
	}

	voucher.JournalType = journalType
	voucher.VoucherDate = h.VoucherDate
	voucher.Description = h.Description
	voucher.CurrencyCode = strings.ToUpper(h.CurrencyCode)
	voucher.ExchangeRate = rate

	voucher.Lines = make([]domain.VoucherLine, len(req.Lines))
	for i, l := range req.Lines {
		currency := strings.ToUpper(l.CurrencyCode)
		if currency == "" {
			currency = voucher.CurrencyCode
		}
		lineRate := l.ExchangeRate
		if lineRate.IsZero() {
			lineRate = rate
		}
		lineID, ok := existingIDs[i+1]
		if !ok {
			lineID = uuid.NewString()
		}
		voucher.Lines[i] = domain.VoucherLine{
			LineID:       lineID,
			VoucherID:    voucher.VoucherID,
			LineNumber:   i + 1,
			AccountID:    l.AccountID,
			Description:  l.Description,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			CurrencyCode: currency,
			ExchangeRate: lineRate,
			CostCenterID: l.CostCenterID,
			DepartmentID: l.DepartmentID,
			ProjectID:    l.ProjectID,
			TaxCodeID:    l.TaxCodeID,
		}
	}
	voucher.RecalculateTotals()

	metadata, err := linkInventoryTransactions(h.Metadata, voucher)
	if err != nil {
		return err
	}
	voucher.Metadata = metadata
	return nil
}

// linkInventoryTransactions returns a copy of metadata whose inventory transactions
// reference voucher as both voucher and journal. A transaction carrying line_number
// gets the ID of that line; other transactions keep their line_id.
func linkInventoryTransactions(metadata map[string]any, voucher *domain.Voucher) (map[string]any, error) {
	raw, ok := metadata[domain.MetadataInventoryTransactions]
	if !ok || raw == nil {
		return metadata, nil
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			"inventory transactions could not be read")
	}
	var txns []map[string]any
	if err := json.Unmarshal(encoded, &txns); err != nil {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			fmt.Sprintf("inventory transactions are malformed: %v", err))
	}

	linked := make([]any, len(txns))
	for i, txn := range txns {
		if txn == nil {
			// Left for the validator to reject
			continue
		}
		txn["voucher_id"] = voucher.VoucherID
		// A voucher is its own journal
		txn["journal_id"] = voucher.VoucherID
		if ref, ok := txn[inventoryLineNumberKey]; ok {
			n, ok := ref.(float64)
			if !ok || n != float64(int(n)) || int(n) < 1 || int(n) > len(voucher.Lines) {
				return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryLine, i+1, "LineID",
					fmt.Sprintf("line_number %v does not match a voucher line", ref))
			}
			txn["line_id"] = voucher.Lines[int(n)-1].LineID
		}
		linked[i] = txn
	}

	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	out[domain.MetadataInventoryTransactions] = linked
	return out, nil
}

// exceedsScale reports whether amount carries more fractional digits than maxAmountScale.
func exceedsScale(amount decimal.Decimal) bool {
	return !amount.Equal(amount.Truncate(maxAmountScale))
}
