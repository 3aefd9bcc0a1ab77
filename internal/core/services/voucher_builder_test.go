package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/core/services"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilderFixture(t *testing.T) (*memStore, func() time.Time) {
	t.Helper()
	store := newMemStore()
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	return store, func() time.Time { return now }
}

// newBuilder wires a builder whose users user-1 and user-2 are members of org-1.
func newBuilder(store *memStore, clock func() time.Time) portssvc.VoucherBuilderSvc {
	store.join("user-1", "org-1", domain.RoleMember)
	store.join("user-2", "org-1", domain.RoleMember)
	gate := services.NewPermissionGate(store, 0, 0)
	return services.NewVoucherBuilder(store, services.NewVoucherConfigService(store, nil, gate), gate, clock)
}

func voucherRequest() dto.CreateVoucherRequest {
	return dto.CreateVoucherRequest{
		Header: dto.VoucherHeaderRequest{
			VoucherDate:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			CurrencyCode: "eur",
			ExchangeRate: decimal.RequireFromString("1.1"),
		},
		Lines: []dto.VoucherLineRequest{
			{AccountID: "acc-1", DebitAmount: decimal.NewFromInt(40)},
			{AccountID: "acc-2", CreditAmount: decimal.NewFromInt(40), ExchangeRate: decimal.RequireFromString("1.2")},
		},
	}
}

func TestVoucherBuilder_CreateDraft(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)

	v, err := builder.CreateVoucherTransaction(context.Background(), "org-1", voucherRequest(), "user-1")

	require.NoError(t, err)
	assert.NotEmpty(t, v.VoucherID)
	assert.Equal(t, domain.VoucherDraft, v.Status)
	assert.Equal(t, "GENERAL", v.JournalType)
	assert.Equal(t, "EUR", v.CurrencyCode)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, 1, v.Lines[0].LineNumber)
	assert.Equal(t, 2, v.Lines[1].LineNumber)
	assert.Equal(t, "EUR", v.Lines[0].CurrencyCode)
	assert.True(t, v.Lines[0].ExchangeRate.Equal(decimal.RequireFromString("1.1")), "line inherits header rate")
	assert.True(t, v.Lines[1].ExchangeRate.Equal(decimal.RequireFromString("1.2")))
	assert.True(t, v.TotalDebit.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "user-1", v.CreatedBy)

	stored := store.voucher(v.VoucherID)
	assert.Equal(t, v.VoucherID, stored.VoucherID)
}

func TestVoucherBuilder_RejectsBadShape(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)

	req := voucherRequest()
	req.Lines = nil
	_, err := builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
	assert.Equal(t, apperrors.CodeValidation, apperrors.MapError(err).Code)

	req = voucherRequest()
	req.Lines[0].DebitAmount = decimal.NewFromInt(-1)
	_, err = builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNegativeAmount))
}

func TestVoucherBuilder_UsesConfigJournalType(t *testing.T) {
	store, clock := newBuilderFixture(t)
	store.setConfig(domain.VoucherModeConfig{ConfigID: "cfg-sales", OrganizationID: "org-1", JournalType: "SALES", IsActive: true})
	builder := newBuilder(store, clock)

	req := voucherRequest()
	req.ConfigID = strPtr("cfg-sales")
	req.Header.JournalType = "GENERAL"
	v, err := builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")

	require.NoError(t, err)
	assert.Equal(t, "SALES", v.JournalType)

	req.ConfigID = strPtr("cfg-missing")
	_, err = builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestVoucherBuilder_EditDraft(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	ctx := context.Background()

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), "user-1")
	require.NoError(t, err)

	edit := voucherRequest()
	edit.VoucherID = &created.VoucherID
	edit.LastModifiedAt = &created.LastUpdatedAt
	edit.Lines = append(edit.Lines, dto.VoucherLineRequest{AccountID: "acc-3"})

	updated, err := builder.CreateVoucherTransaction(ctx, "org-1", edit, "user-2")
	require.NoError(t, err)
	assert.Equal(t, created.VoucherID, updated.VoucherID)
	assert.Len(t, updated.Lines, 3)
	assert.Equal(t, "user-2", updated.LastUpdatedBy)
	assert.Len(t, store.voucher(created.VoucherID).Lines, 3)
}

func TestVoucherBuilder_EditStaleVoucher(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	ctx := context.Background()

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), "user-1")
	require.NoError(t, err)

	stale := created.LastUpdatedAt.Add(-time.Minute)
	edit := voucherRequest()
	edit.VoucherID = &created.VoucherID
	edit.LastModifiedAt = &stale

	_, err = builder.CreateVoucherTransaction(ctx, "org-1", edit, "user-2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStaleVoucher))
}

func TestVoucherBuilder_PostedVoucherIsImmutable(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	store.addVoucher(domain.Voucher{VoucherID: "v-posted", OrganizationID: "org-1", Status: domain.VoucherPosted})
	ctx := context.Background()

	edit := voucherRequest()
	edit.VoucherID = strPtr("v-posted")
	_, err := builder.CreateVoucherTransaction(ctx, "org-1", edit, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	err = builder.DeleteDraft(ctx, "org-1", "v-posted", "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	assert.Equal(t, domain.VoucherPosted, store.voucher("v-posted").Status)
}

func TestVoucherBuilder_DeleteDraft(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	ctx := context.Background()

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), "user-1")
	require.NoError(t, err)

	require.NoError(t, builder.DeleteDraft(ctx, "org-1", created.VoucherID, "user-1"))
	_, err = store.FindVoucherByID(ctx, "org-1", created.VoucherID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = builder.DeleteDraft(ctx, "org-1", created.VoucherID, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVoucherNotFound))

	store.join("user-1", "org-2", domain.RoleMember)
	err = builder.DeleteDraft(ctx, "org-2", "whatever", "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVoucherNotFound))
}

func TestVoucherBuilder_RequiresMembership(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	store.join("viewer", "org-1", domain.RoleReadOnly)
	ctx := context.Background()

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), "user-1")
	require.NoError(t, err)

	for _, actor := range []string{"stranger", "viewer"} {
		_, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), actor)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied), actor)

		edit := voucherRequest()
		edit.VoucherID = &created.VoucherID
		_, err = builder.CreateVoucherTransaction(ctx, "org-1", edit, actor)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied), actor)

		err = builder.DeleteDraft(ctx, "org-1", created.VoucherID, actor)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied), actor)
	}

	_, err = builder.CreateVoucherTransaction(ctx, "org-2", voucherRequest(), "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied), "membership is per organization")
	assert.Len(t, store.vouchers, 1)
}

func TestVoucherBuilder_RejectsExcessPrecision(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)

	req := voucherRequest()
	req.Lines[0].DebitAmount = decimal.RequireFromString("40.00001")
	req.Lines[1].CreditAmount = decimal.RequireFromString("40.00001")
	_, err := builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAmountPrecision))
	assert.Empty(t, store.vouchers)

	req = voucherRequest()
	req.Lines[0].DebitAmount = decimal.RequireFromString("40.12340")
	req.Lines[1].CreditAmount = decimal.RequireFromString("40.1234")
	_, err = builder.CreateVoucherTransaction(context.Background(), "org-1", req, "user-1")
	assert.NoError(t, err, "trailing zeros do not count")
}

func TestVoucherBuilder_LinksInventoryTransactions(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	ctx := context.Background()

	req := voucherRequest()
	req.Header.Metadata = map[string]any{
		domain.MetadataInventoryTransactions: []any{
			map[string]any{"type": "receipt", "product_id": "prod-1", "line_number": 2, "voucher_id": "spoofed"},
			map[string]any{"type": "issue", "product_id": "prod-2", "line_id": "kept"},
		},
		"source": "pos",
	}

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", req, "user-1")
	require.NoError(t, err)

	txns := created.Metadata[domain.MetadataInventoryTransactions].([]any)
	require.Len(t, txns, 2)
	first := txns[0].(map[string]any)
	assert.Equal(t, created.VoucherID, first["voucher_id"])
	assert.Equal(t, created.VoucherID, first["journal_id"])
	assert.Equal(t, created.Lines[1].LineID, first["line_id"])
	assert.Equal(t, "kept", txns[1].(map[string]any)["line_id"])
	assert.Equal(t, "pos", created.Metadata["source"])
	assert.Equal(t, "spoofed", req.Header.Metadata[domain.MetadataInventoryTransactions].([]any)[0].(map[string]any)["voucher_id"],
		"the request metadata is not modified")

	req.Header.Metadata[domain.MetadataInventoryTransactions] = []any{map[string]any{"line_number": 3}}
	_, err = builder.CreateVoucherTransaction(ctx, "org-1", req, "user-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInventoryLine))
}

func TestVoucherBuilder_EditKeepsLineIDs(t *testing.T) {
	store, clock := newBuilderFixture(t)
	builder := newBuilder(store, clock)
	ctx := context.Background()

	created, err := builder.CreateVoucherTransaction(ctx, "org-1", voucherRequest(), "user-1")
	require.NoError(t, err)

	edit := voucherRequest()
	edit.VoucherID = &created.VoucherID
	edit.Lines = append(edit.Lines, dto.VoucherLineRequest{AccountID: "acc-3"})
	updated, err := builder.CreateVoucherTransaction(ctx, "org-1", edit, "user-1")
	require.NoError(t, err)

	require.Len(t, updated.Lines, 3)
	assert.Equal(t, created.Lines[0].LineID, updated.Lines[0].LineID)
	assert.Equal(t, created.Lines[1].LineID, updated.Lines[1].LineID)
	assert.NotEmpty(t, updated.Lines[2].LineID)
	assert.NotEqual(t, created.Lines[1].LineID, updated.Lines[2].LineID)
}
