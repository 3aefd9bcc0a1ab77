package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/models"
)

// ToModelVoucher converts a domain Voucher to a model Voucher, encoding its metadata.
func ToModelVoucher(d domain.Voucher) (models.Voucher, error) {
	metadata, err := EncodeMetadata(d.Metadata)
	if err != nil {
		return models.Voucher{}, err
	}
	return models.Voucher{
		VoucherID:      d.VoucherID,
		OrganizationID: d.OrganizationID,
		JournalType:    d.JournalType,
		PeriodID:       d.PeriodID,
		VoucherDate:    d.VoucherDate,
		Description:    d.Description,
		CurrencyCode:   d.CurrencyCode,
		ExchangeRate:   d.ExchangeRate,
		Status:         string(d.Status),
		TotalDebit:     d.TotalDebit,
		TotalCredit:    d.TotalCredit,
		IdempotencyKey: d.IdempotencyKey,
		Metadata:       metadata,
		ApprovedBy:     d.ApprovedBy,
		ApprovedAt:     d.ApprovedAt,
		PostedBy:       d.PostedBy,
		PostedAt:       d.PostedAt,
		ReversalOfID:   d.ReversalOfID,
		ReversedByID:   d.ReversedByID,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainVoucher converts a model Voucher and its lines to a domain Voucher.
func ToDomainVoucher(m models.Voucher, lines []models.VoucherLine) (domain.Voucher, error) {
	metadata, err := DecodeMetadata(m.Metadata)
	if err != nil {
		return domain.Voucher{}, fmt.Errorf("voucher %s: %w", m.VoucherID, err)
	}
	return domain.Voucher{
		VoucherID:      m.VoucherID,
		OrganizationID: m.OrganizationID,
		JournalType:    m.JournalType,
		PeriodID:       m.PeriodID,
		VoucherDate:    m.VoucherDate,
		Description:    m.Description,
		CurrencyCode:   m.CurrencyCode,
		ExchangeRate:   m.ExchangeRate,
		Status:         domain.VoucherStatus(m.Status),
		TotalDebit:     m.TotalDebit,
		TotalCredit:    m.TotalCredit,
		IdempotencyKey: m.IdempotencyKey,
		Metadata:       metadata,
		ApprovedBy:     m.ApprovedBy,
		ApprovedAt:     m.ApprovedAt,
		PostedBy:       m.PostedBy,
		PostedAt:       m.PostedAt,
		ReversalOfID:   m.ReversalOfID,
		ReversedByID:   m.ReversedByID,
		Lines:          ToDomainVoucherLineSlice(lines),
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}, nil
}

// ToModelVoucherLine converts a domain VoucherLine to a model VoucherLine
func ToModelVoucherLine(d domain.VoucherLine) models.VoucherLine {
	return models.VoucherLine{
		LineID:       d.LineID,
		VoucherID:    d.VoucherID,
		LineNumber:   d.LineNumber,
		AccountID:    d.AccountID,
		Description:  d.Description,
		DebitAmount:  d.DebitAmount,
		CreditAmount: d.CreditAmount,
		CurrencyCode: d.CurrencyCode,
		ExchangeRate: d.ExchangeRate,
		CostCenterID: d.CostCenterID,
		DepartmentID: d.DepartmentID,
		ProjectID:    d.ProjectID,
		TaxCodeID:    d.TaxCodeID,
	}
}

// ToDomainVoucherLine converts a model VoucherLine to a domain VoucherLine
func ToDomainVoucherLine(m models.VoucherLine) domain.VoucherLine {
	return domain.VoucherLine{
		LineID:       m.LineID,
		VoucherID:    m.VoucherID,
		LineNumber:   m.LineNumber,
		AccountID:    m.AccountID,
		Description:  m.Description,
		DebitAmount:  m.DebitAmount,
		CreditAmount: m.CreditAmount,
		CurrencyCode: m.CurrencyCode,
		ExchangeRate: m.ExchangeRate,
		CostCenterID: m.CostCenterID,
		DepartmentID: m.DepartmentID,
		ProjectID:    m.ProjectID,
		TaxCodeID:    m.TaxCodeID,
	}
}

// ToDomainVoucherLineSlice converts a slice of model VoucherLines to a slice of domain VoucherLines
func ToDomainVoucherLineSlice(ms []models.VoucherLine) []domain.VoucherLine {
	ds := make([]domain.VoucherLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainVoucherLine(m)
	}
	return ds
}

// EncodeMetadata marshals voucher metadata for a JSONB column. Nil becomes an empty object.
func EncodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode voucher metadata: %w", err)
	}
	return b, nil
}

// DecodeMetadata unmarshals a JSONB metadata column. Empty input yields nil.
func DecodeMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode voucher metadata: %w", err)
	}
	return metadata, nil
}
