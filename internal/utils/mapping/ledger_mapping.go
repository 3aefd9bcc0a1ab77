package mapping

import (
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:          d.EntryID,
		OrganizationID:   d.OrganizationID,
		AccountID:        d.AccountID,
		VoucherID:        d.VoucherID,
		LineID:           d.LineID,
		EntryDate:        d.EntryDate,
		DebitAmount:      d.DebitAmount,
		CreditAmount:     d.CreditAmount,
		FunctionalDebit:  d.FunctionalDebit,
		FunctionalCredit: d.FunctionalCredit,
		CurrencyCode:     d.CurrencyCode,
		ExchangeRate:     d.ExchangeRate,
		IsClosingEntry:   d.IsClosingEntry,
		IsArchived:       d.IsArchived,
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:          m.EntryID,
		OrganizationID:   m.OrganizationID,
		AccountID:        m.AccountID,
		VoucherID:        m.VoucherID,
		LineID:           m.LineID,
		EntryDate:        m.EntryDate,
		DebitAmount:      m.DebitAmount,
		CreditAmount:     m.CreditAmount,
		FunctionalDebit:  m.FunctionalDebit,
		FunctionalCredit: m.FunctionalCredit,
		CurrencyCode:     m.CurrencyCode,
		ExchangeRate:     m.ExchangeRate,
		IsClosingEntry:   m.IsClosingEntry,
		IsArchived:       m.IsArchived,
		CreatedAt:        m.CreatedAt,
		CreatedBy:        m.CreatedBy,
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to a slice of domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
