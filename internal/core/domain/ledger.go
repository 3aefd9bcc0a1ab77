package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// functionalScale is the number of fractional digits kept for functional amounts.
const functionalScale = 4

// LedgerEntry is an append-only general ledger row produced from one voucher line.
type LedgerEntry struct {
	EntryID          string          `json:"entryID"`
	OrganizationID   string          `json:"organizationID"`
	AccountID        string          `json:"accountID"`
	VoucherID        string          `json:"voucherID"`
	LineID           string          `json:"lineID"`
	EntryDate        time.Time       `json:"entryDate"`
	DebitAmount      decimal.Decimal `json:"debitAmount"`
	CreditAmount     decimal.Decimal `json:"creditAmount"`
	FunctionalDebit  decimal.Decimal `json:"functionalDebit"`
	FunctionalCredit decimal.Decimal `json:"functionalCredit"`
	CurrencyCode     string          `json:"currencyCode"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
	IsClosingEntry   bool            `json:"isClosingEntry"`
	IsArchived       bool            `json:"isArchived"`
	CreatedAt        time.Time       `json:"createdAt"`
	CreatedBy        string          `json:"createdBy"`
}

// NewLedgerEntry builds the entry for line of voucher. A line without its own
// exchange rate inherits the voucher rate, and a missing voucher rate means 1.
func NewLedgerEntry(entryID string, voucher *Voucher, line VoucherLine, actorID string, now time.Time) LedgerEntry {
	rate := line.ExchangeRate
	if rate.IsZero() {
		rate = voucher.ExchangeRate
	}
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	currency := line.CurrencyCode
	if currency == "" {
		currency = voucher.CurrencyCode
	}

	return LedgerEntry{
		EntryID:          entryID,
		OrganizationID:   voucher.OrganizationID,
		AccountID:        line.AccountID,
		VoucherID:        voucher.VoucherID,
		LineID:           line.LineID,
		EntryDate:        voucher.VoucherDate,
		DebitAmount:      line.DebitAmount,
		CreditAmount:     line.CreditAmount,
		FunctionalDebit:  line.DebitAmount.Mul(rate).Round(functionalScale),
		FunctionalCredit: line.CreditAmount.Mul(rate).Round(functionalScale),
		CurrencyCode:     currency,
		ExchangeRate:     rate,
		IsClosingEntry:   voucher.IsClosingEntry(),
		CreatedAt:        now,
		CreatedBy:        actorID,
	}
}

// AccountBalance is a balance derived from ledger entries; it is never stored.
type AccountBalance struct {
	AccountID   string          `json:"accountID"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Balance     decimal.Decimal `json:"balance"` // Signed by the account's normal side
}

// PeriodStatus is the posting state of an accounting period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod is a bounded date range that must be open to accept postings.
type AccountingPeriod struct {
	PeriodID       string       `json:"periodID"`
	OrganizationID string       `json:"organizationID"`
	Name           string       `json:"name"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"` // Inclusive
	Status         PeriodStatus `json:"status"`
}

// Contains reports whether date falls on or between the start and end days.
func (p *AccountingPeriod) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(p.StartDate)) && !d.After(truncateDay(p.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
