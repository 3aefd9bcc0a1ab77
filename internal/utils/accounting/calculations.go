package accounting

import (
	"fmt"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CalculateSignedAmount applies the correct sign to a ledger entry based on account type.
// This is used in both services and repositories to ensure consistent accounting logic.
func CalculateSignedAmount(entry domain.LedgerEntry, accountType domain.AccountType) (decimal.Decimal, error) {
	return SignedBalance(accountType, entry.FunctionalDebit, entry.FunctionalCredit)
}

// SignedBalance nets debit and credit totals on the account's normal side.
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func SignedBalance(accountType domain.AccountType, debit, credit decimal.Decimal) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return debit.Sub(credit), nil
	case domain.Liability, domain.Equity, domain.Revenue:
		return credit.Sub(debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
}

// SumLines returns the debit and credit totals of lines.
func SumLines(lines []domain.VoucherLine) (decimal.Decimal, decimal.Decimal) {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.DebitAmount)
		credit = credit.Add(l.CreditAmount)
	}
	return debit, credit
}
