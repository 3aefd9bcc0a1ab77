package accounting

import (
	"fmt"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
)

// CheckBalance verifies that lines form a valid double entry: at least one
// line, no negative amounts, no line carrying both sides, and total debit
// exactly equal to total credit. No tolerance is applied.
func CheckBalance(lines []domain.VoucherLine) error {
	if len(lines) == 0 {
		return apperrors.NewValidationError(apperrors.CodeNoLines, "voucher has no lines")
	}

	for _, l := range lines {
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			return apperrors.NewValidationError(apperrors.CodeNegativeAmount,
				fmt.Sprintf("line %d has a negative amount", l.LineNumber))
		}
		if !l.DebitAmount.IsZero() && !l.CreditAmount.IsZero() {
			return apperrors.NewValidationError(apperrors.CodeTwoSidedLine,
				fmt.Sprintf("line %d has both a debit and a credit amount", l.LineNumber))
		}
	}

	debit, credit := SumLines(lines)
	if !debit.Equal(credit) {
		return apperrors.NewUnbalancedEntryError(debit, credit)
	}
	return nil
}

// CheckPeriodOpen verifies that period covers date and is open. A nil period
// means no period covers the date.
func CheckPeriodOpen(period *domain.AccountingPeriod, date time.Time) error {
	if period == nil {
		return apperrors.NewPeriodClosedError("", date)
	}
	if !period.Contains(date) {
		return apperrors.NewPeriodClosedError("", date)
	}
	if period.Status != domain.PeriodOpen {
		return apperrors.NewPeriodClosedError(period.PeriodID, date)
	}
	return nil
}
