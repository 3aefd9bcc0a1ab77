package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorKind groups voucher process error codes by how callers should react.
type ErrorKind string

const (
	KindConflict   ErrorKind = "CONFLICT"
	KindForbidden  ErrorKind = "FORBIDDEN"
	KindValidation ErrorKind = "VALIDATION_FAILED"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindUnexpected ErrorKind = "UNEXPECTED"
)

// FailureStep is the pipeline step a failure is attributed to.
type FailureStep string

const (
	StepSave      FailureStep = "save"
	StepJournal   FailureStep = "journal"
	StepGL        FailureStep = "gl"
	StepInventory FailureStep = "inventory"
)

// Stable error codes. Callers (UI, API, audit log) branch on these, so a code
// is never reused for a different condition.
const (
	CodeConflict          = "VCH-409"
	CodeApprovalRequired  = "VCH-403"
	CodePostForbidden     = "VCH-407"
	CodeVoucherNotFound   = "VCH-404"
	CodeStaleProcess      = "VCH-408"
	CodeAccessDenied      = "VCH-406"
	CodeStaleVoucher      = "VCH-412"
	CodeInvalidTransition = "VCH-420"
	CodeValidation        = "VCH-422"
	CodeCancelled         = "VCH-499"
	CodeUnexpected        = "VCH-500"

	CodeUnbalancedEntry = "GL-001"
	CodePeriodClosed    = "GL-002"
	CodeNegativeAmount  = "GL-003"
	CodeTwoSidedLine    = "GL-004"
	CodeNoLines         = "GL-005"
	CodeInvalidAccount  = "GL-006"
	CodePostingWrite    = "GL-007"
	CodeAmountPrecision = "GL-008"

	CodeInventoryPayload     = "INV-001"
	CodeInventoryProduct     = "INV-002"
	CodeInventoryType        = "INV-003"
	CodeInventoryWarehouse   = "INV-004"
	CodeInventoryUOM         = "INV-005"
	CodeInventoryQuantity    = "INV-006"
	CodeInventoryUnitCost    = "INV-007"
	CodeInventoryGRIRAccount = "INV-008"
	CodeInventoryLine        = "INV-009"
	CodeInventoryLinkage     = "INV-010"
	CodeInventoryCOGSAccount = "INV-011"
)

const (
	glCodePrefix        = "GL-"
	inventoryCodePrefix = "INV-"
)

// VoucherProcessError is the stable (code, message) pair surfaced by the
// voucher pipeline. Details keeps the original cause text for the attempt
// record; it is never shown to end users.
type VoucherProcessError struct {
	Code    string
	Message string
	Kind    ErrorKind
	Details string
	Err     error
}

func (e *VoucherProcessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VoucherProcessError) Unwrap() error {
	return e.Err
}

// Step attributes the error to a pipeline step using its code family.
func (e *VoucherProcessError) Step() FailureStep {
	switch {
	case strings.HasPrefix(e.Code, inventoryCodePrefix):
		return StepInventory
	case strings.HasPrefix(e.Code, glCodePrefix):
		return StepGL
	default:
		return StepSave
	}
}

// HTTPStatus translates the error kind into the status code the REST layer returns.
func (e *VoucherProcessError) HTTPStatus() int {
	switch e.Kind {
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AsProcessError extracts a *VoucherProcessError from err's chain.
func AsProcessError(err error) (*VoucherProcessError, bool) {
	var vpe *VoucherProcessError
	if errors.As(err, &vpe) {
		return vpe, true
	}
	return nil, false
}

// HasCode reports whether err carries the given voucher process error code.
func HasCode(err error, code string) bool {
	vpe, ok := AsProcessError(err)
	return ok && vpe.Code == code
}

func newProcessError(code string, kind ErrorKind, message string, cause error) *VoucherProcessError {
	vpe := &VoucherProcessError{Code: code, Kind: kind, Message: message, Err: cause}
	if cause != nil {
		vpe.Details = cause.Error()
	}
	return vpe
}

// NewConflictError reports an idempotency key mismatch or a concurrent attempt.
func NewConflictError(message string) *VoucherProcessError {
	return newProcessError(CodeConflict, KindConflict, message, ErrConflict)
}

// NewApprovalRequiredError reports that a voucher awaiting approval cannot be advanced by the actor.
func NewApprovalRequiredError(message string) *VoucherProcessError {
	return newProcessError(CodeApprovalRequired, KindForbidden, message, ErrForbidden)
}

// NewPostForbiddenError reports that the actor lacks the post permission.
func NewPostForbiddenError(message string) *VoucherProcessError {
	return newProcessError(CodePostForbidden, KindForbidden, message, ErrForbidden)
}

// NewAccessDeniedError reports an actor acting on an organization it does not belong to,
// or without the permission the operation needs.
func NewAccessDeniedError(message string) *VoucherProcessError {
	return newProcessError(CodeAccessDenied, KindForbidden, message, ErrForbidden)
}

// NewVoucherNotFoundError reports a missing voucher (or one owned by another organization).
func NewVoucherNotFoundError(voucherID string) *VoucherProcessError {
	return newProcessError(CodeVoucherNotFound, KindNotFound, "voucher "+voucherID+" not found", ErrNotFound)
}

// NewInvalidTransitionError reports a commit type that the current status does not accept.
func NewInvalidTransitionError(message string) *VoucherProcessError {
	return newProcessError(CodeInvalidTransition, KindValidation, message, ErrValidation)
}

// NewStaleVoucherError reports that the voucher changed since the caller last read it.
func NewStaleVoucherError(voucherID string) *VoucherProcessError {
	return newProcessError(CodeStaleVoucher, KindConflict, "voucher "+voucherID+" was modified by another request", ErrConflict)
}

// NewValidationError creates a validation failure with an explicit code.
func NewValidationError(code, message string) *VoucherProcessError {
	return newProcessError(code, KindValidation, message, ErrValidation)
}

// NewPostingWriteError wraps a persistence failure while producing ledger rows.
func NewPostingWriteError(cause error) *VoucherProcessError {
	return newProcessError(CodePostingWrite, KindUnexpected, "failed to write general ledger entries", cause)
}

// NewUnexpectedError wraps any cause that has no more specific code.
func NewUnexpectedError(cause error) *VoucherProcessError {
	return newProcessError(CodeUnexpected, KindUnexpected, "unexpected error while processing voucher", cause)
}

// UnbalancedEntryError is returned when the sum of debits differs from the sum of credits.
type UnbalancedEntryError struct {
	*VoucherProcessError
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal
}

// NewUnbalancedEntryError builds the error from the computed totals.
func NewUnbalancedEntryError(totalDebit, totalCredit decimal.Decimal) *UnbalancedEntryError {
	diff := totalDebit.Sub(totalCredit)
	msg := fmt.Sprintf("voucher is not balanced: debit %s, credit %s, difference %s",
		totalDebit.StringFixed(4), totalCredit.StringFixed(4), diff.StringFixed(4))
	return &UnbalancedEntryError{
		VoucherProcessError: newProcessError(CodeUnbalancedEntry, KindValidation, msg, ErrValidation),
		TotalDebit:          totalDebit,
		TotalCredit:         totalCredit,
		Difference:          diff,
	}
}

func (e *UnbalancedEntryError) Unwrap() error {
	return e.VoucherProcessError
}

// PeriodClosedError is returned when the posting date has no open accounting period.
type PeriodClosedError struct {
	*VoucherProcessError
	PeriodID string
	Date     time.Time
}

// NewPeriodClosedError builds the error. periodID is empty when no period covers the date.
func NewPeriodClosedError(periodID string, date time.Time) *PeriodClosedError {
	msg := "no open accounting period for " + date.Format("2006-01-02")
	if periodID != "" {
		msg = fmt.Sprintf("accounting period %s is closed for %s", periodID, date.Format("2006-01-02"))
	}
	return &PeriodClosedError{
		VoucherProcessError: newProcessError(CodePeriodClosed, KindValidation, msg, ErrValidation),
		PeriodID:            periodID,
		Date:                date,
	}
}

func (e *PeriodClosedError) Unwrap() error {
	return e.VoucherProcessError
}

// InventoryValidationError identifies the inventory transaction (1-based) and
// the field that failed validation.
type InventoryValidationError struct {
	*VoucherProcessError
	Index int
	Field string
}

// NewInventoryValidationError builds the error for transaction index and field.
func NewInventoryValidationError(code string, index int, field, message string) *InventoryValidationError {
	msg := fmt.Sprintf("inventory transaction %d: %s", index, message)
	vpe := newProcessError(code, KindValidation, msg, ErrValidation)
	vpe.Details = fmt.Sprintf("index=%d field=%s", index, field)
	return &InventoryValidationError{VoucherProcessError: vpe, Index: index, Field: field}
}

func (e *InventoryValidationError) Unwrap() error {
	return e.VoucherProcessError
}
