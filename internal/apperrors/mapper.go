package apperrors

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

type sentinelMapping struct {
	sentinel error
	code     string
	kind     ErrorKind
	message  string
}

// sentinelMappings is checked in order; the first sentinel found in the chain wins.
var sentinelMappings = []sentinelMapping{
	{sentinel: context.Canceled, code: CodeCancelled, kind: KindUnexpected, message: "request was cancelled"},
	{sentinel: context.DeadlineExceeded, code: CodeCancelled, kind: KindUnexpected, message: "request timed out"},
	{sentinel: ErrConflict, code: CodeConflict, kind: KindConflict, message: "voucher is being processed by another request"},
	{sentinel: ErrDuplicate, code: CodeConflict, kind: KindConflict, message: "resource already exists"},
	{sentinel: ErrForbidden, code: CodePostForbidden, kind: KindForbidden, message: "not allowed to perform this action"},
	{sentinel: ErrNotFound, code: CodeVoucherNotFound, kind: KindNotFound, message: "resource not found"},
	{sentinel: ErrValidation, code: CodeValidation, kind: KindValidation, message: "validation failed"},
}

// MapError converts any error raised while processing a voucher into a
// VoucherProcessError with a stable code. Errors that already carry a code
// are returned unchanged; the original message of anything else is kept in
// Details.
func MapError(err error) *VoucherProcessError {
	if err == nil {
		return nil
	}

	if vpe, ok := AsProcessError(err); ok {
		return vpe
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, fe.Field())
		}
		vpe := newProcessError(CodeValidation, KindValidation, "invalid fields: "+strings.Join(fields, ", "), err)
		return vpe
	}

	for _, m := range sentinelMappings {
		if errors.Is(err, m.sentinel) {
			return newProcessError(m.code, m.kind, m.message, err)
		}
	}

	return NewUnexpectedError(err)
}
