package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/dto"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// IdempotencyKeyHeader carries the caller supplied idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// respondError maps err to its stable code and writes it. Unexpected errors are
// logged at error level, everything else at warn.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	vpe := apperrors.MapError(err)

	attrs := []any{slog.String("code", vpe.Code), slog.String("error", err.Error())}
	if vpe.Kind == apperrors.KindUnexpected {
		logger.Error(msg, attrs...)
	} else {
		logger.Warn(msg, attrs...)
	}

	c.JSON(vpe.HTTPStatus(), dto.ErrorResponse{Code: vpe.Code, Message: vpe.Message})
}

// respondBindError reports a request that could not be bound. Failed binding
// rules read as a validation error, anything else as a malformed body.
func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		respondError(c, err, "Request failed validation")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: apperrors.CodeValidation, Message: "Invalid request format"})
}

// actorFromContext returns the authenticated user or writes 401.
func actorFromContext(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "Unauthorized"})
		return "", false
	}
	return userID, true
}

func idempotencyKey(c *gin.Context) *string {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" {
		return nil
	}
	return &key
}
