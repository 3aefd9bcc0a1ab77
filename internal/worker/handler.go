package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/hibiken/asynq"
)

// VoucherTaskHandler runs queued voucher work through the same services the
// HTTP handlers use.
type VoucherTaskHandler struct {
	vouchers   portssvc.VoucherProcessorSvc
	logger     *slog.Logger
	staleAfter time.Duration
}

// NewVoucherTaskHandler creates a VoucherTaskHandler. staleAfter is used when
// a sweep task does not carry its own threshold.
func NewVoucherTaskHandler(vouchers portssvc.VoucherProcessorSvc, logger *slog.Logger, staleAfter time.Duration) *VoucherTaskHandler {
	return &VoucherTaskHandler{vouchers: vouchers, logger: logger, staleAfter: staleAfter}
}

// HandleProcess runs one queued processing request. Failures that a retry
// cannot fix are returned with asynq.SkipRetry.
func (h *VoucherTaskHandler) HandleProcess(ctx context.Context, task *asynq.Task) error {
	var payload ProcessTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	taskID, _ := asynq.GetTaskID(ctx)
	logger := h.logger.With(
		slog.String("task_id", taskID),
		slog.String("task_type", task.Type()),
		slog.String("voucher_id", payload.VoucherID),
		slog.String("organization_id", payload.OrganizationID),
		slog.String("user_id", payload.ActorID),
	)
	ctx = middleware.WithLogger(ctx, logger)

	voucher, err := h.vouchers.Process(ctx, payload.ToRequest())
	if err != nil {
		vpe := apperrors.MapError(err)
		if vpe.Kind != apperrors.KindUnexpected {
			logger.Warn("Voucher processing rejected", slog.String("code", vpe.Code), slog.String("error", vpe.Error()))
			return fmt.Errorf("voucher %s: %s: %w", payload.VoucherID, vpe.Code, asynq.SkipRetry)
		}
		logger.Error("Voucher processing failed", slog.String("error", err.Error()))
		return fmt.Errorf("voucher %s: %w", payload.VoucherID, err)
	}

	logger.Info("Voucher processed", slog.String("status", string(voucher.Status)))
	return nil
}

// HandleExpireStale fails attempts left PROCESSING past the threshold.
func (h *VoucherTaskHandler) HandleExpireStale(ctx context.Context, task *asynq.Task) error {
	olderThan := h.staleAfter
	if len(task.Payload()) > 0 {
		var payload ExpireStalePayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.OlderThanSeconds > 0 {
			olderThan = time.Duration(payload.OlderThanSeconds) * time.Second
		}
	}

	ctx = middleware.WithLogger(ctx, h.logger.With(slog.String("task_type", task.Type())))
	expired, err := h.vouchers.ExpireStaleProcesses(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to expire stale processes: %w", err)
	}

	if expired > 0 {
		h.logger.Warn("Expired stale voucher processes", slog.Int64("count", expired), slog.Duration("older_than", olderThan))
	}
	return nil
}
