package worker

import (
	"context"
	"fmt"
	"log/slog"

	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/middleware"
	"github.com/hibiken/asynq"
)

// taskClient is the part of asynq.Client the enqueuer needs.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskEnqueuer queues voucher processing on asynq.
type TaskEnqueuer struct {
	client taskClient
}

// NewTaskEnqueuer creates a TaskEnqueuer backed by client.
func NewTaskEnqueuer(client *asynq.Client) *TaskEnqueuer {
	return &TaskEnqueuer{client: client}
}

var _ portssvc.VoucherTaskEnqueuer = (*TaskEnqueuer)(nil)

// EnqueueProcess implements portssvc.VoucherTaskEnqueuer.
func (e *TaskEnqueuer) EnqueueProcess(ctx context.Context, req portssvc.ProcessRequest) (string, error) {
	task, err := NewProcessTask(req)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue voucher %s: %w", req.VoucherID, err)
	}

	middleware.GetLoggerFromCtx(ctx).Debug("Enqueued voucher processing",
		slog.String("voucher_id", req.VoucherID),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return info.ID, nil
}
