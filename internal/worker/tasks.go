package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/hibiken/asynq"
)

// Task types handled by the voucher worker.
const (
	TypeVoucherProcess       = "voucher:process"
	TypeExpireStaleProcesses = "voucher_process:expire_stale"
)

// Queues used by the worker, with their relative priorities.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Queues is the priority map passed to the asynq server.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
}

// ProcessTaskPayload is the queued form of a processing request. The voucher
// mode config is resolved again by the worker.
type ProcessTaskPayload struct {
	OrganizationID string  `json:"organization_id"`
	VoucherID      string  `json:"voucher_id"`
	CommitType     string  `json:"commit_type"`
	ActorID        string  `json:"actor_id"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

// ToRequest converts the payload back into a processing request.
func (p ProcessTaskPayload) ToRequest() portssvc.ProcessRequest {
	return portssvc.ProcessRequest{
		OrganizationID: p.OrganizationID,
		VoucherID:      p.VoucherID,
		CommitType:     domain.CommitType(p.CommitType),
		ActorID:        p.ActorID,
		IdempotencyKey: p.IdempotencyKey,
	}
}

// ExpireStalePayload configures one sweep of stale attempts.
type ExpireStalePayload struct {
	OlderThanSeconds int64 `json:"older_than_seconds"`
}

// NewProcessTask builds a voucher:process task for req.
func NewProcessTask(req portssvc.ProcessRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(ProcessTaskPayload{
		OrganizationID: req.OrganizationID,
		VoucherID:      req.VoucherID,
		CommitType:     string(req.CommitType),
		ActorID:        req.ActorID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process payload: %w", err)
	}
	return asynq.NewTask(TypeVoucherProcess, payload, asynq.MaxRetry(5), asynq.Queue(QueueCritical)), nil
}

// NewExpireStaleTask builds a sweep task for attempts older than olderThan.
func NewExpireStaleTask(olderThan time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(ExpireStalePayload{OlderThanSeconds: int64(olderThan / time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expire payload: %w", err)
	}
	return asynq.NewTask(TypeExpireStaleProcesses, payload, asynq.MaxRetry(1), asynq.Queue(QueueDefault)), nil
}
