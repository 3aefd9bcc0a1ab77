package models

import "time"

// VoucherProcess represents one orchestration attempt row.
type VoucherProcess struct {
	ProcessID         string     `db:"process_id"`
	VoucherID         *string    `db:"voucher_id"` // Nulled when the voucher is deleted
	VoucherSnapshotID string     `db:"voucher_snapshot_id"`
	OrganizationID    string     `db:"organization_id"`
	ActorID           string     `db:"actor_id"`
	CommitType        string     `db:"commit_type"`
	IdempotencyKey    *string    `db:"idempotency_key"`
	SavedStatus       string     `db:"saved_status"`
	JournalStatus     string     `db:"journal_status"`
	GLStatus          string     `db:"gl_status"`
	InventoryStatus   string     `db:"inventory_status"`
	Status            string     `db:"status"`
	ErrorCode         *string    `db:"error_code"`
	ErrorDetails      *string    `db:"error_details"`
	StartedAt         time.Time  `db:"started_at"`
	EndedAt           *time.Time `db:"ended_at"`
	DurationMS        int64      `db:"duration_ms"`
}
