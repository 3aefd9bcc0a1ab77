package domain

import "time"

// StepStatus tracks one pipeline step inside an attempt.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepDone       StepStatus = "done"
	StepFailed     StepStatus = "failed"
)

// ProcessStatus is the overall outcome of an attempt.
type ProcessStatus string

const (
	ProcessProcessing ProcessStatus = "PROCESSING"
	ProcessSucceeded  ProcessStatus = "SUCCEEDED"
	ProcessFailed     ProcessStatus = "FAILED"
)

// ProcessStep names the independently tracked pipeline steps.
type ProcessStep string

const (
	ProcessStepSaved     ProcessStep = "save"
	ProcessStepJournal   ProcessStep = "journal"
	ProcessStepGL        ProcessStep = "gl"
	ProcessStepInventory ProcessStep = "inventory"
)

// VoucherProcess is the durable record of one orchestration attempt.
// VoucherSnapshotID keeps the voucher id after the voucher row is deleted.
type VoucherProcess struct {
	ProcessID         string        `json:"processID"`
	VoucherID         *string       `json:"voucherID"`
	VoucherSnapshotID string        `json:"voucherSnapshotID"`
	OrganizationID    string        `json:"organizationID"`
	ActorID           string        `json:"actorID"`
	CommitType        CommitType    `json:"commitType"`
	IdempotencyKey    *string       `json:"idempotencyKey"`
	SavedStatus       StepStatus    `json:"savedStatus"`
	JournalStatus     StepStatus    `json:"journalStatus"`
	GLStatus          StepStatus    `json:"glStatus"`
	InventoryStatus   StepStatus    `json:"inventoryStatus"`
	Status            ProcessStatus `json:"status"`
	ErrorCode         *string       `json:"errorCode"`
	ErrorDetails      *string       `json:"errorDetails"`
	StartedAt         time.Time     `json:"startedAt"`
	EndedAt           *time.Time    `json:"endedAt"`
	DurationMS        int64         `json:"durationMS"`
}

// NewVoucherProcess starts an attempt with every step pending.
func NewVoucherProcess(processID, voucherID, organizationID, actorID string, commit CommitType, idempotencyKey *string, now time.Time) *VoucherProcess {
	vid := voucherID
	return &VoucherProcess{
		ProcessID:         processID,
		VoucherID:         &vid,
		VoucherSnapshotID: voucherID,
		OrganizationID:    organizationID,
		ActorID:           actorID,
		CommitType:        commit,
		IdempotencyKey:    idempotencyKey,
		SavedStatus:       StepPending,
		JournalStatus:     StepPending,
		GLStatus:          StepPending,
		InventoryStatus:   StepPending,
		Status:            ProcessProcessing,
		StartedAt:         now,
	}
}

// SetStep updates the status of a single step.
func (p *VoucherProcess) SetStep(step ProcessStep, status StepStatus) {
	switch step {
	case ProcessStepSaved:
		p.SavedStatus = status
	case ProcessStepJournal:
		p.JournalStatus = status
	case ProcessStepGL:
		p.GLStatus = status
	case ProcessStepInventory:
		p.InventoryStatus = status
	}
}

// Step returns the status of a single step.
func (p *VoucherProcess) Step(step ProcessStep) StepStatus {
	switch step {
	case ProcessStepSaved:
		return p.SavedStatus
	case ProcessStepJournal:
		return p.JournalStatus
	case ProcessStepGL:
		return p.GLStatus
	case ProcessStepInventory:
		return p.InventoryStatus
	}
	return ""
}

// Succeed marks the attempt succeeded. Steps listed in done are set to done;
// the rest keep their current status.
func (p *VoucherProcess) Succeed(now time.Time, done ...ProcessStep) {
	for _, step := range done {
		p.SetStep(step, StepDone)
	}
	p.Status = ProcessSucceeded
	p.finish(now)
}

// Fail marks the attempt failed, attributing the failure to step. Steps that
// were still in progress fall back to pending.
func (p *VoucherProcess) Fail(now time.Time, step ProcessStep, code, details string) {
	for _, s := range []ProcessStep{ProcessStepSaved, ProcessStepJournal, ProcessStepGL, ProcessStepInventory} {
		if p.Step(s) == StepInProgress {
			p.SetStep(s, StepPending)
		}
	}
	p.SetStep(step, StepFailed)
	p.Status = ProcessFailed
	p.ErrorCode = &code
	if details != "" {
		p.ErrorDetails = &details
	}
	p.finish(now)
}

// IsFinished reports whether the attempt has left PROCESSING.
func (p *VoucherProcess) IsFinished() bool {
	return p.Status != ProcessProcessing
}

func (p *VoucherProcess) finish(now time.Time) {
	end := now
	p.EndedAt = &end
	p.DurationMS = end.Sub(p.StartedAt).Milliseconds()
	if p.DurationMS < 0 {
		p.DurationMS = 0
	}
}
