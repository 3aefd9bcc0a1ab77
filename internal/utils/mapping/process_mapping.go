package mapping

import (
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/SscSPs/voucher_posting_service/internal/models"
)

// ToModelVoucherProcess converts a domain VoucherProcess to a model VoucherProcess
func ToModelVoucherProcess(d domain.VoucherProcess) models.VoucherProcess {
	return models.VoucherProcess{
		ProcessID:         d.ProcessID,
		VoucherID:         d.VoucherID,
		VoucherSnapshotID: d.VoucherSnapshotID,
		OrganizationID:    d.OrganizationID,
		ActorID:           d.ActorID,
		CommitType:        string(d.CommitType),
		IdempotencyKey:    d.IdempotencyKey,
		SavedStatus:       string(d.SavedStatus),
		JournalStatus:     string(d.JournalStatus),
		GLStatus:          string(d.GLStatus),
		InventoryStatus:   string(d.InventoryStatus),
		Status:            string(d.Status),
		ErrorCode:         d.ErrorCode,
		ErrorDetails:      d.ErrorDetails,
		StartedAt:         d.StartedAt,
		EndedAt:           d.EndedAt,
		DurationMS:        d.DurationMS,
	}
}

// ToDomainVoucherProcess converts a model VoucherProcess to a domain VoucherProcess
func ToDomainVoucherProcess(m models.VoucherProcess) domain.VoucherProcess {
	return domain.VoucherProcess{
		ProcessID:         m.ProcessID,
		VoucherID:         m.VoucherID,
		VoucherSnapshotID: m.VoucherSnapshotID,
		OrganizationID:    m.OrganizationID,
		ActorID:           m.ActorID,
		CommitType:        domain.CommitType(m.CommitType),
		IdempotencyKey:    m.IdempotencyKey,
		SavedStatus:       domain.StepStatus(m.SavedStatus),
		JournalStatus:     domain.StepStatus(m.JournalStatus),
		GLStatus:          domain.StepStatus(m.GLStatus),
		InventoryStatus:   domain.StepStatus(m.InventoryStatus),
		Status:            domain.ProcessStatus(m.Status),
		ErrorCode:         m.ErrorCode,
		ErrorDetails:      m.ErrorDetails,
		StartedAt:         m.StartedAt,
		EndedAt:           m.EndedAt,
		DurationMS:        m.DurationMS,
	}
}
