package dto

// UpsertVoucherConfigRequest defines the voucher mode configuration of one journal type.
type UpsertVoucherConfigRequest struct {
	JournalType      string `json:"journalType" binding:"required"`
	Name             string `json:"name" binding:"required"`
	RequiresApproval bool   `json:"requiresApproval"`
	AffectsInventory bool   `json:"affectsInventory"`
	IsActive         *bool  `json:"isActive"` // Defaults to true
}
