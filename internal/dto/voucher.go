package dto

import (
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Actions accepted by the create-and-process endpoint.
const (
	ActionSave          = "save"
	ActionSubmitVoucher = "submit_voucher"
	ActionPostVoucher   = "post_voucher"
)

// VoucherLineRequest defines one line of a voucher being created or edited.
type VoucherLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	CurrencyCode string          `json:"currencyCode" binding:"omitempty,len=3"` // Defaults to the header currency
	ExchangeRate decimal.Decimal `json:"exchangeRate"`                          // Defaults to the header rate
	CostCenterID *string         `json:"costCenterID"`
	DepartmentID *string         `json:"departmentID"`
	ProjectID    *string         `json:"projectID"`
	TaxCodeID    *string         `json:"taxCodeID"`
}

// VoucherHeaderRequest defines the header fields of a voucher being created or edited.
type VoucherHeaderRequest struct {
	JournalType  string          `json:"journalType"` // Ignored when a config is given
	VoucherDate  time.Time       `json:"voucherDate" binding:"required"`
	Description  string          `json:"description"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Metadata     map[string]any  `json:"metadata"`
}

// CreateVoucherRequest defines the data needed to create a voucher, or to
// rewrite an editable one when VoucherID is set.
type CreateVoucherRequest struct {
	VoucherID      *string              `json:"voucherID"`
	ConfigID       *string              `json:"configID"`
	Header         VoucherHeaderRequest `json:"header"`
	Lines          []VoucherLineRequest `json:"lines" binding:"required,min=1,dive"`
	LastModifiedAt *time.Time           `json:"lastModifiedAt"` // Optimistic check on edits
}

// CreateAndProcessRequest builds a voucher and immediately processes it.
type CreateAndProcessRequest struct {
	CreateVoucherRequest
	Action string `json:"action" binding:"required,oneof=save submit_voucher post_voucher"`
}

// ProcessVoucherRequest advances an existing voucher.
type ProcessVoucherRequest struct {
	CommitType string `json:"commitType" binding:"required,oneof=save submit post"`
}

// RejectVoucherRequest sends a voucher awaiting approval back to its author.
type RejectVoucherRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// VoucherLineResponse defines the data returned for a voucher line.
type VoucherLineResponse struct {
	LineID       string          `json:"lineID"`
	LineNumber   int             `json:"lineNumber"`
	AccountID    string          `json:"accountID"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
}

// VoucherResponse defines the data returned for a voucher.
type VoucherResponse struct {
	VoucherID      string                `json:"voucherID"`
	OrganizationID string                `json:"organizationID"`
	JournalType    string                `json:"journalType"`
	VoucherDate    time.Time             `json:"voucherDate"`
	Description    string                `json:"description"`
	CurrencyCode   string                `json:"currencyCode"`
	ExchangeRate   decimal.Decimal       `json:"exchangeRate"`
	Status         domain.VoucherStatus  `json:"status"`
	TotalDebit     decimal.Decimal       `json:"totalDebit"`
	TotalCredit    decimal.Decimal       `json:"totalCredit"`
	PeriodID       *string               `json:"periodID,omitempty"`
	ApprovedBy     *string               `json:"approvedBy,omitempty"`
	PostedBy       *string               `json:"postedBy,omitempty"`
	PostedAt       *time.Time            `json:"postedAt,omitempty"`
	ReversalOfID   *string               `json:"reversalOfID,omitempty"`
	ReversedByID   *string               `json:"reversedByID,omitempty"`
	Lines          []VoucherLineResponse `json:"lines"`
	LastUpdatedAt  time.Time             `json:"lastUpdatedAt"`
}

// ToVoucherResponse converts a domain.Voucher to VoucherResponse DTO.
func ToVoucherResponse(v *domain.Voucher) VoucherResponse {
	lines := make([]VoucherLineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = VoucherLineResponse{
			LineID:       l.LineID,
			LineNumber:   l.LineNumber,
			AccountID:    l.AccountID,
			Description:  l.Description,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			CurrencyCode: l.CurrencyCode,
			ExchangeRate: l.ExchangeRate,
		}
	}
	return VoucherResponse{
		VoucherID:      v.VoucherID,
		OrganizationID: v.OrganizationID,
		JournalType:    v.JournalType,
		VoucherDate:    v.VoucherDate,
		Description:    v.Description,
		CurrencyCode:   v.CurrencyCode,
		ExchangeRate:   v.ExchangeRate,
		Status:         v.Status,
		TotalDebit:     v.TotalDebit,
		TotalCredit:    v.TotalCredit,
		PeriodID:       v.PeriodID,
		ApprovedBy:     v.ApprovedBy,
		PostedBy:       v.PostedBy,
		PostedAt:       v.PostedAt,
		ReversalOfID:   v.ReversalOfID,
		ReversedByID:   v.ReversedByID,
		Lines:          lines,
		LastUpdatedAt:  v.LastUpdatedAt,
	}
}

// ListVoucherProcessesResponse wraps the attempt history of a voucher.
type ListVoucherProcessesResponse struct {
	Processes []domain.VoucherProcess `json:"processes"`
}

// ProcessAcceptedResponse is returned when processing was queued instead of run inline.
type ProcessAcceptedResponse struct {
	VoucherID string `json:"voucherID"`
	TaskID    string `json:"taskID"`
}

// ErrorResponse is the body of every failed voucher request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
