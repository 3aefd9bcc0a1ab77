package domain

import "github.com/shopspring/decimal"

// InventoryTransactionType distinguishes stock receipts from stock issues.
type InventoryTransactionType string

const (
	InventoryReceipt InventoryTransactionType = "receipt"
	InventoryIssue   InventoryTransactionType = "issue" // Default when no type is given
)

// InventoryTransaction is a stock movement carried in voucher metadata.
// It is implemented by ReceiptTransaction and IssueTransaction only.
type InventoryTransaction interface {
	Type() InventoryTransactionType
	Movement() InventoryMovement
}

// InventoryMovement holds the fields every stock movement carries.
type InventoryMovement struct {
	ProductID   string          `json:"productID"`
	WarehouseID string          `json:"warehouseID"`
	UOMID       string          `json:"uomID"`
	Quantity    decimal.Decimal `json:"quantity"`
	LineID      string          `json:"lineID"` // Originating voucher line
	VoucherID   string          `json:"voucherID"`
	JournalID   string          `json:"journalID"`
}

// ReceiptTransaction brings stock in at a unit cost, accrued against a GR/IR clearing account.
type ReceiptTransaction struct {
	InventoryMovement
	UnitCost      decimal.Decimal `json:"unitCost"`
	GRIRAccountID string          `json:"grirAccountID"`
}

func (ReceiptTransaction) Type() InventoryTransactionType { return InventoryReceipt }

func (r ReceiptTransaction) Movement() InventoryMovement { return r.InventoryMovement }

// TotalCost is quantity times unit cost.
func (r ReceiptTransaction) TotalCost() decimal.Decimal {
	return r.Quantity.Mul(r.UnitCost)
}

// IssueTransaction takes stock out, expensing it to a cost of goods sold account.
type IssueTransaction struct {
	InventoryMovement
	COGSAccountID string `json:"cogsAccountID"`
}

func (IssueTransaction) Type() InventoryTransactionType { return InventoryIssue }

func (i IssueTransaction) Movement() InventoryMovement { return i.InventoryMovement }
