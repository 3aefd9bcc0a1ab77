package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// inventoryPayload is the wire shape of one entry of metadata["inventory_transactions"].
// Field order is the order fields are checked in.
type inventoryPayload struct {
	Type        string           `json:"type" validate:"omitempty,oneof=receipt issue"`
	ProductID   string           `json:"product_id" validate:"required"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	UOMID       string           `json:"uom_id" validate:"required"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"required,gt=0"`
	LineID      string           `json:"line_id" validate:"required"`
	VoucherID   string           `json:"voucher_id" validate:"required"`
	JournalID   string           `json:"journal_id" validate:"required"`

	UnitCost      *decimal.Decimal `json:"unit_cost"`
	GRIRAccountID string           `json:"grir_account_id"`
	COGSAccountID string           `json:"cogs_account_id"`
}

type receiptPayload struct {
	UnitCost      *decimal.Decimal `validate:"required,gt=0"`
	GRIRAccountID string           `validate:"required"`
}

type issuePayload struct {
	COGSAccountID string `validate:"required"`
}

// inventoryFieldCodes maps a payload field to the code reported when it is invalid.
var inventoryFieldCodes = map[string]string{
	"Type":          apperrors.CodeInventoryType,
	"ProductID":     apperrors.CodeInventoryProduct,
	"WarehouseID":   apperrors.CodeInventoryWarehouse,
	"UOMID":         apperrors.CodeInventoryUOM,
	"Quantity":      apperrors.CodeInventoryQuantity,
	"LineID":        apperrors.CodeInventoryLine,
	"VoucherID":     apperrors.CodeInventoryLinkage,
	"JournalID":     apperrors.CodeInventoryLinkage,
	"UnitCost":      apperrors.CodeInventoryUnitCost,
	"GRIRAccountID": apperrors.CodeInventoryGRIRAccount,
	"COGSAccountID": apperrors.CodeInventoryCOGSAccount,
}

var inventoryFieldMessages = map[string]string{
	"Type":          "transaction type must be receipt or issue",
	"ProductID":     "product is required",
	"WarehouseID":   "warehouse is required",
	"UOMID":         "unit of measure is required",
	"Quantity":      "quantity must be greater than zero",
	"LineID":        "originating voucher line is required",
	"VoucherID":     "voucher reference is required",
	"JournalID":     "journal reference is required",
	"UnitCost":      "unit cost must be greater than zero for receipts",
	"GRIRAccountID": "GR/IR clearing account is required for receipts",
	"COGSAccountID": "cost of goods sold account is required for issues",
}

// inventoryValidator checks the inventory metadata of inventory-affecting vouchers.
// It stops at the first invalid field of the first invalid transaction.
type inventoryValidator struct {
	validate *validator.Validate
}

// NewInventoryValidator creates an InventoryValidatorSvc.
func NewInventoryValidator() portssvc.InventoryValidatorSvc {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return &inventoryValidator{validate: v}
}

// Ensure inventoryValidator implements the InventoryValidatorSvc interface
var _ portssvc.InventoryValidatorSvc = (*inventoryValidator)(nil)

// decimalValue lets numeric validator tags compare decimal fields.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// ValidateInventoryMetadata is a no-op unless config affects inventory.
func (iv *inventoryValidator) ValidateInventoryMetadata(voucher *domain.Voucher, config *domain.VoucherModeConfig) error {
	if config == nil || !config.AffectsInventory {
		return nil
	}
	_, err := iv.DecodeInventoryTransactions(voucher)
	return err
}

// DecodeInventoryTransactions parses and validates metadata["inventory_transactions"].
func (iv *inventoryValidator) DecodeInventoryTransactions(voucher *domain.Voucher) ([]domain.InventoryTransaction, error) {
	payloads, err := readInventoryPayloads(voucher)
	if err != nil {
		return nil, err
	}

	lineIDs := make(map[string]struct{}, len(voucher.Lines))
	for _, l := range voucher.Lines {
		lineIDs[l.LineID] = struct{}{}
	}

	txns := make([]domain.InventoryTransaction, 0, len(payloads))
	for i, p := range payloads {
		index := i + 1

		if err := iv.checkStruct(index, p); err != nil {
			return nil, err
		}
		if p.VoucherID != voucher.VoucherID {
			return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryLinkage, index, "VoucherID",
				fmt.Sprintf("transaction references voucher %s, expected %s", p.VoucherID, voucher.VoucherID))
		}
		// A voucher is its own journal
		if p.JournalID != voucher.VoucherID {
			return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryLinkage, index, "JournalID",
				fmt.Sprintf("transaction references journal %s, expected %s", p.JournalID, voucher.VoucherID))
		}
		if _, ok := lineIDs[p.LineID]; !ok {
			return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryLine, index, "LineID",
				fmt.Sprintf("line %s does not belong to the voucher", p.LineID))
		}

		movement := domain.InventoryMovement{
			ProductID:   p.ProductID,
			WarehouseID: p.WarehouseID,
			UOMID:       p.UOMID,
			Quantity:    *p.Quantity,
			LineID:      p.LineID,
			VoucherID:   p.VoucherID,
			JournalID:   p.JournalID,
		}

		switch domain.InventoryTransactionType(p.Type) {
		case domain.InventoryReceipt:
			if err := iv.checkStruct(index, receiptPayload{UnitCost: p.UnitCost, GRIRAccountID: p.GRIRAccountID}); err != nil {
				return nil, err
			}
			txns = append(txns, domain.ReceiptTransaction{
				InventoryMovement: movement,
				UnitCost:          *p.UnitCost,
				GRIRAccountID:     p.GRIRAccountID,
			})
		default:
			if err := iv.checkStruct(index, issuePayload{COGSAccountID: p.COGSAccountID}); err != nil {
				return nil, err
			}
			txns = append(txns, domain.IssueTransaction{
				InventoryMovement: movement,
				COGSAccountID:     p.COGSAccountID,
			})
		}
	}
	return txns, nil
}

// checkStruct runs the struct tags of s and reports the first failing field.
func (iv *inventoryValidator) checkStruct(index int, s any) error {
	err := iv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, index, "", err.Error())
	}

	field := verrs[0].StructField()
	code, ok := inventoryFieldCodes[field]
	if !ok {
		code = apperrors.CodeInventoryPayload
	}
	msg := inventoryFieldMessages[field]
	if msg == "" {
		msg = verrs[0].Error()
	}
	return apperrors.NewInventoryValidationError(code, index, field, msg)
}

// readInventoryPayloads round-trips the loosely typed metadata value through JSON.
func readInventoryPayloads(voucher *domain.Voucher) ([]inventoryPayload, error) {
	raw, ok := voucher.Metadata[domain.MetadataInventoryTransactions]
	if !ok || raw == nil {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			"inventory transactions are required for this journal type")
	}

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			"inventory transactions could not be read")
	}

	var payloads []inventoryPayload
	if err := json.Unmarshal(encoded, &payloads); err != nil {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			fmt.Sprintf("inventory transactions are malformed: %v", err))
	}
	if len(payloads) == 0 {
		return nil, apperrors.NewInventoryValidationError(apperrors.CodeInventoryPayload, 0, domain.MetadataInventoryTransactions,
			"inventory transactions are required for this journal type")
	}
	return payloads, nil
}
