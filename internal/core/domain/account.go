package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account represents a ledger account that voucher lines post against.
type Account struct {
	AccountID      string      `json:"accountID"`      // Primary Key (e.g., UUID)
	OrganizationID string      `json:"organizationID"` // FK -> organizations.organization_id
	Code           string      `json:"code"`           // Chart of accounts code
	Name           string      `json:"name"`
	AccountType    AccountType `json:"accountType"` // ASSET, LIABILITY, etc.
	CurrencyCode   string      `json:"currencyCode"`
	IsActive       bool        `json:"isActive"` // Inactive accounts cannot receive postings
	AuditFields
}

// IsDebitNormal reports whether a debit increases the account balance.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}
