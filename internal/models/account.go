package models

// AccountType defines the fundamental accounting type of an account.
type AccountType string

// Account represents a ledger account row.
type Account struct {
	AccountID      string      `db:"account_id"`
	OrganizationID string      `db:"organization_id"`
	Code           string      `db:"code"`
	Name           string      `db:"name"`
	AccountType    AccountType `db:"account_type"`
	CurrencyCode   string      `db:"currency_code"`
	IsActive       bool        `db:"is_active"`
	AuditFields
}
