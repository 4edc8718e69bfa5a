package model

import "time"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// CreditNormal reports whether accounts of this type normally carry a credit
// balance. Liability, equity and revenue balances are presented with their
// sign flipped; asset and expense balances are presented as stored.
func (t AccountType) CreditNormal() bool {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return true
	}
	return false
}

// Account is one entry in a company's chart of accounts.
type Account struct {
	ID          int64       `json:"id"`
	CompanyID   int64       `json:"company_id"`
	Code        string      `json:"code"` // unique within the company
	Name        string      `json:"name"`
	Type        AccountType `json:"account_type"`
	ParentID    int64       `json:"parent_id"` // 0 = top-level
	Active      bool        `json:"is_active"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
