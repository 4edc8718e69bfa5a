package registry

import "github.com/openbooks-dev/openbooks/internal/model"

// DefaultChart returns the starter chart of accounts seeded into a new
// company.
func DefaultChart() []CreateParams {
	return []CreateParams{
		{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset, Description: "Cash on hand"},
		{Code: "1010", Name: "Business Checking", Type: model.AccountTypeAsset, Description: "Primary checking account"},
		{Code: "1020", Name: "Business Savings", Type: model.AccountTypeAsset, Description: "Savings account"},
		{Code: "1200", Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{Code: "2010", Name: "Credit Card", Type: model.AccountTypeLiability, Description: "Business credit card"},
		{Code: "2100", Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{Code: "3010", Name: "Owner's Equity", Type: model.AccountTypeEquity, Description: "Owner's equity"},
		{Code: "3020", Name: "Retained Earnings", Type: model.AccountTypeEquity},
		{Code: "4010", Name: "Service Revenue", Type: model.AccountTypeRevenue},
		{Code: "4020", Name: "Product Revenue", Type: model.AccountTypeRevenue},
		{Code: "5010", Name: "Advertising & Marketing", Type: model.AccountTypeExpense, Description: "Advertising costs"},
		{Code: "5020", Name: "Software & SaaS", Type: model.AccountTypeExpense, Description: "Software subscriptions"},
		{Code: "5030", Name: "Office Supplies", Type: model.AccountTypeExpense, Description: "Office supplies and expenses"},
		{Code: "5040", Name: "Professional Services", Type: model.AccountTypeExpense, Description: "Legal, accounting, consulting"},
		{Code: "5050", Name: "Rent & Utilities", Type: model.AccountTypeExpense},
	}
}
