package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionState is the lifecycle state of a transaction.
type TransactionState string

const (
	// StateDraft transactions may be edited or deleted and contribute to no
	// balance or report.
	StateDraft TransactionState = "draft"
	// StatePosted transactions are immutable until unposted and are the only
	// transactions balances are derived from.
	StatePosted TransactionState = "posted"
)

// Transaction is a dated double-entry journal transaction. The signed sum of
// its line amounts is always exactly zero: positive amounts are debits,
// negative amounts are credits.
type Transaction struct {
	ID          int64             `json:"id"`
	CompanyID   int64             `json:"company_id"`
	Date        time.Time         `json:"transaction_date"`
	Description string            `json:"description"`
	Reference   string            `json:"reference,omitempty"`
	State       TransactionState  `json:"state"`
	CreatedBy   string            `json:"created_by"`
	Lines       []TransactionLine `json:"lines"`

	// Version counts committed mutations. Post, unpost, update and delete are
	// conditional on the version the caller read.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionLine is one side of a transaction. Lines are owned by their
// transaction and never referenced independently.
type TransactionLine struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	AccountID     int64           `json:"account_id"`
	Amount        decimal.Decimal `json:"amount"` // positive = debit, negative = credit
	Description   string          `json:"description,omitempty"`
	Order         int             `json:"line_order"`
}

// Posted reports whether the transaction contributes to balances.
func (t *Transaction) Posted() bool {
	return t.State == StatePosted
}

// Total returns the signed sum of all line amounts. Zero for a balanced
// transaction.
func (t *Transaction) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Debit returns the line amount if it is a debit, zero otherwise.
func (l TransactionLine) Debit() decimal.Decimal {
	if l.Amount.IsPositive() {
		return l.Amount
	}
	return decimal.Zero
}

// Credit returns the absolute line amount if it is a credit, zero otherwise.
func (l TransactionLine) Credit() decimal.Decimal {
	if l.Amount.IsNegative() {
		return l.Amount.Neg()
	}
	return decimal.Zero
}

// References reports whether any line touches the given account.
func (t *Transaction) References(accountID int64) bool {
	for _, l := range t.Lines {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}
