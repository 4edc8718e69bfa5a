package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openbooks-dev/openbooks/internal/model"
)

// AccountBalance is one account row in a report. DebitTotal and CreditTotal
// are the separated sums; Balance is their raw signed net (positive = debit
// balance), before any natural-balance sign flip.
type AccountBalance struct {
	Account     *model.Account
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Balance     decimal.Decimal
}

// TrialBalance lists every account with activity as of a date. For a ledger
// of exclusively balanced transactions TotalDebits equals TotalCredits; the
// pair is the system-wide consistency check.
type TrialBalance struct {
	AsOf         time.Time
	Rows         []AccountBalance
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// BalanceSheet partitions accounts by type as of a date. Liability and
// equity totals are presented with their natural (credit-normal) sign.
// TotalAssets reconciling with TotalLiabilities+TotalEquity is a consequence
// of per-transaction balance, not something the report enforces.
type BalanceSheet struct {
	AsOf             time.Time
	Assets           []AccountBalance
	Liabilities      []AccountBalance
	Equity           []AccountBalance
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
}

// IncomeStatement covers revenue and expense activity within a period.
type IncomeStatement struct {
	Start         time.Time
	End           time.Time
	Revenues      []AccountBalance
	Expenses      []AccountBalance
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetIncome     decimal.Decimal
}

// LedgerEntry is one line of a general ledger report, carrying the running
// balance after the line is applied.
type LedgerEntry struct {
	Date          time.Time
	TransactionID int64
	Description   string
	Reference     string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Balance       decimal.Decimal
}

// GeneralLedger is the chronological history of a single account over a
// period. ClosingBalance always equals OpeningBalance plus the signed sum of
// the entries.
type GeneralLedger struct {
	Account        *model.Account
	Start          time.Time
	End            time.Time
	OpeningBalance decimal.Decimal
	Entries        []LedgerEntry
	ClosingBalance decimal.Decimal
}

// JournalLine is one side of a journal entry. Amounts are absolute.
type JournalLine struct {
	Account     *model.Account
	Amount      decimal.Decimal
	Description string
}

// JournalEntry is one posted transaction exploded into its debit and credit
// lines.
type JournalEntry struct {
	Transaction *model.Transaction
	Debits      []JournalLine
	Credits     []JournalLine
}

// Journal lists all posted transactions in a period, ordered by date then
// transaction ID.
type Journal struct {
	Start   time.Time
	End     time.Time
	Entries []JournalEntry
}
