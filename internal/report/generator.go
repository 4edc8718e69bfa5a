// Package report assembles the five financial reports from the chart of
// accounts and derived balances. All natural-balance sign flipping for
// presentation happens here; stored amounts and calculator output stay raw.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openbooks-dev/openbooks/internal/balance"
	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

// Generator builds financial reports for a company.
type Generator struct {
	store store.Store
	calc  *balance.Calculator
}

// NewGenerator creates a Generator reading from st.
func NewGenerator(st store.Store) *Generator {
	return &Generator{store: st, calc: balance.NewCalculator(st)}
}

// TrialBalance returns every account with activity as of asOf, with
// separated debit and credit totals.
func (g *Generator) TrialBalance(ctx context.Context, companyID int64, asOf time.Time) (*TrialBalance, error) {
	accounts, err := g.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	totals, err := g.calc.AsOf(ctx, companyID, asOf)
	if err != nil {
		return nil, err
	}

	tb := &TrialBalance{AsOf: asOf}
	for _, a := range sortByCode(accounts) {
		t := totals[a.ID]
		if t.Debits.IsZero() && t.Credits.IsZero() {
			continue
		}
		tb.Rows = append(tb.Rows, row(a, t))
		tb.TotalDebits = tb.TotalDebits.Add(t.Debits)
		tb.TotalCredits = tb.TotalCredits.Add(t.Credits)
	}
	return tb, nil
}

// BalanceSheet partitions asset, liability and equity accounts as of asOf.
func (g *Generator) BalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (*BalanceSheet, error) {
	accounts, err := g.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	totals, err := g.calc.AsOf(ctx, companyID, asOf)
	if err != nil {
		return nil, err
	}

	bs := &BalanceSheet{AsOf: asOf}
	for _, a := range sortByCode(accounts) {
		r := row(a, totals[a.ID])
		switch a.Type {
		case model.AccountTypeAsset:
			bs.Assets = append(bs.Assets, r)
			bs.TotalAssets = bs.TotalAssets.Add(r.Balance)
		case model.AccountTypeLiability:
			bs.Liabilities = append(bs.Liabilities, r)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(r.Balance.Neg())
		case model.AccountTypeEquity:
			bs.Equity = append(bs.Equity, r)
			bs.TotalEquity = bs.TotalEquity.Add(r.Balance.Neg())
		}
	}
	return bs, nil
}

// IncomeStatement reports revenue and expense activity within [start, end].
func (g *Generator) IncomeStatement(ctx context.Context, companyID int64, start, end time.Time) (*IncomeStatement, error) {
	accounts, err := g.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	totals, err := g.calc.Period(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	is := &IncomeStatement{Start: start, End: end}
	for _, a := range sortByCode(accounts) {
		r := row(a, totals[a.ID])
		switch a.Type {
		case model.AccountTypeRevenue:
			is.Revenues = append(is.Revenues, r)
			is.TotalRevenue = is.TotalRevenue.Add(r.Balance.Neg())
		case model.AccountTypeExpense:
			is.Expenses = append(is.Expenses, r)
			is.TotalExpenses = is.TotalExpenses.Add(r.Balance)
		}
	}
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	return is, nil
}

// GeneralLedger returns the chronological history of one account over
// [start, end] with a running balance. The opening balance is the account's
// point-in-time balance on the day before start.
func (g *Generator) GeneralLedger(ctx context.Context, companyID, accountID int64, start, end time.Time) (*GeneralLedger, error) {
	account, err := g.store.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return nil, err
	}

	opening, err := g.calc.AccountBalance(ctx, companyID, accountID, start.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	txns, err := g.postedInRange(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	gl := &GeneralLedger{
		Account:        account,
		Start:          start,
		End:            end,
		OpeningBalance: opening,
	}
	running := opening
	for _, t := range txns {
		for _, line := range t.Lines {
			if line.AccountID != accountID {
				continue
			}
			running = running.Add(line.Amount)
			gl.Entries = append(gl.Entries, LedgerEntry{
				Date:          t.Date,
				TransactionID: t.ID,
				Description:   t.Description,
				Reference:     t.Reference,
				Debit:         line.Debit(),
				Credit:        line.Credit(),
				Balance:       running,
			})
		}
	}
	gl.ClosingBalance = running
	return gl, nil
}

// Journal lists all posted transactions in [start, end], each exploded into
// debit and credit lines.
func (g *Generator) Journal(ctx context.Context, companyID int64, start, end time.Time) (*Journal, error) {
	accounts, err := g.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	byID := make(map[int64]*model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	txns, err := g.postedInRange(ctx, companyID, start, end)
	if err != nil {
		return nil, err
	}

	j := &Journal{Start: start, End: end}
	for _, t := range txns {
		entry := JournalEntry{Transaction: t}
		for _, line := range t.Lines {
			jl := JournalLine{
				Account:     byID[line.AccountID],
				Description: line.Description,
			}
			if line.Amount.IsPositive() {
				jl.Amount = line.Amount
				entry.Debits = append(entry.Debits, jl)
			} else {
				jl.Amount = line.Amount.Neg()
				entry.Credits = append(entry.Credits, jl)
			}
		}
		j.Entries = append(j.Entries, entry)
	}
	return j, nil
}

// postedInRange returns posted transactions dated within [start, end],
// ordered by date then transaction ID, with lines in line order.
func (g *Generator) postedInRange(ctx context.Context, companyID int64, start, end time.Time) ([]*model.Transaction, error) {
	txns, err := g.store.ListTransactions(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	var result []*model.Transaction
	for _, t := range txns {
		if !t.Posted() {
			continue
		}
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if t.Date.After(end) {
			continue
		}
		sort.Slice(t.Lines, func(i, j int) bool { return t.Lines[i].Order < t.Lines[j].Order })
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func row(a *model.Account, t balance.Totals) AccountBalance {
	return AccountBalance{
		Account:     a,
		DebitTotal:  t.Debits,
		CreditTotal: t.Credits,
		Balance:     t.Net(),
	}
}

func sortByCode(accounts []*model.Account) []*model.Account {
	sorted := make([]*model.Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	return sorted
}
