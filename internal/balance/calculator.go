// Package balance derives per-account balances from posted transactions.
// Nothing here is stored: every figure is recomputed from transaction lines
// at read time, which removes the whole class of incremental-update
// consistency bugs.
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openbooks-dev/openbooks/internal/store"
)

// Totals holds the separated debit and credit sums of one account. Debits is
// the sum of positive line amounts, Credits the sum of absolute negative
// amounts.
type Totals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// Net returns the raw signed balance: debits minus credits. Positive for a
// debit balance. Presentation-side sign flipping for credit-normal account
// types is the report layer's concern, not this package's.
func (t Totals) Net() decimal.Decimal {
	return t.Debits.Sub(t.Credits)
}

// Calculator computes account balances over the posted transaction set.
type Calculator struct {
	store store.Store
}

// NewCalculator creates a Calculator reading from st.
func NewCalculator(st store.Store) *Calculator {
	return &Calculator{store: st}
}

// AsOf returns totals per account over all posted transactions dated up to
// and including asOf.
func (c *Calculator) AsOf(ctx context.Context, companyID int64, asOf time.Time) (map[int64]Totals, error) {
	return c.Period(ctx, companyID, time.Time{}, asOf)
}

// Period returns totals per account over posted transactions dated within
// [start, end] inclusive. A zero start means unbounded.
func (c *Calculator) Period(ctx context.Context, companyID int64, start, end time.Time) (map[int64]Totals, error) {
	txns, err := c.store.ListTransactions(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	totals := make(map[int64]Totals)
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
		for _, line := range t.Lines {
			acc := totals[line.AccountID]
			acc.Debits = acc.Debits.Add(line.Debit())
			acc.Credits = acc.Credits.Add(line.Credit())
			totals[line.AccountID] = acc
		}
	}
	return totals, nil
}

// AccountBalance returns the raw signed balance of a single account as of a
// date.
func (c *Calculator) AccountBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	totals, err := c.AsOf(ctx, companyID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return totals[accountID].Net(), nil
}
