package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
	"github.com/openbooks-dev/openbooks/internal/store/bolt"
)

const testCompany int64 = 1

var decimalCmp = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// books is a small posted ledger every report test shares.
type books struct {
	store     store.Store
	gen       *Generator
	cash      *model.Account
	loan      *model.Account
	capital   *model.Account
	sales     *model.Account
	rent      *model.Account
	inactive  *model.Account
}

func newBooks(t *testing.T) *books {
	t.Helper()
	st, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	b := &books{store: st, gen: NewGenerator(st)}
	ctx := context.Background()
	mk := func(code, name string, typ model.AccountType, active bool) *model.Account {
		a := &model.Account{CompanyID: testCompany, Code: code, Name: name, Type: typ, Active: active}
		require.NoError(t, st.CreateAccount(ctx, a))
		return a
	}
	b.cash = mk("1000", "Cash", model.AccountTypeAsset, true)
	b.loan = mk("2000", "Bank Loan", model.AccountTypeLiability, true)
	b.capital = mk("3000", "Owner Capital", model.AccountTypeEquity, true)
	b.sales = mk("4000", "Sales", model.AccountTypeRevenue, true)
	b.rent = mk("5000", "Rent", model.AccountTypeExpense, true)
	b.inactive = mk("9000", "Dormant", model.AccountTypeExpense, false)
	return b
}

func (b *books) post(t *testing.T, day time.Time, description string, entries ...model.TransactionLine) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		CompanyID:   testCompany,
		Date:        day,
		Description: description,
		State:       model.StatePosted,
		Lines:       entries,
	}
	require.NoError(t, b.store.CreateTransaction(context.Background(), txn))
	return txn
}

func ln(accountID int64, amount string) model.TransactionLine {
	return model.TransactionLine{AccountID: accountID, Amount: dec(amount)}
}

// seed records January activity: owner puts in 500, a 200 loan is drawn,
// 100 of sales come in and 40 of rent goes out. Cash ends at 760.
func (b *books) seed(t *testing.T) {
	b.post(t, date(2024, time.January, 2), "Owner investment", ln(b.cash.ID, "500.00"), ln(b.capital.ID, "-500.00"))
	b.post(t, date(2024, time.January, 5), "Loan drawdown", ln(b.cash.ID, "200.00"), ln(b.loan.ID, "-200.00"))
	b.post(t, date(2024, time.January, 10), "Cash sale", ln(b.cash.ID, "100.00"), ln(b.sales.ID, "-100.00"))
	b.post(t, date(2024, time.January, 20), "Office rent", ln(b.rent.ID, "40.00"), ln(b.cash.ID, "-40.00"))
}

func TestTrialBalance(t *testing.T) {
	b := newBooks(t)
	b.seed(t)

	tb, err := b.gen.TrialBalance(context.Background(), testCompany, date(2024, time.January, 31))
	require.NoError(t, err)

	// Only accounts with activity appear, ordered by code; the dormant
	// account and any untouched account are skipped.
	require.Len(t, tb.Rows, 5)
	codes := make([]string, len(tb.Rows))
	for i, r := range tb.Rows {
		codes[i] = r.Account.Code
	}
	assert.Equal(t, []string{"1000", "2000", "3000", "4000", "5000"}, codes)

	cash := tb.Rows[0]
	if diff := cmp.Diff(dec("800.00"), cash.DebitTotal, decimalCmp); diff != "" {
		t.Errorf("cash debit total mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(dec("40.00"), cash.CreditTotal, decimalCmp); diff != "" {
		t.Errorf("cash credit total mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, cash.Balance.Equal(dec("760.00")))

	// The books always balance.
	assert.True(t, tb.TotalDebits.Equal(tb.TotalCredits))
	assert.True(t, tb.TotalDebits.Equal(dec("840.00")))
}

func TestTrialBalance_SimplePair(t *testing.T) {
	b := newBooks(t)
	b.post(t, date(2024, time.January, 10), "Cash sale", ln(b.cash.ID, "100.00"), ln(b.sales.ID, "-100.00"))

	tb, err := b.gen.TrialBalance(context.Background(), testCompany, date(2024, time.January, 31))
	require.NoError(t, err)

	require.Len(t, tb.Rows, 2)
	assert.True(t, tb.Rows[0].DebitTotal.Equal(dec("100.00")))
	assert.True(t, tb.Rows[0].CreditTotal.IsZero())
	assert.True(t, tb.Rows[1].CreditTotal.Equal(dec("100.00")))
	assert.True(t, tb.Rows[1].DebitTotal.IsZero())
	assert.True(t, tb.TotalDebits.Equal(tb.TotalCredits))
}

func TestBalanceSheet(t *testing.T) {
	b := newBooks(t)
	b.seed(t)

	bs, err := b.gen.BalanceSheet(context.Background(), testCompany, date(2024, time.January, 31))
	require.NoError(t, err)

	assert.True(t, bs.TotalAssets.Equal(dec("760.00")))
	assert.True(t, bs.TotalLiabilities.Equal(dec("200.00")), "credit-normal totals are presented positive")
	assert.True(t, bs.TotalEquity.Equal(dec("500.00")))

	// Assets = Liabilities + Equity + NetIncome for the same period.
	is, err := b.gen.IncomeStatement(context.Background(), testCompany,
		date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	lhs := bs.TotalAssets
	rhs := bs.TotalLiabilities.Add(bs.TotalEquity).Add(is.NetIncome)
	assert.True(t, lhs.Equal(rhs), "accounting equation must hold: %s != %s", lhs, rhs)
}

func TestIncomeStatement(t *testing.T) {
	b := newBooks(t)
	b.seed(t)

	is, err := b.gen.IncomeStatement(context.Background(), testCompany,
		date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)

	assert.True(t, is.TotalRevenue.Equal(dec("100.00")))
	assert.True(t, is.TotalExpenses.Equal(dec("40.00")))
	assert.True(t, is.NetIncome.Equal(dec("60.00")))

	// A window with no activity reports zeros.
	empty, err := b.gen.IncomeStatement(context.Background(), testCompany,
		date(2024, time.March, 1), date(2024, time.March, 31))
	require.NoError(t, err)
	assert.True(t, empty.NetIncome.IsZero())
}

func TestGeneralLedger(t *testing.T) {
	b := newBooks(t)
	b.seed(t)

	// Report on cash for the window starting Jan 6: the investment and
	// loan land in the opening balance, the sale and rent in the entries.
	gl, err := b.gen.GeneralLedger(context.Background(), testCompany, b.cash.ID,
		date(2024, time.January, 6), date(2024, time.January, 31))
	require.NoError(t, err)

	assert.True(t, gl.OpeningBalance.Equal(dec("700.00")))
	require.Len(t, gl.Entries, 2)

	assert.True(t, gl.Entries[0].Debit.Equal(dec("100.00")))
	assert.True(t, gl.Entries[0].Balance.Equal(dec("800.00")))
	assert.True(t, gl.Entries[1].Credit.Equal(dec("40.00")))
	assert.True(t, gl.Entries[1].Balance.Equal(dec("760.00")))

	assert.True(t, gl.ClosingBalance.Equal(dec("760.00")))

	// Closing always equals opening plus the signed sum of entries.
	sum := gl.OpeningBalance
	for _, e := range gl.Entries {
		sum = sum.Add(e.Debit).Sub(e.Credit)
	}
	assert.True(t, gl.ClosingBalance.Equal(sum))
}

func TestGeneralLedger_UnknownAccount(t *testing.T) {
	b := newBooks(t)

	_, err := b.gen.GeneralLedger(context.Background(), testCompany, 999,
		date(2024, time.January, 1), date(2024, time.January, 31))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJournal(t *testing.T) {
	b := newBooks(t)
	b.seed(t)

	j, err := b.gen.Journal(context.Background(), testCompany,
		date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)

	require.Len(t, j.Entries, 4)
	assert.Equal(t, "Owner investment", j.Entries[0].Transaction.Description)

	// Each entry splits into debits and credits with absolute amounts.
	sale := j.Entries[2]
	require.Len(t, sale.Debits, 1)
	require.Len(t, sale.Credits, 1)
	assert.Equal(t, "1000", sale.Debits[0].Account.Code)
	assert.True(t, sale.Debits[0].Amount.Equal(dec("100.00")))
	assert.Equal(t, "4000", sale.Credits[0].Account.Code)
	assert.True(t, sale.Credits[0].Amount.Equal(dec("100.00")), "credit amounts are presented positive")
}

func TestUnpostRemovesFromReports(t *testing.T) {
	b := newBooks(t)
	ctx := context.Background()

	txn := b.post(t, date(2024, time.January, 10), "Cash sale", ln(b.cash.ID, "100.00"), ln(b.sales.ID, "-100.00"))

	tb, err := b.gen.TrialBalance(ctx, testCompany, date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)

	// Pull the transaction back to draft: it vanishes from every report.
	txn.State = model.StateDraft
	require.NoError(t, b.store.UpdateTransaction(ctx, txn))

	tb, err = b.gen.TrialBalance(ctx, testCompany, date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Empty(t, tb.Rows)

	// Reposting restores the exact figures.
	txn.State = model.StatePosted
	require.NoError(t, b.store.UpdateTransaction(ctx, txn))

	tb, err = b.gen.TrialBalance(ctx, testCompany, date(2024, time.January, 31))
	require.NoError(t, err)
	require.Len(t, tb.Rows, 2)
	assert.True(t, tb.Rows[0].DebitTotal.Equal(dec("100.00")))
}
