package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompanyRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := &model.Company{Name: "Acme", Currency: "USD"}
	require.NoError(t, st.CreateCompany(ctx, c))
	assert.Equal(t, int64(1), c.ID)

	got, err := st.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = st.GetCompany(ctx, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountTenantIsolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	a := &model.Account{CompanyID: 1, Code: "1000", Name: "Cash", Type: model.AccountTypeAsset, Active: true}
	require.NoError(t, st.CreateAccount(ctx, a))

	// Visible in its own company.
	got, err := st.GetAccount(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", got.Code)

	// Invisible from another company: same error as a missing record.
	_, err = st.GetAccount(ctx, 2, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	accounts, err := st.ListAccounts(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCreateTransactionAssignsLineIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	txn := &model.Transaction{
		CompanyID:   1,
		Date:        date(2024, time.January, 5),
		Description: "Initial sale",
		State:       model.StateDraft,
		Lines: []model.TransactionLine{
			{AccountID: 1, Amount: dec("100.00")},
			{AccountID: 2, Amount: dec("-100.00")},
		},
	}
	require.NoError(t, st.CreateTransaction(ctx, txn))

	assert.NotZero(t, txn.ID)
	assert.Equal(t, int64(1), txn.Version)
	for i, l := range txn.Lines {
		assert.NotZero(t, l.ID)
		assert.Equal(t, txn.ID, l.TransactionID)
		assert.Equal(t, i, l.Order)
	}

	got, err := st.GetTransaction(ctx, 1, txn.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].Amount.Equal(dec("100.00")))
	assert.True(t, got.Lines[1].Amount.Equal(dec("-100.00")))
}

func TestUpdateTransactionVersionCheck(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	txn := &model.Transaction{
		CompanyID: 1,
		Date:      date(2024, time.January, 5),
		State:     model.StateDraft,
		Lines: []model.TransactionLine{
			{AccountID: 1, Amount: dec("50.00")},
			{AccountID: 2, Amount: dec("-50.00")},
		},
	}
	require.NoError(t, st.CreateTransaction(ctx, txn))

	// Two readers hold version 1.
	first, err := st.GetTransaction(ctx, 1, txn.ID)
	require.NoError(t, err)
	second, err := st.GetTransaction(ctx, 1, txn.ID)
	require.NoError(t, err)

	first.State = model.StatePosted
	require.NoError(t, st.UpdateTransaction(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	// The second writer loses.
	second.State = model.StatePosted
	err = st.UpdateTransaction(ctx, second)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	// Stale delete loses too.
	err = st.DeleteTransaction(ctx, 1, txn.ID, 1)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	// Delete at the current version succeeds.
	require.NoError(t, st.DeleteTransaction(ctx, 1, txn.ID, 2))
	_, err = st.GetTransaction(ctx, 1, txn.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountReferenced(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	txn := &model.Transaction{
		CompanyID: 1,
		Date:      date(2024, time.February, 1),
		State:     model.StateDraft,
		Lines: []model.TransactionLine{
			{AccountID: 10, Amount: dec("25.00")},
			{AccountID: 20, Amount: dec("-25.00")},
		},
	}
	require.NoError(t, st.CreateTransaction(ctx, txn))

	referenced, err := st.AccountReferenced(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, referenced, "draft transactions count as references")

	referenced, err = st.AccountReferenced(ctx, 1, 30)
	require.NoError(t, err)
	assert.False(t, referenced)

	// Another company never sees the reference.
	referenced, err = st.AccountReferenced(ctx, 2, 10)
	require.NoError(t, err)
	assert.False(t, referenced)
}
