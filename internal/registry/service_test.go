package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbooks-dev/openbooks/internal/auditlog"
	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
	"github.com/openbooks-dev/openbooks/internal/store/bolt"
)

const testCompany int64 = 1

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, nil)
}

func mustCreate(t *testing.T, svc *Service, params CreateParams) *model.Account {
	t.Helper()
	account, err := svc.Create(context.Background(), testCompany, "test", params)
	require.NoError(t, err)
	return account
}

func TestCreateAccount(t *testing.T) {
	svc := newTestService(t)

	account := mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	assert.NotZero(t, account.ID)
	assert.True(t, account.Active)
	assert.Equal(t, testCompany, account.CompanyID)
}

func TestCreateAccount_DuplicateCode(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})

	_, err := svc.Create(context.Background(), testCompany, "test", CreateParams{Code: "1000", Name: "Other", Type: model.AccountTypeAsset})
	assert.ErrorIs(t, err, ErrDuplicateCode)

	// Same code in another company is fine.
	_, err = svc.Create(context.Background(), 2, "test", CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	assert.NoError(t, err)
}

func TestCreateAccount_InvalidType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), testCompany, "test", CreateParams{Code: "9999", Name: "Bad", Type: "contra"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestCreateAccount_InvalidParent(t *testing.T) {
	svc := newTestService(t)

	// Absent parent.
	_, err := svc.Create(context.Background(), testCompany, "test", CreateParams{
		Code: "1010", Name: "Checking", Type: model.AccountTypeAsset, ParentID: 42,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)

	// Inactive parent.
	parent := mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	_, err = svc.Deactivate(context.Background(), testCompany, parent.ID, "test")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), testCompany, "test", CreateParams{
		Code: "1010", Name: "Checking", Type: model.AccountTypeAsset, ParentID: parent.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)

	// Parent in a different company.
	other, err := svc.Create(context.Background(), 2, "test", CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), testCompany, "test", CreateParams{
		Code: "1020", Name: "Savings", Type: model.AccountTypeAsset, ParentID: other.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestUpdateAccount_CyclicHierarchy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// a <- b <- c
	a := mustCreate(t, svc, CreateParams{Code: "1000", Name: "A", Type: model.AccountTypeAsset})
	b := mustCreate(t, svc, CreateParams{Code: "1100", Name: "B", Type: model.AccountTypeAsset, ParentID: a.ID})
	c := mustCreate(t, svc, CreateParams{Code: "1110", Name: "C", Type: model.AccountTypeAsset, ParentID: b.ID})

	// a under c would close the loop.
	_, err := svc.Update(ctx, testCompany, a.ID, "test", UpdatePatch{ParentID: &c.ID})
	assert.ErrorIs(t, err, ErrCyclicHierarchy)

	// a under itself is the smallest cycle.
	_, err = svc.Update(ctx, testCompany, a.ID, "test", UpdatePatch{ParentID: &a.ID})
	assert.ErrorIs(t, err, ErrCyclicHierarchy)

	// Reparenting c directly under a is fine.
	_, err = svc.Update(ctx, testCompany, c.ID, "test", UpdatePatch{ParentID: &a.ID})
	assert.NoError(t, err)

	// Clearing the parent is always fine.
	var top int64
	updated, err := svc.Update(ctx, testCompany, b.ID, "test", UpdatePatch{ParentID: &top})
	require.NoError(t, err)
	assert.Zero(t, updated.ParentID)
}

func TestUpdateAccount_PartialPatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account := mustCreate(t, svc, CreateParams{Code: "5020", Name: "Software", Type: model.AccountTypeExpense})

	name := "Software & SaaS"
	updated, err := svc.Update(ctx, testCompany, account.ID, "test", UpdatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Software & SaaS", updated.Name)
	assert.Equal(t, "5020", updated.Code, "unpatched fields are preserved")
}

func TestDeleteAccount_InUse(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	b := mustCreate(t, svc, CreateParams{Code: "4000", Name: "Revenue", Type: model.AccountTypeRevenue})

	// A draft transaction referencing the accounts blocks deletion.
	st := svc.store
	txn := &model.Transaction{
		CompanyID: testCompany,
		Date:      time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		State:     model.StateDraft,
		Lines: []model.TransactionLine{
			{AccountID: a.ID, Amount: decimal.RequireFromString("100.00")},
			{AccountID: b.ID, Amount: decimal.RequireFromString("-100.00")},
		},
	}
	require.NoError(t, st.CreateTransaction(ctx, txn))

	err := svc.Delete(ctx, testCompany, a.ID, "test")
	assert.ErrorIs(t, err, ErrAccountInUse)

	referenced, err := svc.IsReferenced(ctx, testCompany, a.ID)
	require.NoError(t, err)
	assert.True(t, referenced)

	// An unreferenced account deletes cleanly.
	c := mustCreate(t, svc, CreateParams{Code: "9999", Name: "Unused", Type: model.AccountTypeExpense})
	require.NoError(t, svc.Delete(ctx, testCompany, c.ID, "test"))
	_, err = svc.Get(ctx, testCompany, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAccounts_Filters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, CreateParams{Code: "4000", Name: "Revenue", Type: model.AccountTypeRevenue})
	cash := mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})
	mustCreate(t, svc, CreateParams{Code: "5000", Name: "Expense", Type: model.AccountTypeExpense})
	_, err := svc.Deactivate(ctx, testCompany, cash.ID, "test")
	require.NoError(t, err)

	all, err := svc.List(ctx, testCompany, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1000", all[0].Code, "ordered by code")
	assert.Equal(t, "4000", all[1].Code)
	assert.Equal(t, "5000", all[2].Code)

	active, err := svc.List(ctx, testCompany, ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	assets, err := svc.List(ctx, testCompany, ListFilter{Type: model.AccountTypeAsset})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "1000", assets[0].Code)

	paged, err := svc.List(ctx, testCompany, ListFilter{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "4000", paged[0].Code)
}

func TestBulkCreate_PartialSuccess(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})

	res, err := svc.BulkCreate(context.Background(), testCompany, "test", []CreateParams{
		{Code: "4000", Name: "Revenue", Type: model.AccountTypeRevenue},
		{Code: "1000", Name: "Duplicate", Type: model.AccountTypeAsset},
		{Code: "5000", Name: "Expense", Type: model.AccountTypeExpense},
		{Code: "6000", Name: "Bad Type", Type: "weird"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "1000")
	assert.Contains(t, res.Errors[1], "6000")
}

func TestDeactivate_SingleAuditEntry(t *testing.T) {
	st, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	audit := auditlog.New(filepath.Join(t.TempDir(), "audit.csv"))
	svc := NewService(st, audit)

	account := mustCreate(t, svc, CreateParams{Code: "1000", Name: "Cash", Type: model.AccountTypeAsset})

	_, err = svc.Deactivate(context.Background(), testCompany, account.ID, "test")
	require.NoError(t, err)

	entries, err := audit.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2, "one create entry plus one deactivate entry")
	assert.Equal(t, "account.create", entries[0].Action)
	assert.Equal(t, "account.deactivate", entries[1].Action)
}

func TestDefaultChart(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.BulkCreate(context.Background(), testCompany, "init", DefaultChart())
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, len(DefaultChart()), res.Created)

	chart, err := svc.ChartOfAccounts(context.Background(), testCompany)
	require.NoError(t, err)
	assert.Len(t, chart, len(DefaultChart()))
}
