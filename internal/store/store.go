// Package store defines the durable storage boundary for the bookkeeping
// core. Implementations must apply each mutating call as a single atomic
// unit: either the whole transaction-and-lines write commits or none of it
// does.
package store

import (
	"context"
	"errors"

	"github.com/openbooks-dev/openbooks/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's
	// company. A record that exists under another company is reported the
	// same way, so callers cannot probe for cross-tenant existence.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by conditional transaction writes when
	// the stored version no longer matches the version the caller read.
	ErrVersionConflict = errors.New("version conflict")
)

// Store persists companies, accounts and transactions. Balances are never
// stored; they are derived from posted transactions at read time.
type Store interface {
	// CreateCompany assigns an ID and persists the company.
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]*model.Company, error)

	// CreateAccount assigns an ID and persists the account.
	CreateAccount(ctx context.Context, a *model.Account) error
	GetAccount(ctx context.Context, companyID, id int64) (*model.Account, error)
	UpdateAccount(ctx context.Context, a *model.Account) error
	DeleteAccount(ctx context.Context, companyID, id int64) error
	// ListAccounts returns all accounts of a company in unspecified order.
	ListAccounts(ctx context.Context, companyID int64) ([]*model.Account, error)

	// CreateTransaction assigns transaction and line IDs and persists the
	// transaction with all its lines atomically.
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, companyID, id int64) (*model.Transaction, error)
	// UpdateTransaction replaces the stored transaction and its lines,
	// conditional on t.Version matching the stored version. On success the
	// stored version (and t.Version) is incremented.
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	// DeleteTransaction removes the transaction and its lines, conditional
	// on the stored version matching version.
	DeleteTransaction(ctx context.Context, companyID, id, version int64) error
	// ListTransactions returns all transactions of a company with lines.
	ListTransactions(ctx context.Context, companyID int64) ([]*model.Transaction, error)
	// AccountReferenced reports whether any transaction line in the company,
	// in any state, references the account.
	AccountReferenced(ctx context.Context, companyID, accountID int64) (bool, error)

	Close() error
}
