// Package postgres implements store.Store on PostgreSQL via lib/pq.
// Transaction-and-lines writes run inside a database transaction so the
// whole write commits or none of it does.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS companies (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	currency   TEXT NOT NULL DEFAULT 'USD',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	id           BIGSERIAL PRIMARY KEY,
	company_id   BIGINT NOT NULL REFERENCES companies(id),
	code         TEXT NOT NULL,
	name         TEXT NOT NULL,
	account_type TEXT NOT NULL,
	parent_id    BIGINT NOT NULL DEFAULT 0,
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	description  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (company_id, code)
);

CREATE TABLE IF NOT EXISTS transactions (
	id               BIGSERIAL PRIMARY KEY,
	company_id       BIGINT NOT NULL REFERENCES companies(id),
	transaction_date DATE NOT NULL,
	description      TEXT NOT NULL,
	reference        TEXT NOT NULL DEFAULT '',
	state            TEXT NOT NULL DEFAULT 'draft',
	created_by       TEXT NOT NULL DEFAULT '',
	version          BIGINT NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transaction_lines (
	id             BIGSERIAL PRIMARY KEY,
	transaction_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	account_id     BIGINT NOT NULL REFERENCES accounts(id),
	amount         NUMERIC(18,2) NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	line_order     INT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_company ON accounts(company_id);
CREATE INDEX IF NOT EXISTS idx_transactions_company ON transactions(company_id);
CREATE INDEX IF NOT EXISTS idx_lines_account ON transaction_lines(account_id);
`

// Store is the PostgreSQL-backed store.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCompany implements store.Store.
func (s *Store) CreateCompany(ctx context.Context, c *model.Company) error {
	const query = `INSERT INTO companies (name, currency, created_at)
		VALUES ($1, $2, $3) RETURNING id`
	return s.db.QueryRowContext(ctx, query, c.Name, c.Currency, c.CreatedAt).Scan(&c.ID)
}

// GetCompany implements store.Store.
func (s *Store) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	const query = `SELECT id, name, currency, created_at FROM companies WHERE id = $1`
	var c model.Company
	err := s.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Currency, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanies implements store.Store.
func (s *Store) ListCompanies(ctx context.Context) ([]*model.Company, error) {
	const query = `SELECT id, name, currency, created_at FROM companies ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []*model.Company
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Currency, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// CreateAccount implements store.Store.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	const query = `INSERT INTO accounts
		(company_id, code, name, account_type, parent_id, is_active, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	return s.db.QueryRowContext(ctx, query,
		a.CompanyID, a.Code, a.Name, a.Type, a.ParentID, a.Active, a.Description, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(ctx context.Context, companyID, id int64) (*model.Account, error) {
	const query = `SELECT id, company_id, code, name, account_type, parent_id, is_active, description, created_at, updated_at
		FROM accounts WHERE id = $1 AND company_id = $2`
	var a model.Account
	err := s.db.QueryRowContext(ctx, query, id, companyID).Scan(
		&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Active, &a.Description, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccount implements store.Store.
func (s *Store) UpdateAccount(ctx context.Context, a *model.Account) error {
	const query = `UPDATE accounts
		SET code = $1, name = $2, account_type = $3, parent_id = $4, is_active = $5, description = $6, updated_at = $7
		WHERE id = $8 AND company_id = $9`
	res, err := s.db.ExecContext(ctx, query,
		a.Code, a.Name, a.Type, a.ParentID, a.Active, a.Description, a.UpdatedAt, a.ID, a.CompanyID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(ctx context.Context, companyID, id int64) error {
	const query = `DELETE FROM accounts WHERE id = $1 AND company_id = $2`
	res, err := s.db.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(ctx context.Context, companyID int64) ([]*model.Account, error) {
	const query = `SELECT id, company_id, code, name, account_type, parent_id, is_active, description, created_at, updated_at
		FROM accounts WHERE company_id = $1`
	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Active, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

// CreateTransaction implements store.Store.
func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	const query = `INSERT INTO transactions
		(company_id, transaction_date, description, reference, state, created_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8) RETURNING id`
	t.Version = 1
	err = dbTx.QueryRowContext(ctx, query,
		t.CompanyID, t.Date, t.Description, t.Reference, t.State, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
	if err != nil {
		return err
	}

	if err = insertLines(ctx, dbTx, t); err != nil {
		return err
	}
	return dbTx.Commit()
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(ctx context.Context, companyID, id int64) (*model.Transaction, error) {
	const query = `SELECT id, company_id, transaction_date, description, reference, state, created_by, version, created_at, updated_at
		FROM transactions WHERE id = $1 AND company_id = $2`
	var t model.Transaction
	err := s.db.QueryRowContext(ctx, query, id, companyID).Scan(
		&t.ID, &t.CompanyID, &t.Date, &t.Description, &t.Reference, &t.State, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction implements store.Store. The version check and the line
// replacement happen in one database transaction.
func (s *Store) UpdateTransaction(ctx context.Context, t *model.Transaction) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	const query = `UPDATE transactions
		SET transaction_date = $1, description = $2, reference = $3, state = $4, version = version + 1, updated_at = $5
		WHERE id = $6 AND company_id = $7 AND version = $8`
	res, err := dbTx.ExecContext(ctx, query,
		t.Date, t.Description, t.Reference, t.State, t.UpdatedAt, t.ID, t.CompanyID, t.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if err = s.transactionMissing(ctx, dbTx, t.CompanyID, t.ID); err != nil {
			return err
		}
		err = store.ErrVersionConflict
		return err
	}

	if _, err = dbTx.ExecContext(ctx, `DELETE FROM transaction_lines WHERE transaction_id = $1`, t.ID); err != nil {
		return err
	}
	if err = insertLines(ctx, dbTx, t); err != nil {
		return err
	}
	if err = dbTx.Commit(); err != nil {
		return err
	}
	t.Version++
	return nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, companyID, id, version int64) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	const query = `DELETE FROM transactions WHERE id = $1 AND company_id = $2 AND version = $3`
	res, err := dbTx.ExecContext(ctx, query, id, companyID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if err = s.transactionMissing(ctx, dbTx, companyID, id); err != nil {
			return err
		}
		err = store.ErrVersionConflict
		return err
	}
	return dbTx.Commit()
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, companyID int64) ([]*model.Transaction, error) {
	const query = `SELECT id, company_id, transaction_date, description, reference, state, created_by, version, created_at, updated_at
		FROM transactions WHERE company_id = $1 ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Date, &t.Description, &t.Reference, &t.State, &t.CreatedBy, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range txns {
		if err := s.loadLines(ctx, t); err != nil {
			return nil, err
		}
	}
	return txns, nil
}

// AccountReferenced implements store.Store.
func (s *Store) AccountReferenced(ctx context.Context, companyID, accountID int64) (bool, error) {
	const query = `SELECT 1 FROM transaction_lines l
		JOIN transactions t ON t.id = l.transaction_id
		WHERE t.company_id = $1 AND l.account_id = $2 LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, query, companyID, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) loadLines(ctx context.Context, t *model.Transaction) error {
	const query = `SELECT id, transaction_id, account_id, amount, description, line_order
		FROM transaction_lines WHERE transaction_id = $1 ORDER BY line_order`
	rows, err := s.db.QueryContext(ctx, query, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	t.Lines = nil
	for rows.Next() {
		var l model.TransactionLine
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.AccountID, &l.Amount, &l.Description, &l.Order); err != nil {
			return err
		}
		t.Lines = append(t.Lines, l)
	}
	return rows.Err()
}

func insertLines(ctx context.Context, dbTx *sql.Tx, t *model.Transaction) error {
	const query = `INSERT INTO transaction_lines (transaction_id, account_id, amount, description, line_order)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for i := range t.Lines {
		l := &t.Lines[i]
		l.TransactionID = t.ID
		l.Order = i
		if err := dbTx.QueryRowContext(ctx, query, t.ID, l.AccountID, l.Amount, l.Description, i).Scan(&l.ID); err != nil {
			return err
		}
	}
	return nil
}

// transactionMissing returns store.ErrNotFound when the transaction does not
// exist in the company, nil when it exists (so the caller reports a version
// conflict instead).
func (s *Store) transactionMissing(ctx context.Context, dbTx *sql.Tx, companyID, id int64) error {
	var one int
	err := dbTx.QueryRowContext(ctx, `SELECT 1 FROM transactions WHERE id = $1 AND company_id = $2`, id, companyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
