// Package bolt implements store.Store on a single bbolt database file.
// Every mutating call runs inside one bbolt update transaction, which gives
// the all-or-nothing write guarantee the core requires.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

// Bucket names.
const (
	bucketCompanies    = "companies"
	bucketAccounts     = "accounts"
	bucketTransactions = "transactions"
)

// Store is the bbolt-backed store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database at path and initializes
// the buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketCompanies, bucketAccounts, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCompany implements store.Store.
func (s *Store) CreateCompany(ctx context.Context, c *model.Company) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketCompanies))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.ID = int64(seq)
		return putJSON(b, c.ID, c)
	})
}

// GetCompany implements store.Store.
func (s *Store) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	var c model.Company
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket([]byte(bucketCompanies)), id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanies implements store.Store.
func (s *Store) ListCompanies(ctx context.Context) ([]*model.Company, error) {
	var companies []*model.Company
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCompanies)).ForEach(func(k, v []byte) error {
			var c model.Company
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decoding company: %w", err)
			}
			companies = append(companies, &c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// CreateAccount implements store.Store.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		a.ID = int64(seq)
		return putJSON(b, a.ID, a)
	})
}

// GetAccount implements store.Store.
func (s *Store) GetAccount(ctx context.Context, companyID, id int64) (*model.Account, error) {
	var a model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := getJSON(tx.Bucket([]byte(bucketAccounts)), id, &a); err != nil {
			return err
		}
		if a.CompanyID != companyID {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccount implements store.Store.
func (s *Store) UpdateAccount(ctx context.Context, a *model.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		var stored model.Account
		if err := getJSON(b, a.ID, &stored); err != nil {
			return err
		}
		if stored.CompanyID != a.CompanyID {
			return store.ErrNotFound
		}
		return putJSON(b, a.ID, a)
	})
}

// DeleteAccount implements store.Store.
func (s *Store) DeleteAccount(ctx context.Context, companyID, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		var stored model.Account
		if err := getJSON(b, id, &stored); err != nil {
			return err
		}
		if stored.CompanyID != companyID {
			return store.ErrNotFound
		}
		return b.Delete(itob(id))
	})
}

// ListAccounts implements store.Store.
func (s *Store) ListAccounts(ctx context.Context, companyID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketAccounts)).ForEach(func(k, v []byte) error {
			var a model.Account
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decoding account: %w", err)
			}
			if a.CompanyID == companyID {
				accounts = append(accounts, &a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateTransaction implements store.Store. Line IDs are drawn from the same
// sequence as transaction IDs.
func (s *Store) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTransactions))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		t.ID = int64(seq)
		t.Version = 1
		for i := range t.Lines {
			lineSeq, err := b.NextSequence()
			if err != nil {
				return err
			}
			t.Lines[i].ID = int64(lineSeq)
			t.Lines[i].TransactionID = t.ID
			t.Lines[i].Order = i
		}
		return putJSON(b, t.ID, t)
	})
}

// GetTransaction implements store.Store.
func (s *Store) GetTransaction(ctx context.Context, companyID, id int64) (*model.Transaction, error) {
	var t model.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		if err := getJSON(tx.Bucket([]byte(bucketTransactions)), id, &t); err != nil {
			return err
		}
		if t.CompanyID != companyID {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransaction implements store.Store.
func (s *Store) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTransactions))
		var stored model.Transaction
		if err := getJSON(b, t.ID, &stored); err != nil {
			return err
		}
		if stored.CompanyID != t.CompanyID {
			return store.ErrNotFound
		}
		if stored.Version != t.Version {
			return store.ErrVersionConflict
		}
		t.Version++
		for i := range t.Lines {
			if t.Lines[i].ID == 0 {
				lineSeq, err := b.NextSequence()
				if err != nil {
					return err
				}
				t.Lines[i].ID = int64(lineSeq)
			}
			t.Lines[i].TransactionID = t.ID
			t.Lines[i].Order = i
		}
		return putJSON(b, t.ID, t)
	})
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, companyID, id, version int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketTransactions))
		var stored model.Transaction
		if err := getJSON(b, id, &stored); err != nil {
			return err
		}
		if stored.CompanyID != companyID {
			return store.ErrNotFound
		}
		if stored.Version != version {
			return store.ErrVersionConflict
		}
		return b.Delete(itob(id))
	})
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, companyID int64) ([]*model.Transaction, error) {
	var txns []*model.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTransactions)).ForEach(func(k, v []byte) error {
			var t model.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decoding transaction: %w", err)
			}
			if t.CompanyID == companyID {
				txns = append(txns, &t)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// AccountReferenced implements store.Store.
func (s *Store) AccountReferenced(ctx context.Context, companyID, accountID int64) (bool, error) {
	referenced := false
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTransactions)).ForEach(func(k, v []byte) error {
			if referenced {
				return nil
			}
			var t model.Transaction
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decoding transaction: %w", err)
			}
			if t.CompanyID == companyID && t.References(accountID) {
				referenced = true
			}
			return nil
		})
	})
	return referenced, err
}

func putJSON(b *bolt.Bucket, key int64, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}
	return b.Put(itob(key), data)
}

func getJSON(b *bolt.Bucket, key int64, value any) error {
	data := b.Get(itob(key))
	if data == nil {
		return store.ErrNotFound
	}
	return json.Unmarshal(data, value)
}

// itob converts an int64 to a big-endian byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

var _ store.Store = (*Store)(nil)
