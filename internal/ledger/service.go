// Package ledger owns the transaction lifecycle: drafting, validation,
// posting, unposting and deletion. Only posted transactions contribute to
// balances; balances themselves are derived elsewhere, never stored.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openbooks-dev/openbooks/internal/auditlog"
	"github.com/openbooks-dev/openbooks/internal/events"
	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

var (
	// ErrTransactionPosted means the operation requires a draft transaction.
	ErrTransactionPosted = errors.New("transaction is posted")
	// ErrTransactionNotPosted means the operation requires a posted
	// transaction.
	ErrTransactionNotPosted = errors.New("transaction is not posted")
	// ErrConcurrentModification means another writer changed the transaction
	// between the caller's read and write. Safe to retry after re-reading.
	ErrConcurrentModification = errors.New("transaction modified concurrently")
)

// Service provides business logic for ledger transactions.
type Service struct {
	store     store.Store
	publisher events.Publisher
	audit     *auditlog.Logger
}

// NewService creates a transaction ledger backed by st. publisher may be nil
// to disable events; audit may be nil to disable the audit trail.
func NewService(st store.Store, publisher events.Publisher, audit *auditlog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: st, publisher: publisher, audit: audit}
}

// LineParams holds the fields for one transaction line.
type LineParams struct {
	AccountID   int64
	Amount      decimal.Decimal // positive = debit, negative = credit
	Description string
}

// CreateParams holds the fields for creating a transaction.
type CreateParams struct {
	Date        time.Time
	Description string
	Reference   string
	CreatedBy   string
	Lines       []LineParams
}

// Create validates and persists a new transaction in Draft state.
func (s *Service) Create(ctx context.Context, companyID int64, params CreateParams) (*model.Transaction, error) {
	lines := buildLines(params.Lines)
	if err := ValidateLines(ctx, s.store, companyID, lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &model.Transaction{
		CompanyID:   companyID,
		Date:        params.Date,
		Description: params.Description,
		Reference:   params.Reference,
		State:       model.StateDraft,
		CreatedBy:   params.CreatedBy,
		Lines:       lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	s.record(companyID, params.CreatedBy, "transaction.create", txn.ID, fmt.Sprintf("date=%s lines=%d", txn.Date.Format("2006-01-02"), len(txn.Lines)))
	return txn, nil
}

// Get returns a transaction with its lines.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*model.Transaction, error) {
	return s.store.GetTransaction(ctx, companyID, id)
}

// UpdatePatch holds the optional fields of a transaction update. Nil fields
// are left unchanged. A non-nil Lines replaces the whole line set, which
// must independently satisfy every invariant.
type UpdatePatch struct {
	Date        *time.Time
	Description *string
	Reference   *string
	Lines       []LineParams
}

// Update applies a patch to a draft transaction. Posted transactions are
// immutable until unposted.
func (s *Service) Update(ctx context.Context, companyID, id int64, actor string, patch UpdatePatch) (*model.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if txn.Posted() {
		return nil, fmt.Errorf("%w: cannot update transaction %d", ErrTransactionPosted, id)
	}

	if patch.Date != nil {
		txn.Date = *patch.Date
	}
	if patch.Description != nil {
		txn.Description = *patch.Description
	}
	if patch.Reference != nil {
		txn.Reference = *patch.Reference
	}
	if patch.Lines != nil {
		txn.Lines = buildLines(patch.Lines)
	}

	if err := ValidateLines(ctx, s.store, companyID, txn.Lines); err != nil {
		return nil, err
	}

	txn.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, wrapStoreErr(err, "updating transaction")
	}

	s.record(companyID, actor, "transaction.update", id, "")
	return txn, nil
}

// Post transitions a draft transaction to Posted. The line invariants are
// re-validated at post time: the lines may have been edited, and accounts
// deactivated, since the draft was created.
func (s *Service) Post(ctx context.Context, companyID, id int64, actor string) (*model.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if txn.Posted() {
		return nil, fmt.Errorf("%w: transaction %d", ErrTransactionPosted, id)
	}

	if err := ValidateLines(ctx, s.store, companyID, txn.Lines); err != nil {
		return nil, err
	}

	txn.State = model.StatePosted
	txn.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, wrapStoreErr(err, "posting transaction")
	}

	s.record(companyID, actor, "transaction.post", id, "")
	s.publish(ctx, events.New(events.TypeTransactionPosted, companyID, id))
	return txn, nil
}

// Unpost transitions a posted transaction back to Draft, removing it from
// all derived balances. The transaction itself is untouched, so posting it
// again restores every balance exactly.
func (s *Service) Unpost(ctx context.Context, companyID, id int64, actor string) (*model.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if !txn.Posted() {
		return nil, fmt.Errorf("%w: transaction %d", ErrTransactionNotPosted, id)
	}

	txn.State = model.StateDraft
	txn.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, wrapStoreErr(err, "unposting transaction")
	}

	s.record(companyID, actor, "transaction.unpost", id, "")
	s.publish(ctx, events.New(events.TypeTransactionUnposted, companyID, id))
	return txn, nil
}

// Delete removes a draft transaction and its lines. Posted transactions
// must be unposted first.
func (s *Service) Delete(ctx context.Context, companyID, id int64, actor string) error {
	txn, err := s.store.GetTransaction(ctx, companyID, id)
	if err != nil {
		return err
	}
	if txn.Posted() {
		return fmt.Errorf("%w: cannot delete transaction %d", ErrTransactionPosted, id)
	}

	if err := s.store.DeleteTransaction(ctx, companyID, id, txn.Version); err != nil {
		return wrapStoreErr(err, "deleting transaction")
	}

	s.record(companyID, actor, "transaction.delete", id, "")
	return nil
}

// ListFilter narrows List results. Zero time bounds mean unbounded; a zero
// AccountID means any account; Limit 0 means no limit.
type ListFilter struct {
	Start      time.Time
	End        time.Time
	AccountID  int64
	PostedOnly bool
	DraftOnly  bool
	Skip       int
	Limit      int
}

// List returns the company's transactions honoring the filter, ordered by
// date then ID.
func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]*model.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	var result []*model.Transaction
	for _, t := range txns {
		if !filter.Start.IsZero() && t.Date.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && t.Date.After(filter.End) {
			continue
		}
		if filter.AccountID != 0 && !t.References(filter.AccountID) {
			continue
		}
		if filter.PostedOnly && !t.Posted() {
			continue
		}
		if filter.DraftOnly && t.Posted() {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})

	if filter.Skip > 0 {
		if filter.Skip >= len(result) {
			return nil, nil
		}
		result = result[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func buildLines(params []LineParams) []model.TransactionLine {
	lines := make([]model.TransactionLine, len(params))
	for i, p := range params {
		lines[i] = model.TransactionLine{
			AccountID:   p.AccountID,
			Amount:      p.Amount,
			Description: p.Description,
			Order:       i,
		}
	}
	return lines
}

func wrapStoreErr(err error, action string) error {
	if errors.Is(err, store.ErrVersionConflict) {
		return fmt.Errorf("%s: %w", action, ErrConcurrentModification)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("publishing %s event for transaction %d: %v", e.Type, e.TransactionID, err)
	}
}

func (s *Service) record(companyID int64, actor, action string, entityID int64, detail string) {
	if err := s.audit.Record(auditlog.Entry{
		CompanyID: companyID,
		Actor:     actor,
		Action:    action,
		EntityID:  entityID,
		Detail:    detail,
	}); err != nil {
		log.Printf("audit log: %v", err)
	}
}
