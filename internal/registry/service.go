// Package registry owns the chart of accounts: identity, type, hierarchy and
// active state of every account in a company.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/openbooks-dev/openbooks/internal/auditlog"
	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

var (
	// ErrDuplicateCode means the account code already exists in the company.
	ErrDuplicateCode = errors.New("account code already exists")
	// ErrInvalidParent means the parent account is absent, inactive or
	// belongs to a different company.
	ErrInvalidParent = errors.New("invalid parent account")
	// ErrCyclicHierarchy means the requested parent change would make the
	// account its own ancestor.
	ErrCyclicHierarchy = errors.New("account hierarchy cycle")
	// ErrInvalidType means the account type is not one of the five types.
	ErrInvalidType = errors.New("invalid account type")
	// ErrAccountInUse means a transaction line references the account.
	ErrAccountInUse = errors.New("account is referenced by transactions")
)

// Service provides account management for the chart of accounts.
type Service struct {
	store store.Store
	audit *auditlog.Logger
}

// NewService creates an account registry backed by st. audit may be nil.
func NewService(st store.Store, audit *auditlog.Logger) *Service {
	return &Service{store: st, audit: audit}
}

// CreateParams holds the fields for creating an account.
type CreateParams struct {
	Code        string
	Name        string
	Type        model.AccountType
	ParentID    int64 // 0 = top-level
	Description string
}

// Create adds a new account to the company's chart of accounts.
func (s *Service) Create(ctx context.Context, companyID int64, actor string, params CreateParams) (*model.Account, error) {
	if !params.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, params.Type)
	}
	if params.Code == "" {
		return nil, errors.New("account code is required")
	}

	accounts, err := s.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Code == params.Code {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCode, params.Code)
		}
	}

	if params.ParentID != 0 {
		if err := s.checkParent(ctx, companyID, params.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := &model.Account{
		CompanyID:   companyID,
		Code:        params.Code,
		Name:        params.Name,
		Type:        params.Type,
		ParentID:    params.ParentID,
		Active:      true,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.record(companyID, actor, "account.create", account.ID, fmt.Sprintf("code=%s type=%s", account.Code, account.Type))
	return account, nil
}

// Get returns an account by ID within the company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*model.Account, error) {
	return s.store.GetAccount(ctx, companyID, id)
}

// UpdatePatch holds the optional fields of a partial account update. Nil
// fields are left unchanged. A ParentID of 0 clears the parent.
type UpdatePatch struct {
	Code        *string
	Name        *string
	Type        *model.AccountType
	ParentID    *int64
	Active      *bool
	Description *string
}

// Update applies a partial update to an account.
func (s *Service) Update(ctx context.Context, companyID, id int64, actor string, patch UpdatePatch) (*model.Account, error) {
	account, err := s.apply(ctx, companyID, id, patch)
	if err != nil {
		return nil, err
	}
	s.record(companyID, actor, "account.update", id, "code="+account.Code)
	return account, nil
}

// apply validates and persists a patch without recording an audit entry.
// Callers record the action that prompted the patch.
func (s *Service) apply(ctx context.Context, companyID, id int64, patch UpdatePatch) (*model.Account, error) {
	account, err := s.store.GetAccount(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if patch.Code != nil && *patch.Code != account.Code {
		accounts, err := s.store.ListAccounts(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("listing accounts: %w", err)
		}
		for _, a := range accounts {
			if a.ID != id && a.Code == *patch.Code {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateCode, *patch.Code)
			}
		}
		account.Code = *patch.Code
	}
	if patch.Name != nil {
		account.Name = *patch.Name
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, *patch.Type)
		}
		account.Type = *patch.Type
	}
	if patch.ParentID != nil && *patch.ParentID != account.ParentID {
		if *patch.ParentID != 0 {
			if err := s.checkParent(ctx, companyID, *patch.ParentID); err != nil {
				return nil, err
			}
			if err := s.checkCycle(ctx, companyID, id, *patch.ParentID); err != nil {
				return nil, err
			}
		}
		account.ParentID = *patch.ParentID
	}
	if patch.Active != nil {
		account.Active = *patch.Active
	}
	if patch.Description != nil {
		account.Description = *patch.Description
	}

	account.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("updating account: %w", err)
	}
	return account, nil
}

// Deactivate marks an account inactive. The account remains in the chart and
// in history, but new transaction lines against it are rejected.
func (s *Service) Deactivate(ctx context.Context, companyID, id int64, actor string) (*model.Account, error) {
	inactive := false
	account, err := s.apply(ctx, companyID, id, UpdatePatch{Active: &inactive})
	if err != nil {
		return nil, err
	}
	s.record(companyID, actor, "account.deactivate", id, "code="+account.Code)
	return account, nil
}

// Delete removes an account. Fails with ErrAccountInUse when any transaction
// line references it, regardless of the transaction's state.
func (s *Service) Delete(ctx context.Context, companyID, id int64, actor string) error {
	account, err := s.store.GetAccount(ctx, companyID, id)
	if err != nil {
		return err
	}

	referenced, err := s.IsReferenced(ctx, companyID, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: account %s", ErrAccountInUse, account.Code)
	}

	if err := s.store.DeleteAccount(ctx, companyID, id); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	s.record(companyID, actor, "account.delete", id, "code="+account.Code)
	return nil
}

// IsReferenced reports whether any transaction line in the company
// references the account.
func (s *Service) IsReferenced(ctx context.Context, companyID, id int64) (bool, error) {
	return s.store.AccountReferenced(ctx, companyID, id)
}

// ListFilter narrows List results. Zero values mean "no filter"; Limit 0
// means no limit.
type ListFilter struct {
	Type       model.AccountType
	ActiveOnly bool
	Skip       int
	Limit      int
}

// List returns the company's accounts honoring the filter, ordered by code.
func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) ([]*model.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	var result []*model.Account
	for _, a := range accounts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !a.Active {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

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

// ChartOfAccounts returns the full chart for a company, ordered by code.
func (s *Service) ChartOfAccounts(ctx context.Context, companyID int64) ([]*model.Account, error) {
	return s.List(ctx, companyID, ListFilter{})
}

// BulkResult reports the outcome of a bulk create: rows are independently
// validated, so some may succeed while others fail.
type BulkResult struct {
	Created int
	Errors  []string
}

// BulkCreate creates accounts from rows, continuing past per-row failures.
func (s *Service) BulkCreate(ctx context.Context, companyID int64, actor string, rows []CreateParams) (BulkResult, error) {
	var res BulkResult
	for _, row := range rows {
		if _, err := s.Create(ctx, companyID, actor, row); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("account %q: %v", row.Code, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

// checkParent verifies the parent exists in the company and is active.
func (s *Service) checkParent(ctx context.Context, companyID, parentID int64) error {
	parent, err := s.store.GetAccount(ctx, companyID, parentID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: account %d not found", ErrInvalidParent, parentID)
	}
	if err != nil {
		return err
	}
	if !parent.Active {
		return fmt.Errorf("%w: account %s is inactive", ErrInvalidParent, parent.Code)
	}
	return nil
}

// checkCycle walks the ancestor chain of the proposed parent by ID and
// rejects the change if the account itself appears. The visited set bounds
// the walk even if stored data already contains a cycle.
func (s *Service) checkCycle(ctx context.Context, companyID, accountID, parentID int64) error {
	accounts, err := s.store.ListAccounts(ctx, companyID)
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}
	byID := make(map[int64]*model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	visited := make(map[int64]bool)
	for cur := parentID; cur != 0; {
		if cur == accountID {
			return fmt.Errorf("%w: account %d would become its own ancestor", ErrCyclicHierarchy, accountID)
		}
		if visited[cur] {
			return nil
		}
		visited[cur] = true
		a, ok := byID[cur]
		if !ok {
			return nil
		}
		cur = a.ParentID
	}
	return nil
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
