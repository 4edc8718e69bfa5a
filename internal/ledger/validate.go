package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openbooks-dev/openbooks/internal/model"
	"github.com/openbooks-dev/openbooks/internal/store"
)

var (
	// ErrInsufficientLines means the transaction has fewer than two lines.
	ErrInsufficientLines = errors.New("transaction must have at least 2 lines")
	// ErrUnbalancedTransaction means the signed sum of line amounts is not
	// exactly zero.
	ErrUnbalancedTransaction = errors.New("transaction does not balance")
	// ErrUnknownAccount means a line references an account that does not
	// exist in the company.
	ErrUnknownAccount = errors.New("unknown account")
	// ErrInactiveAccount means a line references a deactivated account.
	ErrInactiveAccount = errors.New("inactive account")
	// ErrInvalidAmount means a line amount is zero or carries more than two
	// decimal places.
	ErrInvalidAmount = errors.New("invalid line amount")
)

// AccountSource resolves accounts within a company for line validation.
// store.Store satisfies it.
type AccountSource interface {
	GetAccount(ctx context.Context, companyID, accountID int64) (*model.Account, error)
}

// minorUnit scales an amount to the currency's minor unit (cents).
var minorUnit = decimal.NewFromInt(100)

// ValidateLines enforces the double-entry invariants on a line set:
// at least two lines, every amount nonzero and exact at two decimal places,
// every account known and active in the company, and a signed sum of exactly
// zero.
func ValidateLines(ctx context.Context, accounts AccountSource, companyID int64, lines []model.TransactionLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientLines, len(lines))
	}

	total := decimal.Zero
	for i, line := range lines {
		if line.Amount.IsZero() {
			return fmt.Errorf("%w: line %d amount is zero", ErrInvalidAmount, i+1)
		}
		cents := line.Amount.Mul(minorUnit)
		if !cents.Equal(cents.Floor()) {
			return fmt.Errorf("%w: line %d amount %s has more than 2 decimal places", ErrInvalidAmount, i+1, line.Amount)
		}

		account, err := accounts.GetAccount(ctx, companyID, line.AccountID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: line %d references account %d", ErrUnknownAccount, i+1, line.AccountID)
		}
		if err != nil {
			return fmt.Errorf("resolving account %d: %w", line.AccountID, err)
		}
		if !account.Active {
			return fmt.Errorf("%w: line %d references account %s", ErrInactiveAccount, i+1, account.Code)
		}

		total = total.Add(line.Amount)
	}

	if !total.IsZero() {
		return fmt.Errorf("%w: difference %s", ErrUnbalancedTransaction, total.StringFixed(2))
	}
	return nil
}
