// Package events defines the domain events the ledger emits when
// transactions change state, and the publisher boundary they go through.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeTransactionPosted   = "transaction.posted"
	TypeTransactionUnposted = "transaction.unposted"
)

// Event describes a transaction state change.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CompanyID     int64     `json:"company_id"`
	TransactionID int64     `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// New creates an event with a fresh ID stamped with the current time.
func New(eventType string, companyID, transactionID int64) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		CompanyID:     companyID,
		TransactionID: transactionID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher delivers events to interested consumers. Publishing is
// best-effort: the ledger never fails a mutation over a publish error.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop is a Publisher that discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

var _ Publisher = Nop{}
