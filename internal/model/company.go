package model

import "time"

// Company is a tenant. Every account and transaction belongs to exactly one
// company; nothing ever references across companies.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"` // ISO 4217, e.g. "USD"
	CreatedAt time.Time `json:"created_at"`
}
