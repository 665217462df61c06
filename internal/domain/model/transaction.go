package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"   // intent created; awaiting gateway outcome
	TransactionStatusSuccess   TransactionStatus = "success"   // gateway confirmed payment
	TransactionStatusFailed    TransactionStatus = "failed"    // gateway reported failure
	TransactionStatusCancelled TransactionStatus = "cancelled" // payer abandoned or gateway cancelled
)

// IsTerminal reports whether no further status transition is allowed.
// Transactions only move forward: pending -> success|failed|cancelled.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// SubjectKind tells what a transaction pays for.
type SubjectKind string

const (
	SubjectOrder        SubjectKind = "order"
	SubjectSubscription SubjectKind = "subscription"
)

// Transaction records one external payment attempt. OrderNumber is the
// merchant-side correlation key and never changes; TransactionID is assigned
// by the gateway and may arrive only with the callback.
type Transaction struct {
	ID            string // UUID
	OrderNumber   string // unique, generated at initiation
	TransactionID *string
	SubjectKind   SubjectKind
	SubjectID     string // Order.ID or Subscription.ID
	UserID        string
	Amount        decimal.Decimal // currency units
	Currency      string          // e.g. "MYR"
	Gateway       string          // gateway slug
	Status        TransactionStatus
	PaymentMethod string
	Payload       []byte // raw callback payload as received
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PaidAt        *time.Time
}
