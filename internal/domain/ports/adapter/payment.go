package adapter

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentIntent carries everything a gateway needs to start a payment.
// Amount is in currency units; each adapter converts to its own wire unit.
type PaymentIntent struct {
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	PayerName   string
	PayerEmail  string
	PayerPhone  string
	Channel     string // optional provider payment channel
	Description string
	ReturnURL   string
	CallbackURL string
}

// PaymentRequest is the adapter's answer to CreatePayment: where to send
// the payer, plus the provider reference when one is assigned up front.
type PaymentRequest struct {
	PayURL      string
	ProviderRef string
}

// PaymentState is the normalized state every provider status code
// collapses to. Cancelled is the payer abandoning the hosted page;
// providers without a distinct cancel code only ever report failed.
type PaymentState string

const (
	StatePending   PaymentState = "pending"
	StateSuccess   PaymentState = "success"
	StateFailed    PaymentState = "failed"
	StateCancelled PaymentState = "cancelled"
)

// PaymentGateway is the hex port for payment providers. Implementations are
// constructed from an injected model.GatewayConfig row; they never consult
// shared mutable state.
//
// ValidateCallback and ValidateReturn never return an error: a missing
// secret, an absent signature, or a mismatch all read as false. The
// signature is the only thing authenticating a callback, so callers must
// treat false as a forged payload and mutate nothing.
type PaymentGateway interface {
	Slug() string

	// IsAvailable is true iff the config row is active and every required
	// secret is present. Every other operation fails with
	// domain.ErrGatewayUnavailable when this is false.
	IsAvailable() bool

	// CreatePayment initiates a payment and returns the redirect target.
	// Wraps transport and non-2xx failures in domain.ErrUpstream; never retries.
	CreatePayment(ctx context.Context, intent PaymentIntent) (*PaymentRequest, error)

	ValidateCallback(payload map[string]string) bool
	ValidateReturn(payload map[string]string) bool

	// ClassifyStatus maps the provider status code to a PaymentState.
	ClassifyStatus(raw string) PaymentState

	// QueryStatus asks the provider for the current state of an order.
	QueryStatus(ctx context.Context, orderNumber string) (PaymentState, error)
}

// GatewayResolver looks up a ready-to-use gateway by slug.
type GatewayResolver interface {
	Resolve(slug string) (PaymentGateway, error)
	Slugs() []string
}
