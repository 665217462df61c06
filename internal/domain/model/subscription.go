package model

import (
	"time"

	"freelancer-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// SubscriptionPlan is a purchasable plan (admin-managed).
type SubscriptionPlan struct {
	ID           string // UUID
	Name         string
	DurationDays int
	Price        decimal.Decimal
	Active       bool
}

// Subscription is a user's paid plan instance. TransactionID links back to
// the payment that activated it and is the idempotency key for activation.
type Subscription struct {
	ID             string // UUID
	UserID         string
	PlanID         string
	Status         SubscriptionStatus
	StartsAt       *time.Time
	EndsAt         *time.Time
	PaymentGateway string
	TransactionID  string // Transaction.ID
	AmountPaid     decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewSubscription creates a pending subscription for a plan purchase.
func NewSubscription(id, userID string, plan *SubscriptionPlan, gateway, transactionID string) (*Subscription, error) {
	if id == "" || userID == "" || plan == nil {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:             id,
		UserID:         userID,
		PlanID:         plan.ID,
		Status:         SubscriptionStatusPending,
		PaymentGateway: gateway,
		TransactionID:  transactionID,
		AmountPaid:     plan.Price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Activate starts the subscription clock. Activating an already-active
// subscription is a no-op so callback replays cannot double-extend.
func (s *Subscription) Activate(now time.Time, durationDays int) {
	if s.Status == SubscriptionStatusActive {
		return
	}
	ends := now.Add(time.Duration(durationDays) * 24 * time.Hour)
	s.Status = SubscriptionStatusActive
	s.StartsAt = &now
	s.EndsAt = &ends
	s.UpdatedAt = now
}
