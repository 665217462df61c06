package model

import (
	"time"

	"freelancer-marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusActive          OrderStatus = "active"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// IsTerminal reports whether the order accepts no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRejected
}

// Order is one booking between a customer and a freelancer. A freelancer
// holds at most one non-terminal order per BookingDate (enforced by the
// persistence layer's partial unique index).
type Order struct {
	ID                    string // UUID
	OrderNumber           string
	CustomerID            string
	FreelancerID          string
	ServiceID             string
	BookingDate           time.Time // date component only
	AgreedPrice           decimal.Decimal
	Status                OrderStatus
	PaymentSlipUploadedAt *time.Time
	FreelancerRespondedAt *time.Time
	DeliveryDeadlineAt    *time.Time
	DeliveredAt           *time.Time
	CompletedAt           *time.Time
	CancelledAt           *time.Time
	CancellationReason    string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// MarkPaid records a confirmed payment: pending_payment -> pending_approval.
func (o *Order) MarkPaid(now time.Time) error {
	if o.Status != OrderStatusPendingPayment {
		return domain.ErrInvalidTransition
	}
	o.Status = OrderStatusPendingApproval
	o.PaymentSlipUploadedAt = &now
	o.UpdatedAt = now
	return nil
}

// Accept moves pending_approval -> active and sets the delivery deadline.
func (o *Order) Accept(now time.Time, deliveryWindow time.Duration) error {
	if o.Status != OrderStatusPendingApproval {
		return domain.ErrInvalidTransition
	}
	deadline := now.Add(deliveryWindow)
	o.Status = OrderStatusActive
	o.FreelancerRespondedAt = &now
	o.DeliveryDeadlineAt = &deadline
	o.UpdatedAt = now
	return nil
}

// Reject moves pending_approval -> rejected (terminal).
func (o *Order) Reject(now time.Time) error {
	if o.Status != OrderStatusPendingApproval {
		return domain.ErrInvalidTransition
	}
	o.Status = OrderStatusRejected
	o.FreelancerRespondedAt = &now
	o.UpdatedAt = now
	return nil
}

// Deliver moves active -> delivered.
func (o *Order) Deliver(now time.Time) error {
	if o.Status != OrderStatusActive {
		return domain.ErrInvalidTransition
	}
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now
	return nil
}

// Complete moves delivered -> completed, either by explicit customer
// confirmation or by the auto-complete sweep.
func (o *Order) Complete(now time.Time) error {
	if o.Status != OrderStatusDelivered {
		return domain.ErrInvalidTransition
	}
	o.Status = OrderStatusCompleted
	o.CompletedAt = &now
	o.UpdatedAt = now
	return nil
}

// Cancel moves pending_approval or active -> cancelled (terminal).
func (o *Order) Cancel(now time.Time, reason string) error {
	if o.Status != OrderStatusPendingApproval && o.Status != OrderStatusActive {
		return domain.ErrInvalidTransition
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.UpdatedAt = now
	return nil
}
