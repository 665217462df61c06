//go:build !integration

package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freelancer-marketplace/internal/domain"
)

// --- Order Model Tests ---

func newTestOrder(status OrderStatus) *Order {
	return &Order{
		ID:           "order-1",
		OrderNumber:  "ORD-1",
		CustomerID:   "cust-1",
		FreelancerID: "free-1",
		ServiceID:    "svc-1",
		BookingDate:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		AgreedPrice:  decimal.NewFromInt(250),
		Status:       status,
	}
}

func TestOrder_Lifecycle(t *testing.T) {
	t.Run("should walk the happy path end to end", func(t *testing.T) {
		o := newTestOrder(OrderStatusPendingPayment)
		now := time.Now()

		if err := o.MarkPaid(now); err != nil {
			t.Fatalf("mark paid failed: %v", err)
		}
		if o.Status != OrderStatusPendingApproval {
			t.Errorf("expected 'pending_approval', got '%s'", o.Status)
		}
		if err := o.Accept(now, 7*24*time.Hour); err != nil {
			t.Fatalf("accept failed: %v", err)
		}
		if o.DeliveryDeadlineAt == nil {
			t.Error("expected a delivery deadline after accept")
		}
		if err := o.Deliver(now); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
		if err := o.Complete(now); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
		if o.Status != OrderStatusCompleted {
			t.Errorf("expected 'completed', got '%s'", o.Status)
		}
		if !o.Status.IsTerminal() {
			t.Error("completed must be terminal")
		}
	})

	t.Run("should refuse out of order transitions", func(t *testing.T) {
		now := time.Now()
		cases := []struct {
			name string
			from OrderStatus
			call func(o *Order) error
		}{
			{"mark paid from active", OrderStatusActive, func(o *Order) error { return o.MarkPaid(now) }},
			{"accept from pending_payment", OrderStatusPendingPayment, func(o *Order) error { return o.Accept(now, time.Hour) }},
			{"reject from active", OrderStatusActive, func(o *Order) error { return o.Reject(now) }},
			{"deliver from pending_approval", OrderStatusPendingApproval, func(o *Order) error { return o.Deliver(now) }},
			{"complete from active", OrderStatusActive, func(o *Order) error { return o.Complete(now) }},
			{"cancel from completed", OrderStatusCompleted, func(o *Order) error { return o.Cancel(now, "late") }},
			{"cancel from pending_payment", OrderStatusPendingPayment, func(o *Order) error { return o.Cancel(now, "late") }},
		}
		for _, tc := range cases {
			o := newTestOrder(tc.from)
			if err := tc.call(o); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Errorf("%s: expected ErrInvalidTransition, got %v", tc.name, err)
			}
			if o.Status != tc.from {
				t.Errorf("%s: status must not move on a refused transition", tc.name)
			}
		}
	})

	t.Run("cancel records the reason", func(t *testing.T) {
		o := newTestOrder(OrderStatusPendingApproval)
		if err := o.Cancel(time.Now(), "no response"); err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if o.Status != OrderStatusCancelled {
			t.Errorf("expected 'cancelled', got '%s'", o.Status)
		}
		if o.CancellationReason != "no response" {
			t.Errorf("expected reason recorded, got '%s'", o.CancellationReason)
		}
		if o.CancelledAt == nil {
			t.Error("expected CancelledAt to be set")
		}
	})
}

// --- Transaction Model Tests ---

func TestTransactionStatus_IsTerminal(t *testing.T) {
	if TransactionStatusPending.IsTerminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []TransactionStatus{TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("expected '%s' to be terminal", s)
		}
	}
}

// --- Subscription Model Tests ---

func TestSubscription_Activate(t *testing.T) {
	plan := &SubscriptionPlan{ID: "plan-1", Name: "Pro", DurationDays: 30, Price: decimal.NewFromInt(49), Active: true}

	t.Run("should start a window matching the plan duration", func(t *testing.T) {
		sub, err := NewSubscription("sub-1", "user-1", plan, "bayarcash", "tx-1")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		now := time.Now()

		sub.Activate(now, plan.DurationDays)

		if sub.Status != SubscriptionStatusActive {
			t.Errorf("expected 'active', got '%s'", sub.Status)
		}
		if sub.EndsAt == nil || sub.EndsAt.Sub(*sub.StartsAt) != 30*24*time.Hour {
			t.Error("expected a 30 day window")
		}
	})

	t.Run("re-activation must not extend the window", func(t *testing.T) {
		sub, _ := NewSubscription("sub-1", "user-1", plan, "bayarcash", "tx-1")
		now := time.Now()
		sub.Activate(now, plan.DurationDays)
		first := *sub.EndsAt

		sub.Activate(now.Add(time.Hour), plan.DurationDays)

		if !sub.EndsAt.Equal(first) {
			t.Error("expected the window to stay put on replay")
		}
	})

	t.Run("should refuse construction without a plan", func(t *testing.T) {
		if _, err := NewSubscription("sub-1", "user-1", nil, "bayarcash", "tx-1"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
