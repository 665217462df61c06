package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

type CreateOrderInput struct {
	CustomerID   string
	FreelancerID string
	ServiceID    string
	BookingDate  time.Time
	AgreedPrice  decimal.Decimal
}

type OrderUseCase interface {
	Create(ctx context.Context, in CreateOrderInput) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	// MarkPaid is invoked by the payment orchestrator after a confirmed
	// payment: pending_payment -> pending_approval.
	MarkPaid(ctx context.Context, tx repository.Tx, orderID string, now time.Time) error
	Accept(ctx context.Context, orderID string) (*model.Order, error)
	Reject(ctx context.Context, orderID string) (*model.Order, error)
	Deliver(ctx context.Context, orderID string) (*model.Order, error)
	Confirm(ctx context.Context, orderID string) (*model.Order, error)
	// CancelUnresponded auto-cancels pending_approval orders whose payment
	// slip is older than the approval timeout. Sweep entry point.
	CancelUnresponded(ctx context.Context, now time.Time) (int, error)
	// CompleteDelivered auto-completes delivered orders older than the
	// auto-complete window. Sweep entry point.
	CompleteDelivered(ctx context.Context, now time.Time) (int, error)
}

type orderUC struct {
	orders            repository.OrderRepository
	notif             NotificationUseCase
	approvalTimeout   time.Duration
	autoCompleteAfter time.Duration
	deliveryWindow    time.Duration
	batchLimit        int
	log               *zerolog.Logger
}

func NewOrderUseCase(orders repository.OrderRepository, notif NotificationUseCase, approvalTimeout, autoCompleteAfter, deliveryWindow time.Duration, batchLimit int, logger *zerolog.Logger) *orderUC {
	l := logger.With().Str("component", "OrderUC").Logger()
	return &orderUC{
		orders:            orders,
		notif:             notif,
		approvalTimeout:   approvalTimeout,
		autoCompleteAfter: autoCompleteAfter,
		deliveryWindow:    deliveryWindow,
		batchLimit:        batchLimit,
		log:               &l,
	}
}

func (u *orderUC) Create(ctx context.Context, in CreateOrderInput) (*model.Order, error) {
	if in.CustomerID == "" || in.FreelancerID == "" || in.ServiceID == "" {
		return nil, fmt.Errorf("%w: customer, freelancer and service are required", domain.ErrValidation)
	}
	if in.BookingDate.IsZero() {
		return nil, fmt.Errorf("%w: booking date is required", domain.ErrValidation)
	}
	if in.AgreedPrice.Sign() <= 0 {
		return nil, fmt.Errorf("%w: agreed price must be positive", domain.ErrValidation)
	}
	now := time.Now()
	o := &model.Order{
		ID:           uuid.NewString(),
		OrderNumber:  NewOrderNumber(),
		CustomerID:   in.CustomerID,
		FreelancerID: in.FreelancerID,
		ServiceID:    in.ServiceID,
		BookingDate:  in.BookingDate.Truncate(24 * time.Hour),
		AgreedPrice:  in.AgreedPrice,
		Status:       model.OrderStatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.orders.Create(ctx, nil, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (u *orderUC) FindByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return u.orders.FindByOrderNumber(ctx, nil, orderNumber)
}

func (u *orderUC) MarkPaid(ctx context.Context, tx repository.Tx, orderID string, now time.Time) error {
	o, err := u.orders.FindByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	from := o.Status
	if err := o.MarkPaid(now); err != nil {
		return err
	}
	if err := u.orders.UpdateStatus(ctx, tx, o, from); err != nil {
		return err
	}
	metrics.IncOrderTransition(string(from), string(o.Status))
	if err := u.notif.Notify(ctx, tx, o.FreelancerID, model.NotificationOrderPaid, fmt.Sprintf("Order %s is paid and awaits your approval.", o.OrderNumber)); err != nil {
		u.log.Error().Err(err).Str("order_id", o.ID).Msg("paid notification failed")
	}
	return nil
}

func (u *orderUC) transition(ctx context.Context, orderID string, apply func(*model.Order, time.Time) error, notifyUser func(*model.Order) (string, string, string)) (*model.Order, error) {
	o, err := u.orders.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	from := o.Status
	if err := apply(o, now); err != nil {
		return nil, err
	}
	if err := u.orders.UpdateStatus(ctx, nil, o, from); err != nil {
		return nil, err
	}
	metrics.IncOrderTransition(string(from), string(o.Status))
	if notifyUser != nil {
		userID, kind, msg := notifyUser(o)
		if err := u.notif.Notify(ctx, nil, userID, kind, msg); err != nil {
			u.log.Error().Err(err).Str("order_id", o.ID).Str("kind", kind).Msg("notification failed")
		}
	}
	return o, nil
}

func (u *orderUC) Accept(ctx context.Context, orderID string) (*model.Order, error) {
	return u.transition(ctx, orderID,
		func(o *model.Order, now time.Time) error { return o.Accept(now, u.deliveryWindow) },
		func(o *model.Order) (string, string, string) {
			return o.CustomerID, model.NotificationOrderAccepted, fmt.Sprintf("Order %s was accepted.", o.OrderNumber)
		})
}

func (u *orderUC) Reject(ctx context.Context, orderID string) (*model.Order, error) {
	return u.transition(ctx, orderID,
		func(o *model.Order, now time.Time) error { return o.Reject(now) },
		func(o *model.Order) (string, string, string) {
			return o.CustomerID, model.NotificationOrderRejected, fmt.Sprintf("Order %s was rejected by the freelancer.", o.OrderNumber)
		})
}

func (u *orderUC) Deliver(ctx context.Context, orderID string) (*model.Order, error) {
	return u.transition(ctx, orderID,
		func(o *model.Order, now time.Time) error { return o.Deliver(now) },
		func(o *model.Order) (string, string, string) {
			return o.CustomerID, model.NotificationOrderDelivered, fmt.Sprintf("Order %s was delivered. Please confirm.", o.OrderNumber)
		})
}

func (u *orderUC) Confirm(ctx context.Context, orderID string) (*model.Order, error) {
	return u.transition(ctx, orderID,
		func(o *model.Order, now time.Time) error { return o.Complete(now) },
		func(o *model.Order) (string, string, string) {
			return o.FreelancerID, model.NotificationOrderCompleted, fmt.Sprintf("Order %s was completed by the customer.", o.OrderNumber)
		})
}

func (u *orderUC) CancelUnresponded(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-u.approvalTimeout)
	stale, err := u.orders.ListUnrespondedSince(ctx, nil, cutoff, u.batchLimit)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, o := range stale {
		from := o.Status
		if err := o.Cancel(now, "freelancer did not respond within the approval window"); err != nil {
			continue
		}
		if err := u.orders.UpdateStatus(ctx, nil, o, from); err != nil {
			// Row moved on concurrently; skip, the next run rechecks.
			u.log.Warn().Err(err).Str("order_id", o.ID).Msg("auto-cancel skipped")
			continue
		}
		cancelled++
		metrics.IncOrderTransition(string(from), string(o.Status))
		if err := u.notif.Notify(ctx, nil, o.CustomerID, model.NotificationOrderAutoCancelled, fmt.Sprintf("Order %s was cancelled: no freelancer response within 24 hours.", o.OrderNumber)); err != nil {
			u.log.Error().Err(err).Str("order_id", o.ID).Msg("auto-cancel notification failed")
		}
		if err := u.notif.NotifyAdmins(ctx, nil, model.NotificationOrderAutoCancelled, fmt.Sprintf("Order %s auto-cancelled after approval timeout.", o.OrderNumber)); err != nil {
			u.log.Error().Err(err).Str("order_id", o.ID).Msg("admin notification failed")
		}
	}
	return cancelled, nil
}

func (u *orderUC) CompleteDelivered(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-u.autoCompleteAfter)
	stale, err := u.orders.ListDeliveredSince(ctx, nil, cutoff, u.batchLimit)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, o := range stale {
		from := o.Status
		if err := o.Complete(now); err != nil {
			continue
		}
		if err := u.orders.UpdateStatus(ctx, nil, o, from); err != nil {
			u.log.Warn().Err(err).Str("order_id", o.ID).Msg("auto-complete skipped")
			continue
		}
		completed++
		metrics.IncOrderTransition(string(from), string(o.Status))
		if err := u.notif.Notify(ctx, nil, o.FreelancerID, model.NotificationOrderCompleted, fmt.Sprintf("Order %s completed automatically after 72 hours.", o.OrderNumber)); err != nil {
			u.log.Error().Err(err).Str("order_id", o.ID).Msg("auto-complete notification failed")
		}
	}
	return completed, nil
}
