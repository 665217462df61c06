package repository

import (
	"context"
	"time"

	"freelancer-marketplace/internal/domain/model"
)

type OrderRepository interface {
	// Create inserts a new order. Returns domain.ErrBookingDateTaken when
	// the freelancer already holds a non-terminal order for the booking date.
	Create(ctx context.Context, tx Tx, o *model.Order) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	FindByOrderNumber(ctx context.Context, tx Tx, orderNumber string) (*model.Order, error)
	// UpdateStatus persists a transition with a conditional
	// UPDATE ... WHERE status=$from. Returns domain.ErrInvalidTransition
	// when the row already left the expected status.
	UpdateStatus(ctx context.Context, tx Tx, o *model.Order, from model.OrderStatus) error
	// ListUnrespondedSince returns pending_approval orders whose payment slip
	// was uploaded before the cutoff.
	ListUnrespondedSince(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Order, error)
	// ListDeliveredSince returns delivered orders older than the cutoff.
	ListDeliveredSince(ctx context.Context, tx Tx, cutoff time.Time, limit int) ([]*model.Order, error)
}
