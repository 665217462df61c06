package repository

import (
	"context"
	"time"

	"freelancer-marketplace/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Subscription, error)
	// ExpireFinished flips active rows past their EndsAt to expired and
	// returns how many changed.
	ExpireFinished(ctx context.Context, tx Tx, now time.Time) (int, error)
}

type SubscriptionPlanRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	Save(ctx context.Context, tx Tx, p *model.SubscriptionPlan) error
}
