package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// Prepare creates a pending subscription tied to a payment transaction.
	Prepare(ctx context.Context, tx repository.Tx, userID, planID, gateway, transactionID string) (*model.Subscription, error)
	// Activate starts the subscription paid for by the transaction.
	// Replays for the same transaction are no-ops.
	Activate(ctx context.Context, tx repository.Tx, transactionID string) (*model.Subscription, error)
	// ExpireFinished flips active subscriptions past their end date.
	ExpireFinished(ctx context.Context, now time.Time) (int, error)
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	plans repository.SubscriptionPlanRepository
	notif NotificationUseCase
	log   *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.SubscriptionPlanRepository, notif NotificationUseCase, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, plans: plans, notif: notif, log: &l}
}

func (u *subscriptionUC) Prepare(ctx context.Context, tx repository.Tx, userID, planID, gateway, transactionID string) (*model.Subscription, error) {
	plan, err := u.plans.FindByID(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, fmt.Errorf("%w: plan %s is not purchasable", domain.ErrValidation, planID)
	}
	sub, err := model.NewSubscription(uuid.NewString(), userID, plan, gateway, transactionID)
	if err != nil {
		return nil, err
	}
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (u *subscriptionUC) Activate(ctx context.Context, tx repository.Tx, transactionID string) (*model.Subscription, error) {
	sub, err := u.subs.FindByTransactionID(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == model.SubscriptionStatusActive {
		// Callback replay; the first activation already happened.
		return sub, nil
	}
	plan, err := u.plans.FindByID(ctx, tx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	sub.Activate(time.Now(), plan.DurationDays)
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return nil, err
	}
	if err := u.notif.Notify(ctx, tx, sub.UserID, model.NotificationSubscriptionActive, "Your subscription is now active."); err != nil {
		u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("activation notification failed")
	}
	return sub, nil
}

func (u *subscriptionUC) ExpireFinished(ctx context.Context, now time.Time) (int, error) {
	n, err := u.subs.ExpireFinished(ctx, nil, now)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	return n, nil
}
