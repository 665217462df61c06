package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/infra/metrics"
	"freelancer-marketplace/internal/infra/redis"
	"freelancer-marketplace/internal/usecase"
)

const reconcileLockKey = "sweep:reconcile"

// PaymentReconciler settles transactions whose callback never arrived and
// replays activations that failed after finalize. Covers crashes mid-confirm
// and dropped provider callbacks.
type PaymentReconciler struct {
	interval  time.Duration
	paymentUC usecase.PaymentUseCase
	subUC     usecase.SubscriptionUseCase
	locker    redis.Locker
	log       *zerolog.Logger
}

func NewPaymentReconciler(interval time.Duration, paymentUC usecase.PaymentUseCase, subUC usecase.SubscriptionUseCase, locker redis.Locker, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		interval:  interval,
		paymentUC: paymentUC,
		subUC:     subUC,
		locker:    locker,
		log:       &compLog,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx, time.Now())
		}
	}
}

func (w *PaymentReconciler) RunOnce(ctx context.Context, now time.Time) {
	token, err := w.locker.TryLock(ctx, reconcileLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			metrics.IncSweepRun("reconcile", "skipped")
			return
		}
		w.log.Error().Err(err).Msg("reconcile lock error")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, reconcileLockKey, token) }()

	settled, err := w.paymentUC.Reconcile(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("reconcile pass failed")
		metrics.IncSweepRun("reconcile", "failed")
		return
	}

	expired, err := w.subUC.ExpireFinished(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("subscription expiry pass failed")
		metrics.IncSweepRun("reconcile", "failed")
		return
	}

	metrics.IncSweepRun("reconcile", "completed")
	if settled+expired > 0 {
		metrics.AddSweepRows("reconcile", settled+expired)
		w.log.Info().Int("settled", settled).Int("subscriptions_expired", expired).Msg("reconcile finished")
	}
}
