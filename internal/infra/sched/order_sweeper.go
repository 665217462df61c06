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

const orderSweepLockKey = "sweep:orders"

// OrderSweeper auto-cancels orders the freelancer never responded to and
// auto-completes deliveries the customer never confirmed.
type OrderSweeper struct {
	interval time.Duration
	orderUC  usecase.OrderUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewOrderSweeper(interval time.Duration, orderUC usecase.OrderUseCase, locker redis.Locker, logger *zerolog.Logger) *OrderSweeper {
	compLog := logger.With().Str("component", "OrderSweeper").Logger()
	return &OrderSweeper{
		interval: interval,
		orderUC:  orderUC,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *OrderSweeper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting order sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping order sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce executes one sweep pass. The redis lock keeps concurrent instances
// from double-sweeping; losing the lock race is not an error.
func (w *OrderSweeper) RunOnce(ctx context.Context, now time.Time) {
	token, err := w.locker.TryLock(ctx, orderSweepLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			metrics.IncSweepRun("orders", "skipped")
			return
		}
		w.log.Error().Err(err).Msg("order sweep lock error")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, orderSweepLockKey, token) }()

	total := 0
	cancelled, err := w.orderUC.CancelUnresponded(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("auto-cancel pass failed")
		metrics.IncSweepRun("orders", "failed")
		return
	}
	total += cancelled

	completed, err := w.orderUC.CompleteDelivered(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("auto-complete pass failed")
		metrics.IncSweepRun("orders", "failed")
		return
	}
	total += completed

	metrics.IncSweepRun("orders", "completed")
	if total > 0 {
		metrics.AddSweepRows("orders", total)
		w.log.Info().Int("cancelled", cancelled).Int("completed", completed).Msg("order sweep finished")
	}
}
