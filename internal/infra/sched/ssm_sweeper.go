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

const ssmSweepLockKey = "sweep:ssm"

// SsmSweeper runs the business-registration expiry pipeline: open grace
// windows, send countdown reminders, hide services once the window elapses.
type SsmSweeper struct {
	interval time.Duration
	ssmUC    usecase.SsmUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewSsmSweeper(interval time.Duration, ssmUC usecase.SsmUseCase, locker redis.Locker, logger *zerolog.Logger) *SsmSweeper {
	compLog := logger.With().Str("component", "SsmSweeper").Logger()
	return &SsmSweeper{
		interval: interval,
		ssmUC:    ssmUC,
		locker:   locker,
		log:      &compLog,
	}
}

func (w *SsmSweeper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting ssm sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping ssm sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx, time.Now())
		}
	}
}

func (w *SsmSweeper) RunOnce(ctx context.Context, now time.Time) {
	token, err := w.locker.TryLock(ctx, ssmSweepLockKey, w.interval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			metrics.IncSweepRun("ssm", "skipped")
			return
		}
		w.log.Error().Err(err).Msg("ssm sweep lock error")
		return
	}
	defer func() { _ = w.locker.Unlock(ctx, ssmSweepLockKey, token) }()

	total := 0
	started, err := w.ssmUC.StartGrace(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("grace start pass failed")
		metrics.IncSweepRun("ssm", "failed")
		return
	}
	total += started

	reminded, err := w.ssmUC.SendGraceReminders(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("grace reminder pass failed")
		metrics.IncSweepRun("ssm", "failed")
		return
	}
	total += reminded

	hidden, err := w.ssmUC.HideElapsed(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("hide services pass failed")
		metrics.IncSweepRun("ssm", "failed")
		return
	}
	total += hidden

	metrics.IncSweepRun("ssm", "completed")
	if total > 0 {
		metrics.AddSweepRows("ssm", total)
		w.log.Info().Int("grace_started", started).Int("reminded", reminded).Int("hidden", hidden).Msg("ssm sweep finished")
	}
}
