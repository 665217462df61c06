package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ SsmUseCase = (*ssmUC)(nil)

// graceReminderOffsets are the days-before-grace-end thresholds. Each fires
// at most once per user, deduped by the notification log's unique constraint.
var graceReminderOffsets = []int{14, 7, 3, 1}

type SsmUseCase interface {
	// StartGrace marks verified rows with a passed expiry date as expired
	// and opens the grace window. Sweep entry point.
	StartGrace(ctx context.Context, now time.Time) (int, error)
	// HideElapsed deactivates services of users whose grace window elapsed
	// without renewal. Sweep entry point.
	HideElapsed(ctx context.Context, now time.Time) (int, error)
	// SendGraceReminders notifies users whose grace window ends exactly
	// offset days from now (date-truncated). Sweep entry point.
	SendGraceReminders(ctx context.Context, now time.Time) (int, error)
}

type ssmUC struct {
	ssm        repository.SsmVerificationRepository
	services   repository.ServiceRepository
	notifLog   repository.NotificationLogRepository
	notif      NotificationUseCase
	graceDays  int
	batchLimit int
	log        *zerolog.Logger
}

func NewSsmUseCase(ssm repository.SsmVerificationRepository, services repository.ServiceRepository, notifLog repository.NotificationLogRepository, notif NotificationUseCase, graceDays, batchLimit int, logger *zerolog.Logger) *ssmUC {
	l := logger.With().Str("component", "SsmUC").Logger()
	return &ssmUC{
		ssm:        ssm,
		services:   services,
		notifLog:   notifLog,
		notif:      notif,
		graceDays:  graceDays,
		batchLimit: batchLimit,
		log:        &l,
	}
}

func (u *ssmUC) StartGrace(ctx context.Context, now time.Time) (int, error) {
	rows, err := u.ssm.ListExpiredWithoutGrace(ctx, nil, now, u.batchLimit)
	if err != nil {
		return 0, err
	}
	started := 0
	for _, v := range rows {
		graceEnds := now.AddDate(0, 0, u.graceDays)
		if err := u.ssm.StartGrace(ctx, nil, v.ID, graceEnds, now); err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("grace start failed")
			continue
		}
		started++
		msg := fmt.Sprintf("Your SSM certificate expired. Renew within %d days or your services will be hidden.", u.graceDays)
		if err := u.notif.Notify(ctx, nil, v.UserID, model.NotificationSsmGraceStarted, msg); err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("grace start notification failed")
		}
	}
	return started, nil
}

func (u *ssmUC) HideElapsed(ctx context.Context, now time.Time) (int, error) {
	rows, err := u.ssm.ListGraceElapsed(ctx, nil, now, u.batchLimit)
	if err != nil {
		return 0, err
	}
	hidden := 0
	for _, v := range rows {
		n, err := u.services.DeactivateByUser(ctx, nil, v.UserID)
		if err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("service deactivation failed")
			continue
		}
		if err := u.ssm.MarkServicesHidden(ctx, nil, v.ID, now); err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("mark hidden failed")
			continue
		}
		hidden++
		msg := "Your services were hidden because your SSM certificate was not renewed in time."
		if err := u.notif.Notify(ctx, nil, v.UserID, model.NotificationSsmServicesHidden, msg); err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("hide notification failed")
		}
		adminMsg := fmt.Sprintf("Hid %d services of user %s after SSM grace period elapsed.", n, v.UserID)
		if err := u.notif.NotifyAdmins(ctx, nil, model.NotificationSsmServicesHidden, adminMsg); err != nil {
			u.log.Error().Err(err).Str("user_id", v.UserID).Msg("admin hide notification failed")
		}
	}
	return hidden, nil
}

func (u *ssmUC) SendGraceReminders(ctx context.Context, now time.Time) (int, error) {
	sent := 0
	for _, offset := range graceReminderOffsets {
		day := now.AddDate(0, 0, offset)
		rows, err := u.ssm.ListGraceEndingOn(ctx, nil, day, u.batchLimit)
		if err != nil {
			return sent, err
		}
		for _, v := range rows {
			// The unique constraint makes the dedup atomic even with
			// concurrent sweep runs.
			if err := u.notifLog.Save(ctx, nil, v.UserID, model.NotificationSsmGraceReminder, offset); err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					continue
				}
				u.log.Error().Err(err).Str("user_id", v.UserID).Int("offset", offset).Msg("reminder dedup failed")
				continue
			}
			msg := fmt.Sprintf("Your SSM grace period ends in %d day(s). Renew now to keep your services visible.", offset)
			if err := u.notif.Notify(ctx, nil, v.UserID, model.NotificationSsmGraceReminder, msg); err != nil {
				u.log.Error().Err(err).Str("user_id", v.UserID).Int("offset", offset).Msg("reminder notification failed")
				continue
			}
			sent++
		}
	}
	return sent, nil
}
