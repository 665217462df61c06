package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase is the notify(user, event) sink consumed by the order
// and SSM state machines. Rows are persisted; delivery is someone else's job.
type NotificationUseCase interface {
	Notify(ctx context.Context, tx repository.Tx, userID, kind, message string) error
	NotifyAdmins(ctx context.Context, tx repository.Tx, kind, message string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationUC struct {
	notifications repository.NotificationRepository
	adminIDs      []string
	log           *zerolog.Logger
}

func NewNotificationUseCase(notifications repository.NotificationRepository, adminIDs []string, logger *zerolog.Logger) *notificationUC {
	l := logger.With().Str("component", "NotificationUC").Logger()
	return &notificationUC{notifications: notifications, adminIDs: adminIDs, log: &l}
}

func (n *notificationUC) Notify(ctx context.Context, tx repository.Tx, userID, kind, message string) error {
	err := n.notifications.Save(ctx, tx, &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	metrics.IncNotification(kind)
	return nil
}

// NotifyAdmins fans the event out to every configured admin. A failure for
// one admin does not stop the rest; the first error is returned.
func (n *notificationUC) NotifyAdmins(ctx context.Context, tx repository.Tx, kind, message string) error {
	var firstErr error
	for _, id := range n.adminIDs {
		if err := n.Notify(ctx, tx, id, kind, message); err != nil {
			n.log.Error().Err(err).Str("admin_id", id).Str("kind", kind).Msg("admin notification failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *notificationUC) UnreadCount(ctx context.Context, userID string) (int, error) {
	return n.notifications.CountUnread(ctx, nil, userID)
}

func (n *notificationUC) MarkAllRead(ctx context.Context, userID string) error {
	return n.notifications.MarkAllRead(ctx, nil, userID)
}
