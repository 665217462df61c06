package repository

import (
	"context"

	"freelancer-marketplace/internal/domain/model"
)

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	CountUnread(ctx context.Context, tx Tx, userID string) (int, error)
	MarkAllRead(ctx context.Context, tx Tx, userID string) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Notification, error)
}

// NotificationLogRepository dedupes threshold-based reminders. The database's
// UNIQUE constraint on (user_id, kind, threshold_days) is the guard; Save of
// a duplicate returns domain.ErrAlreadyExists.
type NotificationLogRepository interface {
	Save(ctx context.Context, tx Tx, userID, kind string, thresholdDays int) error
	Exists(ctx context.Context, tx Tx, userID, kind string, thresholdDays int) (bool, error)
}
