//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"freelancer-marketplace/internal/domain"
	"freelancer-marketplace/internal/domain/model"
	"freelancer-marketplace/internal/domain/ports/repository"
	"freelancer-marketplace/internal/usecase"
)

func TestNotificationUseCase_NotifyAdmins(t *testing.T) {
	ctx := context.Background()

	t.Run("should fan out to every configured admin", func(t *testing.T) {
		// --- Arrange ---
		notifs := NewMockNotificationRepo()
		uc := usecase.NewNotificationUseCase(notifs, []string{"admin-1", "admin-2"}, newTestLogger())

		// --- Act ---
		err := uc.NotifyAdmins(ctx, nil, model.NotificationOrderAutoCancelled, "order cancelled")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if len(notifs.Saved) != 2 {
			t.Errorf("expected 2 notifications, got %d", len(notifs.Saved))
		}
	})

	t.Run("should continue past a failing admin and report the first error", func(t *testing.T) {
		// --- Arrange ---
		notifs := NewMockNotificationRepo()
		var delivered []string
		notifs.SaveFunc = func(ctx context.Context, tx repository.Tx, n *model.Notification) error {
			if n.UserID == "admin-1" {
				return domain.ErrOperationFailed
			}
			delivered = append(delivered, n.UserID)
			return nil
		}
		uc := usecase.NewNotificationUseCase(notifs, []string{"admin-1", "admin-2"}, newTestLogger())

		// --- Act ---
		err := uc.NotifyAdmins(ctx, nil, model.NotificationOrderAutoCancelled, "order cancelled")

		// --- Assert ---
		if !errors.Is(err, domain.ErrOperationFailed) {
			t.Errorf("expected the first failure to surface, got %v", err)
		}
		if len(delivered) != 1 || delivered[0] != "admin-2" {
			t.Errorf("expected admin-2 to still be notified, got %v", delivered)
		}
	})
}

func TestNotificationUseCase_UnreadFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("mark all read empties the unread count", func(t *testing.T) {
		// --- Arrange ---
		notifs := NewMockNotificationRepo()
		uc := usecase.NewNotificationUseCase(notifs, nil, newTestLogger())
		uc.Notify(ctx, nil, "user-1", model.NotificationOrderPaid, "paid")
		uc.Notify(ctx, nil, "user-1", model.NotificationOrderAccepted, "accepted")
		uc.Notify(ctx, nil, "user-2", model.NotificationOrderPaid, "paid")

		// --- Act ---
		before, _ := uc.UnreadCount(ctx, "user-1")
		if err := uc.MarkAllRead(ctx, "user-1"); err != nil {
			t.Fatalf("mark all read failed: %v", err)
		}
		after, _ := uc.UnreadCount(ctx, "user-1")
		other, _ := uc.UnreadCount(ctx, "user-2")

		// --- Assert ---
		if before != 2 {
			t.Errorf("expected 2 unread before, got %d", before)
		}
		if after != 0 {
			t.Errorf("expected 0 unread after, got %d", after)
		}
		if other != 1 {
			t.Errorf("expected user-2 untouched with 1 unread, got %d", other)
		}
	})
}
