package notification

import (
	"context"
	"time"

	"esilogis/internal/ports"
)

// Inbox exposes a user's in-app notifications.
type Inbox struct {
	repo ports.NotificationRepository
}

func NewInbox(repo ports.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) ListForAccount(ctx context.Context, accountID uint64, unreadOnly bool) ([]ports.Notification, error) {
	return i.repo.ListNotifications(ctx, accountID, unreadOnly)
}

func (i *Inbox) MarkRead(ctx context.Context, accountID uint64, id uint64) error {
	return i.repo.MarkNotificationRead(ctx, accountID, id, time.Now().UTC())
}
