package forum

import (
	"context"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/models"
)

const defaultNotificationLimit = 20

func (s *Service) ListNotifications(ctx context.Context, actor Actor, unreadOnly bool, page, limit int) ([]models.Notification, Pagination, error) {
	if actor.UserID == 0 {
		return nil, Pagination{}, newError(ErrUnauthorized, "authentication required")
	}
	p := NewPage(page, limit, defaultNotificationLimit)
	ns, total, err := s.store.ListNotifications(ctx, actor.UserID, unreadOnly, p)
	if err != nil {
		return nil, Pagination{}, err
	}
	return ns, p.Info(total), nil
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Notifications owned by someone else are reported as not found.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id uint) error {
	if actor.UserID == 0 {
		return newError(ErrUnauthorized, "authentication required")
	}
	if err := s.store.MarkNotificationRead(ctx, id, actor.UserID); err != nil {
		return notFound(err, "notification not found")
	}
	return nil
}
