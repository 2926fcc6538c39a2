package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
	"github.com/uzimatech/borehole-api/internal/notify"
)

// notificationListCap bounds how many notices a single listing returns.
const notificationListCap = 50

// NotificationService persists in-app notices and pushes them to the live
// channel when the user is connected.
type NotificationService struct {
	Repo     repository.NotificationRepository
	Notifier notify.Notifier
	Logger   *logrus.Logger
}

func NewNotificationService(repo repository.NotificationRepository, notifier notify.Notifier, logger *logrus.Logger) *NotificationService {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}
	return &NotificationService{Repo: repo, Notifier: notifier, Logger: logger}
}

// Notify is fire-and-forget: persistence or push failures are logged and
// never propagate to the lifecycle operation that triggered them.
func (s *NotificationService) Notify(ctx context.Context, userID, typ, title, message string, ref entity.Reference) {
	n := &entity.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Reference: ref,
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"user_id": userID,
				"type":    typ,
			}).Warn("notification create failed")
		}
		return
	}
	// Best-effort live push; the notifier logs its own failures.
	_ = s.Notifier.Push(ctx, userID, n)
}

// ListForUser returns the newest visible notices, capped at 50.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]*entity.Notification, error) {
	return s.Repo.ListByUser(ctx, userID, notificationListCap)
}

// MarkRead flags a notice read; a notice owned by someone else is reported
// as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*entity.Notification, error) {
	if err := s.Repo.MarkRead(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.Repo.GetOwned(ctx, id, userID)
}

// Delete soft-deletes a notice.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	return s.Repo.SoftDelete(ctx, id, userID)
}
