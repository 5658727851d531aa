package notification

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/clock"
	"github.com/frahmantamala/leave-management/internal/mailer"
)

type RepositoryAPI interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, n *Notification) error
}

type Service struct {
	repo   RepositoryAPI
	mailer mailer.Sender
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, sender mailer.Sender, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		mailer: sender,
		clock:  clk,
		logger: logger,
	}
}

// Notify stores an in-app notification and emails the recipient when an
// address is known. Email failures are logged and never fail the call.
func (s *Service) Notify(ctx context.Context, to Recipient, ntype, title, message string) (*Notification, error) {
	n := &Notification{
		UserID:  to.UserID,
		Type:    ntype,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification", "error", err, "user_id", to.UserID, "type", ntype)
		return nil, internal.NewInternalError("failed to store notification", err)
	}

	if s.mailer != nil && to.Email != "" {
		if err := s.mailer.Send(ctx, mailer.Message{To: to.Email, Subject: title, Body: message}); err != nil {
			s.logger.Warn("notification email send failed", "error", err, "user_id", to.UserID, "type", ntype)
		}
	}

	s.logger.Debug("notification created", "notification_id", n.ID, "user_id", to.UserID, "type", ntype)
	return n, nil
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, int64, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		s.logger.Error("failed to list notifications", "error", err, "user_id", userID)
		return nil, 0, internal.NewInternalError("failed to list notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "error", err, "user_id", userID)
		return nil, 0, internal.NewInternalError("failed to list notifications", err)
	}
	return notifications, unread, nil
}

// MarkRead flags a notification as read. Another user's notification is
// reported as not found.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) (*Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, internal.ErrNotificationNotFound
	}
	if n.IsRead {
		return n, nil
	}

	now := s.clock.Now()
	n.IsRead = true
	n.ReadAt = &now
	if err := s.repo.MarkRead(ctx, n); err != nil {
		s.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		return nil, internal.NewInternalError("failed to mark notification read", err)
	}
	return n, nil
}
