package service

import (
	"context"

	"github.com/document-requests-api/internal/domain"
	"github.com/document-requests-api/internal/repository"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService определяет интерфейс входящих уведомлений пользователя
type NotificationService interface {
	List(ctx context.Context, principal domain.Principal, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, principal domain.Principal, notificationID int64) error
	MarkAllRead(ctx context.Context, principal domain.Principal) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

// NewNotificationService создаёт новый экземпляр сервиса
func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, principal domain.Principal, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	list, err := s.repo.ListByUser(ctx, principal.ID, unreadOnly, limit)
	if err != nil {
		return nil, domain.DependencyError("list notifications", err)
	}
	return list, nil
}

// MarkRead - чужое уведомление выглядит как несуществующее
func (s *notificationService) MarkRead(ctx context.Context, principal domain.Principal, notificationID int64) error {
	if err := s.repo.MarkRead(ctx, notificationID, principal.ID); err != nil {
		return domain.DependencyError("mark notification read", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, principal domain.Principal) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, principal.ID)
	if err != nil {
		return 0, domain.DependencyError("mark notifications read", err)
	}
	return n, nil
}
