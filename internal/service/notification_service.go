package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// NotificationService определяет интерфейс бизнес-логики для уведомлений
type NotificationService interface {
	List(ctx context.Context, s policy.Subject, unreadOnly bool) ([]domain.Notification, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Notification, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateNotificationRequest) (*domain.Notification, error)
	MarkRead(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateNotificationRequest) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, s policy.Subject) (int64, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type notificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
}

// NewNotificationService создаёт новый экземпляр сервиса
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository) NotificationService {
	return &notificationService{
		notifications: notifications,
		users:         users,
	}
}

func (svc *notificationService) scope(s policy.Subject) policy.Scope {
	return policy.ScopeFor(s, policy.ResourceNotification)
}

func (svc *notificationService) List(ctx context.Context, s policy.Subject, unreadOnly bool) ([]domain.Notification, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceNotification); err != nil {
		return nil, err
	}
	return svc.notifications.List(ctx, svc.scope(s), unreadOnly)
}

func (svc *notificationService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Notification, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceNotification); err != nil {
		return nil, err
	}
	return svc.notifications.GetVisible(ctx, svc.scope(s), id)
}

// Create - уведомления вручную создаёт только администратор
func (svc *notificationService) Create(ctx context.Context, s policy.Subject, req *dto.CreateNotificationRequest) (*domain.Notification, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceNotification); err != nil {
		return nil, err
	}
	if err := requireUsers(ctx, svc.users, "user_id", []uuid.UUID{req.UserID}); err != nil {
		return nil, err
	}

	notification := &domain.Notification{
		UserID:   req.UserID,
		Type:     strings.TrimSpace(req.Type),
		Title:    strings.TrimSpace(req.Title),
		Message:  req.Message,
		Priority: req.Priority,
	}
	if notification.Priority == "" {
		notification.Priority = "medium"
	}
	if err := svc.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (svc *notificationService) MarkRead(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateNotificationRequest) (*domain.Notification, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceNotification); err != nil {
		return nil, err
	}
	if req.IsRead == nil {
		return nil, domain.NewValidationError("is_read", "is_read is required")
	}

	notification, err := svc.notifications.GetVisible(ctx, svc.scope(s), id)
	if err != nil {
		return nil, err
	}
	notification.IsRead = *req.IsRead
	if err := svc.notifications.Update(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

func (svc *notificationService) MarkAllRead(ctx context.Context, s policy.Subject) (int64, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceNotification); err != nil {
		return 0, err
	}
	return svc.notifications.MarkAllRead(ctx, svc.scope(s))
}

func (svc *notificationService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceNotification); err != nil {
		return err
	}
	if _, err := svc.notifications.GetVisible(ctx, svc.scope(s), id); err != nil {
		return err
	}
	err := svc.notifications.Delete(ctx, id)
	if errors.Is(err, domain.ErrNotificationNotFound) {
		return nil
	}
	return err
}
