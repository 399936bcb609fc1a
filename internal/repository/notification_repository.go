package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// NotificationRepository определяет интерфейс для работы с уведомлениями
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Notification, error)
	List(ctx context.Context, scope policy.Scope, unreadOnly bool) ([]domain.Notification, error)
	Update(ctx context.Context, notification *domain.Notification) error
	MarkAllRead(ctx context.Context, scope policy.Scope) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type notificationRepository struct {
	base
}

// NewNotificationRepository создаёт новый экземпляр репозитория
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{base{db: db}}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.conn(ctx).Create(notification).Error
}

func (r *notificationRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.conn(ctx).Scopes(notificationScope(scope)).First(&notification, "notifications.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrNotificationNotFound)
	}
	return &notification, nil
}

func (r *notificationRepository) List(ctx context.Context, scope policy.Scope, unreadOnly bool) ([]domain.Notification, error) {
	query := r.conn(ctx).Scopes(notificationScope(scope))
	if unreadOnly {
		query = query.Where("notifications.is_read = ?", false)
	}

	var notifications []domain.Notification
	err := query.Order("notifications.created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) Update(ctx context.Context, notification *domain.Notification) error {
	return r.conn(ctx).Omit("user_id").Save(notification).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, scope policy.Scope) (int64, error) {
	result := r.conn(ctx).
		Model(&domain.Notification{}).
		Scopes(notificationScope(scope)).
		Where("notifications.is_read = ?", false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&domain.Notification{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
