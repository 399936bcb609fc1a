package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// AttachmentRepository определяет интерфейс для работы с вложениями
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Attachment, error)
	List(ctx context.Context, scope policy.Scope, relation domain.Relation) ([]domain.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type attachmentRepository struct {
	base
}

// NewAttachmentRepository создаёт новый экземпляр репозитория
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{base{db: db}}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	return translateError(r.conn(ctx).Create(attachment).Error)
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	if err := r.conn(ctx).First(&attachment, "attachments.id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrAttachmentNotFound)
	}
	return &attachment, nil
}

func (r *attachmentRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.conn(ctx).Scopes(attachmentScope(scope)).First(&attachment, "attachments.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrAttachmentNotFound)
	}
	return &attachment, nil
}

// List возвращает видимые вложения, при relation != nil - только вложения этой цели
func (r *attachmentRepository) List(ctx context.Context, scope policy.Scope, relation domain.Relation) ([]domain.Attachment, error) {
	query := r.conn(ctx).Scopes(attachmentScope(scope))
	if relation != nil {
		query = query.Where("attachments.related_to = ? AND attachments.related_id = ?", relation.Kind(), relation.TargetID())
	}

	var attachments []domain.Attachment
	err := query.Order("attachments.created_at DESC").Find(&attachments).Error
	return attachments, err
}

func (r *attachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&domain.Attachment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}
