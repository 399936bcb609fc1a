package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// CommentRepository определяет интерфейс для работы с комментариями
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Comment, error)
	List(ctx context.Context, scope policy.Scope, taskID *uuid.UUID) ([]domain.Comment, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Facts(ctx context.Context, id uuid.UUID) (*policy.CommentFacts, error)
}

type commentRepository struct {
	base
}

// NewCommentRepository создаёт новый экземпляр репозитория
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{base{db: db}}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return r.conn(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.conn(ctx).First(&comment, "comments.id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrCommentNotFound)
	}
	return &comment, nil
}

func (r *commentRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.conn(ctx).Scopes(commentScope(scope)).First(&comment, "comments.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrCommentNotFound)
	}
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, scope policy.Scope, taskID *uuid.UUID) ([]domain.Comment, error) {
	query := r.conn(ctx).Scopes(commentScope(scope))
	if taskID != nil {
		query = query.Where("comments.task_id = ?", *taskID)
	}

	var comments []domain.Comment
	err := query.Order("comments.created_at ASC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	return r.conn(ctx).Omit(clause.Associations, "task_id", "author_id").Save(comment).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

// Facts читает автора и текущее подразделение задачи комментария
func (r *commentRepository) Facts(ctx context.Context, id uuid.UUID) (*policy.CommentFacts, error) {
	var row struct {
		AuthorID         uuid.UUID
		TaskDepartmentID *uuid.UUID
	}
	err := r.conn(ctx).
		Table("comments").
		Select("comments.author_id AS author_id, tasks.department_id AS task_department_id").
		Joins("JOIN tasks ON tasks.id = comments.task_id").
		Where("comments.id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, notFound(err, domain.ErrCommentNotFound)
	}
	return &policy.CommentFacts{AuthorID: row.AuthorID, TaskDepartmentID: row.TaskDepartmentID}, nil
}
