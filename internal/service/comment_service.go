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

// CommentService определяет интерфейс бизнес-логики для комментариев
type CommentService interface {
	List(ctx context.Context, s policy.Subject, taskID *uuid.UUID) ([]domain.Comment, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Comment, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateCommentRequest) (*domain.Comment, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateCommentRequest) (*domain.Comment, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type commentService struct {
	tx       repository.TxManager
	comments repository.CommentRepository
	tasks    repository.TaskRepository
}

// NewCommentService создаёт новый экземпляр сервиса
func NewCommentService(tx repository.TxManager, comments repository.CommentRepository, tasks repository.TaskRepository) CommentService {
	return &commentService{
		tx:       tx,
		comments: comments,
		tasks:    tasks,
	}
}

func (svc *commentService) List(ctx context.Context, s policy.Subject, taskID *uuid.UUID) ([]domain.Comment, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceComment); err != nil {
		return nil, err
	}
	return svc.comments.List(ctx, policy.ScopeFor(s, policy.ResourceComment), taskID)
}

func (svc *commentService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Comment, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceComment); err != nil {
		return nil, err
	}
	return svc.comments.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceComment), id)
}

// Create - комментировать можно только задачу, доступную автору
func (svc *commentService) Create(ctx context.Context, s policy.Subject, req *dto.CreateCommentRequest) (*domain.Comment, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceComment); err != nil {
		return nil, err
	}

	facts, err := svc.tasks.Facts(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.NewValidationError("task_id", "task does not exist")
		}
		return nil, err
	}
	if !policy.CanAccessTask(s, *facts) {
		return nil, policy.Deny(policy.ActionCreate, policy.ResourceComment)
	}

	comment := &domain.Comment{
		TaskID:   req.TaskID,
		AuthorID: s.UserID,
		Content:  strings.TrimSpace(req.Content),
		Mentions: req.Mentions,
	}
	if comment.Content == "" {
		return nil, domain.NewValidationError("content", "content cannot be blank")
	}
	if comment.Mentions == nil {
		comment.Mentions = []string{}
	}

	if err := svc.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (svc *commentService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateCommentRequest) (*domain.Comment, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceComment); err != nil {
		return nil, err
	}

	var comment *domain.Comment
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		comment, err = svc.visibleForChange(ctx, s, policy.ActionUpdate, id)
		if err != nil {
			return err
		}

		if req.Content != nil {
			content := strings.TrimSpace(*req.Content)
			if content == "" {
				return domain.NewValidationError("content", "content cannot be blank")
			}
			comment.Content = content
		}
		if req.Mentions != nil {
			comment.Mentions = *req.Mentions
		}
		comment.IsEdited = true
		comment.Task = nil
		return svc.comments.Update(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (svc *commentService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceComment); err != nil {
		return err
	}

	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.visibleForChange(ctx, s, policy.ActionDelete, id); err != nil {
			return err
		}
		return svc.comments.Delete(ctx, id)
	})
}

// visibleForChange читает видимый комментарий и применяет к нему объектное правило
func (svc *commentService) visibleForChange(ctx context.Context, s policy.Subject, action policy.Action, id uuid.UUID) (*domain.Comment, error) {
	comment, err := svc.comments.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceComment), id)
	if err != nil {
		return nil, err
	}
	facts, err := svc.comments.Facts(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyComment(s, *facts) {
		return nil, policy.Deny(action, policy.ResourceComment)
	}
	return comment, nil
}
