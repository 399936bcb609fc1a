package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/storage"
)

// TaskService определяет интерфейс бизнес-логики для задач
type TaskService interface {
	List(ctx context.Context, s policy.Subject, filter repository.TaskFilter) ([]domain.Task, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Task, error)
	Search(ctx context.Context, s policy.Subject, query string) ([]domain.Task, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateTaskRequest) (*domain.Task, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateTaskRequest) (*domain.Task, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type taskService struct {
	tx          repository.TxManager
	tasks       repository.TaskRepository
	projects    repository.ProjectRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	attachments repository.AttachmentRepository
	store       storage.Store
	now         func() time.Time
}

// NewTaskService создаёт новый экземпляр сервиса
func NewTaskService(
	tx repository.TxManager,
	tasks repository.TaskRepository,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	attachments repository.AttachmentRepository,
	store storage.Store,
) TaskService {
	return &taskService{
		tx:          tx,
		tasks:       tasks,
		projects:    projects,
		users:       users,
		departments: departments,
		attachments: attachments,
		store:       store,
		now:         time.Now,
	}
}

func (svc *taskService) List(ctx context.Context, s policy.Subject, filter repository.TaskFilter) ([]domain.Task, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceTask); err != nil {
		return nil, err
	}
	return svc.tasks.List(ctx, policy.ScopeFor(s, policy.ResourceTask), filter)
}

func (svc *taskService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Task, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceTask); err != nil {
		return nil, err
	}
	return svc.tasks.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceTask), id)
}

// Search - пустой запрос даёт пустой результат
func (svc *taskService) Search(ctx context.Context, s policy.Subject, query string) ([]domain.Task, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceTask); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Task{}, nil
	}
	return svc.tasks.Search(ctx, policy.ScopeFor(s, policy.ResourceTask), query)
}

func (svc *taskService) Create(ctx context.Context, s policy.Subject, req *dto.CreateTaskRequest) (*domain.Task, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceTask); err != nil {
		return nil, err
	}

	task := &domain.Task{
		Type:             domain.TaskType(req.Type),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Status:           domain.TaskTodo,
		Priority:         domain.PriorityMedium,
		Deadline:         req.Deadline,
		CreatorID:        s.UserID,
		DepartmentID:     req.DepartmentID,
		ProjectID:        req.ProjectID,
		EstimatedMinutes: req.EstimatedMinutes,
		WorkloadPoints:   req.WorkloadPoints,
		Tags:             req.Tags,
	}
	if req.Status != "" {
		task.Status = domain.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = domain.TaskPriority(req.Priority)
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	if err := task.ValidateRelation(); err != nil {
		return nil, err
	}
	svc.stampCompletion(task, "")

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkLinks(ctx, task, req.AssigneeIDs); err != nil {
			return err
		}
		if err := svc.tasks.Create(ctx, task); err != nil {
			return err
		}
		if err := svc.tasks.ReplaceAssignees(ctx, task.ID, req.AssigneeIDs); err != nil {
			return err
		}
		return svc.recompute(ctx, task.ProjectID)
	})
	if err != nil {
		return nil, err
	}

	return svc.tasks.GetByID(ctx, task.ID)
}

func (svc *taskService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateTaskRequest) (*domain.Task, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceTask); err != nil {
		return nil, err
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkAccess(ctx, s, policy.ActionUpdate, id); err != nil {
			return err
		}

		task, err := svc.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousStatus := task.Status
		previousProject := task.ProjectID

		if req.Type != nil {
			task.Type = domain.TaskType(*req.Type)
		}
		if req.Title != nil {
			task.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Status != nil {
			task.Status = domain.TaskStatus(*req.Status)
		}
		if req.Priority != nil {
			task.Priority = domain.TaskPriority(*req.Priority)
		}
		if req.Deadline != nil {
			task.Deadline = req.Deadline
		}
		if req.DepartmentID.Set {
			task.DepartmentID = req.DepartmentID.Value
		}
		if req.ProjectID.Set {
			task.ProjectID = req.ProjectID.Value
		}
		if req.EstimatedMinutes != nil {
			task.EstimatedMinutes = *req.EstimatedMinutes
		}
		if req.TrackedMinutes != nil {
			task.TrackedMinutes = *req.TrackedMinutes
		}
		if req.WorkloadPoints != nil {
			task.WorkloadPoints = *req.WorkloadPoints
		}
		if req.Tags != nil {
			task.Tags = *req.Tags
		}

		// Связь проверяется по итоговому состоянию задачи, а не по патчу
		if err := task.ValidateRelation(); err != nil {
			return err
		}
		svc.stampCompletion(task, previousStatus)

		var assignees []uuid.UUID
		if req.AssigneeIDs != nil {
			assignees = *req.AssigneeIDs
		}
		if err := svc.checkLinks(ctx, task, assignees); err != nil {
			return err
		}

		task.Assignees = nil
		if err := svc.tasks.Update(ctx, task); err != nil {
			return err
		}
		if req.AssigneeIDs != nil {
			if err := svc.tasks.ReplaceAssignees(ctx, id, assignees); err != nil {
				return err
			}
		}

		if err := svc.recompute(ctx, task.ProjectID); err != nil {
			return err
		}
		if !sameID(previousProject, task.ProjectID) {
			return svc.recompute(ctx, previousProject)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.tasks.GetByID(ctx, id)
}

// Delete удаляет задачу вместе с исполнителями, комментариями и вложениями
func (svc *taskService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceTask); err != nil {
		return err
	}

	var removed []domain.Attachment
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkAccess(ctx, s, policy.ActionDelete, id); err != nil {
			return err
		}
		task, err := svc.tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		removed, err = svc.attachments.List(ctx, policy.Scope{Kind: policy.ScopeAll}, domain.TaskRelation{TaskID: id})
		if err != nil {
			return err
		}
		if err := svc.tasks.Delete(ctx, id); err != nil {
			return err
		}
		return svc.recompute(ctx, task.ProjectID)
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, svc.store, removed)
	return nil
}

// checkAccess применяет объектное правило задачи к связям, прочитанным сейчас
func (svc *taskService) checkAccess(ctx context.Context, s policy.Subject, action policy.Action, id uuid.UUID) error {
	facts, err := svc.tasks.Facts(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanAccessTask(s, *facts) {
		return policy.Deny(action, policy.ResourceTask)
	}
	return nil
}

func (svc *taskService) checkLinks(ctx context.Context, task *domain.Task, assigneeIDs []uuid.UUID) error {
	if err := requireDepartment(ctx, svc.departments, "department_id", task.DepartmentID); err != nil {
		return err
	}
	if task.ProjectID != nil {
		ok, err := svc.projects.Exists(ctx, *task.ProjectID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError("project_id", "project does not exist")
		}
	}
	return requireUsers(ctx, svc.users, "assignee_ids", assigneeIDs)
}

// stampCompletion ставит отметку завершения при переходе в completed и снимает её при выходе
func (svc *taskService) stampCompletion(task *domain.Task, previous domain.TaskStatus) {
	switch {
	case task.Status == domain.TaskCompleted && previous != domain.TaskCompleted:
		now := svc.now()
		task.CompletedAt = &now
	case task.Status != domain.TaskCompleted:
		task.CompletedAt = nil
	}
}

func (svc *taskService) recompute(ctx context.Context, projectID *uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	_, err := svc.projects.RecomputeProgress(ctx, *projectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return nil
	}
	return err
}
