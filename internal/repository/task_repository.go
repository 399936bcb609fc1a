package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// TaskFilter - необязательные условия списка задач
type TaskFilter struct {
	Status       domain.TaskStatus
	Priority     domain.TaskPriority
	Type         domain.TaskType
	ProjectID    *uuid.UUID
	DepartmentID *uuid.UUID
	AssigneeID   *uuid.UUID
	// DeadlineFrom/DeadlineTo ограничивают срок; используются календарём
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, scope policy.Scope, filter TaskFilter) ([]domain.Task, error)
	Search(ctx context.Context, scope policy.Scope, query string) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Facts(ctx context.Context, id uuid.UUID) (*policy.TaskFacts, error)
	ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
}

type taskRepository struct {
	base
	projects ProjectRepository
}

// NewTaskRepository создаёт новый экземпляр репозитория
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{base: base{db: db}, projects: NewProjectRepository(db)}
}

func withAssignees(db *gorm.DB) *gorm.DB {
	return db.Preload("Assignees")
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Create(task).Error)
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := withAssignees(r.conn(ctx)).First(&task, "tasks.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}
	return &task, nil
}

func (r *taskRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := withAssignees(r.conn(ctx)).
		Scopes(taskScope(scope)).
		First(&task, "tasks.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, scope policy.Scope, filter TaskFilter) ([]domain.Task, error) {
	query := withAssignees(r.conn(ctx)).Scopes(taskScope(scope))

	if filter.Status != "" {
		query = query.Where("tasks.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("tasks.priority = ?", filter.Priority)
	}
	if filter.Type != "" {
		query = query.Where("tasks.type = ?", filter.Type)
	}
	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("tasks.department_id = ?", *filter.DepartmentID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.id IN (SELECT task_id FROM task_assignees WHERE user_id = ?)", *filter.AssigneeID)
	}
	if filter.DeadlineFrom != nil {
		query = query.Where("tasks.deadline >= ?", *filter.DeadlineFrom)
	}
	if filter.DeadlineTo != nil {
		query = query.Where("tasks.deadline < ?", *filter.DeadlineTo)
	}

	var tasks []domain.Task
	err := query.Order("tasks.created_at DESC").Find(&tasks).Error
	return tasks, err
}

// Search - поиск без учёта регистра по заголовку и описанию
func (r *taskRepository) Search(ctx context.Context, scope policy.Scope, query string) ([]domain.Task, error) {
	var tasks []domain.Task
	pattern := containsPattern(query)
	err := withAssignees(r.conn(ctx)).
		Scopes(taskScope(scope)).
		Where(`(LOWER(tasks.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(tasks.description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern).
		Order("tasks.created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	return translateError(r.conn(ctx).Omit(clause.Associations, "creator_id").Save(task).Error)
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Exec("DELETE FROM task_assignees WHERE task_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Where("task_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	if err := db.Where("related_to = ? AND related_id = ?", domain.RelationTask, id).Delete(&domain.Attachment{}).Error; err != nil {
		return err
	}
	result := db.Delete(&domain.Task{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Task{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Facts загружает актуальные связи задачи и её проекта для объектной проверки
func (r *taskRepository) Facts(ctx context.Context, id uuid.UUID) (*policy.TaskFacts, error) {
	db := r.conn(ctx)

	var task domain.Task
	if err := db.Select("id", "creator_id", "department_id", "project_id").First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrTaskNotFound)
	}

	facts := &policy.TaskFacts{
		CreatorID:    task.CreatorID,
		DepartmentID: task.DepartmentID,
	}
	if err := db.Table("task_assignees").Where("task_id = ?", id).Pluck("user_id", &facts.AssigneeIDs).Error; err != nil {
		return nil, err
	}
	if task.ProjectID != nil {
		project, err := r.projects.Facts(ctx, *task.ProjectID)
		if err != nil {
			return nil, err
		}
		facts.Project = project
	}
	return facts, nil
}

func (r *taskRepository) ReplaceAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	return replaceLinks(r.conn(ctx), "task_assignees", "task_id", "user_id", taskID, userIDs)
}
