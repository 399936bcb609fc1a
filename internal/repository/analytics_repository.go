package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// TaskMetrics - счётчики задач
type TaskMetrics struct {
	Total     int64
	Completed int64
	Urgent    int64
	Overdue   int64
}

// DepartmentMetrics - показатели задач одного подразделения
type DepartmentMetrics struct {
	DepartmentID uuid.UUID
	Name         string
	Total        int64
	Completed    int64
}

// UserMetrics - счётчики пользователей
type UserMetrics struct {
	Total  int64
	Active int64
}

// AnalyticsRepository определяет агрегирующие запросы для панели аналитики
type AnalyticsRepository interface {
	TaskMetrics(ctx context.Context, scope policy.Scope, now time.Time) (TaskMetrics, error)
	ProjectsByStatus(ctx context.Context, scope policy.Scope) (map[domain.ProjectStatus]int64, error)
	Departments(ctx context.Context, scope policy.Scope) ([]DepartmentMetrics, error)
	UserMetrics(ctx context.Context, scope policy.Scope) (UserMetrics, error)
}

type analyticsRepository struct {
	base
}

// NewAnalyticsRepository создаёт новый экземпляр репозитория
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{base{db: db}}
}

// analyticsTasks ограничивает задачи областью аналитики: все или задачи подразделения
func analyticsTasks(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeDepartment:
			return db.Where("tasks.department_id = ?", *s.DepartmentID)
		default:
			return nothing(db)
		}
	}
}

func (r *analyticsRepository) TaskMetrics(ctx context.Context, scope policy.Scope, now time.Time) (TaskMetrics, error) {
	var m TaskMetrics
	tasks := func() *gorm.DB {
		return r.conn(ctx).Model(&domain.Task{}).Scopes(analyticsTasks(scope))
	}

	if err := tasks().Count(&m.Total).Error; err != nil {
		return m, err
	}
	if err := tasks().Where("tasks.status = ?", domain.TaskCompleted).Count(&m.Completed).Error; err != nil {
		return m, err
	}
	if err := tasks().Where("tasks.priority = ?", domain.PriorityUrgent).Count(&m.Urgent).Error; err != nil {
		return m, err
	}
	err := tasks().
		Where("tasks.deadline < ? AND tasks.status <> ?", now, domain.TaskCompleted).
		Count(&m.Overdue).Error
	return m, err
}

func (r *analyticsRepository) ProjectsByStatus(ctx context.Context, scope policy.Scope) (map[domain.ProjectStatus]int64, error) {
	query := r.conn(ctx).Model(&domain.Project{})
	switch scope.Kind {
	case policy.ScopeAll:
	case policy.ScopeDepartment:
		query = query.Where(
			"(projects.department_id = ? OR projects.id IN (SELECT pd.project_id FROM project_departments pd WHERE pd.department_id = ?))",
			*scope.DepartmentID, *scope.DepartmentID,
		)
	default:
		query = nothing(query)
	}

	var rows []struct {
		Status domain.ProjectStatus
		Count  int64
	}
	if err := query.Select("projects.status AS status, COUNT(*) AS count").Group("projects.status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[domain.ProjectStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *analyticsRepository) Departments(ctx context.Context, scope policy.Scope) ([]DepartmentMetrics, error) {
	var rows []DepartmentMetrics
	err := r.conn(ctx).
		Table("departments").
		Scopes(departmentScope(scope)).
		Select("departments.id AS department_id, departments.name AS name, " +
			"COUNT(tasks.id) AS total, " +
			"COALESCE(SUM(CASE WHEN tasks.status = 'completed' THEN 1 ELSE 0 END), 0) AS completed").
		Joins("LEFT JOIN tasks ON tasks.department_id = departments.id").
		Group("departments.id, departments.name").
		Order("departments.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) UserMetrics(ctx context.Context, scope policy.Scope) (UserMetrics, error) {
	var m UserMetrics
	users := func() *gorm.DB {
		return r.conn(ctx).Model(&domain.User{}).Scopes(userScope(scope))
	}
	if err := users().Count(&m.Total).Error; err != nil {
		return m, err
	}
	err := users().Where("users.is_active = ?", true).Count(&m.Active).Error
	return m, err
}
