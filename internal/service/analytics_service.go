package service

import (
	"context"
	"math"
	"time"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// AnalyticsService собирает показатели панели аналитики в области видимости субъекта
type AnalyticsService interface {
	Dashboard(ctx context.Context, s policy.Subject) (*dto.AnalyticsResponse, error)
}

type analyticsService struct {
	analytics repository.AnalyticsRepository
	now       func() time.Time
}

// NewAnalyticsService создаёт новый экземпляр сервиса
func NewAnalyticsService(analytics repository.AnalyticsRepository) AnalyticsService {
	return &analyticsService{analytics: analytics, now: time.Now}
}

func (svc *analyticsService) Dashboard(ctx context.Context, s policy.Subject) (*dto.AnalyticsResponse, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceAnalytics); err != nil {
		return nil, err
	}
	scope := policy.ScopeFor(s, policy.ResourceAnalytics)
	if scope.Kind == policy.ScopeNone {
		return nil, policy.Deny(policy.ActionRead, policy.ResourceAnalytics)
	}

	tasks, err := svc.analytics.TaskMetrics(ctx, scope, svc.now())
	if err != nil {
		return nil, err
	}
	byStatus, err := svc.analytics.ProjectsByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}
	departments, err := svc.analytics.Departments(ctx, scope)
	if err != nil {
		return nil, err
	}
	users, err := svc.analytics.UserMetrics(ctx, scope)
	if err != nil {
		return nil, err
	}

	resp := &dto.AnalyticsResponse{
		Tasks: dto.TaskMetricsResponse{
			TotalTasks:       tasks.Total,
			CompletedTasks:   tasks.Completed,
			UrgentTasks:      tasks.Urgent,
			OverdueTasks:     tasks.Overdue,
			CompletionRate:   rate(tasks.Completed, tasks.Total),
			ActiveProjects:   byStatus[domain.ProjectActive],
			PlanningProjects: byStatus[domain.ProjectPlanning],
		},
		Departments: make([]dto.DepartmentMetricsResponse, 0, len(departments)),
		Users: dto.UserMetricsResponse{
			ActiveUsers: users.Active,
			TotalUsers:  users.Total,
		},
		Projects: make(map[string]int64, len(byStatus)),
	}
	for status, n := range byStatus {
		resp.Projects[string(status)] = n
	}
	for _, d := range departments {
		resp.Departments = append(resp.Departments, dto.DepartmentMetricsResponse{
			ID:             d.DepartmentID,
			Name:           d.Name,
			TotalTasks:     d.Total,
			CompletedTasks: d.Completed,
			CompletionRate: rate(d.Completed, d.Total),
		})
	}
	return resp, nil
}

// rate - доля в процентах с одним знаком после запятой
func rate(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
