package service

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

const (
	eventTask    = "task"
	eventProject = "project"
)

var priorityColors = map[domain.TaskPriority]string{
	domain.PriorityUrgent: "#dc3545",
	domain.PriorityHigh:   "#fd7e14",
	domain.PriorityMedium: "#ffc107",
	domain.PriorityLow:    "#28a745",
}

// CalendarService строит события календаря из сроков задач и периодов проектов
type CalendarService interface {
	Events(ctx context.Context, s policy.Subject, q dto.CalendarQuery) ([]dto.CalendarEvent, error)
}

type calendarService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
}

// NewCalendarService создаёт новый экземпляр сервиса
func NewCalendarService(tasks repository.TaskRepository, projects repository.ProjectRepository) CalendarService {
	return &calendarService{tasks: tasks, projects: projects}
}

func (svc *calendarService) Events(ctx context.Context, s policy.Subject, q dto.CalendarQuery) ([]dto.CalendarEvent, error) {
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return nil, domain.NewValidationError("end", "end cannot be before start")
	}

	events := []dto.CalendarEvent{}
	if wants(q.Types, eventTask) {
		taskEvents, err := svc.taskEvents(ctx, s, q)
		if err != nil {
			return nil, err
		}
		events = append(events, taskEvents...)
	}
	if wants(q.Types, eventProject) {
		projectEvents, err := svc.projectEvents(ctx, s, q)
		if err != nil {
			return nil, err
		}
		events = append(events, projectEvents...)
	}
	return events, nil
}

// taskEvents - задачи со сроком в интервале; видимость ограничена в запросе,
// фильтры по подразделениям, проектам и исполнителям применяются к уже видимым задачам
func (svc *calendarService) taskEvents(ctx context.Context, s policy.Subject, q dto.CalendarQuery) ([]dto.CalendarEvent, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceTask); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, nil
		}
		return nil, err
	}

	tasks, err := svc.tasks.List(ctx, policy.ScopeFor(s, policy.ResourceTask), repository.TaskFilter{
		DeadlineFrom: q.Start,
		DeadlineTo:   q.End,
	})
	if err != nil {
		return nil, err
	}

	events := make([]dto.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		if t.Deadline == nil {
			continue
		}
		if len(q.DepartmentIDs) > 0 && (t.DepartmentID == nil || !slices.Contains(q.DepartmentIDs, *t.DepartmentID)) {
			continue
		}
		if len(q.ProjectIDs) > 0 && (t.ProjectID == nil || !slices.Contains(q.ProjectIDs, *t.ProjectID)) {
			continue
		}
		if len(q.UserIDs) > 0 && !overlaps(q.UserIDs, t.AssigneeIDs()) {
			continue
		}

		progress := 0
		if t.Status == domain.TaskCompleted {
			progress = 100
		}
		events = append(events, dto.CalendarEvent{
			ID:          "task-" + t.ID.String(),
			Title:       t.Title,
			Start:       t.Deadline,
			End:         t.Deadline,
			Description: t.Description,
			Type:        eventTask,
			RelatedID:   t.ID,
			Color:       priorityColors[t.Priority],
			Progress:    progress,
		})
	}
	return events, nil
}

// projectEvents - проекты, плановое окончание которых попадает в интервал
func (svc *calendarService) projectEvents(ctx context.Context, s policy.Subject, q dto.CalendarQuery) ([]dto.CalendarEvent, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceProject); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return nil, nil
		}
		return nil, err
	}

	projects, err := svc.projects.List(ctx, policy.ScopeFor(s, policy.ResourceProject))
	if err != nil {
		return nil, err
	}

	events := make([]dto.CalendarEvent, 0, len(projects))
	for _, p := range projects {
		if p.EndDate == nil {
			continue
		}
		if q.Start != nil && p.EndDate.Before(*q.Start) {
			continue
		}
		if q.End != nil && !p.EndDate.Before(*q.End) {
			continue
		}
		if len(q.ProjectIDs) > 0 && !slices.Contains(q.ProjectIDs, p.ID) {
			continue
		}
		if len(q.DepartmentIDs) > 0 && !projectInDepartments(&p, q.DepartmentIDs) {
			continue
		}
		if len(q.UserIDs) > 0 && !projectHasUser(&p, q.UserIDs) {
			continue
		}

		color := p.Color
		if color == "" {
			color = domain.DefaultDepartmentColor
		}
		start := p.StartDate
		if start == nil {
			start = p.EndDate
		}
		events = append(events, dto.CalendarEvent{
			ID:          "project-" + p.ID.String(),
			Title:       p.Name,
			Start:       start,
			End:         p.EndDate,
			AllDay:      true,
			Description: p.Description,
			Type:        eventProject,
			RelatedID:   p.ID,
			Color:       color,
			Progress:    p.Progress,
		})
	}
	return events, nil
}

func wants(types []string, kind string) bool {
	return len(types) == 0 || slices.Contains(types, kind)
}

func overlaps(a, b []uuid.UUID) bool {
	for _, id := range a {
		if slices.Contains(b, id) {
			return true
		}
	}
	return false
}

func projectInDepartments(p *domain.Project, ids []uuid.UUID) bool {
	if p.DepartmentID != nil && slices.Contains(ids, *p.DepartmentID) {
		return true
	}
	for _, d := range p.Departments {
		if slices.Contains(ids, d.ID) {
			return true
		}
	}
	return false
}

func projectHasUser(p *domain.Project, ids []uuid.UUID) bool {
	if p.LeaderID != nil && slices.Contains(ids, *p.LeaderID) {
		return true
	}
	for _, m := range p.Members {
		if slices.Contains(ids, m.ID) {
			return true
		}
	}
	return false
}
