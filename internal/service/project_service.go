package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/storage"
)

// ProjectService определяет интерфейс бизнес-логики для проектов
type ProjectService interface {
	List(ctx context.Context, s policy.Subject) ([]domain.Project, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Project, error)
	Search(ctx context.Context, s policy.Subject, query string) ([]domain.Project, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateProjectRequest) (*domain.Project, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateProjectRequest) (*domain.Project, error)
	Complete(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Project, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type projectService struct {
	tx          repository.TxManager
	projects    repository.ProjectRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	attachments repository.AttachmentRepository
	store       storage.Store
	now         func() time.Time
}

// NewProjectService создаёт новый экземпляр сервиса
func NewProjectService(
	tx repository.TxManager,
	projects repository.ProjectRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	attachments repository.AttachmentRepository,
	store storage.Store,
) ProjectService {
	return &projectService{
		tx:          tx,
		projects:    projects,
		users:       users,
		departments: departments,
		attachments: attachments,
		store:       store,
		now:         time.Now,
	}
}

func (svc *projectService) List(ctx context.Context, s policy.Subject) ([]domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceProject); err != nil {
		return nil, err
	}
	return svc.projects.List(ctx, policy.ScopeFor(s, policy.ResourceProject))
}

func (svc *projectService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceProject); err != nil {
		return nil, err
	}
	if policy.ScopeFor(s, policy.ResourceProject).Kind == policy.ScopeNone {
		return nil, domain.ErrProjectNotFound
	}
	return svc.projects.GetByID(ctx, id)
}

// Search - пустой запрос даёт пустой результат
func (svc *projectService) Search(ctx context.Context, s policy.Subject, query string) ([]domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceProject); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Project{}, nil
	}
	return svc.projects.Search(ctx, policy.ScopeFor(s, policy.ResourceProject), query)
}

func (svc *projectService) Create(ctx context.Context, s policy.Subject, req *dto.CreateProjectRequest) (*domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceProject); err != nil {
		return nil, err
	}

	startDate, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	creator := s.UserID
	project := &domain.Project{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Status:       domain.ProjectPlanning,
		RiskLevel:    domain.RiskLow,
		StartDate:    startDate,
		EndDate:      endDate,
		Color:        req.Color,
		CreatorID:    &creator,
		LeaderID:     req.LeaderID,
		DepartmentID: req.DepartmentID,
	}
	if req.Status != "" {
		project.Status = domain.ProjectStatus(req.Status)
	}
	if req.RiskLevel != "" {
		project.RiskLevel = domain.RiskLevel(req.RiskLevel)
	}
	if err := checkProjectDates(project); err != nil {
		return nil, err
	}

	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkLinks(ctx, project.LeaderID, project.DepartmentID, req.MemberIDs, req.DepartmentIDs); err != nil {
			return err
		}
		if err := svc.projects.Create(ctx, project); err != nil {
			return err
		}
		if err := svc.projects.ReplaceMembers(ctx, project.ID, req.MemberIDs); err != nil {
			return err
		}
		return svc.projects.ReplaceDepartments(ctx, project.ID, req.DepartmentIDs)
	})
	if err != nil {
		return nil, err
	}

	return svc.projects.GetByID(ctx, project.ID)
}

func (svc *projectService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateProjectRequest) (*domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceProject); err != nil {
		return nil, err
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkModify(ctx, s, policy.ActionUpdate, id); err != nil {
			return err
		}

		project, err := svc.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			project.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			project.Description = *req.Description
		}
		if req.Status != nil {
			project.Status = domain.ProjectStatus(*req.Status)
		}
		if req.RiskLevel != nil {
			project.RiskLevel = domain.RiskLevel(*req.RiskLevel)
		}
		if req.Color != nil {
			project.Color = *req.Color
		}
		if req.StartDate != nil {
			if project.StartDate, err = parseOptionalDate("start_date", req.StartDate); err != nil {
				return err
			}
		}
		if req.EndDate != nil {
			if project.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
				return err
			}
		}
		if req.LeaderID.Set {
			project.LeaderID = req.LeaderID.Value
		}
		if req.DepartmentID.Set {
			project.DepartmentID = req.DepartmentID.Value
		}
		if err := checkProjectDates(project); err != nil {
			return err
		}

		var members, departments []uuid.UUID
		if req.MemberIDs != nil {
			members = *req.MemberIDs
		}
		if req.DepartmentIDs != nil {
			departments = *req.DepartmentIDs
		}
		if err := svc.checkLinks(ctx, project.LeaderID, project.DepartmentID, members, departments); err != nil {
			return err
		}

		project.Members = nil
		project.Departments = nil
		if err := svc.projects.Update(ctx, project); err != nil {
			return err
		}
		if req.MemberIDs != nil {
			if err := svc.projects.ReplaceMembers(ctx, id, members); err != nil {
				return err
			}
		}
		if req.DepartmentIDs != nil {
			return svc.projects.ReplaceDepartments(ctx, id, departments)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.projects.GetByID(ctx, id)
}

// Complete завершает проект: статус completed, фактическая дата окончания сегодня, прогресс 100
func (svc *projectService) Complete(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Project, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceProject); err != nil {
		return nil, err
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkModify(ctx, s, policy.ActionUpdate, id); err != nil {
			return err
		}
		project, err := svc.projects.GetByID(ctx, id)
		if err != nil {
			return err
		}

		today := svc.now().UTC().Truncate(24 * time.Hour)
		project.Status = domain.ProjectCompleted
		project.ActualEndDate = &today
		project.Progress = 100
		project.Members = nil
		project.Departments = nil
		return svc.projects.Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	return svc.projects.GetByID(ctx, id)
}

// Delete удаляет проект вместе с его участниками и вложениями.
// Проект с задачами удалить нельзя.
func (svc *projectService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceProject); err != nil {
		return err
	}

	var removed []domain.Attachment
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkModify(ctx, s, policy.ActionDelete, id); err != nil {
			return err
		}

		tasks, err := svc.projects.CountTasks(ctx, id)
		if err != nil {
			return err
		}
		if tasks > 0 {
			return domain.NewValidationError("id", "project still has tasks")
		}

		removed, err = svc.attachments.List(ctx, policy.Scope{Kind: policy.ScopeAll}, domain.ProjectRelation{ProjectID: id})
		if err != nil {
			return err
		}
		return svc.projects.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	removeBlobs(ctx, svc.store, removed)
	return nil
}

func (svc *projectService) checkModify(ctx context.Context, s policy.Subject, action policy.Action, id uuid.UUID) error {
	facts, err := svc.projects.Facts(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyProject(s, *facts) {
		return policy.Deny(action, policy.ResourceProject)
	}
	return nil
}

func (svc *projectService) checkLinks(ctx context.Context, leaderID, departmentID *uuid.UUID, memberIDs, departmentIDs []uuid.UUID) error {
	if leaderID != nil {
		if err := requireUsers(ctx, svc.users, "leader_id", []uuid.UUID{*leaderID}); err != nil {
			return err
		}
	}
	if err := requireDepartment(ctx, svc.departments, "department_id", departmentID); err != nil {
		return err
	}
	if err := requireUsers(ctx, svc.users, "member_ids", memberIDs); err != nil {
		return err
	}
	for _, id := range departmentIDs {
		if err := requireDepartment(ctx, svc.departments, "department_ids", &id); err != nil {
			return err
		}
	}
	return nil
}

func checkProjectDates(p *domain.Project) error {
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return domain.NewValidationError("end_date", "end date cannot be before start date")
	}
	return nil
}
