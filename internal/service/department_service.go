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

// DepartmentService определяет интерфейс бизнес-логики для подразделений
type DepartmentService interface {
	List(ctx context.Context, s policy.Subject) ([]domain.Department, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Department, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateDepartmentRequest) (*domain.Department, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateDepartmentRequest) (*domain.Department, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type departmentService struct {
	tx       repository.TxManager
	deptRepo repository.DepartmentRepository
	userRepo repository.UserRepository
	roles    RoleChangeHandler
}

// NewDepartmentService создаёт новый экземпляр сервиса
func NewDepartmentService(
	tx repository.TxManager,
	deptRepo repository.DepartmentRepository,
	userRepo repository.UserRepository,
	roles RoleChangeHandler,
) DepartmentService {
	return &departmentService{
		tx:       tx,
		deptRepo: deptRepo,
		userRepo: userRepo,
		roles:    roles,
	}
}

func (svc *departmentService) List(ctx context.Context, s policy.Subject) ([]domain.Department, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceDepartment); err != nil {
		return nil, err
	}
	return svc.deptRepo.List(ctx, policy.ScopeFor(s, policy.ResourceDepartment))
}

func (svc *departmentService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.Department, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceDepartment); err != nil {
		return nil, err
	}
	return svc.deptRepo.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceDepartment), id)
}

func (svc *departmentService) Create(ctx context.Context, s policy.Subject, req *dto.CreateDepartmentRequest) (*domain.Department, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceDepartment); err != nil {
		return nil, err
	}

	dept := &domain.Department{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Color:            req.Color,
		WorkloadCapacity: 100,
	}
	if dept.Color == "" {
		dept.Color = domain.DefaultDepartmentColor
	}
	if req.WorkloadCapacity != nil {
		dept.WorkloadCapacity = *req.WorkloadCapacity
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkName(ctx, dept.Name, nil); err != nil {
			return err
		}
		if err := svc.deptRepo.Create(ctx, dept); err != nil {
			return err
		}
		if req.LeaderID != nil {
			return svc.assignLeader(ctx, dept.ID, *req.LeaderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.deptRepo.GetByID(ctx, dept.ID)
}

func (svc *departmentService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateDepartmentRequest) (*domain.Department, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceDepartment); err != nil {
		return nil, err
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		dept, err := svc.deptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		// Обновляем имя, если передано
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if err := svc.checkName(ctx, name, &id); err != nil {
				return err
			}
			dept.Name = name
		}
		if req.Description != nil {
			dept.Description = *req.Description
		}
		if req.Color != nil {
			dept.Color = *req.Color
		}
		if req.WorkloadCapacity != nil {
			dept.WorkloadCapacity = *req.WorkloadCapacity
		}

		dept.Leader = nil
		if err := svc.deptRepo.Update(ctx, dept); err != nil {
			return err
		}

		if !req.LeaderID.Set || sameID(dept.LeaderID, req.LeaderID.Value) {
			return nil
		}
		if req.LeaderID.Value == nil {
			return svc.deptRepo.SetLeader(ctx, id, nil)
		}
		return svc.assignLeader(ctx, id, *req.LeaderID.Value)
	})
	if err != nil {
		return nil, err
	}

	return svc.deptRepo.GetByID(ctx, id)
}

// Delete удаляет подразделение. Нельзя удалить подразделение с руководителем
// (MANAGER не может остаться без подразделения) или с задачами подразделения.
func (svc *departmentService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceDepartment); err != nil {
		return err
	}

	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.deptRepo.GetByID(ctx, id); err != nil {
			return err
		}

		manager, err := svc.userRepo.ManagerOf(ctx, id)
		if err != nil {
			return err
		}
		if manager != nil {
			return domain.NewValidationError("id", "reassign or demote the department manager before deleting it")
		}

		tasks, err := svc.deptRepo.CountServiceTasks(ctx, id)
		if err != nil {
			return err
		}
		if tasks > 0 {
			return domain.NewValidationError("id", "department still has service tasks")
		}

		return svc.deptRepo.Delete(ctx, id)
	})
}

func (svc *departmentService) checkName(ctx context.Context, name string, excludeID *uuid.UUID) error {
	exists, err := svc.deptRepo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewValidationError("name", "a department with this name already exists")
	}
	return nil
}

// assignLeader назначает руководителя: он должен существовать и иметь роль MANAGER.
// Подразделение руководителя переносится в назначаемое.
func (svc *departmentService) assignLeader(ctx context.Context, deptID, leaderID uuid.UUID) error {
	leader, err := svc.userRepo.GetByID(ctx, leaderID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NewValidationError("leader_id", "user does not exist")
		}
		return err
	}
	if leader.Role != domain.RoleManager {
		return domain.ErrLeaderMustBeManager
	}

	if !sameID(leader.DepartmentID, &deptID) {
		leader.DepartmentID = &deptID
		leader.Department = nil
		if err := svc.userRepo.Update(ctx, leader); err != nil {
			return err
		}
	}
	return svc.roles.Handle(ctx, RoleChangedFor(leader))
}
