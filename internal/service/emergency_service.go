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
)

// EmergencyService определяет интерфейс бизнес-логики для режимов срочного реагирования
type EmergencyService interface {
	List(ctx context.Context, s policy.Subject, activeOnly bool) ([]domain.EmergencyMode, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.EmergencyMode, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateEmergencyRequest) (*domain.EmergencyMode, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateEmergencyRequest) (*domain.EmergencyMode, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type emergencyService struct {
	tx          repository.TxManager
	emergencies repository.EmergencyRepository
	departments repository.DepartmentRepository
	now         func() time.Time
}

// NewEmergencyService создаёт новый экземпляр сервиса
func NewEmergencyService(tx repository.TxManager, emergencies repository.EmergencyRepository, departments repository.DepartmentRepository) EmergencyService {
	return &emergencyService{
		tx:          tx,
		emergencies: emergencies,
		departments: departments,
		now:         time.Now,
	}
}

func (svc *emergencyService) List(ctx context.Context, s policy.Subject, activeOnly bool) ([]domain.EmergencyMode, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceEmergency); err != nil {
		return nil, err
	}
	return svc.emergencies.List(ctx, policy.ScopeFor(s, policy.ResourceEmergency), activeOnly)
}

func (svc *emergencyService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.EmergencyMode, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceEmergency); err != nil {
		return nil, err
	}
	return svc.emergencies.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceEmergency), id)
}

// Create - без явного подразделения режим объявляется для подразделения руководителя
func (svc *emergencyService) Create(ctx context.Context, s policy.Subject, req *dto.CreateEmergencyRequest) (*domain.EmergencyMode, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceEmergency); err != nil {
		return nil, err
	}

	mode := &domain.EmergencyMode{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Severity:           domain.SeverityMedium,
		IsActive:           true,
		StartsAt:           svc.now(),
		EndsAt:             req.EndsAt,
		AllocatedResources: req.AllocatedResources,
		DepartmentID:       req.DepartmentID,
		CreatedByID:        s.UserID,
	}
	if req.Severity != "" {
		mode.Severity = domain.Severity(req.Severity)
	}
	if req.IsActive != nil {
		mode.IsActive = *req.IsActive
	}
	if req.StartsAt != nil {
		mode.StartsAt = *req.StartsAt
	}
	if mode.DepartmentID == nil && s.Role == domain.RoleManager {
		mode.DepartmentID = s.DepartmentID
	}
	if err := checkEmergencyPeriod(mode); err != nil {
		return nil, err
	}
	if !policy.CanModifyEmergency(s, mode.DepartmentID) {
		return nil, policy.Deny(policy.ActionCreate, policy.ResourceEmergency)
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireDepartment(ctx, svc.departments, "department_id", mode.DepartmentID); err != nil {
			return err
		}
		return svc.emergencies.Create(ctx, mode)
	})
	if err != nil {
		return nil, err
	}
	return mode, nil
}

func (svc *emergencyService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateEmergencyRequest) (*domain.EmergencyMode, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceEmergency); err != nil {
		return nil, err
	}

	var mode *domain.EmergencyMode
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		mode, err = svc.modifiable(ctx, s, policy.ActionUpdate, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			mode.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			mode.Description = *req.Description
		}
		if req.Severity != nil {
			mode.Severity = domain.Severity(*req.Severity)
		}
		if req.IsActive != nil {
			mode.IsActive = *req.IsActive
			// Снятие режима фиксирует время окончания, если оно не задано
			if !mode.IsActive && mode.EndsAt == nil && req.EndsAt == nil {
				now := svc.now()
				mode.EndsAt = &now
			}
		}
		if req.EndsAt != nil {
			mode.EndsAt = req.EndsAt
		}
		if req.AllocatedResources != nil {
			mode.AllocatedResources = *req.AllocatedResources
		}
		if err := checkEmergencyPeriod(mode); err != nil {
			return err
		}
		return svc.emergencies.Update(ctx, mode)
	})
	if err != nil {
		return nil, err
	}
	return mode, nil
}

func (svc *emergencyService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceEmergency); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.modifiable(ctx, s, policy.ActionDelete, id); err != nil {
			return err
		}
		return svc.emergencies.Delete(ctx, id)
	})
}

func (svc *emergencyService) modifiable(ctx context.Context, s policy.Subject, action policy.Action, id uuid.UUID) (*domain.EmergencyMode, error) {
	mode, err := svc.emergencies.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceEmergency), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyEmergency(s, mode.DepartmentID) {
		return nil, policy.Deny(action, policy.ResourceEmergency)
	}
	return mode, nil
}

func checkEmergencyPeriod(m *domain.EmergencyMode) error {
	if m.EndsAt != nil && m.EndsAt.Before(m.StartsAt) {
		return domain.NewValidationError("ends_at", "end cannot be before start")
	}
	return nil
}
