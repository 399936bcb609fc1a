package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// RoleChanged - событие: у пользователя изменились роль, флаг администратора или подразделение
type RoleChanged struct {
	UserID       uuid.UUID
	Role         domain.Role
	IsAdmin      bool
	DepartmentID *uuid.UUID
}

// RoleChangedFor строит событие по записи пользователя
func RoleChangedFor(u *domain.User) RoleChanged {
	return RoleChanged{
		UserID:       u.ID,
		Role:         u.Role,
		IsAdmin:      u.IsAdmin,
		DepartmentID: u.DepartmentID,
	}
}

// RoleChangeHandler обрабатывает событие смены роли
type RoleChangeHandler interface {
	Handle(ctx context.Context, e RoleChanged) error
}

// RoleSynchronizer заменяет группы и права пользователя набором его роли
// и назначает MANAGER руководителем его подразделения.
// Вызывается в транзакции, изменившей пользователя: ошибка откатывает всю операцию.
type RoleSynchronizer struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	catalog     policy.Catalog
}

// NewRoleSynchronizer создаёт синхронизатор для каталога прав
func NewRoleSynchronizer(users repository.UserRepository, departments repository.DepartmentRepository, catalog policy.Catalog) *RoleSynchronizer {
	return &RoleSynchronizer{
		users:       users,
		departments: departments,
		catalog:     catalog,
	}
}

func (s *RoleSynchronizer) Handle(ctx context.Context, e RoleChanged) error {
	if e.Role == domain.RoleManager && e.DepartmentID == nil {
		return domain.ErrManagerRequiresDepartment
	}

	effective := e.Role
	if e.IsAdmin {
		effective = domain.RoleAdmin
	}

	if err := s.users.ReplaceGroups(ctx, e.UserID, policy.GroupsFor(effective)); err != nil {
		return fmt.Errorf("replace groups: %w", err)
	}
	if err := s.users.ReplacePermissions(ctx, e.UserID, s.catalog.PermissionsFor(effective)); err != nil {
		return fmt.Errorf("replace permissions: %w", err)
	}

	// Руководителем может быть только MANAGER и только своего подразделения
	if e.Role != domain.RoleManager {
		return s.departments.ClearLeadership(ctx, e.UserID, nil)
	}
	if err := s.departments.ClearLeadership(ctx, e.UserID, e.DepartmentID); err != nil {
		return err
	}
	return s.departments.SetLeader(ctx, *e.DepartmentID, &e.UserID)
}

// SyncAll пересчитывает группы и права каждого пользователя по текущему каталогу.
// Ошибки отдельных пользователей собираются, остальные продолжают обрабатываться.
func SyncAll(ctx context.Context, tx repository.TxManager, users repository.UserRepository, handler RoleChangeHandler) (int, error) {
	all, err := users.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	synced := 0
	for i := range all {
		u := &all[i]
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return handler.Handle(ctx, RoleChangedFor(u))
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u.Username, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}
