package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/auth"
	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// UserService определяет интерфейс бизнес-логики для пользователей и собственного профиля
type UserService interface {
	List(ctx context.Context, s policy.Subject) ([]domain.User, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.User, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateUserRequest) (*domain.User, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateUserRequest) (*domain.User, error)
	ChangeRole(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.ChangeRoleRequest) (*domain.User, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error

	Profile(ctx context.Context, s policy.Subject) (*domain.User, error)
	UpdateProfile(ctx context.Context, s policy.Subject, req *dto.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, s policy.Subject, req *dto.ChangePasswordRequest) error
}

type userService struct {
	tx          repository.TxManager
	users       repository.UserRepository
	departments repository.DepartmentRepository
	passwords   *auth.PasswordHasher
	roles       RoleChangeHandler
}

// NewUserService создаёт новый экземпляр сервиса
func NewUserService(
	tx repository.TxManager,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	passwords *auth.PasswordHasher,
	roles RoleChangeHandler,
) UserService {
	return &userService{
		tx:          tx,
		users:       users,
		departments: departments,
		passwords:   passwords,
		roles:       roles,
	}
}

func (svc *userService) List(ctx context.Context, s policy.Subject) ([]domain.User, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceUser); err != nil {
		return nil, err
	}
	return svc.users.List(ctx, policy.ScopeFor(s, policy.ResourceUser))
}

func (svc *userService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.User, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceUser); err != nil {
		return nil, err
	}
	return svc.users.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceUser), id)
}

func (svc *userService) Create(ctx context.Context, s policy.Subject, req *dto.CreateUserRequest) (*domain.User, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceUser); err != nil {
		return nil, err
	}

	role := domain.Role(req.Role)
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "unknown role")
	}
	if role == domain.RoleManager && req.DepartmentID == nil {
		return nil, domain.ErrManagerRequiresDepartment
	}

	hash, err := svc.passwords.Hash(req.Password)
	if err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	user := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
		Role:         role,
		IsAdmin:      req.IsAdmin,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
	}

	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkIdentity(ctx, user, nil); err != nil {
			return err
		}
		if err := requireDepartment(ctx, svc.departments, "department_id", user.DepartmentID); err != nil {
			return err
		}
		if err := svc.users.Create(ctx, user); err != nil {
			return err
		}
		return svc.roles.Handle(ctx, RoleChangedFor(user))
	})
	if err != nil {
		return nil, err
	}

	return svc.users.GetByID(ctx, user.ID)
}

func (svc *userService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateUserRequest) (*domain.User, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return nil, err
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := svc.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous := user.Email

		applyContact(user, req.Email, req.FirstName, req.LastName, req.Phone, req.Bio)
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}

		departmentChanged := req.DepartmentID.Set && !sameID(user.DepartmentID, req.DepartmentID.Value)
		if departmentChanged {
			if err := requireDepartment(ctx, svc.departments, "department_id", req.DepartmentID.Value); err != nil {
				return err
			}
			user.DepartmentID = req.DepartmentID.Value
			user.Department = nil
		}

		if err := svc.checkIdentity(ctx, user, previous); err != nil {
			return err
		}
		if err := svc.users.Update(ctx, user); err != nil {
			return err
		}
		if departmentChanged {
			return svc.roles.Handle(ctx, RoleChangedFor(user))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return svc.users.GetByID(ctx, id)
}

// ChangeRole меняет роль и флаг администратора; группы, права и руководство
// пересчитываются в той же транзакции
func (svc *userService) ChangeRole(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.ChangeRoleRequest) (*domain.User, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceUser); err != nil {
		return nil, err
	}

	role := domain.Role(req.Role)
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "unknown role")
	}

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := svc.users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		user.Role = role
		if req.IsAdmin != nil {
			user.IsAdmin = *req.IsAdmin
		}
		if req.DepartmentID.Set {
			if err := requireDepartment(ctx, svc.departments, "department_id", req.DepartmentID.Value); err != nil {
				return err
			}
			user.DepartmentID = req.DepartmentID.Value
			user.Department = nil
		}
		if user.Role == domain.RoleManager && user.DepartmentID == nil {
			return domain.ErrManagerRequiresDepartment
		}

		if err := svc.users.Update(ctx, user); err != nil {
			return err
		}
		return svc.roles.Handle(ctx, RoleChangedFor(user))
	})
	if err != nil {
		return nil, err
	}

	return svc.users.GetByID(ctx, id)
}

// Delete деактивирует учётную запись; история задач и комментариев сохраняется
func (svc *userService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceUser); err != nil {
		return err
	}
	if id == s.UserID {
		return domain.NewValidationError("id", "you cannot deactivate your own account")
	}

	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.users.Deactivate(ctx, id); err != nil {
			return err
		}
		return svc.departments.ClearLeadership(ctx, id, nil)
	})
}

func (svc *userService) Profile(ctx context.Context, s policy.Subject) (*domain.User, error) {
	return svc.users.GetByID(ctx, s.UserID)
}

// UpdateProfile изменяет собственный профиль. Сменить подразделение может только MANAGER;
// после изменения права пересчитываются, и ответ содержит уже новый набор.
func (svc *userService) UpdateProfile(ctx context.Context, s policy.Subject, req *dto.UpdateProfileRequest) (*domain.User, error) {
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := svc.users.GetByID(ctx, s.UserID)
		if err != nil {
			return err
		}
		previous := user.Email

		applyContact(user, req.Email, req.FirstName, req.LastName, req.Phone, req.Bio)

		if req.DepartmentID.Set && !sameID(user.DepartmentID, req.DepartmentID.Value) {
			if user.Role != domain.RoleManager {
				return domain.NewValidationError("department_id", "only a manager can change their department")
			}
			if err := requireDepartment(ctx, svc.departments, "department_id", req.DepartmentID.Value); err != nil {
				return err
			}
			user.DepartmentID = req.DepartmentID.Value
			user.Department = nil
		}

		if err := svc.checkIdentity(ctx, user, previous); err != nil {
			return err
		}
		if err := svc.users.Update(ctx, user); err != nil {
			return err
		}
		return svc.roles.Handle(ctx, RoleChangedFor(user))
	})
	if err != nil {
		return nil, err
	}

	return svc.users.GetByID(ctx, s.UserID)
}

func (svc *userService) ChangePassword(ctx context.Context, s policy.Subject, req *dto.ChangePasswordRequest) error {
	user, err := svc.users.GetByID(ctx, s.UserID)
	if err != nil {
		return err
	}
	if !svc.passwords.Verify(req.OldPassword, user.PasswordHash) {
		return domain.NewValidationError("old_password", "current password is incorrect")
	}

	hash, err := svc.passwords.Hash(req.NewPassword)
	if err != nil {
		return domain.NewValidationError("new_password", err.Error())
	}
	user.PasswordHash = hash
	return svc.users.Update(ctx, user)
}

// checkIdentity проверяет уникальность имени (для новой записи) и почты (если она изменилась)
func (svc *userService) checkIdentity(ctx context.Context, user *domain.User, previousEmail *string) error {
	if user.ID == uuid.Nil {
		taken, err := svc.users.ExistsByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if taken {
			return domain.NewValidationError("username", "a user with this username already exists")
		}
	}

	if user.Email == nil || (previousEmail != nil && strings.EqualFold(*previousEmail, *user.Email)) {
		return nil
	}
	taken, err := svc.users.ExistsByEmail(ctx, *user.Email)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewValidationError("email", "a user with this email already exists")
	}
	return nil
}

func applyContact(u *domain.User, email, firstName, lastName, phone, bio *string) {
	if email != nil {
		u.Email = normalizeEmail(email)
	}
	if firstName != nil {
		u.FirstName = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		u.LastName = strings.TrimSpace(*lastName)
	}
	if phone != nil {
		u.Phone = *phone
	}
	if bio != nil {
		u.Bio = *bio
	}
}
