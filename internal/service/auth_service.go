package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/org-tasks-api/internal/auth"
	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/repository"
)

// Token - выданный токен доступа и пользователь, для которого он выпущен
type Token struct {
	Access    string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService определяет вход, регистрацию и публичные проверки
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*Token, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error)
	Provision(ctx context.Context, req *dto.ProvisionRequest) (*domain.Department, *domain.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
	PublicDepartments(ctx context.Context) ([]domain.Department, error)
}

type authService struct {
	tx          repository.TxManager
	users       repository.UserRepository
	departments repository.DepartmentRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordHasher
	roles       RoleChangeHandler
	adminCode   string
	now         func() time.Time
}

// NewAuthService создаёт новый экземпляр сервиса
func NewAuthService(
	tx repository.TxManager,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordHasher,
	roles RoleChangeHandler,
	adminCode string,
) AuthService {
	return &authService{
		tx:          tx,
		users:       users,
		departments: departments,
		tokens:      tokens,
		passwords:   passwords,
		roles:       roles,
		adminCode:   adminCode,
		now:         time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*Token, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !s.passwords.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	// Без роли токен не выпускается: утверждения были бы неполными
	if !user.EffectiveRole().Valid() {
		return nil, domain.ErrProfileMissing
	}

	claims := auth.Claims{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.EffectiveRole().String(),
		DepartmentID: user.DepartmentID,
		Permissions:  user.PermissionCodenames(),
		IsStaff:      user.EffectiveRole() == domain.RoleAdmin,
		Groups:       user.GroupNames(),
	}
	if user.Department != nil {
		name := user.Department.Name
		claims.DepartmentName = &name
	}

	access, expiresAt, err := s.tokens.Issue(claims)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastSeen(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastSeenAt = &now

	return &Token{Access: access, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate проверяет токен и читает актуальную запись пользователя.
// Роль и подразделение берутся из базы, а не из утверждений токена.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrProfileMissing
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *authService) checkAdminCode(code string) error {
	if s.adminCode == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) != 1 {
		return domain.ErrInvalidAdminCode
	}
	return nil
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*domain.User, error) {
	role := domain.RoleEmployee
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	if !role.Valid() {
		return nil, domain.NewValidationError("role", "unknown role")
	}

	if role.Privileged() {
		if err := s.checkAdminCode(req.AdminCode); err != nil {
			return nil, err
		}
	}

	departmentID := req.DepartmentID
	if role == domain.RoleAdmin {
		departmentID = nil
	}
	if role == domain.RoleManager && departmentID == nil {
		return nil, domain.ErrManagerRequiresDepartment
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, domain.NewValidationError("password", err.Error())
	}

	user := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         role,
		DepartmentID: departmentID,
		IsActive:     true,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.ensureIdentityFree(ctx, user.Username, user.Email, "username", "email"); err != nil {
			return err
		}
		if err := requireDepartment(ctx, s.departments, "department_id", departmentID); err != nil {
			return err
		}
		if role == domain.RoleManager {
			manager, err := s.users.ManagerOf(ctx, *departmentID)
			if err != nil {
				return err
			}
			if manager != nil {
				return domain.ErrDepartmentHasManager
			}
		}

		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.roles.Handle(ctx, RoleChangedFor(user))
	})
	if err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, user.ID)
}

// Provision создаёт подразделение, его руководителя и назначает руководство одной транзакцией
func (s *authService) Provision(ctx context.Context, req *dto.ProvisionRequest) (*domain.Department, *domain.User, error) {
	if err := s.checkAdminCode(req.AdminCode); err != nil {
		return nil, nil, err
	}

	hash, err := s.passwords.Hash(req.ManagerPassword)
	if err != nil {
		return nil, nil, domain.NewValidationError("manager_password", err.Error())
	}

	color := req.DepartmentColor
	if color == "" {
		color = domain.DefaultDepartmentColor
	}
	dept := &domain.Department{
		Name:             strings.TrimSpace(req.DepartmentName),
		Description:      req.DepartmentDescription,
		Color:            color,
		WorkloadCapacity: 100,
	}
	email := strings.TrimSpace(req.ManagerEmail)
	manager := &domain.User{
		Username:     strings.TrimSpace(req.ManagerUsername),
		Email:        normalizeEmail(&email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.ManagerFirstName),
		LastName:     strings.TrimSpace(req.ManagerLastName),
		Role:         domain.RoleManager,
		IsActive:     true,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.departments.ExistsByName(ctx, dept.Name, nil)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewValidationError("service_name", "a department with this name already exists")
		}
		if err := s.ensureIdentityFree(ctx, manager.Username, manager.Email, "manager_username", "manager_email"); err != nil {
			return err
		}

		// 1. подразделение без руководителя
		if err := s.departments.Create(ctx, dept); err != nil {
			return err
		}
		// 2. руководитель в этом подразделении
		manager.DepartmentID = &dept.ID
		if err := s.users.Create(ctx, manager); err != nil {
			return err
		}
		// 3. группы, права и ссылка подразделения на руководителя
		return s.roles.Handle(ctx, RoleChangedFor(manager))
	})
	if err != nil {
		return nil, nil, err
	}

	dept.LeaderID = &manager.ID
	return dept, manager, nil
}

func (s *authService) ensureIdentityFree(ctx context.Context, username string, email *string, usernameField, emailField string) error {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewValidationError(usernameField, "a user with this username already exists")
	}
	if email == nil {
		return nil
	}
	taken, err = s.users.ExistsByEmail(ctx, *email)
	if err != nil {
		return err
	}
	if taken {
		return domain.NewValidationError(emailField, "a user with this email already exists")
	}
	return nil
}

func (s *authService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, domain.NewValidationError("username", "username is required")
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	return !taken, err
}

func (s *authService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, domain.NewValidationError("email", "email is required")
	}
	taken, err := s.users.ExistsByEmail(ctx, email)
	return !taken, err
}

// PublicDepartments - подразделения без руководителя, доступные при регистрации MANAGER
func (s *authService) PublicDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListWithoutLeader(ctx)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}
