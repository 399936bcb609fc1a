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

// UserRepository определяет интерфейс для работы с пользователями
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ManagerOf(ctx context.Context, departmentID uuid.UUID) (*domain.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	ReplaceGroups(ctx context.Context, userID uuid.UUID, names []string) error
	ReplacePermissions(ctx context.Context, userID uuid.UUID, codenames []string) error
}

type userRepository struct {
	base
}

// NewUserRepository создаёт новый экземпляр репозитория
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{base{db: db}}
}

func (r *userRepository) withProfile(db *gorm.DB) *gorm.DB {
	return db.Preload("Department").Preload("Groups").Preload("Permissions")
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Create(user).Error)
}

// GetByID всегда читает актуальную запись, включая группы и права
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.withProfile(r.conn(ctx)).First(&user, "users.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.withProfile(r.conn(ctx)).First(&user, "users.username = ?", username).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.withProfile(r.conn(ctx).Scopes(userScope(scope))).First(&user, "users.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, scope policy.Scope) ([]domain.User, error) {
	var users []domain.User
	err := r.conn(ctx).
		Scopes(userScope(scope)).
		Preload("Department").
		Order("users.username ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.conn(ctx).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Save(user).Error)
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Model(&domain.User{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.conn(ctx).Model(&domain.User{}).Where("id = ?", id).UpdateColumn("last_seen_at", at).Error
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ManagerOf возвращает MANAGER подразделения или nil
func (r *userRepository) ManagerOf(ctx context.Context, departmentID uuid.UUID) (*domain.User, error) {
	var users []domain.User
	err := r.conn(ctx).
		Where("department_id = ? AND role = ?", departmentID, domain.RoleManager).
		Limit(1).
		Find(&users).Error
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return &users[0], nil
}

func (r *userRepository) ReplaceGroups(ctx context.Context, userID uuid.UUID, names []string) error {
	db := r.conn(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&domain.UserGroup{}).Error; err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	rows := make([]domain.UserGroup, 0, len(names))
	for _, n := range names {
		rows = append(rows, domain.UserGroup{UserID: userID, Name: n})
	}
	return db.Create(&rows).Error
}

func (r *userRepository) ReplacePermissions(ctx context.Context, userID uuid.UUID, codenames []string) error {
	db := r.conn(ctx)
	if err := db.Where("user_id = ?", userID).Delete(&domain.UserPermission{}).Error; err != nil {
		return err
	}
	if len(codenames) == 0 {
		return nil
	}
	rows := make([]domain.UserPermission, 0, len(codenames))
	for _, c := range codenames {
		rows = append(rows, domain.UserPermission{UserID: userID, Codename: c})
	}
	return db.CreateInBatches(&rows, 100).Error
}
