package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// DepartmentRepository определяет интерфейс для работы с подразделениями
type DepartmentRepository interface {
	Create(ctx context.Context, dept *domain.Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Department, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.Department, error)
	ListWithoutLeader(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, dept *domain.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)
	SetLeader(ctx context.Context, id uuid.UUID, leaderID *uuid.UUID) error
	ClearLeadership(ctx context.Context, leaderID uuid.UUID, exceptID *uuid.UUID) error
	CountServiceTasks(ctx context.Context, id uuid.UUID) (int64, error)
}

type departmentRepository struct {
	base
}

// NewDepartmentRepository создаёт новый экземпляр репозитория
func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{base{db: db}}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Create(dept).Error)
}

func (r *departmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	var dept domain.Department
	err := r.conn(ctx).Preload("Leader").First(&dept, "departments.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrDepartmentNotFound)
	}
	return &dept, nil
}

func (r *departmentRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.Department, error) {
	var dept domain.Department
	err := r.conn(ctx).
		Scopes(departmentScope(scope)).
		Preload("Leader").
		First(&dept, "departments.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrDepartmentNotFound)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context, scope policy.Scope) ([]domain.Department, error) {
	var depts []domain.Department
	err := r.conn(ctx).
		Scopes(departmentScope(scope)).
		Preload("Leader").
		Order("departments.name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepository) ListWithoutLeader(ctx context.Context) ([]domain.Department, error) {
	var depts []domain.Department
	err := r.conn(ctx).
		Where("leader_id IS NULL").
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Save(dept).Error)
}

// Delete удаляет подразделение. Сотрудники остаются, их ссылка на подразделение очищается.
func (r *departmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)

	if err := db.Model(&domain.User{}).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
		return translateError(err)
	}
	if err := db.Model(&domain.Project{}).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM project_departments WHERE department_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Model(&domain.EmergencyMode{}).Where("department_id = ?", id).Update("department_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("source_department_id = ? OR destination_department_id = ?", id, id).Delete(&domain.EmployeeLoan{}).Error; err != nil {
		return err
	}

	result := db.Delete(&domain.Department{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

func (r *departmentRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.conn(ctx).Model(&domain.Department{}).Where("LOWER(name) = LOWER(?)", name)

	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	err := query.Count(&count).Error
	return count > 0, err
}

func (r *departmentRepository) SetLeader(ctx context.Context, id uuid.UUID, leaderID *uuid.UUID) error {
	result := r.conn(ctx).Model(&domain.Department{}).Where("id = ?", id).Update("leader_id", leaderID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDepartmentNotFound
	}
	return nil
}

// ClearLeadership снимает пользователя с руководства всеми подразделениями, кроме exceptID
func (r *departmentRepository) ClearLeadership(ctx context.Context, leaderID uuid.UUID, exceptID *uuid.UUID) error {
	query := r.conn(ctx).Model(&domain.Department{}).Where("leader_id = ?", leaderID)
	if exceptID != nil {
		query = query.Where("id <> ?", *exceptID)
	}
	return query.Update("leader_id", nil).Error
}

func (r *departmentRepository) CountServiceTasks(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Task{}).Where("department_id = ?", id).Count(&count).Error
	return count, err
}
