package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// EmergencyRepository определяет интерфейс для работы с режимами срочного реагирования
type EmergencyRepository interface {
	Create(ctx context.Context, mode *domain.EmergencyMode) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmergencyMode, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.EmergencyMode, error)
	List(ctx context.Context, scope policy.Scope, activeOnly bool) ([]domain.EmergencyMode, error)
	Update(ctx context.Context, mode *domain.EmergencyMode) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type emergencyRepository struct {
	base
}

// NewEmergencyRepository создаёт новый экземпляр репозитория
func NewEmergencyRepository(db *gorm.DB) EmergencyRepository {
	return &emergencyRepository{base{db: db}}
}

func (r *emergencyRepository) Create(ctx context.Context, mode *domain.EmergencyMode) error {
	return r.conn(ctx).Create(mode).Error
}

func (r *emergencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmergencyMode, error) {
	var mode domain.EmergencyMode
	if err := r.conn(ctx).First(&mode, "emergency_modes.id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrEmergencyNotFound)
	}
	return &mode, nil
}

func (r *emergencyRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.EmergencyMode, error) {
	var mode domain.EmergencyMode
	err := r.conn(ctx).Scopes(emergencyScope(scope)).First(&mode, "emergency_modes.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrEmergencyNotFound)
	}
	return &mode, nil
}

func (r *emergencyRepository) List(ctx context.Context, scope policy.Scope, activeOnly bool) ([]domain.EmergencyMode, error) {
	query := r.conn(ctx).Scopes(emergencyScope(scope))
	if activeOnly {
		query = query.Where("emergency_modes.is_active = ?", true)
	}

	var modes []domain.EmergencyMode
	err := query.Order("emergency_modes.starts_at DESC").Find(&modes).Error
	return modes, err
}

func (r *emergencyRepository) Update(ctx context.Context, mode *domain.EmergencyMode) error {
	return r.conn(ctx).Omit("created_by_id").Save(mode).Error
}

func (r *emergencyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&domain.EmergencyMode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrEmergencyNotFound
	}
	return nil
}
