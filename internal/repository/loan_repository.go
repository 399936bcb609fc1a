package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// LoanRepository определяет интерфейс для работы с переводами сотрудников
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.EmployeeLoan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.EmployeeLoan, error)
	GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.EmployeeLoan, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.EmployeeLoan, error)
	Update(ctx context.Context, loan *domain.EmployeeLoan) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type loanRepository struct {
	base
}

// NewLoanRepository создаёт новый экземпляр репозитория
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{base{db: db}}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.EmployeeLoan) error {
	return r.conn(ctx).Create(loan).Error
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmployeeLoan, error) {
	var loan domain.EmployeeLoan
	if err := r.conn(ctx).First(&loan, "employee_loans.id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return &loan, nil
}

func (r *loanRepository) GetVisible(ctx context.Context, scope policy.Scope, id uuid.UUID) (*domain.EmployeeLoan, error) {
	var loan domain.EmployeeLoan
	err := r.conn(ctx).Scopes(loanScope(scope)).First(&loan, "employee_loans.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrLoanNotFound)
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, scope policy.Scope) ([]domain.EmployeeLoan, error) {
	var loans []domain.EmployeeLoan
	err := r.conn(ctx).
		Scopes(loanScope(scope)).
		Order("employee_loans.start_date DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.EmployeeLoan) error {
	return r.conn(ctx).Omit("created_by_id").Save(loan).Error
}

func (r *loanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.conn(ctx).Delete(&domain.EmployeeLoan{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}
