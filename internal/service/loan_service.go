package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

// LoanService определяет интерфейс бизнес-логики для переводов сотрудников
type LoanService interface {
	List(ctx context.Context, s policy.Subject) ([]domain.EmployeeLoan, error)
	Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.EmployeeLoan, error)
	Create(ctx context.Context, s policy.Subject, req *dto.CreateLoanRequest) (*domain.EmployeeLoan, error)
	Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateLoanRequest) (*domain.EmployeeLoan, error)
	Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error
}

type loanService struct {
	tx          repository.TxManager
	loans       repository.LoanRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
}

// NewLoanService создаёт новый экземпляр сервиса
func NewLoanService(
	tx repository.TxManager,
	loans repository.LoanRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
) LoanService {
	return &loanService{
		tx:          tx,
		loans:       loans,
		users:       users,
		departments: departments,
	}
}

func (svc *loanService) List(ctx context.Context, s policy.Subject) ([]domain.EmployeeLoan, error) {
	if err := policy.Authorize(s, policy.ActionList, policy.ResourceLoan); err != nil {
		return nil, err
	}
	return svc.loans.List(ctx, policy.ScopeFor(s, policy.ResourceLoan))
}

func (svc *loanService) Get(ctx context.Context, s policy.Subject, id uuid.UUID) (*domain.EmployeeLoan, error) {
	if err := policy.Authorize(s, policy.ActionRead, policy.ResourceLoan); err != nil {
		return nil, err
	}
	return svc.loans.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceLoan), id)
}

// Create - руководитель может оформить перевод только с участием своего подразделения
func (svc *loanService) Create(ctx context.Context, s policy.Subject, req *dto.CreateLoanRequest) (*domain.EmployeeLoan, error) {
	if err := policy.Authorize(s, policy.ActionCreate, policy.ResourceLoan); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	loan := &domain.EmployeeLoan{
		EmployeeID:              req.EmployeeID,
		SourceDepartmentID:      req.SourceDepartmentID,
		DestinationDepartmentID: req.DestinationDepartmentID,
		StartDate:               start,
		EndDate:                 end,
		Reason:                  req.Reason,
		Status:                  domain.LoanPending,
		WorkloadImpact:          req.WorkloadImpact,
		Cost:                    req.Cost,
		CreatedByID:             s.UserID,
	}
	if req.Status != "" {
		loan.Status = domain.LoanStatus(req.Status)
	}
	if err := checkLoan(loan); err != nil {
		return nil, err
	}
	if !policy.CanModifyLoan(s, loanFacts(loan)) {
		return nil, policy.Deny(policy.ActionCreate, policy.ResourceLoan)
	}

	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := requireUsers(ctx, svc.users, "employee_id", []uuid.UUID{loan.EmployeeID}); err != nil {
			return err
		}
		if err := requireDepartment(ctx, svc.departments, "source_department_id", &loan.SourceDepartmentID); err != nil {
			return err
		}
		if err := requireDepartment(ctx, svc.departments, "destination_department_id", &loan.DestinationDepartmentID); err != nil {
			return err
		}
		return svc.loans.Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (svc *loanService) Update(ctx context.Context, s policy.Subject, id uuid.UUID, req *dto.UpdateLoanRequest) (*domain.EmployeeLoan, error) {
	if err := policy.Authorize(s, policy.ActionUpdate, policy.ResourceLoan); err != nil {
		return nil, err
	}

	var loan *domain.EmployeeLoan
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loan, err = svc.modifiable(ctx, s, policy.ActionUpdate, id)
		if err != nil {
			return err
		}

		if req.StartDate != nil {
			if loan.StartDate, err = parseDate("start_date", *req.StartDate); err != nil {
				return err
			}
		}
		if req.EndDate != nil {
			if loan.EndDate, err = parseDate("end_date", *req.EndDate); err != nil {
				return err
			}
		}
		if req.Reason != nil {
			loan.Reason = *req.Reason
		}
		if req.Status != nil {
			loan.Status = domain.LoanStatus(*req.Status)
		}
		if req.WorkloadImpact != nil {
			loan.WorkloadImpact = *req.WorkloadImpact
		}
		if req.Cost != nil {
			loan.Cost = *req.Cost
		}
		if err := checkLoan(loan); err != nil {
			return err
		}
		return svc.loans.Update(ctx, loan)
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

func (svc *loanService) Delete(ctx context.Context, s policy.Subject, id uuid.UUID) error {
	if err := policy.Authorize(s, policy.ActionDelete, policy.ResourceLoan); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.modifiable(ctx, s, policy.ActionDelete, id); err != nil {
			return err
		}
		return svc.loans.Delete(ctx, id)
	})
}

func (svc *loanService) modifiable(ctx context.Context, s policy.Subject, action policy.Action, id uuid.UUID) (*domain.EmployeeLoan, error) {
	loan, err := svc.loans.GetVisible(ctx, policy.ScopeFor(s, policy.ResourceLoan), id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyLoan(s, loanFacts(loan)) {
		return nil, policy.Deny(action, policy.ResourceLoan)
	}
	return loan, nil
}

func loanFacts(l *domain.EmployeeLoan) policy.LoanFacts {
	return policy.LoanFacts{
		EmployeeID:              l.EmployeeID,
		SourceDepartmentID:      l.SourceDepartmentID,
		DestinationDepartmentID: l.DestinationDepartmentID,
	}
}

func checkLoan(l *domain.EmployeeLoan) error {
	if l.SourceDepartmentID == l.DestinationDepartmentID {
		return domain.NewValidationError("destination_department_id", "destination must differ from source department")
	}
	if l.EndDate.Before(l.StartDate) {
		return domain.NewValidationError("end_date", "end date cannot be before start date")
	}
	return nil
}
