package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/repository"
)

const dateLayout = "2006-01-02"

// parseDate разбирает дату формата YYYY-MM-DD; ошибка относится к полю field
func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "date must have format YYYY-MM-DD")
	}
	return d, nil
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// requireDepartment проверяет, что ссылка на подразделение указывает на существующую запись
func requireDepartment(ctx context.Context, departments repository.DepartmentRepository, field string, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := departments.GetByID(ctx, *id); err != nil {
		if errors.Is(err, domain.ErrDepartmentNotFound) {
			return domain.NewValidationError(field, "department does not exist")
		}
		return err
	}
	return nil
}

// requireUsers проверяет существование всех пользователей из списка
func requireUsers(ctx context.Context, users repository.UserRepository, field string, ids []uuid.UUID) error {
	for _, id := range ids {
		ok, err := users.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NewValidationError(field, "user "+id.String()+" does not exist")
		}
	}
	return nil
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
