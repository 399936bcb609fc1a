package repository

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/domain"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// Нарушения ограничений, известные схеме. Ключ - имя ограничения PostgreSQL
// или "таблица.колонка" из сообщения SQLite.
var constraintErrors = map[string]*domain.ValidationError{
	"uniq_manager_per_department":  domain.ErrDepartmentHasManager,
	"users.department_id":          domain.ErrDepartmentHasManager,
	"users_manager_has_department": domain.ErrManagerRequiresDepartment,
	"users_username_key":           domain.NewValidationError("username", "a user with this username already exists"),
	"users.username":               domain.NewValidationError("username", "a user with this username already exists"),
	"users_email_key":              domain.NewValidationError("email", "a user with this email already exists"),
	"users.email":                  domain.NewValidationError("email", "a user with this email already exists"),
	"departments_name_key":         domain.NewValidationError("name", "a department with this name already exists"),
	"departments.name":             domain.NewValidationError("name", "a department with this name already exists"),
	"tasks_type_relation":          domain.NewValidationError("type", "task type does not match its project/department link"),
	"attachments_relation_pair":    domain.NewValidationError("related_to", "related_to and related_id must be both set or both empty"),
}

// translateError превращает нарушения ограничений хранилища в ошибки валидации
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation || pgErr.Code == pgCheckViolation {
			if vErr, ok := constraintErrors[pgErr.ConstraintName]; ok {
				return vErr
			}
			slog.Warn("unmapped constraint violation",
				slog.String("constraint", pgErr.ConstraintName),
				slog.String("table", pgErr.TableName),
				slog.Any("error", err),
			)
			if pgErr.Code == pgUniqueViolation {
				return domain.NewValidationError("", "value already exists")
			}
			return domain.NewValidationError("", "constraint violated")
		}
		return err
	}

	msg := err.Error()
	if _, cols, ok := strings.Cut(msg, "UNIQUE constraint failed: "); ok {
		first, _, _ := strings.Cut(cols, ",")
		if vErr, ok := constraintErrors[strings.TrimSpace(first)]; ok {
			return vErr
		}
		slog.Warn("unmapped constraint violation", slog.Any("error", err))
		return domain.NewValidationError("", "value already exists")
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.NewValidationError("", "value already exists")
	}
	return err
}

// notFound подменяет gorm.ErrRecordNotFound доменной ошибкой
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
