package domain

import (
	"errors"
	"fmt"
)

// Определение бизнес-ошибок
var (
	ErrValidation         = errors.New("validation error")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileMissing     = errors.New("no identity is associated with this account")

	ErrUserNotFound         = errors.New("user not found")
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrCommentNotFound      = errors.New("comment not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrLoanNotFound         = errors.New("employee loan not found")
	ErrEmergencyNotFound    = errors.New("emergency mode not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError - ошибка валидации с указанием поля
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError создаёт ошибку валидации для поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrValidation)
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Часто используемые ошибки инвариантов
var (
	ErrManagerRequiresDepartment = NewValidationError("department_id", "a manager must be attached to a department")
	ErrDepartmentHasManager      = NewValidationError("department_id", "department already has a manager")
	ErrInvalidAdminCode          = NewValidationError("admin_code", "invalid or missing admin code")
	ErrLeaderMustBeManager       = NewValidationError("leader_id", "only a MANAGER can lead a department")
)
