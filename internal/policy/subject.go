package policy

import (
	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
)

// Subject - аутентифицированный пользователь, от имени которого выполняется запрос.
// Строится из актуальной записи пользователя в начале каждого запроса.
type Subject struct {
	UserID       uuid.UUID
	Role         domain.Role
	DepartmentID *uuid.UUID
}

// NewSubject создаёт субъекта из записи пользователя
func NewSubject(u *domain.User) Subject {
	return Subject{
		UserID:       u.ID,
		Role:         u.EffectiveRole(),
		DepartmentID: u.DepartmentID,
	}
}

// IsAdmin - субъект обладает полным доступом
func (s Subject) IsAdmin() bool {
	return s.Role == domain.RoleAdmin
}

// InDepartment проверяет, что субъект состоит в указанном подразделении
func (s Subject) InDepartment(id *uuid.UUID) bool {
	return s.DepartmentID != nil && id != nil && *s.DepartmentID == *id
}

// InAnyDepartment проверяет принадлежность хотя бы к одному из подразделений
func (s Subject) InAnyDepartment(ids []uuid.UUID) bool {
	if s.DepartmentID == nil {
		return false
	}
	for _, id := range ids {
		if id == *s.DepartmentID {
			return true
		}
	}
	return false
}

// Is проверяет, что указатель ссылается на самого субъекта
func (s Subject) Is(id *uuid.UUID) bool {
	return id != nil && *id == s.UserID
}
