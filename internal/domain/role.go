package domain

// Role - роль пользователя в системе
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleDirector Role = "DIRECTOR"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// AllRoles возвращает все роли в порядке убывания охвата
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleDirector, RoleManager, RoleEmployee}
}

// Valid проверяет, что роль известна системе
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDirector, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Privileged - роли, регистрация которых требует секретного кода
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r Role) String() string {
	return string(r)
}
