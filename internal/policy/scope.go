package policy

import (
	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
)

// ScopeKind - вид ограничения выборки
type ScopeKind int

const (
	// ScopeNone - ничего
	ScopeNone ScopeKind = iota
	// ScopeAll - без ограничений
	ScopeAll
	// ScopeDepartment - записи подразделения субъекта
	ScopeDepartment
	// ScopeSelf - записи, где субъект указан напрямую (сотрудник, участник, получатель)
	ScopeSelf
	// ScopeReachable - записи, достижимые через связи субъекта
	ScopeReachable
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNone:
		return "none"
	case ScopeAll:
		return "all"
	case ScopeDepartment:
		return "department"
	case ScopeSelf:
		return "self"
	case ScopeReachable:
		return "reachable"
	}
	return "unknown"
}

// Scope - предикат выборки, вычисленный до выполнения запроса.
// Репозитории переводят его в условие SQL.
type Scope struct {
	Kind         ScopeKind
	UserID       uuid.UUID
	DepartmentID *uuid.UUID
}

// scopeRule - вид выборки и замена для субъекта без подразделения
type scopeRule struct {
	kind         ScopeKind
	noDepartment ScopeKind
}

func fixed(k ScopeKind) scopeRule { return scopeRule{kind: k, noDepartment: k} }

func ownDepartment(fallback ScopeKind) scopeRule {
	return scopeRule{kind: ScopeDepartment, noDepartment: fallback}
}

type scopeRow struct {
	admin, director, manager, employee scopeRule
}

func (r scopeRow) forRole(role domain.Role) (scopeRule, bool) {
	switch role {
	case domain.RoleAdmin:
		return r.admin, true
	case domain.RoleDirector:
		return r.director, true
	case domain.RoleManager:
		return r.manager, true
	case domain.RoleEmployee:
		return r.employee, true
	}
	return scopeRule{}, false
}

var scopeTable = map[Resource]scopeRow{
	ResourceDepartment:   {fixed(ScopeAll), fixed(ScopeAll), ownDepartment(ScopeNone), fixed(ScopeNone)},
	ResourceUser:         {fixed(ScopeAll), fixed(ScopeAll), ownDepartment(ScopeSelf), fixed(ScopeSelf)},
	ResourceProject:      {fixed(ScopeAll), fixed(ScopeAll), fixed(ScopeAll), fixed(ScopeAll)},
	ResourceTask:         {fixed(ScopeAll), fixed(ScopeReachable), fixed(ScopeReachable), fixed(ScopeReachable)},
	ResourceComment:      {fixed(ScopeAll), fixed(ScopeReachable), fixed(ScopeReachable), fixed(ScopeReachable)},
	ResourceAttachment:   {fixed(ScopeAll), fixed(ScopeReachable), fixed(ScopeReachable), fixed(ScopeReachable)},
	ResourceLoan:         {fixed(ScopeAll), fixed(ScopeSelf), ownDepartment(ScopeSelf), fixed(ScopeSelf)},
	ResourceEmergency:    {fixed(ScopeAll), fixed(ScopeNone), ownDepartment(ScopeNone), fixed(ScopeNone)},
	ResourceConversation: {fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf)},
	ResourceMessage:      {fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf)},
	ResourceNotification: {fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf), fixed(ScopeSelf)},
	ResourceAnalytics:    {fixed(ScopeAll), fixed(ScopeAll), ownDepartment(ScopeNone), fixed(ScopeNone)},
}

// ScopeFor вычисляет ограничение выборки ресурса для субъекта
func ScopeFor(s Subject, resource Resource) Scope {
	row, ok := scopeTable[resource]
	if !ok {
		return Scope{Kind: ScopeNone, UserID: s.UserID}
	}
	rule, ok := row.forRole(s.Role)
	if !ok {
		return Scope{Kind: ScopeNone, UserID: s.UserID}
	}

	kind := rule.kind
	if kind == ScopeDepartment && s.DepartmentID == nil {
		kind = rule.noDepartment
	}
	return Scope{Kind: kind, UserID: s.UserID, DepartmentID: s.DepartmentID}
}
