package policy

import (
	"fmt"

	"github.com/org-tasks-api/internal/domain"
)

// actionSet - набор разрешённых классов действий
type actionSet uint8

const (
	canList actionSet = 1 << iota
	canRead
	canCreate
	canUpdate
	canDelete
)

const (
	none     actionSet = 0
	readOnly           = canList | canRead
	modify             = canUpdate | canDelete
	all                = readOnly | canCreate | modify
)

func (s actionSet) has(a Action) bool {
	var bit actionSet
	switch a {
	case ActionList:
		bit = canList
	case ActionRead:
		bit = canRead
	case ActionCreate:
		bit = canCreate
	case ActionUpdate:
		bit = canUpdate
	case ActionDelete:
		bit = canDelete
	default:
		return false
	}
	return s&bit != 0
}

// roleRow - строка таблицы: по одному набору на каждую роль.
// Литералы таблицы позиционные, поэтому пропустить роль нельзя.
type roleRow struct {
	admin, director, manager, employee actionSet
}

func (r roleRow) forRole(role domain.Role) actionSet {
	switch role {
	case domain.RoleAdmin:
		return r.admin
	case domain.RoleDirector:
		return r.director
	case domain.RoleManager:
		return r.manager
	case domain.RoleEmployee:
		return r.employee
	}
	return none
}

// Таблица разрешений по классам действий.
// Там, где строка разрешает update/delete всем, решение принимает объектная проверка.
var classTable = map[Resource]roleRow{
	ResourceDepartment:   {all, all, readOnly, readOnly},
	ResourceUser:         {all, readOnly, readOnly, readOnly},
	ResourceProject:      {all, all, all, readOnly},
	ResourceTask:         {all, readOnly | modify, all, readOnly | modify},
	ResourceComment:      {all, all, all, all},
	ResourceAttachment:   {all, all, all, all},
	ResourceLoan:         {all, readOnly, all, readOnly},
	ResourceEmergency:    {all, readOnly, all, readOnly},
	ResourceConversation: {all, all, all, all},
	ResourceMessage:      {all, all, all, all},
	ResourceNotification: {all, readOnly | modify, readOnly | modify, readOnly | modify},
	ResourceAnalytics:    {readOnly, readOnly, readOnly, none},
}

// CanPerform отвечает, может ли роль в принципе выполнять действие над видом ресурса
func CanPerform(role domain.Role, action Action, resource Resource) bool {
	row, ok := classTable[resource]
	if !ok {
		return false
	}
	return row.forRole(role).has(action)
}

// Authorize - проверка класса действия для субъекта
func Authorize(s Subject, action Action, resource Resource) error {
	if CanPerform(s.Role, action, resource) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s %s", domain.ErrForbidden, s.Role, action, resource)
}

// Deny формирует ошибку отказа объектной проверки
func Deny(action Action, resource Resource) error {
	return fmt.Errorf("%w: %s on this %s is not allowed", domain.ErrForbidden, action, resource)
}
