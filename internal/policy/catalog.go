package policy

import (
	"github.com/org-tasks-api/internal/domain"
)

// Verb - вид права в каталоге
type Verb string

const (
	VerbView   Verb = "view"
	VerbAdd    Verb = "add"
	VerbChange Verb = "change"
	VerbDelete Verb = "delete"
)

// Catalog - перечень видов ресурсов, для которых существуют права
type Catalog []Resource

// DefaultCatalog - все хранимые виды ресурсов
func DefaultCatalog() Catalog {
	return Catalog{
		ResourceDepartment,
		ResourceUser,
		ResourceProject,
		ResourceTask,
		ResourceComment,
		ResourceAttachment,
		ResourceLoan,
		ResourceEmergency,
		ResourceConversation,
		ResourceMessage,
		ResourceNotification,
	}
}

// Codename - кодовое имя права, например view_task
func Codename(v Verb, r Resource) string {
	return string(v) + "_" + string(r)
}

// verbsFor - набор видов прав роли; каталог подставляет ресурсы
func verbsFor(role domain.Role) []Verb {
	switch role {
	case domain.RoleAdmin:
		return []Verb{VerbView, VerbAdd, VerbChange, VerbDelete}
	case domain.RoleManager:
		return []Verb{VerbView, VerbAdd, VerbChange}
	case domain.RoleEmployee:
		return []Verb{VerbView, VerbAdd}
	case domain.RoleDirector:
		return []Verb{VerbView}
	}
	return nil
}

// Codenames возвращает все права каталога
func (c Catalog) Codenames() []string {
	return c.codenames(verbsFor(domain.RoleAdmin))
}

// PermissionsFor выводит набор прав роли из каталога
func (c Catalog) PermissionsFor(role domain.Role) []string {
	return c.codenames(verbsFor(role))
}

func (c Catalog) codenames(verbs []Verb) []string {
	out := make([]string, 0, len(c)*len(verbs))
	for _, r := range c {
		for _, v := range verbs {
			out = append(out, Codename(v, r))
		}
	}
	return out
}

// GroupsFor возвращает имена групп роли
func GroupsFor(role domain.Role) []string {
	if !role.Valid() {
		return nil
	}
	return []string{role.String()}
}
