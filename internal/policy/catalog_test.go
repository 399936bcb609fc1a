package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/org-tasks-api/internal/domain"
)

func TestPermissionsForIsDerivedFromCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	n := len(catalog)

	assert.Len(t, catalog.PermissionsFor(domain.RoleAdmin), n*4)
	assert.Len(t, catalog.PermissionsFor(domain.RoleManager), n*3)
	assert.Len(t, catalog.PermissionsFor(domain.RoleEmployee), n*2)
	assert.Len(t, catalog.PermissionsFor(domain.RoleDirector), n)
	assert.Empty(t, catalog.PermissionsFor(domain.Role("GUEST")))

	assert.ElementsMatch(t, catalog.Codenames(), catalog.PermissionsFor(domain.RoleAdmin))

	manager := catalog.PermissionsFor(domain.RoleManager)
	assert.Contains(t, manager, "change_task")
	assert.NotContains(t, manager, "delete_task")

	employee := catalog.PermissionsFor(domain.RoleEmployee)
	assert.Contains(t, employee, "add_comment")
	assert.NotContains(t, employee, "change_comment")

	assert.Equal(t, []string{"view_department", "view_user"}, Catalog{ResourceDepartment, ResourceUser}.PermissionsFor(domain.RoleDirector))
}

func TestNewResourceExtendsEveryRole(t *testing.T) {
	extended := append(DefaultCatalog(), ResourceAnalytics)

	for _, role := range domain.AllRoles() {
		assert.Contains(t, extended.PermissionsFor(role), "view_analytics", role)
	}
}

func TestGroupsFor(t *testing.T) {
	assert.Equal(t, []string{"MANAGER"}, GroupsFor(domain.RoleManager))
	assert.Nil(t, GroupsFor(domain.Role("")))
}
