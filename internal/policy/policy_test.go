package policy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/org-tasks-api/internal/domain"
)

func TestClassTableCoversEveryResource(t *testing.T) {
	for _, r := range Resources() {
		_, ok := classTable[r]
		assert.True(t, ok, "class table has no row for %s", r)
		_, ok = scopeTable[r]
		assert.True(t, ok, "scope table has no row for %s", r)
	}
	assert.Len(t, classTable, len(Resources()))
	assert.Len(t, scopeTable, len(Resources()))
}

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name     string
		role     domain.Role
		action   Action
		resource Resource
		want     bool
	}{
		{"admin creates department", domain.RoleAdmin, ActionCreate, ResourceDepartment, true},
		{"director creates department", domain.RoleDirector, ActionCreate, ResourceDepartment, true},
		{"manager cannot create department", domain.RoleManager, ActionCreate, ResourceDepartment, false},
		{"employee lists departments", domain.RoleEmployee, ActionList, ResourceDepartment, true},
		{"employee cannot delete department", domain.RoleEmployee, ActionDelete, ResourceDepartment, false},

		{"manager creates project", domain.RoleManager, ActionCreate, ResourceProject, true},
		{"director updates project", domain.RoleDirector, ActionUpdate, ResourceProject, true},
		{"employee reads project", domain.RoleEmployee, ActionRead, ResourceProject, true},
		{"employee cannot create project", domain.RoleEmployee, ActionCreate, ResourceProject, false},

		{"admin creates task", domain.RoleAdmin, ActionCreate, ResourceTask, true},
		{"manager creates task", domain.RoleManager, ActionCreate, ResourceTask, true},
		{"director cannot create task", domain.RoleDirector, ActionCreate, ResourceTask, false},
		{"employee cannot create task", domain.RoleEmployee, ActionCreate, ResourceTask, false},
		{"employee may attempt task update", domain.RoleEmployee, ActionUpdate, ResourceTask, true},
		{"director may attempt task delete", domain.RoleDirector, ActionDelete, ResourceTask, true},

		{"employee comments", domain.RoleEmployee, ActionCreate, ResourceComment, true},
		{"director comments", domain.RoleDirector, ActionCreate, ResourceComment, true},

		{"director cannot create user", domain.RoleDirector, ActionCreate, ResourceUser, false},
		{"admin updates user", domain.RoleAdmin, ActionUpdate, ResourceUser, true},

		{"manager creates loan", domain.RoleManager, ActionCreate, ResourceLoan, true},
		{"employee cannot create loan", domain.RoleEmployee, ActionCreate, ResourceLoan, false},
		{"director cannot create emergency", domain.RoleDirector, ActionCreate, ResourceEmergency, false},

		{"employee cannot create notification", domain.RoleEmployee, ActionCreate, ResourceNotification, false},
		{"employee marks notification", domain.RoleEmployee, ActionUpdate, ResourceNotification, true},

		{"manager reads analytics", domain.RoleManager, ActionRead, ResourceAnalytics, true},
		{"employee cannot read analytics", domain.RoleEmployee, ActionRead, ResourceAnalytics, false},

		{"unknown role", domain.Role("GUEST"), ActionRead, ResourceProject, false},
		{"unknown resource", domain.RoleAdmin, ActionRead, Resource("invoice"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPerform(tt.role, tt.action, tt.resource))
		})
	}
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	s := Subject{UserID: uuid.New(), Role: domain.RoleEmployee}

	err := Authorize(s, ActionCreate, ResourceTask)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	assert.NoError(t, Authorize(s, ActionList, ResourceTask))
}

func TestNewSubjectUsesAdminFlag(t *testing.T) {
	dept := uuid.New()
	u := &domain.User{Role: domain.RoleEmployee, IsAdmin: true, DepartmentID: &dept}
	u.ID = uuid.New()

	s := NewSubject(u)
	assert.Equal(t, domain.RoleAdmin, s.Role)
	assert.Equal(t, u.ID, s.UserID)
	assert.Equal(t, &dept, s.DepartmentID)
}
