package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/org-tasks-api/internal/domain"
)

func TestScopeFor(t *testing.T) {
	dept := uuid.New()
	admin := Subject{UserID: uuid.New(), Role: domain.RoleAdmin}
	director := Subject{UserID: uuid.New(), Role: domain.RoleDirector}
	manager := Subject{UserID: uuid.New(), Role: domain.RoleManager, DepartmentID: &dept}
	orphanManager := Subject{UserID: uuid.New(), Role: domain.RoleManager}
	employee := Subject{UserID: uuid.New(), Role: domain.RoleEmployee, DepartmentID: &dept}

	tests := []struct {
		name     string
		subject  Subject
		resource Resource
		want     ScopeKind
	}{
		{"admin departments", admin, ResourceDepartment, ScopeAll},
		{"director departments", director, ResourceDepartment, ScopeAll},
		{"manager departments", manager, ResourceDepartment, ScopeDepartment},
		{"manager without department", orphanManager, ResourceDepartment, ScopeNone},
		{"employee departments", employee, ResourceDepartment, ScopeNone},

		{"director users", director, ResourceUser, ScopeAll},
		{"manager users", manager, ResourceUser, ScopeDepartment},
		{"orphan manager users", orphanManager, ResourceUser, ScopeSelf},
		{"employee users", employee, ResourceUser, ScopeSelf},

		{"admin tasks", admin, ResourceTask, ScopeAll},
		{"director tasks", director, ResourceTask, ScopeReachable},
		{"employee tasks", employee, ResourceTask, ScopeReachable},

		{"employee projects", employee, ResourceProject, ScopeAll},

		{"admin attachments", admin, ResourceAttachment, ScopeAll},
		{"manager attachments", manager, ResourceAttachment, ScopeReachable},

		{"manager loans", manager, ResourceLoan, ScopeDepartment},
		{"employee loans", employee, ResourceLoan, ScopeSelf},
		{"director loans", director, ResourceLoan, ScopeSelf},

		{"manager emergencies", manager, ResourceEmergency, ScopeDepartment},
		{"employee emergencies", employee, ResourceEmergency, ScopeNone},

		{"admin conversations", admin, ResourceConversation, ScopeSelf},
		{"admin notifications", admin, ResourceNotification, ScopeSelf},

		{"unknown resource", admin, Resource("invoice"), ScopeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScopeFor(tt.subject, tt.resource)
			assert.Equal(t, tt.want, got.Kind, "got %s", got.Kind)
			assert.Equal(t, tt.subject.UserID, got.UserID)
		})
	}
}
