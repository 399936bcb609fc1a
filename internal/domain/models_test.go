package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskValidateRelation(t *testing.T) {
	dept := uuid.New()
	project := uuid.New()

	tests := []struct {
		name      string
		task      Task
		wantField string
	}{
		{"personnel without links", Task{Type: TaskPersonnel}, ""},
		{"personnel with project", Task{Type: TaskPersonnel, ProjectID: &project}, "project_id"},
		{"personnel with department", Task{Type: TaskPersonnel, DepartmentID: &dept}, "department_id"},
		{"service with department", Task{Type: TaskService, DepartmentID: &dept}, ""},
		{"service without department", Task{Type: TaskService}, "department_id"},
		{"service with both", Task{Type: TaskService, DepartmentID: &dept, ProjectID: &project}, "project_id"},
		{"project with project", Task{Type: TaskProject, ProjectID: &project}, ""},
		{"project without project", Task{Type: TaskProject}, "project_id"},
		{"project with department", Task{Type: TaskProject, ProjectID: &project, DepartmentID: &dept}, "department_id"},
		{"unknown type", Task{Type: "meeting"}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.ValidateRelation()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestParseRelation(t *testing.T) {
	id := uuid.New()

	rel, err := ParseRelation("", nil)
	require.NoError(t, err)
	assert.Nil(t, rel)

	rel, err = ParseRelation("task", &id)
	require.NoError(t, err)
	assert.Equal(t, TaskRelation{TaskID: id}, rel)

	rel, err = ParseRelation("user", &id)
	require.NoError(t, err)
	assert.Equal(t, RelationUser, rel.Kind())
	assert.Equal(t, id, rel.TargetID())

	_, err = ParseRelation("task", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseRelation("", &id)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseRelation("invoice", &id)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "related_to", vErr.Field)
}

func TestAttachmentRelationRoundTrip(t *testing.T) {
	id := uuid.New()
	var a Attachment

	a.SetRelation(ProjectRelation{ProjectID: id})
	assert.Equal(t, RelationProject, a.RelatedTo)

	rel, err := a.Relation()
	require.NoError(t, err)
	assert.Equal(t, ProjectRelation{ProjectID: id}, rel)

	a.SetRelation(nil)
	rel, err = a.Relation()
	require.NoError(t, err)
	assert.Nil(t, rel)
}

func TestUserEffectiveRole(t *testing.T) {
	u := User{Role: RoleEmployee}
	assert.Equal(t, RoleEmployee, u.EffectiveRole())

	u.IsAdmin = true
	assert.Equal(t, RoleAdmin, u.EffectiveRole())
}
