package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/org-tasks-api/internal/domain"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestCanAccessTask(t *testing.T) {
	me := uuid.New()
	other := uuid.New()
	deptX := uuid.New()
	deptY := uuid.New()

	employee := Subject{UserID: me, Role: domain.RoleEmployee, DepartmentID: ptr(deptX)}
	homeless := Subject{UserID: me, Role: domain.RoleEmployee}

	tests := []struct {
		name    string
		subject Subject
		task    TaskFacts
		want    bool
	}{
		{
			name:    "admin always",
			subject: Subject{UserID: me, Role: domain.RoleAdmin},
			task:    TaskFacts{CreatorID: other},
			want:    true,
		},
		{
			name:    "creator",
			subject: employee,
			task:    TaskFacts{CreatorID: me, DepartmentID: ptr(deptY)},
			want:    true,
		},
		{
			name:    "assignee",
			subject: employee,
			task:    TaskFacts{CreatorID: other, AssigneeIDs: []uuid.UUID{other, me}},
			want:    true,
		},
		{
			name:    "same department",
			subject: employee,
			task:    TaskFacts{CreatorID: other, DepartmentID: ptr(deptX)},
			want:    true,
		},
		{
			name:    "other department",
			subject: employee,
			task:    TaskFacts{CreatorID: other, DepartmentID: ptr(deptY)},
			want:    false,
		},
		{
			name:    "no department on either side",
			subject: homeless,
			task:    TaskFacts{CreatorID: other},
			want:    false,
		},
		{
			name:    "project leader",
			subject: homeless,
			task:    TaskFacts{CreatorID: other, Project: &ProjectFacts{LeaderID: ptr(me)}},
			want:    true,
		},
		{
			name:    "project member",
			subject: homeless,
			task:    TaskFacts{CreatorID: other, Project: &ProjectFacts{MemberIDs: []uuid.UUID{me}}},
			want:    true,
		},
		{
			name:    "project primary department",
			subject: employee,
			task:    TaskFacts{CreatorID: other, Project: &ProjectFacts{DepartmentID: ptr(deptX)}},
			want:    true,
		},
		{
			name:    "project secondary department",
			subject: employee,
			task:    TaskFacts{CreatorID: other, Project: &ProjectFacts{DepartmentID: ptr(deptY), SecondaryDepartmentIDs: []uuid.UUID{deptX}}},
			want:    true,
		},
		{
			name:    "unrelated project",
			subject: employee,
			task:    TaskFacts{CreatorID: other, Project: &ProjectFacts{DepartmentID: ptr(deptY), MemberIDs: []uuid.UUID{other}}},
			want:    false,
		},
		{
			name:    "manager of another department",
			subject: Subject{UserID: me, Role: domain.RoleManager, DepartmentID: ptr(deptX)},
			task:    TaskFacts{CreatorID: other, DepartmentID: ptr(deptY)},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessTask(tt.subject, tt.task))
		})
	}
}

func TestCanModifyComment(t *testing.T) {
	author := uuid.New()
	dept := uuid.New()
	otherDept := uuid.New()

	facts := CommentFacts{AuthorID: author, TaskDepartmentID: ptr(dept)}

	assert.True(t, CanModifyComment(Subject{UserID: uuid.New(), Role: domain.RoleAdmin}, facts))
	assert.True(t, CanModifyComment(Subject{UserID: author, Role: domain.RoleEmployee}, facts))
	assert.True(t, CanModifyComment(Subject{UserID: uuid.New(), Role: domain.RoleManager, DepartmentID: ptr(dept)}, facts))
	assert.False(t, CanModifyComment(Subject{UserID: uuid.New(), Role: domain.RoleManager, DepartmentID: ptr(otherDept)}, facts))
	assert.False(t, CanModifyComment(Subject{UserID: uuid.New(), Role: domain.RoleEmployee, DepartmentID: ptr(dept)}, facts))
	assert.False(t, CanModifyComment(Subject{UserID: uuid.New(), Role: domain.RoleDirector}, facts))
}

func TestCanModifyProject(t *testing.T) {
	me := uuid.New()
	dept := uuid.New()
	manager := Subject{UserID: me, Role: domain.RoleManager, DepartmentID: ptr(dept)}

	assert.True(t, CanModifyProject(Subject{Role: domain.RoleDirector}, ProjectFacts{}))
	assert.True(t, CanModifyProject(manager, ProjectFacts{CreatorID: ptr(me)}))
	assert.True(t, CanModifyProject(manager, ProjectFacts{LeaderID: ptr(me)}))
	assert.True(t, CanModifyProject(manager, ProjectFacts{DepartmentID: ptr(dept)}))
	assert.True(t, CanModifyProject(manager, ProjectFacts{SecondaryDepartmentIDs: []uuid.UUID{dept}}))
	assert.False(t, CanModifyProject(manager, ProjectFacts{DepartmentID: ptr(uuid.New())}))
	assert.False(t, CanModifyProject(Subject{UserID: me, Role: domain.RoleEmployee}, ProjectFacts{CreatorID: ptr(me)}))
}

func TestCanAccessAttachment(t *testing.T) {
	me := uuid.New()
	other := uuid.New()
	s := Subject{UserID: me, Role: domain.RoleEmployee}

	tests := []struct {
		name  string
		facts AttachmentFacts
		want  bool
	}{
		{
			name:  "task reachable",
			facts: AttachmentFacts{Relation: domain.TaskRelation{TaskID: uuid.New()}, Task: &TaskFacts{CreatorID: me}},
			want:  true,
		},
		{
			name:  "task unreachable",
			facts: AttachmentFacts{Relation: domain.TaskRelation{TaskID: uuid.New()}, Task: &TaskFacts{CreatorID: other}},
			want:  false,
		},
		{
			name:  "task facts missing",
			facts: AttachmentFacts{Relation: domain.TaskRelation{TaskID: uuid.New()}},
			want:  false,
		},
		{
			name:  "project member",
			facts: AttachmentFacts{Relation: domain.ProjectRelation{ProjectID: uuid.New()}, Project: &ProjectFacts{MemberIDs: []uuid.UUID{me}}},
			want:  true,
		},
		{
			name:  "project department alone is not enough",
			facts: AttachmentFacts{Relation: domain.ProjectRelation{ProjectID: uuid.New()}, Project: &ProjectFacts{CreatorID: ptr(other)}},
			want:  false,
		},
		{
			name:  "own profile",
			facts: AttachmentFacts{Relation: domain.UserRelation{UserID: me}},
			want:  true,
		},
		{
			name:  "someone else's profile",
			facts: AttachmentFacts{Relation: domain.UserRelation{UserID: other}, UploadedBy: me},
			want:  false,
		},
		{
			name:  "unrelated attachment by uploader",
			facts: AttachmentFacts{UploadedBy: me},
			want:  true,
		},
		{
			name:  "unrelated attachment by someone else",
			facts: AttachmentFacts{UploadedBy: other},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessAttachment(s, tt.facts))
		})
	}

	assert.True(t, CanAccessAttachment(Subject{Role: domain.RoleAdmin}, AttachmentFacts{Relation: domain.UserRelation{UserID: other}}))
}

func TestCanModifyLoanAndEmergency(t *testing.T) {
	src, dst, elsewhere := uuid.New(), uuid.New(), uuid.New()
	loan := LoanFacts{EmployeeID: uuid.New(), SourceDepartmentID: src, DestinationDepartmentID: dst}

	assert.True(t, CanModifyLoan(Subject{Role: domain.RoleManager, DepartmentID: ptr(dst)}, loan))
	assert.False(t, CanModifyLoan(Subject{Role: domain.RoleManager, DepartmentID: ptr(elsewhere)}, loan))
	assert.False(t, CanModifyLoan(Subject{Role: domain.RoleEmployee, DepartmentID: ptr(src)}, loan))

	assert.True(t, CanModifyEmergency(Subject{Role: domain.RoleManager, DepartmentID: ptr(src)}, ptr(src)))
	assert.False(t, CanModifyEmergency(Subject{Role: domain.RoleManager, DepartmentID: ptr(src)}, nil))
	assert.True(t, CanModifyEmergency(Subject{Role: domain.RoleAdmin}, nil))
}
