package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/database/dbtest"
	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
)

type fixture struct {
	db          *gorm.DB
	users       repository.UserRepository
	departments repository.DepartmentRepository
	projects    repository.ProjectRepository
	tasks       repository.TaskRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	loans       repository.LoanRepository
	tx          repository.TxManager
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.New(t)
	return &fixture{
		db:          db,
		users:       repository.NewUserRepository(db),
		departments: repository.NewDepartmentRepository(db),
		projects:    repository.NewProjectRepository(db),
		tasks:       repository.NewTaskRepository(db),
		comments:    repository.NewCommentRepository(db),
		attachments: repository.NewAttachmentRepository(db),
		loans:       repository.NewLoanRepository(db),
		tx:          repository.NewTxManager(db),
	}
}

func (f *fixture) department(t *testing.T, name string) *domain.Department {
	t.Helper()
	dept := &domain.Department{Name: name, Color: domain.DefaultDepartmentColor, WorkloadCapacity: 100}
	require.NoError(t, f.departments.Create(context.Background(), dept))
	return dept
}

func (f *fixture) user(t *testing.T, username string, role domain.Role, dept *domain.Department) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x", Role: role, IsActive: true}
	if dept != nil {
		u.DepartmentID = &dept.ID
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) task(t *testing.T, title string, creator *domain.User, mutate func(*domain.Task)) *domain.Task {
	t.Helper()
	task := &domain.Task{
		Type:      domain.TaskPersonnel,
		Title:     title,
		Status:    domain.TaskTodo,
		Priority:  domain.PriorityMedium,
		CreatorID: creator.ID,
	}
	if mutate != nil {
		mutate(task)
	}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func titles(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func TestTaskScope_EmployeeSeesCreatedAndAssigned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	deptX := f.department(t, "X")
	deptY := f.department(t, "Y")
	a := f.user(t, "alice", domain.RoleEmployee, deptX)
	boss := f.user(t, "boss", domain.RoleManager, deptY)

	f.task(t, "created by A", a, nil)
	assigned := f.task(t, "assigned to A", boss, nil)
	require.NoError(t, f.tasks.ReplaceAssignees(ctx, assigned.ID, []uuid.UUID{a.ID}))
	f.task(t, "unrelated in Y", boss, func(task *domain.Task) {
		task.Type = domain.TaskService
		task.DepartmentID = &deptY.ID
	})

	scope := policy.ScopeFor(policy.NewSubject(a), policy.ResourceTask)
	got, err := f.tasks.List(ctx, scope, repository.TaskFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"created by A", "assigned to A"}, titles(got))

	all, err := f.tasks.List(ctx, policy.Scope{Kind: policy.ScopeAll}, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskScope_ReachesProjectAndDepartmentTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	deptX := f.department(t, "X")
	deptY := f.department(t, "Y")
	deptZ := f.department(t, "Z")
	admin := f.user(t, "root", domain.RoleAdmin, nil)
	member := f.user(t, "member", domain.RoleEmployee, nil)
	inX := f.user(t, "in-x", domain.RoleEmployee, deptX)

	project := &domain.Project{Name: "Apollo", Status: domain.ProjectActive, RiskLevel: domain.RiskLow, CreatorID: &admin.ID, DepartmentID: &deptY.ID}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.projects.ReplaceMembers(ctx, project.ID, []uuid.UUID{member.ID}))
	require.NoError(t, f.projects.ReplaceDepartments(ctx, project.ID, []uuid.UUID{deptX.ID}))

	f.task(t, "project task", admin, func(task *domain.Task) {
		task.Type = domain.TaskProject
		task.ProjectID = &project.ID
	})
	f.task(t, "service task in X", admin, func(task *domain.Task) {
		task.Type = domain.TaskService
		task.DepartmentID = &deptX.ID
	})
	f.task(t, "service task in Z", admin, func(task *domain.Task) {
		task.Type = domain.TaskService
		task.DepartmentID = &deptZ.ID
	})

	got, err := f.tasks.List(ctx, policy.ScopeFor(policy.NewSubject(member), policy.ResourceTask), repository.TaskFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project task"}, titles(got))

	got, err = f.tasks.List(ctx, policy.ScopeFor(policy.NewSubject(inX), policy.ResourceTask), repository.TaskFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"project task", "service task in X"}, titles(got))
}

func TestTaskSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner", domain.RoleManager, f.department(t, "Ops"))

	f.task(t, "Prepare Quarterly report", owner, nil)
	f.task(t, "Fix printer", owner, func(task *domain.Task) { task.Description = "the REPORT printer" })
	f.task(t, "Order lunch", owner, nil)

	got, err := f.tasks.Search(ctx, policy.Scope{Kind: policy.ScopeAll}, "report")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Prepare Quarterly report", "Fix printer"}, titles(got))
}

func TestSearch_WildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner", domain.RoleManager, f.department(t, "Ops"))
	all := policy.Scope{Kind: policy.ScopeAll}

	f.task(t, "quarterly report", owner, nil)
	f.task(t, "rename snake_case fields", owner, nil)
	f.task(t, "reach 100% coverage", owner, nil)
	f.task(t, `fix C:\temp path`, owner, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"_", []string{"rename snake_case fields"}},
		{"%", []string{"reach 100% coverage"}},
		{"q_a", []string{}},
		{"100%", []string{"reach 100% coverage"}},
		{`:\t`, []string{`fix C:\temp path`}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := f.tasks.Search(ctx, all, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, titles(got))
		})
	}

	for _, name := range []string{"Budget 2026", "cost_center cleanup"} {
		require.NoError(t, f.projects.Create(ctx, &domain.Project{Name: name, Status: domain.ProjectActive, RiskLevel: domain.RiskLow}))
	}
	projects, err := f.projects.Search(ctx, all, "_")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "cost_center cleanup", projects[0].Name)
}

func TestTaskFacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dept := f.department(t, "X")
	creator := f.user(t, "creator", domain.RoleManager, dept)
	assignee := f.user(t, "assignee", domain.RoleEmployee, nil)
	project := &domain.Project{Name: "P", Status: domain.ProjectPlanning, RiskLevel: domain.RiskLow, LeaderID: &creator.ID}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.projects.ReplaceMembers(ctx, project.ID, []uuid.UUID{assignee.ID, assignee.ID}))

	task := f.task(t, "T", creator, func(task *domain.Task) {
		task.Type = domain.TaskProject
		task.ProjectID = &project.ID
	})
	require.NoError(t, f.tasks.ReplaceAssignees(ctx, task.ID, []uuid.UUID{assignee.ID}))

	facts, err := f.tasks.Facts(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, creator.ID, facts.CreatorID)
	assert.Equal(t, []uuid.UUID{assignee.ID}, facts.AssigneeIDs)
	require.NotNil(t, facts.Project)
	assert.Equal(t, &creator.ID, facts.Project.LeaderID)
	assert.Equal(t, []uuid.UUID{assignee.ID}, facts.Project.MemberIDs)

	_, err = f.tasks.Facts(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUserRepository_SecondManagerIsValidationError(t *testing.T) {
	f := newFixture(t)
	dept := f.department(t, "Logistics")
	z := f.user(t, "zed", domain.RoleManager, dept)

	second := &domain.User{Username: "m2", PasswordHash: "x", Role: domain.RoleManager, DepartmentID: &dept.ID, IsActive: true}
	err := f.users.Create(context.Background(), second)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrDepartmentHasManager)

	manager, err := f.users.ManagerOf(context.Background(), dept.ID)
	require.NoError(t, err)
	require.NotNil(t, manager)
	assert.Equal(t, z.ID, manager.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice", domain.RoleEmployee, nil)

	err := f.users.Create(context.Background(), &domain.User{Username: "alice", PasswordHash: "x", Role: domain.RoleEmployee})

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "username", vErr.Field)
}

func TestUserScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	deptX := f.department(t, "X")
	deptY := f.department(t, "Y")
	manager := f.user(t, "manager", domain.RoleManager, deptX)
	f.user(t, "colleague", domain.RoleEmployee, deptX)
	outsider := f.user(t, "outsider", domain.RoleEmployee, deptY)

	got, err := f.users.List(ctx, policy.ScopeFor(policy.NewSubject(manager), policy.ResourceUser))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.users.List(ctx, policy.ScopeFor(policy.NewSubject(outsider), policy.ResourceUser))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, outsider.ID, got[0].ID)

	_, err = f.users.GetVisible(ctx, policy.ScopeFor(policy.NewSubject(outsider), policy.ResourceUser), manager.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAttachmentScope_TaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dept := f.department(t, "X")
	creator := f.user(t, "creator", domain.RoleManager, dept)
	colleague := f.user(t, "colleague", domain.RoleEmployee, dept)
	stranger := f.user(t, "stranger", domain.RoleEmployee, nil)

	task := f.task(t, "T", creator, func(task *domain.Task) {
		task.Type = domain.TaskService
		task.DepartmentID = &dept.ID
	})

	attachment := &domain.Attachment{Name: "plan.pdf", StorageKey: "k", Size: 10, Checksum: "abc", UploadedBy: creator.ID}
	attachment.SetRelation(domain.TaskRelation{TaskID: task.ID})
	require.NoError(t, f.attachments.Create(ctx, attachment))

	rel := domain.TaskRelation{TaskID: task.ID}
	for _, u := range []*domain.User{creator, colleague} {
		got, err := f.attachments.List(ctx, policy.ScopeFor(policy.NewSubject(u), policy.ResourceAttachment), rel)
		require.NoError(t, err)
		require.Len(t, got, 1, u.Username)
		assert.Equal(t, attachment.ID, got[0].ID)
	}

	got, err := f.attachments.List(ctx, policy.ScopeFor(policy.NewSubject(stranger), policy.ResourceAttachment), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAttachmentScope_UserAndUnlinked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	owner := f.user(t, "owner", domain.RoleEmployee, nil)
	other := f.user(t, "other", domain.RoleEmployee, nil)

	avatar := &domain.Attachment{Name: "me.png", StorageKey: "a", Size: 1, Checksum: "c", UploadedBy: other.ID}
	avatar.SetRelation(domain.UserRelation{UserID: owner.ID})
	require.NoError(t, f.attachments.Create(ctx, avatar))

	loose := &domain.Attachment{Name: "notes.txt", StorageKey: "b", Size: 1, Checksum: "c", UploadedBy: other.ID}
	require.NoError(t, f.attachments.Create(ctx, loose))

	got, err := f.attachments.List(ctx, policy.ScopeFor(policy.NewSubject(owner), policy.ResourceAttachment), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, avatar.ID, got[0].ID)

	got, err = f.attachments.List(ctx, policy.ScopeFor(policy.NewSubject(other), policy.ResourceAttachment), nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, loose.ID, got[0].ID)
}

func TestCommentFacts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dept := f.department(t, "X")
	author := f.user(t, "author", domain.RoleEmployee, dept)
	task := f.task(t, "T", author, func(task *domain.Task) {
		task.Type = domain.TaskService
		task.DepartmentID = &dept.ID
	})

	comment := &domain.Comment{TaskID: task.ID, AuthorID: author.ID, Content: "hi"}
	require.NoError(t, f.comments.Create(ctx, comment))

	facts, err := f.comments.Facts(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, facts.AuthorID)
	assert.Equal(t, &dept.ID, facts.TaskDepartmentID)

	got, err := f.comments.List(ctx, policy.Scope{Kind: policy.ScopeAll}, &task.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProjectRecomputeProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "owner", domain.RoleAdmin, nil)

	project := &domain.Project{Name: "P", Status: domain.ProjectActive, RiskLevel: domain.RiskLow}
	require.NoError(t, f.projects.Create(ctx, project))

	for i, status := range []domain.TaskStatus{domain.TaskCompleted, domain.TaskTodo, domain.TaskCompleted, domain.TaskReview} {
		f.task(t, string(rune('a'+i)), owner, func(task *domain.Task) {
			task.Type = domain.TaskProject
			task.ProjectID = &project.ID
			task.Status = status
		})
	}

	progress, err := f.projects.RecomputeProgress(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, progress)

	stored, err := f.projects.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Progress)
}

func TestDepartmentDeleteKeepsMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dept := f.department(t, "Old")
	other := f.department(t, "Other")
	member := f.user(t, "member", domain.RoleEmployee, dept)
	loan := &domain.EmployeeLoan{
		EmployeeID:              member.ID,
		SourceDepartmentID:      dept.ID,
		DestinationDepartmentID: other.ID,
		StartDate:               time.Now(),
		EndDate:                 time.Now().AddDate(0, 0, 7),
		Status:                  domain.LoanPending,
		CreatedByID:             member.ID,
	}
	require.NoError(t, f.loans.Create(ctx, loan))

	require.NoError(t, f.departments.Delete(ctx, dept.ID))

	reloaded, err := f.users.GetByID(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DepartmentID)

	_, err = f.loans.GetByID(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)

	assert.ErrorIs(t, f.departments.Delete(ctx, dept.ID), domain.ErrDepartmentNotFound)
}

func TestLoanScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	src := f.department(t, "Src")
	dst := f.department(t, "Dst")
	elsewhere := f.department(t, "Elsewhere")
	employee := f.user(t, "employee", domain.RoleEmployee, src)
	dstManager := f.user(t, "dst-manager", domain.RoleManager, dst)
	otherManager := f.user(t, "other-manager", domain.RoleManager, elsewhere)

	loan := &domain.EmployeeLoan{
		EmployeeID:              employee.ID,
		SourceDepartmentID:      src.ID,
		DestinationDepartmentID: dst.ID,
		StartDate:               time.Now(),
		EndDate:                 time.Now().AddDate(0, 1, 0),
		Status:                  domain.LoanApproved,
		CreatedByID:             dstManager.ID,
	}
	require.NoError(t, f.loans.Create(ctx, loan))

	for _, tc := range []struct {
		user *domain.User
		want int
	}{
		{employee, 1},
		{dstManager, 1},
		{otherManager, 0},
	} {
		got, err := f.loans.List(ctx, policy.ScopeFor(policy.NewSubject(tc.user), policy.ResourceLoan))
		require.NoError(t, err)
		assert.Len(t, got, tc.want, tc.user.Username)
	}
}

func TestTxManager_RollsBackEveryStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	failure := errors.New("boom")

	var deptID uuid.UUID
	err := f.tx.WithinTx(ctx, func(ctx context.Context) error {
		dept := &domain.Department{Name: "Atomic", Color: domain.DefaultDepartmentColor}
		if err := f.departments.Create(ctx, dept); err != nil {
			return err
		}
		deptID = dept.ID

		// вложенный вызов работает в той же транзакции
		return f.tx.WithinTx(ctx, func(ctx context.Context) error {
			manager := &domain.User{Username: "m", PasswordHash: "x", Role: domain.RoleManager, DepartmentID: &dept.ID}
			if err := f.users.Create(ctx, manager); err != nil {
				return err
			}
			return failure
		})
	})
	require.ErrorIs(t, err, failure)

	_, err = f.departments.GetByID(ctx, deptID)
	assert.ErrorIs(t, err, domain.ErrDepartmentNotFound)
	exists, err := f.users.ExistsByUsername(ctx, "m")
	require.NoError(t, err)
	assert.False(t, exists)
}
