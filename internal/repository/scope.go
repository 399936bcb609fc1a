package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/org-tasks-api/internal/policy"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит шаблон LIKE для поиска подстроки; спецсимволы запроса
// экранируются и совпадают буквально (используется вместе с ESCAPE '\')
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// Перевод policy.Scope в условия SQL. Предикат строится до выполнения запроса,
// выборка никогда не фильтруется в памяти.

func nothing(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

func scopeArgs(s policy.Scope) map[string]any {
	args := map[string]any{"user": s.UserID}
	if s.DepartmentID != nil {
		args["dept"] = *s.DepartmentID
	}
	return args
}

// reachableTasksSQL - условие над таблицей tasks под псевдонимом alias:
// создатель, исполнитель, подразделение задачи, проект (руководитель, участник,
// основное или дополнительное подразделение)
func reachableTasksSQL(alias string, s policy.Scope) string {
	var b strings.Builder
	b.WriteString(alias + ".creator_id = @user")
	b.WriteString(" OR " + alias + ".id IN (SELECT ta.task_id FROM task_assignees ta WHERE ta.user_id = @user)")
	if s.DepartmentID != nil {
		b.WriteString(" OR " + alias + ".department_id = @dept")
	}

	b.WriteString(" OR " + alias + ".project_id IN (SELECT p.id FROM projects p WHERE p.leader_id = @user")
	if s.DepartmentID != nil {
		b.WriteString(" OR p.department_id = @dept")
	}
	b.WriteString(")")
	b.WriteString(" OR " + alias + ".project_id IN (SELECT pm.project_id FROM project_members pm WHERE pm.user_id = @user)")
	if s.DepartmentID != nil {
		b.WriteString(" OR " + alias + ".project_id IN (SELECT pd.project_id FROM project_departments pd WHERE pd.department_id = @dept)")
	}
	return b.String()
}

// reachableProjectsSQL - проекты, где субъект создатель, руководитель или участник
func reachableProjectsSQL(alias string) string {
	return alias + ".creator_id = @user OR " + alias + ".leader_id = @user" +
		" OR " + alias + ".id IN (SELECT pm.project_id FROM project_members pm WHERE pm.user_id = @user)"
}

func taskScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeReachable:
			return db.Where("("+reachableTasksSQL("tasks", s)+")", scopeArgs(s))
		default:
			return nothing(db)
		}
	}
}

func commentScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeReachable:
			return db.Where("comments.task_id IN (SELECT t.id FROM tasks t WHERE "+reachableTasksSQL("t", s)+")", scopeArgs(s))
		default:
			return nothing(db)
		}
	}
}

func attachmentScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeReachable:
			cond := "(attachments.related_to = 'task' AND attachments.related_id IN (SELECT t.id FROM tasks t WHERE " + reachableTasksSQL("t", s) + "))" +
				" OR (attachments.related_to = 'project' AND attachments.related_id IN (SELECT p2.id FROM projects p2 WHERE " + reachableProjectsSQL("p2") + "))" +
				" OR (attachments.related_to = 'user' AND attachments.related_id = @user)" +
				" OR (attachments.related_to = '' AND attachments.uploaded_by = @user)"
			return db.Where("("+cond+")", scopeArgs(s))
		default:
			return nothing(db)
		}
	}
}

func departmentScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeDepartment:
			return db.Where("departments.id = ?", *s.DepartmentID)
		default:
			return nothing(db)
		}
	}
}

func userScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeDepartment:
			return db.Where("users.department_id = ?", *s.DepartmentID)
		case policy.ScopeSelf:
			return db.Where("users.id = ?", s.UserID)
		default:
			return nothing(db)
		}
	}
}

func loanScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeDepartment:
			return db.Where("(employee_loans.source_department_id = @dept OR employee_loans.destination_department_id = @dept)", scopeArgs(s))
		case policy.ScopeSelf:
			return db.Where("employee_loans.employee_id = ?", s.UserID)
		default:
			return nothing(db)
		}
	}
}

func emergencyScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeDepartment:
			return db.Where("emergency_modes.department_id = ?", *s.DepartmentID)
		default:
			return nothing(db)
		}
	}
}

func projectScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch s.Kind {
		case policy.ScopeAll:
			return db
		case policy.ScopeReachable:
			return db.Where("("+reachableProjectsSQL("projects")+")", scopeArgs(s))
		default:
			return nothing(db)
		}
	}
}

const participantSubquery = "SELECT cp.conversation_id FROM conversation_participants cp WHERE cp.user_id = ?"

func conversationScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Kind != policy.ScopeSelf {
			return nothing(db)
		}
		return db.Where("conversations.id IN ("+participantSubquery+")", s.UserID)
	}
}

func messageScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Kind != policy.ScopeSelf {
			return nothing(db)
		}
		return db.Where("messages.conversation_id IN ("+participantSubquery+")", s.UserID)
	}
}

func notificationScope(s policy.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.Kind != policy.ScopeSelf {
			return nothing(db)
		}
		return db.Where("notifications.user_id = ?", s.UserID)
	}
}
