package policy

import (
	"slices"

	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
)

// ProjectFacts - связи проекта, загруженные в момент проверки
type ProjectFacts struct {
	CreatorID              *uuid.UUID
	LeaderID               *uuid.UUID
	MemberIDs              []uuid.UUID
	DepartmentID           *uuid.UUID
	SecondaryDepartmentIDs []uuid.UUID
}

// TaskFacts - связи задачи, загруженные в момент проверки
type TaskFacts struct {
	CreatorID    uuid.UUID
	AssigneeIDs  []uuid.UUID
	DepartmentID *uuid.UUID
	Project      *ProjectFacts
}

// CommentFacts - автор комментария и подразделение его задачи
type CommentFacts struct {
	AuthorID         uuid.UUID
	TaskDepartmentID *uuid.UUID
}

// AttachmentFacts - связь вложения и факты о её цели.
// Task заполняется для ссылки на задачу, Project - для ссылки на проект.
type AttachmentFacts struct {
	Relation   domain.Relation
	UploadedBy uuid.UUID
	Task       *TaskFacts
	Project    *ProjectFacts
}

// LoanFacts - подразделения перевода и переводимый сотрудник
type LoanFacts struct {
	EmployeeID              uuid.UUID
	SourceDepartmentID      uuid.UUID
	DestinationDepartmentID uuid.UUID
}

// CanAccessTask - объектное правило задачи.
// Порядок: создатель, исполнитель, подразделение задачи, руководитель проекта,
// участник проекта, основное или дополнительное подразделение проекта.
func CanAccessTask(s Subject, t TaskFacts) bool {
	if s.IsAdmin() {
		return true
	}
	if t.CreatorID == s.UserID {
		return true
	}
	if slices.Contains(t.AssigneeIDs, s.UserID) {
		return true
	}
	if s.InDepartment(t.DepartmentID) {
		return true
	}
	if p := t.Project; p != nil {
		if s.Is(p.LeaderID) {
			return true
		}
		if slices.Contains(p.MemberIDs, s.UserID) {
			return true
		}
		if s.InDepartment(p.DepartmentID) || s.InAnyDepartment(p.SecondaryDepartmentIDs) {
			return true
		}
	}
	return false
}

// CanModifyComment - администратор, руководитель подразделения задачи или автор
func CanModifyComment(s Subject, c CommentFacts) bool {
	if s.IsAdmin() {
		return true
	}
	if s.Role == domain.RoleManager && s.InDepartment(c.TaskDepartmentID) {
		return true
	}
	return c.AuthorID == s.UserID
}

// CanModifyProject - изменение и удаление проекта
func CanModifyProject(s Subject, p ProjectFacts) bool {
	switch s.Role {
	case domain.RoleAdmin, domain.RoleDirector:
		return true
	case domain.RoleManager:
		return s.Is(p.CreatorID) ||
			s.Is(p.LeaderID) ||
			s.InDepartment(p.DepartmentID) ||
			s.InAnyDepartment(p.SecondaryDepartmentIDs)
	case domain.RoleEmployee:
		return false
	}
	return false
}

// reachesProject - создатель, руководитель или участник проекта
func reachesProject(s Subject, p ProjectFacts) bool {
	return s.Is(p.CreatorID) || s.Is(p.LeaderID) || slices.Contains(p.MemberIDs, s.UserID)
}

// CanAccessAttachment - правило вложения, выбираемое по типу связи.
// Вложение без связи доступно только загрузившему его.
func CanAccessAttachment(s Subject, a AttachmentFacts) bool {
	if s.IsAdmin() {
		return true
	}
	if a.Relation == nil {
		return a.UploadedBy == s.UserID
	}

	switch rel := a.Relation.(type) {
	case domain.TaskRelation:
		return a.Task != nil && CanAccessTask(s, *a.Task)
	case domain.ProjectRelation:
		return a.Project != nil && reachesProject(s, *a.Project)
	case domain.UserRelation:
		return rel.UserID == s.UserID
	default:
		return false
	}
}

// CanAttachTo - может ли субъект прикрепить файл к цели.
// Используется то же правило, что и для чтения вложений.
func CanAttachTo(s Subject, rel domain.Relation, task *TaskFacts, project *ProjectFacts) bool {
	return CanAccessAttachment(s, AttachmentFacts{
		Relation:   rel,
		UploadedBy: s.UserID,
		Task:       task,
		Project:    project,
	})
}

// CanModifyLoan - руководитель исходного или принимающего подразделения
func CanModifyLoan(s Subject, l LoanFacts) bool {
	switch s.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return s.InAnyDepartment([]uuid.UUID{l.SourceDepartmentID, l.DestinationDepartmentID})
	case domain.RoleDirector, domain.RoleEmployee:
		return false
	}
	return false
}

// CanModifyEmergency - руководитель подразделения режима
func CanModifyEmergency(s Subject, departmentID *uuid.UUID) bool {
	switch s.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return s.InDepartment(departmentID)
	case domain.RoleDirector, domain.RoleEmployee:
		return false
	}
	return false
}

// IsParticipant - субъект входит в число участников диалога
func IsParticipant(s Subject, participantIDs []uuid.UUID) bool {
	return slices.Contains(participantIDs, s.UserID)
}
