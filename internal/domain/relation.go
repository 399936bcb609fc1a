package domain

import (
	"github.com/google/uuid"
)

// RelationKind - тип сущности, к которой привязано вложение
type RelationKind string

const (
	RelationTask    RelationKind = "task"
	RelationProject RelationKind = "project"
	RelationUser    RelationKind = "user"
)

// Relation - ссылка вложения на задачу, проект или пользователя.
// Реализуется только типами этого пакета.
type Relation interface {
	Kind() RelationKind
	TargetID() uuid.UUID
	relation()
}

// TaskRelation - вложение задачи
type TaskRelation struct{ TaskID uuid.UUID }

// ProjectRelation - вложение проекта
type ProjectRelation struct{ ProjectID uuid.UUID }

// UserRelation - вложение профиля пользователя
type UserRelation struct{ UserID uuid.UUID }

func (TaskRelation) Kind() RelationKind    { return RelationTask }
func (ProjectRelation) Kind() RelationKind { return RelationProject }
func (UserRelation) Kind() RelationKind    { return RelationUser }

func (r TaskRelation) TargetID() uuid.UUID    { return r.TaskID }
func (r ProjectRelation) TargetID() uuid.UUID { return r.ProjectID }
func (r UserRelation) TargetID() uuid.UUID    { return r.UserID }

func (TaskRelation) relation()    {}
func (ProjectRelation) relation() {}
func (UserRelation) relation()    {}

// ParseRelation собирает ссылку из пары (kind, id).
// Оба значения должны быть заданы или оба отсутствовать; в последнем случае возвращается nil.
func ParseRelation(kind string, id *uuid.UUID) (Relation, error) {
	if kind == "" && id == nil {
		return nil, nil
	}
	if kind == "" {
		return nil, NewValidationError("related_to", "related_to is required when related_id is set")
	}
	if id == nil || *id == uuid.Nil {
		return nil, NewValidationError("related_id", "related_id is required when related_to is set")
	}

	switch RelationKind(kind) {
	case RelationTask:
		return TaskRelation{TaskID: *id}, nil
	case RelationProject:
		return ProjectRelation{ProjectID: *id}, nil
	case RelationUser:
		return UserRelation{UserID: *id}, nil
	default:
		return nil, NewValidationError("related_to", `related_to must be "task", "project" or "user"`)
	}
}
