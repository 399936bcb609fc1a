package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
)

// ProjectRepository определяет интерфейс для работы с проектами
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	List(ctx context.Context, scope policy.Scope) ([]domain.Project, error)
	Search(ctx context.Context, scope policy.Scope, query string) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Facts(ctx context.Context, id uuid.UUID) (*policy.ProjectFacts, error)
	ReplaceMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error
	ReplaceDepartments(ctx context.Context, projectID uuid.UUID, departmentIDs []uuid.UUID) error
	RecomputeProgress(ctx context.Context, id uuid.UUID) (int, error)
	CountTasks(ctx context.Context, id uuid.UUID) (int64, error)
}

type projectRepository struct {
	base
}

// NewProjectRepository создаёт новый экземпляр репозитория
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{base{db: db}}
}

func withProjectLinks(db *gorm.DB) *gorm.DB {
	return db.Preload("Members").Preload("Departments")
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Create(project).Error)
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	err := withProjectLinks(r.conn(ctx)).First(&project, "projects.id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrProjectNotFound)
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, scope policy.Scope) ([]domain.Project, error) {
	var projects []domain.Project
	err := withProjectLinks(r.conn(ctx)).
		Scopes(projectScope(scope)).
		Order("projects.created_at DESC").
		Find(&projects).Error
	return projects, err
}

// Search - поиск без учёта регистра по названию и описанию
func (r *projectRepository) Search(ctx context.Context, scope policy.Scope, query string) ([]domain.Project, error) {
	var projects []domain.Project
	pattern := containsPattern(query)
	err := withProjectLinks(r.conn(ctx)).
		Scopes(projectScope(scope)).
		Where(`(LOWER(projects.name) LIKE LOWER(?) ESCAPE '\' OR LOWER(projects.description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern).
		Order("projects.created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	return translateError(r.conn(ctx).Omit(clause.Associations).Save(project).Error)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.conn(ctx)
	if err := db.Exec("DELETE FROM project_members WHERE project_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM project_departments WHERE project_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Where("related_to = ? AND related_id = ?", domain.RelationProject, id).Delete(&domain.Attachment{}).Error; err != nil {
		return err
	}
	result := db.Delete(&domain.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *projectRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Project{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Facts загружает связи проекта для объектной проверки
func (r *projectRepository) Facts(ctx context.Context, id uuid.UUID) (*policy.ProjectFacts, error) {
	db := r.conn(ctx)

	var project domain.Project
	if err := db.Select("id", "creator_id", "leader_id", "department_id").First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrProjectNotFound)
	}

	facts := &policy.ProjectFacts{
		CreatorID:    project.CreatorID,
		LeaderID:     project.LeaderID,
		DepartmentID: project.DepartmentID,
	}
	if err := db.Table("project_members").Where("project_id = ?", id).Pluck("user_id", &facts.MemberIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Table("project_departments").Where("project_id = ?", id).Pluck("department_id", &facts.SecondaryDepartmentIDs).Error; err != nil {
		return nil, err
	}
	return facts, nil
}

func (r *projectRepository) ReplaceMembers(ctx context.Context, projectID uuid.UUID, userIDs []uuid.UUID) error {
	return replaceLinks(r.conn(ctx), "project_members", "project_id", "user_id", projectID, userIDs)
}

func (r *projectRepository) ReplaceDepartments(ctx context.Context, projectID uuid.UUID, departmentIDs []uuid.UUID) error {
	return replaceLinks(r.conn(ctx), "project_departments", "project_id", "department_id", projectID, departmentIDs)
}

// RecomputeProgress пересчитывает прогресс как долю завершённых задач
func (r *projectRepository) RecomputeProgress(ctx context.Context, id uuid.UUID) (int, error) {
	db := r.conn(ctx)

	var total, completed int64
	if err := db.Model(&domain.Task{}).Where("project_id = ?", id).Count(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&domain.Task{}).Where("project_id = ? AND status = ?", id, domain.TaskCompleted).Count(&completed).Error; err != nil {
		return 0, err
	}

	progress := 0
	if total > 0 {
		progress = int(completed * 100 / total)
	}
	if err := db.Model(&domain.Project{}).Where("id = ?", id).Update("progress", progress).Error; err != nil {
		return 0, err
	}
	return progress, nil
}

func (r *projectRepository) CountTasks(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.Task{}).Where("project_id = ?", id).Count(&count).Error
	return count, err
}

// replaceLinks заменяет строки таблицы связей для владельца
func replaceLinks(db *gorm.DB, table, ownerCol, targetCol string, ownerID uuid.UUID, targetIDs []uuid.UUID) error {
	if err := db.Exec("DELETE FROM "+table+" WHERE "+ownerCol+" = ?", ownerID).Error; err != nil {
		return err
	}
	seen := make(map[uuid.UUID]struct{}, len(targetIDs))
	rows := make([]map[string]any, 0, len(targetIDs))
	for _, id := range targetIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, map[string]any{ownerCol: ownerID, targetCol: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Table(table).Create(rows).Error
}
