package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDepartmentColor - цвет подразделения по умолчанию
const DefaultDepartmentColor = "#3788d8"

// Base - общие поля всех сущностей
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BeforeCreate назначает идентификатор, если он не задан
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User представляет учётную запись сотрудника
type User struct {
	Base
	Username     string     `json:"username" gorm:"type:varchar(150);not null;uniqueIndex:users_username_key"`
	Email        *string    `json:"email" gorm:"type:varchar(254);uniqueIndex:users_email_key"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName    string     `json:"first_name" gorm:"type:varchar(150)"`
	LastName     string     `json:"last_name" gorm:"type:varchar(150)"`
	Phone        string     `json:"phone" gorm:"type:varchar(20)"`
	Bio          string     `json:"bio" gorm:"type:text"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:EMPLOYEE"`
	IsAdmin      bool       `json:"is_admin" gorm:"not null;default:false"`
	DepartmentID *uuid.UUID `json:"department_id" gorm:"type:uuid;index"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	LastSeenAt   *time.Time `json:"last_seen_at"`

	Department  *Department      `json:"department,omitempty" gorm:"foreignKey:DepartmentID;constraint:OnDelete:SET NULL"`
	Groups      []UserGroup      `json:"-" gorm:"foreignKey:UserID"`
	Permissions []UserPermission `json:"-" gorm:"foreignKey:UserID"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// EffectiveRole - роль с учётом флага администратора
func (u *User) EffectiveRole() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return u.Role
}

// FullName - отображаемое имя
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// GroupNames возвращает имена групп пользователя
func (u *User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}

// PermissionCodenames возвращает кодовые имена прав пользователя
func (u *User) PermissionCodenames() []string {
	names := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		names = append(names, p.Codename)
	}
	return names
}

// UserGroup - членство пользователя в ролевой группе
type UserGroup struct {
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Name   string    `json:"name" gorm:"type:varchar(150);primaryKey"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}

// UserPermission - право пользователя, выведенное из его роли
type UserPermission struct {
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Codename string    `json:"codename" gorm:"type:varchar(100);primaryKey"`
}

func (UserPermission) TableName() string {
	return "user_permissions"
}

// Department представляет подразделение (сервис) организации
type Department struct {
	Base
	Name             string     `json:"name" gorm:"type:varchar(200);not null;uniqueIndex:departments_name_key"`
	Description      string     `json:"description" gorm:"type:text"`
	Color            string     `json:"color" gorm:"type:varchar(7);not null;default:'#3788d8'"`
	WorkloadCapacity int        `json:"workload_capacity" gorm:"not null;default:100"`
	LeaderID         *uuid.UUID `json:"leader_id" gorm:"type:uuid;index"`

	Leader *User `json:"leader,omitempty" gorm:"foreignKey:LeaderID;constraint:OnDelete:SET NULL"`
}

// TableName задаёт имя таблицы для GORM
func (Department) TableName() string {
	return "departments"
}

// ProjectStatus - статус проекта
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// RiskLevel - уровень риска проекта
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Project представляет проект
type Project struct {
	Base
	Name          string        `json:"name" gorm:"type:varchar(200);not null"`
	Description   string        `json:"description" gorm:"type:text"`
	Status        ProjectStatus `json:"status" gorm:"type:varchar(20);not null;default:planning"`
	RiskLevel     RiskLevel     `json:"risk_level" gorm:"type:varchar(10);not null;default:low"`
	StartDate     *time.Time    `json:"start_date" gorm:"type:date"`
	EndDate       *time.Time    `json:"end_date" gorm:"type:date"`
	ActualEndDate *time.Time    `json:"actual_end_date" gorm:"type:date"`
	Progress      int           `json:"progress" gorm:"not null;default:0"`
	Color         string        `json:"color" gorm:"type:varchar(7)"`
	CreatorID     *uuid.UUID    `json:"creator_id" gorm:"type:uuid;index"`
	LeaderID      *uuid.UUID    `json:"leader_id" gorm:"type:uuid;index"`
	DepartmentID  *uuid.UUID    `json:"department_id" gorm:"type:uuid;index"`

	Members     []User       `json:"members,omitempty" gorm:"many2many:project_members"`
	Departments []Department `json:"departments,omitempty" gorm:"many2many:project_departments"`
}

// TableName задаёт имя таблицы для GORM
func (Project) TableName() string {
	return "projects"
}

// IsOverdue - проект не завершён, а плановая дата окончания прошла
func (p *Project) IsOverdue(now time.Time) bool {
	if p.EndDate == nil || p.Status == ProjectCompleted || p.Status == ProjectCancelled {
		return false
	}
	return now.After(p.EndDate.AddDate(0, 0, 1))
}

// PlannedDurationDays - плановая длительность в днях
func (p *Project) PlannedDurationDays() *int {
	if p.StartDate == nil || p.EndDate == nil {
		return nil
	}
	days := int(p.EndDate.Sub(*p.StartDate).Hours() / 24)
	return &days
}

// TaskType - тип задачи
type TaskType string

const (
	TaskPersonnel TaskType = "personnel"
	TaskService   TaskType = "service"
	TaskProject   TaskType = "project"
)

// TaskStatus - статус задачи
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// TaskPriority - приоритет задачи
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task представляет задачу
type Task struct {
	Base
	Type             TaskType     `json:"type" gorm:"type:varchar(20);not null"`
	Title            string       `json:"title" gorm:"type:varchar(200);not null"`
	Description      string       `json:"description" gorm:"type:text"`
	Status           TaskStatus   `json:"status" gorm:"type:varchar(20);not null;default:todo"`
	Priority         TaskPriority `json:"priority" gorm:"type:varchar(10);not null;default:medium"`
	Deadline         *time.Time   `json:"deadline"`
	CompletedAt      *time.Time   `json:"completed_at"`
	CreatorID        uuid.UUID    `json:"creator_id" gorm:"type:uuid;not null;index"`
	DepartmentID     *uuid.UUID   `json:"department_id" gorm:"type:uuid;index"`
	ProjectID        *uuid.UUID   `json:"project_id" gorm:"type:uuid;index"`
	EstimatedMinutes int          `json:"estimated_minutes" gorm:"not null;default:0"`
	TrackedMinutes   int          `json:"tracked_minutes" gorm:"not null;default:0"`
	WorkloadPoints   int          `json:"workload_points" gorm:"not null;default:0"`
	Tags             []string     `json:"tags" gorm:"type:text;serializer:json"`

	Assignees []User `json:"assignees,omitempty" gorm:"many2many:task_assignees"`
}

// TableName задаёт имя таблицы для GORM
func (Task) TableName() string {
	return "tasks"
}

// ValidateRelation проверяет согласованность типа задачи и её привязки:
// project - только проект, service - только подразделение, personnel - ни того ни другого
func (t *Task) ValidateRelation() error {
	switch t.Type {
	case TaskProject:
		if t.ProjectID == nil {
			return NewValidationError("project_id", "a project task requires a project")
		}
		if t.DepartmentID != nil {
			return NewValidationError("department_id", "a project task cannot reference a department")
		}
	case TaskService:
		if t.DepartmentID == nil {
			return NewValidationError("department_id", "a service task requires a department")
		}
		if t.ProjectID != nil {
			return NewValidationError("project_id", "a service task cannot reference a project")
		}
	case TaskPersonnel:
		if t.ProjectID != nil {
			return NewValidationError("project_id", "a personnel task cannot reference a project")
		}
		if t.DepartmentID != nil {
			return NewValidationError("department_id", "a personnel task cannot reference a department")
		}
	default:
		return NewValidationError("type", `type must be "personnel", "service" or "project"`)
	}
	return nil
}

// AssigneeIDs возвращает идентификаторы исполнителей
func (t *Task) AssigneeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Assignees))
	for _, u := range t.Assignees {
		ids = append(ids, u.ID)
	}
	return ids
}

// Comment - комментарий к задаче
type Comment struct {
	Base
	TaskID   uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Content  string    `json:"content" gorm:"type:text;not null"`
	Mentions []string  `json:"mentions" gorm:"type:text;serializer:json"`
	IsEdited bool      `json:"is_edited" gorm:"not null;default:false"`

	Task *Task `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Comment) TableName() string {
	return "comments"
}

// Attachment - файл, привязанный к задаче, проекту или пользователю
type Attachment struct {
	Base
	Name        string       `json:"name" gorm:"type:varchar(255);not null"`
	StorageKey  string       `json:"-" gorm:"type:varchar(512);not null"`
	MimeType    string       `json:"mime_type" gorm:"type:varchar(255)"`
	Size        int64        `json:"size" gorm:"not null"`
	Checksum    string       `json:"checksum" gorm:"type:varchar(64);not null"`
	IsEncrypted bool         `json:"is_encrypted" gorm:"not null;default:false"`
	RelatedTo   RelationKind `json:"related_to" gorm:"type:varchar(20)"`
	RelatedID   *uuid.UUID   `json:"related_id" gorm:"type:uuid;index"`
	UploadedBy  uuid.UUID    `json:"uploaded_by" gorm:"type:uuid;not null;index"`
}

// TableName задаёт имя таблицы для GORM
func (Attachment) TableName() string {
	return "attachments"
}

// Relation восстанавливает типизированную ссылку из хранимых полей
func (a *Attachment) Relation() (Relation, error) {
	return ParseRelation(string(a.RelatedTo), a.RelatedID)
}

// SetRelation записывает ссылку в хранимые поля
func (a *Attachment) SetRelation(r Relation) {
	if r == nil {
		a.RelatedTo = ""
		a.RelatedID = nil
		return
	}
	id := r.TargetID()
	a.RelatedTo = r.Kind()
	a.RelatedID = &id
}

// LoanStatus - статус перевода сотрудника
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanRejected  LoanStatus = "rejected"
)

// EmployeeLoan - временный перевод сотрудника в другое подразделение
type EmployeeLoan struct {
	Base
	EmployeeID              uuid.UUID  `json:"employee_id" gorm:"type:uuid;not null;index"`
	SourceDepartmentID      uuid.UUID  `json:"source_department_id" gorm:"type:uuid;not null;index"`
	DestinationDepartmentID uuid.UUID  `json:"destination_department_id" gorm:"type:uuid;not null;index"`
	StartDate               time.Time  `json:"start_date" gorm:"type:date;not null"`
	EndDate                 time.Time  `json:"end_date" gorm:"type:date;not null"`
	Reason                  string     `json:"reason" gorm:"type:text"`
	Status                  LoanStatus `json:"status" gorm:"type:varchar(20);not null;default:pending"`
	WorkloadImpact          int        `json:"workload_impact" gorm:"not null;default:0"`
	Cost                    string     `json:"cost" gorm:"type:varchar(32)"`
	CreatedByID             uuid.UUID  `json:"created_by_id" gorm:"type:uuid;not null"`
}

// TableName задаёт имя таблицы для GORM
func (EmployeeLoan) TableName() string {
	return "employee_loans"
}

// Severity - уровень серьёзности чрезвычайной ситуации
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// EmergencyMode - режим срочного реагирования подразделения
type EmergencyMode struct {
	Base
	Title              string     `json:"title" gorm:"type:varchar(200);not null"`
	Description        string     `json:"description" gorm:"type:text"`
	Severity           Severity   `json:"severity" gorm:"type:varchar(10);not null;default:medium"`
	IsActive           bool       `json:"is_active" gorm:"not null"`
	StartsAt           time.Time  `json:"starts_at" gorm:"not null"`
	EndsAt             *time.Time `json:"ends_at"`
	AllocatedResources string     `json:"allocated_resources" gorm:"type:text"`
	DepartmentID       *uuid.UUID `json:"department_id" gorm:"type:uuid;index"`
	CreatedByID        uuid.UUID  `json:"created_by_id" gorm:"type:uuid;not null"`
}

// TableName задаёт имя таблицы для GORM
func (EmergencyMode) TableName() string {
	return "emergency_modes"
}

// Conversation - диалог между пользователями
type Conversation struct {
	Base
	Name    string `json:"name" gorm:"type:varchar(200)"`
	IsGroup bool   `json:"is_group" gorm:"not null;default:false"`

	Participants []User `json:"participants,omitempty" gorm:"many2many:conversation_participants"`
}

// TableName задаёт имя таблицы для GORM
func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant проверяет участие пользователя в диалоге
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Message - сообщение в диалоге
type Message struct {
	Base
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`

	Conversation *Conversation `json:"-" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName задаёт имя таблицы для GORM
func (Message) TableName() string {
	return "messages"
}

// Notification - уведомление пользователя
type Notification struct {
	Base
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Type     string    `json:"type" gorm:"type:varchar(50);not null"`
	Title    string    `json:"title" gorm:"type:varchar(200);not null"`
	Message  string    `json:"message" gorm:"type:text"`
	IsRead   bool      `json:"is_read" gorm:"not null;default:false"`
	Priority string    `json:"priority" gorm:"type:varchar(10);not null;default:medium"`
}

// TableName задаёт имя таблицы для GORM
func (Notification) TableName() string {
	return "notifications"
}
