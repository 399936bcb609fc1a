package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OptionalID - ссылка в запросе на частичное обновление.
// Set означает, что поле пришло в теле; null обнуляет ссылку.
type OptionalID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// LoginRequest - запрос токена
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse - выданный токен доступа
type TokenResponse struct {
	Access    string       `json:"access"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// RegisterRequest - самостоятельная регистрация
type RegisterRequest struct {
	Username     string     `json:"username" validate:"required,min=3,max=150"`
	Email        *string    `json:"email" validate:"omitempty,email,max=254"`
	Password     string     `json:"password" validate:"required,min=8,max=128"`
	FirstName    string     `json:"first_name" validate:"max=150"`
	LastName     string     `json:"last_name" validate:"max=150"`
	Role         string     `json:"role" validate:"omitempty,role"`
	DepartmentID *uuid.UUID `json:"department_id"`
	AdminCode    string     `json:"admin_code"`
}

// ProvisionRequest - создание подразделения вместе с его руководителем
type ProvisionRequest struct {
	DepartmentName        string `json:"service_name" validate:"required,max=200"`
	DepartmentDescription string `json:"service_description"`
	DepartmentColor       string `json:"service_color" validate:"omitempty,hexcolor"`
	ManagerUsername       string `json:"manager_username" validate:"required,min=3,max=150"`
	ManagerEmail          string `json:"manager_email" validate:"required,email,max=254"`
	ManagerPassword       string `json:"manager_password" validate:"required,min=8,max=128"`
	ManagerFirstName      string `json:"manager_first_name" validate:"required,max=150"`
	ManagerLastName       string `json:"manager_last_name" validate:"required,max=150"`
	AdminCode             string `json:"admin_code" validate:"required"`
}

// ProvisionResponse - идентификаторы созданных подразделения и руководителя
type ProvisionResponse struct {
	DepartmentID    uuid.UUID `json:"service_id"`
	DepartmentName  string    `json:"service_name"`
	ManagerID       uuid.UUID `json:"manager_id"`
	ManagerUsername string    `json:"manager_username"`
}

// AvailabilityResponse - результат проверки имени или почты
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// CreateUserRequest - создание пользователя администратором
type CreateUserRequest struct {
	Username     string     `json:"username" validate:"required,min=3,max=150"`
	Email        *string    `json:"email" validate:"omitempty,email,max=254"`
	Password     string     `json:"password" validate:"required,min=8,max=128"`
	FirstName    string     `json:"first_name" validate:"max=150"`
	LastName     string     `json:"last_name" validate:"max=150"`
	Phone        string     `json:"phone" validate:"max=20"`
	Role         string     `json:"role" validate:"required,role"`
	IsAdmin      bool       `json:"is_admin"`
	DepartmentID *uuid.UUID `json:"department_id"`
}

// UpdateUserRequest - изменение карточки пользователя администратором
type UpdateUserRequest struct {
	Email        *string    `json:"email" validate:"omitempty,email,max=254"`
	FirstName    *string    `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string    `json:"last_name" validate:"omitempty,max=150"`
	Phone        *string    `json:"phone" validate:"omitempty,max=20"`
	Bio          *string    `json:"bio"`
	IsActive     *bool      `json:"is_active"`
	DepartmentID OptionalID `json:"department_id"`
}

// ChangeRoleRequest - смена роли пользователя
type ChangeRoleRequest struct {
	Role         string     `json:"role" validate:"required,role"`
	IsAdmin      *bool      `json:"is_admin"`
	DepartmentID OptionalID `json:"department_id"`
}

// UpdateProfileRequest - изменение собственного профиля
type UpdateProfileRequest struct {
	Email        *string    `json:"email" validate:"omitempty,email,max=254"`
	FirstName    *string    `json:"first_name" validate:"omitempty,max=150"`
	LastName     *string    `json:"last_name" validate:"omitempty,max=150"`
	Phone        *string    `json:"phone" validate:"omitempty,max=20"`
	Bio          *string    `json:"bio"`
	DepartmentID OptionalID `json:"department_id"`
}

// ChangePasswordRequest - смена собственного пароля
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128,nefield=OldPassword"`
}

// UserResponse - данные пользователя
type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	Email          *string    `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name"`
	Phone          string     `json:"phone"`
	Bio            string     `json:"bio"`
	Role           string     `json:"role"`
	IsAdmin        bool       `json:"is_admin"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	DepartmentName *string    `json:"department_name"`
	IsActive       bool       `json:"is_active"`
	LastSeenAt     *time.Time `json:"last_seen_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ProfileResponse - собственный профиль с выведенными правами
type ProfileResponse struct {
	UserResponse
	Groups      []string `json:"groups"`
	Permissions []string `json:"permissions"`
}

// DebugPermissionsResponse - группы и права текущего пользователя
type DebugPermissionsResponse struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Groups      []string `json:"groups"`
	Permissions []string `json:"permissions"`
}

// CreateDepartmentRequest - запрос на создание подразделения
type CreateDepartmentRequest struct {
	Name             string     `json:"name" validate:"required,min=1,max=200"`
	Description      string     `json:"description"`
	Color            string     `json:"color" validate:"omitempty,hexcolor"`
	WorkloadCapacity *int       `json:"workload_capacity" validate:"omitempty,min=0"`
	LeaderID         *uuid.UUID `json:"leader_id"`
}

// UpdateDepartmentRequest - запрос на обновление подразделения
type UpdateDepartmentRequest struct {
	Name             *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Description      *string    `json:"description"`
	Color            *string    `json:"color" validate:"omitempty,hexcolor"`
	WorkloadCapacity *int       `json:"workload_capacity" validate:"omitempty,min=0"`
	LeaderID         OptionalID `json:"leader_id"`
}

// DepartmentResponse - ответ с данными подразделения
type DepartmentResponse struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Color            string     `json:"color"`
	WorkloadCapacity int        `json:"workload_capacity"`
	LeaderID         *uuid.UUID `json:"leader_id"`
	LeaderName       *string    `json:"leader_name"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PublicDepartmentResponse - подразделение без руководителя, доступное при регистрации
type PublicDepartmentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
}

// CreateProjectRequest - запрос на создание проекта
type CreateProjectRequest struct {
	Name          string      `json:"name" validate:"required,max=200"`
	Description   string      `json:"description"`
	Status        string      `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	RiskLevel     string      `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	StartDate     *string     `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string     `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Color         string      `json:"color" validate:"omitempty,hexcolor"`
	LeaderID      *uuid.UUID  `json:"leader_id"`
	DepartmentID  *uuid.UUID  `json:"department_id"`
	MemberIDs     []uuid.UUID `json:"member_ids"`
	DepartmentIDs []uuid.UUID `json:"department_ids"`
}

// UpdateProjectRequest - запрос на обновление проекта
type UpdateProjectRequest struct {
	Name          *string      `json:"name" validate:"omitempty,max=200"`
	Description   *string      `json:"description"`
	Status        *string      `json:"status" validate:"omitempty,oneof=planning active on_hold completed cancelled"`
	RiskLevel     *string      `json:"risk_level" validate:"omitempty,oneof=low medium high"`
	StartDate     *string      `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       *string      `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Color         *string      `json:"color" validate:"omitempty,hexcolor"`
	LeaderID      OptionalID   `json:"leader_id"`
	DepartmentID  OptionalID   `json:"department_id"`
	MemberIDs     *[]uuid.UUID `json:"member_ids"`
	DepartmentIDs *[]uuid.UUID `json:"department_ids"`
}

// ProjectResponse - ответ с данными проекта
type ProjectResponse struct {
	ID                  uuid.UUID   `json:"id"`
	Name                string      `json:"name"`
	Description         string      `json:"description"`
	Status              string      `json:"status"`
	RiskLevel           string      `json:"risk_level"`
	StartDate           *string     `json:"start_date"`
	EndDate             *string     `json:"end_date"`
	ActualEndDate       *string     `json:"actual_end_date"`
	Progress            int         `json:"progress"`
	Color               string      `json:"color"`
	CreatorID           *uuid.UUID  `json:"creator_id"`
	LeaderID            *uuid.UUID  `json:"leader_id"`
	DepartmentID        *uuid.UUID  `json:"department_id"`
	MemberIDs           []uuid.UUID `json:"member_ids"`
	DepartmentIDs       []uuid.UUID `json:"department_ids"`
	IsOverdue           bool        `json:"is_overdue"`
	PlannedDurationDays *int        `json:"planned_duration_days"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// CreateTaskRequest - запрос на создание задачи
type CreateTaskRequest struct {
	Type             string      `json:"type" validate:"required,oneof=personnel service project"`
	Title            string      `json:"title" validate:"required,max=200"`
	Description      string      `json:"description"`
	Status           string      `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority         string      `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Deadline         *time.Time  `json:"deadline"`
	DepartmentID     *uuid.UUID  `json:"department_id"`
	ProjectID        *uuid.UUID  `json:"project_id"`
	AssigneeIDs      []uuid.UUID `json:"assignee_ids"`
	EstimatedMinutes int         `json:"estimated_minutes" validate:"min=0"`
	WorkloadPoints   int         `json:"workload_points" validate:"min=0"`
	Tags             []string    `json:"tags" validate:"omitempty,dive,max=50"`
}

// UpdateTaskRequest - запрос на обновление задачи
type UpdateTaskRequest struct {
	Type             *string      `json:"type" validate:"omitempty,oneof=personnel service project"`
	Title            *string      `json:"title" validate:"omitempty,max=200"`
	Description      *string      `json:"description"`
	Status           *string      `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority         *string      `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Deadline         *time.Time   `json:"deadline"`
	DepartmentID     OptionalID   `json:"department_id"`
	ProjectID        OptionalID   `json:"project_id"`
	AssigneeIDs      *[]uuid.UUID `json:"assignee_ids"`
	EstimatedMinutes *int         `json:"estimated_minutes" validate:"omitempty,min=0"`
	TrackedMinutes   *int         `json:"tracked_minutes" validate:"omitempty,min=0"`
	WorkloadPoints   *int         `json:"workload_points" validate:"omitempty,min=0"`
	Tags             *[]string    `json:"tags"`
}

// TaskResponse - ответ с данными задачи
type TaskResponse struct {
	ID               uuid.UUID   `json:"id"`
	Type             string      `json:"type"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Status           string      `json:"status"`
	Priority         string      `json:"priority"`
	Deadline         *time.Time  `json:"deadline"`
	CompletedAt      *time.Time  `json:"completed_at"`
	CreatorID        uuid.UUID   `json:"creator_id"`
	DepartmentID     *uuid.UUID  `json:"department_id"`
	ProjectID        *uuid.UUID  `json:"project_id"`
	AssigneeIDs      []uuid.UUID `json:"assignee_ids"`
	EstimatedMinutes int         `json:"estimated_minutes"`
	TrackedMinutes   int         `json:"tracked_minutes"`
	WorkloadPoints   int         `json:"workload_points"`
	Tags             []string    `json:"tags"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// CreateCommentRequest - новый комментарий
type CreateCommentRequest struct {
	TaskID   uuid.UUID `json:"task_id" validate:"required"`
	Content  string    `json:"content" validate:"required,max=10000"`
	Mentions []string  `json:"mentions"`
}

// UpdateCommentRequest - изменение текста комментария
type UpdateCommentRequest struct {
	Content  *string   `json:"content" validate:"omitempty,min=1,max=10000"`
	Mentions *[]string `json:"mentions"`
}

// AttachmentResponse - метаданные вложения
type AttachmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	MimeType    string     `json:"mime_type"`
	Size        int64      `json:"size"`
	Checksum    string     `json:"checksum"`
	IsEncrypted bool       `json:"is_encrypted"`
	RelatedTo   *string    `json:"related_to"`
	RelatedID   *uuid.UUID `json:"related_id"`
	UploadedBy  uuid.UUID  `json:"uploaded_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateLoanRequest - запрос на перевод сотрудника
type CreateLoanRequest struct {
	EmployeeID              uuid.UUID `json:"employee_id" validate:"required"`
	SourceDepartmentID      uuid.UUID `json:"source_department_id" validate:"required"`
	DestinationDepartmentID uuid.UUID `json:"destination_department_id" validate:"required,nefield=SourceDepartmentID"`
	StartDate               string    `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate                 string    `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason                  string    `json:"reason"`
	Status                  string    `json:"status" validate:"omitempty,oneof=pending approved active completed rejected"`
	WorkloadImpact          int       `json:"workload_impact" validate:"min=0,max=100"`
	Cost                    string    `json:"cost" validate:"omitempty,numeric"`
}

// UpdateLoanRequest - изменение перевода
type UpdateLoanRequest struct {
	StartDate      *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Reason         *string `json:"reason"`
	Status         *string `json:"status" validate:"omitempty,oneof=pending approved active completed rejected"`
	WorkloadImpact *int    `json:"workload_impact" validate:"omitempty,min=0,max=100"`
	Cost           *string `json:"cost" validate:"omitempty,numeric"`
}

// CreateEmergencyRequest - объявление режима срочного реагирования
type CreateEmergencyRequest struct {
	Title              string     `json:"title" validate:"required,max=200"`
	Description        string     `json:"description"`
	Severity           string     `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	IsActive           *bool      `json:"is_active"`
	StartsAt           *time.Time `json:"starts_at"`
	EndsAt             *time.Time `json:"ends_at"`
	AllocatedResources string     `json:"allocated_resources"`
	DepartmentID       *uuid.UUID `json:"department_id"`
}

// UpdateEmergencyRequest - изменение режима срочного реагирования
type UpdateEmergencyRequest struct {
	Title              *string    `json:"title" validate:"omitempty,max=200"`
	Description        *string    `json:"description"`
	Severity           *string    `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	IsActive           *bool      `json:"is_active"`
	EndsAt             *time.Time `json:"ends_at"`
	AllocatedResources *string    `json:"allocated_resources"`
}

// CreateConversationRequest - новый диалог
type CreateConversationRequest struct {
	Name           string      `json:"name" validate:"max=200"`
	IsGroup        bool        `json:"is_group"`
	ParticipantIDs []uuid.UUID `json:"participant_ids" validate:"required,min=1"`
}

// CreateMessageRequest - новое сообщение
type CreateMessageRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// CreateNotificationRequest - уведомление, создаваемое администратором
type CreateNotificationRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	Type     string    `json:"type" validate:"required,max=50"`
	Title    string    `json:"title" validate:"required,max=200"`
	Message  string    `json:"message"`
	Priority string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateNotificationRequest - отметка о прочтении
type UpdateNotificationRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}

// AnalyticsResponse - показатели панели аналитики
type AnalyticsResponse struct {
	Tasks       TaskMetricsResponse         `json:"main_metrics"`
	Departments []DepartmentMetricsResponse `json:"service_performance"`
	Users       UserMetricsResponse         `json:"system_metrics"`
	Projects    map[string]int64            `json:"projects_by_status"`
}

// TaskMetricsResponse - сводные показатели задач
type TaskMetricsResponse struct {
	TotalTasks       int64   `json:"total_tasks"`
	CompletedTasks   int64   `json:"completed_tasks"`
	UrgentTasks      int64   `json:"urgent_tasks"`
	OverdueTasks     int64   `json:"overdue_tasks"`
	CompletionRate   float64 `json:"completion_rate"`
	ActiveProjects   int64   `json:"active_projects"`
	PlanningProjects int64   `json:"planning_projects"`
}

// DepartmentMetricsResponse - показатели подразделения
type DepartmentMetricsResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	TotalTasks     int64     `json:"total_tasks"`
	CompletedTasks int64     `json:"completed_tasks"`
	CompletionRate float64   `json:"completion_rate"`
}

// UserMetricsResponse - счётчики пользователей
type UserMetricsResponse struct {
	ActiveUsers int64 `json:"active_users"`
	TotalUsers  int64 `json:"total_users"`
}

// CalendarQuery - фильтры календаря
type CalendarQuery struct {
	Start         *time.Time
	End           *time.Time
	DepartmentIDs []uuid.UUID
	ProjectIDs    []uuid.UUID
	UserIDs       []uuid.UUID
	Types         []string `validate:"dive,oneof=task project"`
}

// CalendarEvent - событие календаря: срок задачи или период проекта
type CalendarEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	AllDay      bool       `json:"all_day"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	RelatedID   uuid.UUID  `json:"related_id"`
	Color       string     `json:"color"`
	Progress    int        `json:"progress"`
}
