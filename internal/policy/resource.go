// Package policy - единая точка принятия решений о доступе.
// Пакет не выполняет ввода-вывода: все факты об объектах передаются вызывающей стороной.
package policy

// Resource - вид ресурса, над которым выполняется действие
type Resource string

const (
	ResourceDepartment   Resource = "department"
	ResourceUser         Resource = "user"
	ResourceProject      Resource = "project"
	ResourceTask         Resource = "task"
	ResourceComment      Resource = "comment"
	ResourceAttachment   Resource = "attachment"
	ResourceLoan         Resource = "loan"
	ResourceEmergency    Resource = "emergency"
	ResourceConversation Resource = "conversation"
	ResourceMessage      Resource = "message"
	ResourceNotification Resource = "notification"
	ResourceAnalytics    Resource = "analytics"
)

// Resources возвращает все известные виды ресурсов
func Resources() []Resource {
	return []Resource{
		ResourceDepartment,
		ResourceUser,
		ResourceProject,
		ResourceTask,
		ResourceComment,
		ResourceAttachment,
		ResourceLoan,
		ResourceEmergency,
		ResourceConversation,
		ResourceMessage,
		ResourceNotification,
		ResourceAnalytics,
	}
}

// Action - класс действия над ресурсом
type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions возвращает все классы действий
func Actions() []Action {
	return []Action{ActionList, ActionRead, ActionCreate, ActionUpdate, ActionDelete}
}
