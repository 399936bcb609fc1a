package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/service"
)

type TaskHandler struct {
	responder
	tasks service.TaskService
}

func NewTaskHandler(tasks service.TaskService, v *validator.Validate, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{responder: newResponder(v, logger), tasks: tasks}
}

// taskListQuery - фильтры списка задач из строки запроса
type taskListQuery struct {
	Status   string `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Type     string `json:"type" validate:"omitempty,oneof=personnel service project"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := taskListQuery{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Type:     q.Get("type"),
	}
	if !h.validate(w, &query) {
		return
	}

	filter := repository.TaskFilter{
		Status:   domain.TaskStatus(query.Status),
		Priority: domain.TaskPriority(query.Priority),
		Type:     domain.TaskType(query.Type),
	}
	var ok bool
	if filter.ProjectID, ok = h.queryID(w, r, "project_id"); !ok {
		return
	}
	if filter.DepartmentID, ok = h.queryID(w, r, "department_id"); !ok {
		return
	}
	if filter.AssigneeID, ok = h.queryID(w, r, "assignee_id"); !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), SubjectFrom(r.Context()), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// Search ищет по заголовку и описанию; пустой запрос даёт пустой список
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.Search(r.Context(), SubjectFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.tasks.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
