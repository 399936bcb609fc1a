package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

type ProjectHandler struct {
	responder
	projects service.ProjectService
}

func NewProjectHandler(projects service.ProjectService, v *validator.Validate, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{responder: newResponder(v, logger), projects: projects}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectResponses(projects, time.Now()))
}

// Search ищет по названию и описанию; пустой запрос даёт пустой список
func (h *ProjectHandler) Search(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.Search(r.Context(), SubjectFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectResponses(projects, time.Now()))
}

func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectResponse(project, time.Now()))
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.projects.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toProjectResponse(project, time.Now()))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	project, err := h.projects.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectResponse(project, time.Now()))
}

func (h *ProjectHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	project, err := h.projects.Complete(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toProjectResponse(project, time.Now()))
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
