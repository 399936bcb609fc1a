package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

type DepartmentHandler struct {
	responder
	deptService service.DepartmentService
}

func NewDepartmentHandler(deptService service.DepartmentService, v *validator.Validate, logger *slog.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		responder:   newResponder(v, logger),
		deptService: deptService,
	}
}

func (h *DepartmentHandler) List(w http.ResponseWriter, r *http.Request) {
	depts, err := h.deptService.List(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toDepartmentResponses(depts))
}

func (h *DepartmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	dept, err := h.deptService.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	dept, err := h.deptService.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateDepartmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	dept, err := h.deptService.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, toDepartmentResponse(dept))
}

func (h *DepartmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.deptService.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
