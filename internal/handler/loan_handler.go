package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

// LoanHandler - временные переводы сотрудников между подразделениями
type LoanHandler struct {
	responder
	loans service.LoanService
}

func NewLoanHandler(loans service.LoanService, v *validator.Validate, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{responder: newResponder(v, logger), loans: loans}
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.List(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, loans)
}

func (h *LoanHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.loans.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.loans.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateLoanRequest
	if !h.decode(w, r, &req) {
		return
	}

	loan, err := h.loans.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.loans.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmergencyHandler - режимы срочного реагирования
type EmergencyHandler struct {
	responder
	emergencies service.EmergencyService
}

func NewEmergencyHandler(emergencies service.EmergencyService, v *validator.Validate, logger *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{responder: newResponder(v, logger), emergencies: emergencies}
}

func (h *EmergencyHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))

	modes, err := h.emergencies.List(r.Context(), SubjectFrom(r.Context()), activeOnly)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, modes)
}

func (h *EmergencyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	mode, err := h.emergencies.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mode)
}

func (h *EmergencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmergencyRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, err := h.emergencies.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mode)
}

func (h *EmergencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateEmergencyRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, err := h.emergencies.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mode)
}

func (h *EmergencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.emergencies.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
