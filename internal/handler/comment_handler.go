package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

type CommentHandler struct {
	responder
	comments service.CommentService
}

func NewCommentHandler(comments service.CommentService, v *validator.Validate, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{responder: newResponder(v, logger), comments: comments}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.queryID(w, r, "task_id")
	if !ok {
		return
	}

	comments, err := h.comments.List(r.Context(), SubjectFrom(r.Context()), taskID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	comment, err := h.comments.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	comment, err := h.comments.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	comment, err := h.comments.Update(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.comments.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
