package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

// ConversationHandler - диалоги и сообщения; доступны только участникам
type ConversationHandler struct {
	responder
	conversations service.ConversationService
}

func NewConversationHandler(conversations service.ConversationService, v *validator.Validate, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{responder: newResponder(v, logger), conversations: conversations}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.conversations.List(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, conversations)
}

func (h *ConversationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	conversation, err := h.conversations.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateConversationRequest
	if !h.decode(w, r, &req) {
		return
	}

	conversation, err := h.conversations.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, conversation)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.conversations.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	messages, err := h.conversations.Messages(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, messages)
}

func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.CreateMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	message, err := h.conversations.Send(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, message)
}

// NotificationHandler - собственные уведомления пользователя
type NotificationHandler struct {
	responder
	notifications service.NotificationService
}

func NewNotificationHandler(notifications service.NotificationService, v *validator.Validate, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{responder: newResponder(v, logger), notifications: notifications}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	notifications, err := h.notifications.List(r.Context(), SubjectFrom(r.Context()), unreadOnly)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	notification, err := h.notifications.Get(r.Context(), SubjectFrom(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateNotificationRequest
	if !h.decode(w, r, &req) {
		return
	}

	notification, err := h.notifications.Create(r.Context(), SubjectFrom(r.Context()), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, notification)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req dto.UpdateNotificationRequest
	if !h.decode(w, r, &req) {
		return
	}

	notification, err := h.notifications.MarkRead(r.Context(), SubjectFrom(r.Context()), id, &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, notification)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.notifications.MarkAllRead(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), SubjectFrom(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
