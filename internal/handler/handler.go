// Package handler реализует HTTP API поверх сервисного слоя
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/dto"
)

// notFoundErrors - ошибки, которые отдаются клиенту как 404
var notFoundErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrDepartmentNotFound,
	domain.ErrProjectNotFound,
	domain.ErrTaskNotFound,
	domain.ErrCommentNotFound,
	domain.ErrAttachmentNotFound,
	domain.ErrLoanNotFound,
	domain.ErrEmergencyNotFound,
	domain.ErrConversationNotFound,
	domain.ErrNotificationNotFound,
}

// NewValidator создаёт валидатор запросов: имена полей в ошибках берутся из json-тегов,
// тег role проверяет название роли
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return v
}

// responder - общие для всех обработчиков разбор запроса и запись ответа
type responder struct {
	validator *validator.Validate
	logger    *slog.Logger
}

func newResponder(v *validator.Validate, logger *slog.Logger) responder {
	return responder{validator: v, logger: logger}
}

// decode читает JSON-тело и валидирует его; при ошибке ответ уже записан
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error(), "")
		return false
	}
	return h.validate(w, dst)
}

func (h responder) validate(w http.ResponseWriter, v any) bool {
	err := h.validator.Struct(v)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Field()
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		h.respondError(w, http.StatusBadRequest, "validation error", msg, field)
		return false
	}
	h.respondError(w, http.StatusBadRequest, "validation error", err.Error(), "")
	return false
}

// pathID разбирает идентификатор из параметра маршрута
func (h responder) pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid "+param, err.Error(), param)
		return uuid.Nil, false
	}
	return id, true
}

// queryID разбирает необязательный идентификатор из строки запроса
func (h responder) queryID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	return h.optionalID(w, name, r.URL.Query().Get(name))
}

// formID разбирает необязательный идентификатор из поля формы
func (h responder) formID(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	return h.optionalID(w, name, r.FormValue(name))
}

func (h responder) optionalID(w http.ResponseWriter, name, raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid "+name, err.Error(), name)
		return nil, false
	}
	return &id, true
}

func (h responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.respondError(w, http.StatusBadRequest, "validation error", vErr.Message, vErr.Field)
	case errors.Is(err, domain.ErrValidation):
		h.respondError(w, http.StatusBadRequest, "validation error", err.Error(), "")
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, "invalid credentials", "", "")
	case errors.Is(err, domain.ErrProfileMissing):
		h.respondError(w, http.StatusUnauthorized, "profile missing", err.Error(), "")
	case errors.Is(err, domain.ErrUnauthorized):
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "", "")
	case errors.Is(err, domain.ErrForbidden):
		h.respondError(w, http.StatusForbidden, "forbidden", err.Error(), "")
	case isNotFound(err):
		h.respondError(w, http.StatusNotFound, err.Error(), "", "")
	default:
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.Any("error", err),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		h.respondError(w, http.StatusInternalServerError, "internal server error", "", "")
	}
}

func isNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, errMsg, details, field string) {
	h.respondJSON(w, status, dto.ErrorResponse{Error: errMsg, Message: details, Field: field})
}
