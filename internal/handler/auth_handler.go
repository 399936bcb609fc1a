package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

// AuthHandler - публичные маршруты: вход, регистрация, проверки доступности
type AuthHandler struct {
	responder
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService, v *validator.Validate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{responder: newResponder(v, logger), auth: auth}
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.TokenResponse{
		Access:    token.Access,
		ExpiresAt: token.ExpiresAt,
		User:      toUserResponse(token.User),
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toUserResponse(user))
}

// RegisterServiceManager создаёт подразделение и его руководителя одной операцией
func (h *AuthHandler) RegisterServiceManager(w http.ResponseWriter, r *http.Request) {
	var req dto.ProvisionRequest
	if !h.decode(w, r, &req) {
		return
	}

	dept, manager, err := h.auth.Provision(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.ProvisionResponse{
		DepartmentID:    dept.ID,
		DepartmentName:  dept.Name,
		ManagerID:       manager.ID,
		ManagerUsername: manager.Username,
	})
}

func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	ok, err := h.auth.UsernameAvailable(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.AvailabilityResponse{Available: ok})
}

func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	ok, err := h.auth.EmailAvailable(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.AvailabilityResponse{Available: ok})
}

// PublicServices - подразделения без руководителя, доступные при регистрации
func (h *AuthHandler) PublicServices(w http.ResponseWriter, r *http.Request) {
	depts, err := h.auth.PublicDepartments(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toPublicDepartments(depts))
}
