package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/org-tasks-api/internal/domain"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/service"
)

type userKey struct{}

// withUser кладёт аутентифицированного пользователя в контекст запроса
func withUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom возвращает пользователя текущего запроса
func UserFrom(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}

// SubjectFrom строит субъекта политики из пользователя запроса.
// Маршруты за Authenticate всегда его имеют.
func SubjectFrom(ctx context.Context) policy.Subject {
	u, ok := UserFrom(ctx)
	if !ok {
		return policy.Subject{}
	}
	return policy.NewSubject(u)
}

// Authenticate проверяет Bearer-токен и загружает актуальную запись пользователя.
// Роль и подразделение берутся из базы, а не из токена.
func Authenticate(auth service.AuthService, h responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", "")
				return
			}

			user, err := auth.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				h.handleServiceError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}
