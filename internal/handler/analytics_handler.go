package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/org-tasks-api/internal/dto"
	"github.com/org-tasks-api/internal/service"
)

// AnalyticsHandler - панель показателей и календарь
type AnalyticsHandler struct {
	responder
	analytics service.AnalyticsService
	calendar  service.CalendarService
}

func NewAnalyticsHandler(analytics service.AnalyticsService, calendar service.CalendarService, v *validator.Validate, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		responder: newResponder(v, logger),
		analytics: analytics,
		calendar:  calendar,
	}
}

func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	resp, err := h.analytics.Dashboard(r.Context(), SubjectFrom(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// CalendarEvents принимает start/end (RFC 3339 или дата) и списки идентификаторов через запятую
func (h *AnalyticsHandler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query dto.CalendarQuery
	var ok bool

	if query.Start, ok = h.queryTime(w, q.Get("start"), "start"); !ok {
		return
	}
	if query.End, ok = h.queryTime(w, q.Get("end"), "end"); !ok {
		return
	}
	if query.DepartmentIDs, ok = h.queryIDs(w, q.Get("department_ids"), "department_ids"); !ok {
		return
	}
	if query.ProjectIDs, ok = h.queryIDs(w, q.Get("project_ids"), "project_ids"); !ok {
		return
	}
	if query.UserIDs, ok = h.queryIDs(w, q.Get("user_ids"), "user_ids"); !ok {
		return
	}
	query.Types = splitList(q.Get("types"))
	if !h.validate(w, &query) {
		return
	}

	events, err := h.calendar.Events(r.Context(), SubjectFrom(r.Context()), query)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, events)
}

func (h *AnalyticsHandler) queryTime(w http.ResponseWriter, raw, name string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	h.respondError(w, http.StatusBadRequest, "validation error", "expected RFC 3339 time or YYYY-MM-DD date", name)
	return nil, false
}

func (h *AnalyticsHandler) queryIDs(w http.ResponseWriter, raw, name string) ([]uuid.UUID, bool) {
	parts := splitList(raw)
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(p)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "validation error", err.Error(), name)
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
