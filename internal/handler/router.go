package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/org-tasks-api/internal/middleware"
	"github.com/org-tasks-api/internal/service"
)

// Services - сервисный слой, который обслуживает API
type Services struct {
	Auth          service.AuthService
	Users         service.UserService
	Departments   service.DepartmentService
	Projects      service.ProjectService
	Tasks         service.TaskService
	Comments      service.CommentService
	Attachments   service.AttachmentService
	Loans         service.LoanService
	Emergencies   service.EmergencyService
	Conversations service.ConversationService
	Notifications service.NotificationService
	Analytics     service.AnalyticsService
	Calendar      service.CalendarService
}

// Router настраивает маршруты API
type Router struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	auth     service.AuthService
	base     responder

	authHandler         *AuthHandler
	userHandler         *UserHandler
	deptHandler         *DepartmentHandler
	projectHandler      *ProjectHandler
	taskHandler         *TaskHandler
	commentHandler      *CommentHandler
	attachmentHandler   *AttachmentHandler
	loanHandler         *LoanHandler
	emergencyHandler    *EmergencyHandler
	conversationHandler *ConversationHandler
	notificationHandler *NotificationHandler
	analyticsHandler    *AnalyticsHandler
}

// NewRouter создаёт новый роутер. Метрики HTTP регистрируются в registry
// и отдаются на /metrics.
func NewRouter(svc Services, maxUploadBytes int64, registry *prometheus.Registry, logger *slog.Logger) *Router {
	v := NewValidator()
	return &Router{
		logger:   logger,
		registry: registry,
		auth:     svc.Auth,
		base:     newResponder(v, logger),

		authHandler:         NewAuthHandler(svc.Auth, v, logger),
		userHandler:         NewUserHandler(svc.Users, v, logger),
		deptHandler:         NewDepartmentHandler(svc.Departments, v, logger),
		projectHandler:      NewProjectHandler(svc.Projects, v, logger),
		taskHandler:         NewTaskHandler(svc.Tasks, v, logger),
		commentHandler:      NewCommentHandler(svc.Comments, v, logger),
		attachmentHandler:   NewAttachmentHandler(svc.Attachments, maxUploadBytes, v, logger),
		loanHandler:         NewLoanHandler(svc.Loans, v, logger),
		emergencyHandler:    NewEmergencyHandler(svc.Emergencies, v, logger),
		conversationHandler: NewConversationHandler(svc.Conversations, v, logger),
		notificationHandler: NewNotificationHandler(svc.Notifications, v, logger),
		analyticsHandler:    NewAnalyticsHandler(svc.Analytics, svc.Calendar, v, logger),
	}
}

// Setup настраивает все маршруты
func (r *Router) Setup() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer(r.logger))
	mux.Use(middleware.Logger(r.logger))
	mux.Use(middleware.NewMetrics(r.registry).Middleware)
	mux.Use(chimw.StripSlashes)
	mux.Use(middleware.ContentType)

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		r.base.respondError(w, http.StatusNotFound, "not found", "", "")
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		r.base.respondError(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
	})

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))

	mux.Route("/api", func(api chi.Router) {
		api.Post("/token", r.authHandler.Token)
		api.Post("/register", r.authHandler.Register)
		api.Post("/register-service-manager", r.authHandler.RegisterServiceManager)
		api.Get("/check-username", r.authHandler.CheckUsername)
		api.Get("/check-email", r.authHandler.CheckEmail)
		api.Get("/public-services", r.authHandler.PublicServices)

		api.Group(func(private chi.Router) {
			private.Use(Authenticate(r.auth, r.base))
			r.privateRoutes(private)
		})
	})

	return mux
}

func (r *Router) privateRoutes(api chi.Router) {
	api.Route("/services", func(rt chi.Router) {
		rt.Get("/", r.deptHandler.List)
		rt.Post("/", r.deptHandler.Create)
		rt.Get("/{id}", r.deptHandler.GetByID)
		rt.Put("/{id}", r.deptHandler.Update)
		rt.Patch("/{id}", r.deptHandler.Update)
		rt.Delete("/{id}", r.deptHandler.Delete)
	})

	api.Route("/users", func(rt chi.Router) {
		rt.Get("/", r.userHandler.List)
		rt.Post("/", r.userHandler.Create)
		rt.Get("/{id}", r.userHandler.GetByID)
		rt.Put("/{id}", r.userHandler.Update)
		rt.Patch("/{id}", r.userHandler.Update)
		rt.Delete("/{id}", r.userHandler.Delete)
		rt.Patch("/{id}/role", r.userHandler.ChangeRole)
	})

	api.Route("/me", func(rt chi.Router) {
		rt.Get("/", r.userHandler.Me)
		rt.Put("/", r.userHandler.UpdateMe)
		rt.Patch("/", r.userHandler.UpdateMe)
		rt.Post("/change-password", r.userHandler.ChangePassword)
	})

	api.Route("/projects", func(rt chi.Router) {
		rt.Get("/", r.projectHandler.List)
		rt.Post("/", r.projectHandler.Create)
		rt.Get("/search", r.projectHandler.Search)
		rt.Get("/{id}", r.projectHandler.GetByID)
		rt.Put("/{id}", r.projectHandler.Update)
		rt.Patch("/{id}", r.projectHandler.Update)
		rt.Delete("/{id}", r.projectHandler.Delete)
		rt.Post("/{id}/complete", r.projectHandler.Complete)
	})

	api.Route("/tasks", func(rt chi.Router) {
		rt.Get("/", r.taskHandler.List)
		rt.Post("/", r.taskHandler.Create)
		rt.Get("/search", r.taskHandler.Search)
		rt.Get("/{id}", r.taskHandler.GetByID)
		rt.Put("/{id}", r.taskHandler.Update)
		rt.Patch("/{id}", r.taskHandler.Update)
		rt.Delete("/{id}", r.taskHandler.Delete)
	})

	api.Route("/comments", func(rt chi.Router) {
		rt.Get("/", r.commentHandler.List)
		rt.Post("/", r.commentHandler.Create)
		rt.Get("/{id}", r.commentHandler.GetByID)
		rt.Put("/{id}", r.commentHandler.Update)
		rt.Patch("/{id}", r.commentHandler.Update)
		rt.Delete("/{id}", r.commentHandler.Delete)
	})

	api.Route("/attachments", func(rt chi.Router) {
		rt.Get("/", r.attachmentHandler.List)
		rt.Post("/upload", r.attachmentHandler.Upload)
		rt.Get("/{id}", r.attachmentHandler.GetByID)
		rt.Get("/{id}/download", r.attachmentHandler.Download)
		rt.Delete("/{id}", r.attachmentHandler.Delete)
	})

	api.Route("/employee-loans", func(rt chi.Router) {
		rt.Get("/", r.loanHandler.List)
		rt.Post("/", r.loanHandler.Create)
		rt.Get("/{id}", r.loanHandler.GetByID)
		rt.Put("/{id}", r.loanHandler.Update)
		rt.Patch("/{id}", r.loanHandler.Update)
		rt.Delete("/{id}", r.loanHandler.Delete)
	})

	api.Route("/urgencies", func(rt chi.Router) {
		rt.Get("/", r.emergencyHandler.List)
		rt.Post("/", r.emergencyHandler.Create)
		rt.Get("/{id}", r.emergencyHandler.GetByID)
		rt.Put("/{id}", r.emergencyHandler.Update)
		rt.Patch("/{id}", r.emergencyHandler.Update)
		rt.Delete("/{id}", r.emergencyHandler.Delete)
	})

	api.Route("/notifications", func(rt chi.Router) {
		rt.Get("/", r.notificationHandler.List)
		rt.Post("/", r.notificationHandler.Create)
		rt.Post("/mark-all-read", r.notificationHandler.MarkAllRead)
		rt.Get("/{id}", r.notificationHandler.GetByID)
		rt.Patch("/{id}", r.notificationHandler.Update)
		rt.Delete("/{id}", r.notificationHandler.Delete)
	})

	api.Route("/conversations", func(rt chi.Router) {
		rt.Get("/", r.conversationHandler.List)
		rt.Post("/", r.conversationHandler.Create)
		rt.Get("/{id}", r.conversationHandler.GetByID)
		rt.Delete("/{id}", r.conversationHandler.Delete)
		rt.Get("/{id}/messages", r.conversationHandler.Messages)
		rt.Post("/{id}/messages", r.conversationHandler.Send)
	})

	api.Get("/analytics", r.analyticsHandler.Dashboard)
	api.Get("/calendar/events", r.analyticsHandler.CalendarEvents)
	api.Get("/debug/permissions", r.userHandler.DebugPermissions)
}
