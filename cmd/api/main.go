package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	"github.com/org-tasks-api/internal/auth"
	"github.com/org-tasks-api/internal/config"
	"github.com/org-tasks-api/internal/database"
	"github.com/org-tasks-api/internal/handler"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/service"
	"github.com/org-tasks-api/internal/storage"
)

func main() {
	// Инициализация логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg := config.Load()
	if cfg.Auth.AdminSecretCode == "" {
		logger.Warn("ADMIN_SECRET_CODE is empty, privileged self-registration is disabled")
	}

	// Подключение к БД и миграции
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.String("driver", cfg.Database.Driver), slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Error("failed to init attachment storage", slog.String("driver", cfg.Storage.Driver), slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация репозиториев
	tx := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Инициализация сервисов
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(bcrypt.DefaultCost)
	roles := service.NewRoleSynchronizer(userRepo, deptRepo, policy.DefaultCatalog())

	services := handler.Services{
		Auth:          service.NewAuthService(tx, userRepo, deptRepo, tokens, hasher, roles, cfg.Auth.AdminSecretCode),
		Users:         service.NewUserService(tx, userRepo, deptRepo, hasher, roles),
		Departments:   service.NewDepartmentService(tx, deptRepo, userRepo, roles),
		Projects:      service.NewProjectService(tx, projectRepo, userRepo, deptRepo, attachmentRepo, store),
		Tasks:         service.NewTaskService(tx, taskRepo, projectRepo, userRepo, deptRepo, attachmentRepo, store),
		Comments:      service.NewCommentService(tx, repository.NewCommentRepository(db), taskRepo),
		Attachments:   service.NewAttachmentService(attachmentRepo, taskRepo, projectRepo, userRepo, store, cfg.Server.MaxUploadBytes),
		Loans:         service.NewLoanService(tx, repository.NewLoanRepository(db), userRepo, deptRepo),
		Emergencies:   service.NewEmergencyService(tx, repository.NewEmergencyRepository(db), deptRepo),
		Conversations: service.NewConversationService(tx, repository.NewConversationRepository(db), userRepo),
		Notifications: service.NewNotificationService(repository.NewNotificationRepository(db), userRepo),
		Analytics:     service.NewAnalyticsService(repository.NewAnalyticsRepository(db)),
		Calendar:      service.NewCalendarService(taskRepo, projectRepo),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, cfg.Database.Driver),
	)

	// Настройка роутера
	router := handler.NewRouter(services, cfg.Server.MaxUploadBytes, registry, logger)
	httpHandler := router.Setup()

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("server is starting", slog.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
