// Команда syncperms пересчитывает права и руководство подразделений для всех
// пользователей по текущему каталогу ролей. Запускается после изменения каталога.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/org-tasks-api/internal/config"
	"github.com/org-tasks-api/internal/database"
	"github.com/org-tasks-api/internal/policy"
	"github.com/org-tasks-api/internal/repository"
	"github.com/org-tasks-api/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	users := repository.NewUserRepository(db)
	roles := service.NewRoleSynchronizer(users, repository.NewDepartmentRepository(db), policy.DefaultCatalog())

	synced, err := service.SyncAll(ctx, repository.NewTxManager(db), users, roles)
	logger.Info("permissions synchronized", slog.Int("users", synced))
	if err != nil {
		logger.Error("some users could not be synchronized", slog.Any("error", err))
		os.Exit(1)
	}
}
