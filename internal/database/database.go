// Package database открывает подключения к БД и поддерживает схему в актуальном состоянии
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/org-tasks-api/internal/config"
	"github.com/org-tasks-api/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ManagerIndexSQL - частичный уникальный индекс: не более одного MANAGER на подразделение
const ManagerIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_manager_per_department ON users(department_id) WHERE role = 'MANAGER'`

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
}

// Open подключается к БД согласно настройкам
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres", "":
		db, err := ConnectPostgres(cfg, 30)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := RunMigrations(sqlDB); err != nil {
			return nil, err
		}
		return db, nil
	case "sqlite":
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// ConnectPostgres подключается к PostgreSQL, повторяя попытки раз в секунду
func ConnectPostgres(cfg config.DatabaseConfig, attempts int) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig())
		if err == nil {
			sqlDB, _ := db.DB()
			if err = sqlDB.Ping(); err == nil {
				return db, nil
			}
		}
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

// RunMigrations применяет встроенные миграции goose
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// OpenSQLite открывает файл SQLite. Транзакции берут блокировку на запись сразу,
// поэтому конкурентные записи ждут друг друга вместо ошибки SQLITE_BUSY.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	return db, nil
}

// Models - все хранимые сущности в порядке создания таблиц
func Models() []any {
	return []any{
		&domain.Department{},
		&domain.User{},
		&domain.UserGroup{},
		&domain.UserPermission{},
		&domain.Project{},
		&domain.Task{},
		&domain.Comment{},
		&domain.Attachment{},
		&domain.EmployeeLoan{},
		&domain.EmergencyMode{},
		&domain.Conversation{},
		&domain.Message{},
		&domain.Notification{},
	}
}

// AutoMigrate создаёт схему по моделям; используется для SQLite
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(ManagerIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create manager index: %w", err)
	}
	return nil
}

// MigrationFiles возвращает имена встроенных файлов миграций
func MigrationFiles() ([]string, error) {
	entries, err := embedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
