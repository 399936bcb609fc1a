package database_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/org-tasks-api/internal/database"
	"github.com/org-tasks-api/internal/database/dbtest"
	"github.com/org-tasks-api/internal/domain"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := database.MigrationFiles()
	require.NoError(t, err)
	assert.Contains(t, entries, "00001_init.sql")
}

func TestManagerIndexRejectsSecondManager(t *testing.T) {
	db := dbtest.New(t)

	dept := domain.Department{Name: "Logistics", Color: domain.DefaultDepartmentColor}
	require.NoError(t, db.Create(&dept).Error)

	first := domain.User{Username: "m1", PasswordHash: "x", Role: domain.RoleManager, DepartmentID: &dept.ID, IsActive: true}
	require.NoError(t, db.Create(&first).Error)

	second := domain.User{Username: "m2", PasswordHash: "x", Role: domain.RoleManager, DepartmentID: &dept.ID, IsActive: true}
	assert.Error(t, db.Create(&second).Error)

	employee := domain.User{Username: "e1", PasswordHash: "x", Role: domain.RoleEmployee, DepartmentID: &dept.ID, IsActive: true}
	assert.NoError(t, db.Create(&employee).Error)

	assert.NotEqual(t, uuid.Nil, employee.ID)
}
