package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/org-tasks-api/internal/domain"
)

func TestTranslateError_KnownConstraint(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uniq_manager_per_department"})
	assert.ErrorIs(t, err, domain.ErrDepartmentHasManager)
}

func TestTranslateError_UnmappedConstraintHidesDetail(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		message string
	}{
		{
			name: "unique",
			pgErr: &pgconn.PgError{
				Code:           pgUniqueViolation,
				ConstraintName: "attachments_storage_key_key",
				TableName:      "attachments",
				Message:        `duplicate key value violates unique constraint "attachments_storage_key_key"`,
			},
			message: "value already exists",
		},
		{
			name: "check",
			pgErr: &pgconn.PgError{
				Code:           pgCheckViolation,
				ConstraintName: "projects_progress_range",
				TableName:      "projects",
				Message:        `new row for relation "projects" violates check constraint "projects_progress_range"`,
			},
			message: "constraint violated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.pgErr)
			require.ErrorIs(t, err, domain.ErrValidation)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.message, vErr.Message)
			assert.NotContains(t, vErr.Error(), tt.pgErr.ConstraintName)
			assert.NotContains(t, vErr.Error(), tt.pgErr.TableName)
		})
	}
}

func TestTranslateError_SQLiteUnmapped(t *testing.T) {
	err := translateError(errors.New("UNIQUE constraint failed: attachments.storage_key"))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "value already exists", vErr.Message)
	assert.NotContains(t, vErr.Error(), "storage_key")
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%a\_b\%c\\d%`, containsPattern(`a_b%c\d`))
	assert.Equal(t, "%%", containsPattern(""))
}
