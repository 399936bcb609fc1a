package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	dept := uuid.New()
	name := "Logistics"

	token, expiresAt, err := svc.Issue(Claims{
		UserID:         uuid.New(),
		Username:       "alice",
		Role:           "MANAGER",
		DepartmentID:   &dept,
		DepartmentName: &name,
		Permissions:    []string{"view_task", "add_task"},
		IsStaff:        true,
		Groups:         []string{"MANAGER"},
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "MANAGER", claims.Role)
	assert.Equal(t, &dept, claims.DepartmentID)
	assert.Equal(t, &name, claims.DepartmentName)
	assert.Equal(t, []string{"view_task", "add_task"}, claims.Permissions)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, []string{"MANAGER"}, claims.Groups)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	other := NewTokenService("other-secret", time.Hour)

	token, _, err := other.Issue(Claims{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenService("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err = expired.Issue(Claims{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pa55word")
	require.NoError(t, err)
	assert.True(t, h.Verify("pa55word", hash))
	assert.False(t, h.Verify("wrong", hash))

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}
