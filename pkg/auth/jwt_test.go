package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/pkg/clock"
)

func testUser() *model.User {
	return &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "vet@clinic.example",
		Role:  model.RoleVet,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	clk := clock.NewMock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewJWTService("test-secret", time.Hour, clk)
	user := testUser()

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleVet, claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	clk := clock.NewMock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	svc := NewJWTService("test-secret", time.Hour, clk)

	token, _, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSignedWithWrongSecretRejected(t *testing.T) {
	clk := clock.NewMock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	token, _, err := NewJWTService("other-secret", time.Hour, clk).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour, clk).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, clock.New())
	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
