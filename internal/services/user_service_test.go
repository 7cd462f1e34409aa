package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackit/internal/models"
	"trackit/internal/repositories"
	"trackit/internal/repositories/memstore"
	"trackit/internal/services"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(memstore.NewUserRepository())

	u, err := svc.RegisterUser(ctx, models.UserRegisterRequest{Name: "A", Email: " A@X.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = svc.RegisterUser(ctx, models.UserRegisterRequest{Name: "B", Email: "a@x.com", Password: "secret2"})
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)

	_, err = svc.RegisterUser(ctx, models.UserRegisterRequest{Name: "C", Email: "c@x.com", Password: "12345"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.RegisterUser(ctx, models.UserRegisterRequest{Name: " ", Email: "d@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestAuthenticateUser(t *testing.T) {
	ctx := context.Background()
	svc := services.NewUserService(memstore.NewUserRepository())
	registered, err := svc.RegisterUser(ctx, models.UserRegisterRequest{Name: "A", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	u, err := svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "A@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.Empty(t, u.PasswordHash)

	_, err = svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.AuthenticateUser(ctx, models.UserLoginRequest{Email: "nobody@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	me, err := svc.GetUserByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", me.Name)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := services.NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken("user-1", "a@x.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := services.NewJWTService("test-secret", time.Hour)
	other := services.NewJWTService("other-secret", time.Hour)
	expired := services.NewJWTService("test-secret", -time.Minute)

	token, err := other.GenerateToken("user-1", "a@x.com")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	token, err = expired.GenerateToken("user-1", "a@x.com")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err, "expired")

	_, err = svc.ValidateToken("invalid.jwt.token")
	assert.Error(t, err)
}
