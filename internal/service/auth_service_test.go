package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"task-service/internal/jwt"
	"task-service/internal/model"
	"task-service/internal/repository"
	"task-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (service.AuthService, *jwt.Codec) {
	t.Helper()
	codec, err := jwt.NewCodec("test-secret", jwt.DefaultTTL)
	require.NoError(t, err)
	return service.NewAuthService(repository.NewMemoryStore().Users(), codec), codec
}

func TestAuthService_RegisterThenDuplicate(t *testing.T) {
	svc, codec := newAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "Alice", user.Name)
	require.Equal(t, "a@x.com", user.Email)
	require.NotEqual(t, "secret1", user.PasswordHash)

	userID, ok := codec.Validate(token)
	require.True(t, ok)
	require.Equal(t, user.ID, userID)

	_, _, err = svc.Register(ctx, "Alice again", "a@x.com", "other")
	require.ErrorIs(t, err, service.ErrConflict)

	_, _, err = svc.Register(ctx, "Alice upper", "  A@X.COM ", "other")
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestAuthService_RegisterMissingFields(t *testing.T) {
	svc, _ := newAuthService(t)

	_, _, err := svc.Register(context.Background(), " ", "a@x.com", "secret1")
	require.ErrorIs(t, err, service.ErrValidation)

	_, _, err = svc.Register(context.Background(), "Alice", "a@x.com", "")
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthService_RegisterPasswordTooLong(t *testing.T) {
	svc, _ := newAuthService(t)

	_, _, err := svc.Register(context.Background(), "Alice", "a@x.com", strings.Repeat("p", 80))
	require.ErrorIs(t, err, service.ErrValidation)

	var validationErr *service.ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "Password is too long", validationErr.Message)

	_, _, err = svc.Register(context.Background(), "Alice", "a@x.com", strings.Repeat("p", 72))
	require.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, codec := newAuthService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@x.com", "secret1")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	user, token, err := svc.Login(ctx, "A@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)

	userID, ok := codec.Validate(token)
	require.True(t, ok)
	require.Equal(t, registered.ID, userID)
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.CurrentUser(ctx, model.Anonymous)
	require.NoError(t, err)
	require.Nil(t, user)

	user, err = svc.CurrentUser(ctx, model.Authenticated(uuid.New()))
	require.NoError(t, err)
	require.Nil(t, user)

	registered, _, err := svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)

	user, err = svc.CurrentUser(ctx, model.Authenticated(registered.ID))
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Empty(t, user.PasswordHash)
}

func TestAuthService_UpdateAvatar(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Alice", "a@x.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, model.DefaultAvatarURL, registered.Avatar())

	user, err := svc.UpdateAvatar(ctx, model.Authenticated(registered.ID), "https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.jpg", user.Avatar())

	_, err = svc.UpdateAvatar(ctx, model.Anonymous, "https://cdn.example.com/a.jpg")
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.UpdateAvatar(ctx, model.Authenticated(registered.ID), " ")
	require.ErrorIs(t, err, service.ErrValidation)
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, errors.New("connection refused")
}

func TestAuthService_StoreErrorsAreNotMaskedAsCredentials(t *testing.T) {
	codec, err := jwt.NewCodec("test-secret", jwt.DefaultTTL)
	require.NoError(t, err)
	svc := service.NewAuthService(failingUsers{}, codec)

	_, _, err = svc.Login(context.Background(), "a@x.com", "secret1")
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = svc.Register(context.Background(), "Alice", "a@x.com", "secret1")
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrConflict)
}
