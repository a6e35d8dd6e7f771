package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-identity/internal/crypto"
	"go-identity/internal/model"
	"go-identity/internal/repository"
)

func newTestAuthService(t *testing.T) (*AuthService, *repository.MemoryDirectory, *crypto.Codec) {
	t.Helper()

	directory := repository.NewMemoryDirectory()
	hasher, err := crypto.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := crypto.NewCodec("test-secret", 168*time.Hour)
	require.NoError(t, err)

	return NewAuthService(directory, hasher, codec), directory, codec
}

func register(t *testing.T, svc *AuthService, email string, password string) model.User {
	t.Helper()

	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: "Test User",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		user, err := svc.Register(context.Background(), model.RegisterRequest{
			Email:    "alice@example.com",
			Password: "secret1",
			FullName: "Alice",
		})
		require.NoError(t, err)

		require.NotEmpty(t, user.ID)
		require.Equal(t, "alice@example.com", user.Email)
		require.Equal(t, model.RoleUser, user.Role)
		require.True(t, user.IsActive)
		require.False(t, user.CreatedAt.IsZero())
		require.Nil(t, user.LastLogin)
	})

	t.Run("duplicate email yields exactly one success", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		register(t, svc, "alice@example.com", "secret1")

		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Email:    "alice@example.com",
			Password: "other",
		})
		require.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		ctx := context.Background()

		_, err := svc.Register(ctx, model.RegisterRequest{Email: "", Password: "x"})
		require.Error(t, err)

		_, err = svc.Register(ctx, model.RegisterRequest{Email: "not-an-email", Password: "x"})
		require.Error(t, err)

		_, err = svc.Register(ctx, model.RegisterRequest{Email: "bob@example.com", Password: ""})
		require.Error(t, err)

		_, err = svc.Register(ctx, model.RegisterRequest{Email: "bob@example.com", Password: "x", Role: "superuser"})
		require.Error(t, err)
	})

	t.Run("accepts explicit admin role and inactive flag", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		inactive := false
		user, err := svc.Register(context.Background(), model.RegisterRequest{
			Email:    "root@example.com",
			Password: "secret1",
			Role:     model.RoleAdmin,
			IsActive: &inactive,
		})
		require.NoError(t, err)
		require.Equal(t, model.RoleAdmin, user.Role)
		require.False(t, user.IsActive)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("issues a token bound to the account email", func(t *testing.T) {
		svc, _, codec := newTestAuthService(t)
		register(t, svc, "alice@example.com", "secret1")

		token, err := svc.Login(context.Background(), "alice@example.com", "secret1")
		require.NoError(t, err)

		require.NotEmpty(t, token.AccessToken)
		require.Equal(t, "bearer", token.TokenType)
		require.Equal(t, int64(604800), token.ExpiresIn)
		require.Equal(t, "alice@example.com", token.User.Email)
		require.NotNil(t, token.User.LastLogin)

		subject, err := codec.Verify(token.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc, "alice@example.com", "secret1")

		_, err := svc.Login(context.Background(), "alice@example.com", "wrong")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)

		_, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("disabled account fails even with correct credentials", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		inactive := false
		_, err := svc.Register(context.Background(), model.RegisterRequest{
			Email:    "alice@example.com",
			Password: "secret1",
			IsActive: &inactive,
		})
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), "alice@example.com", "secret1")
		require.ErrorIs(t, err, model.ErrAccountDisabled)
	})

	t.Run("last-login write failure does not fail the login", func(t *testing.T) {
		svc, directory, _ := newTestAuthService(t)
		register(t, svc, "alice@example.com", "secret1")

		directory.UpdateLastLoginErr = errors.New("store down")

		token, err := svc.Login(context.Background(), "alice@example.com", "secret1")
		require.NoError(t, err)
		require.NotEmpty(t, token.AccessToken)
		require.Nil(t, token.User.LastLogin)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("resolves a valid token", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		registered := register(t, svc, "alice@example.com", "secret1")

		token, err := svc.Login(context.Background(), "alice@example.com", "secret1")
		require.NoError(t, err)

		user, err := svc.Authenticate(context.Background(), token.AccessToken)
		require.NoError(t, err)
		require.Equal(t, registered.ID, user.ID)
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		register(t, svc, "alice@example.com", "secret1")

		token, err := svc.Login(context.Background(), "alice@example.com", "secret1")
		require.NoError(t, err)

		flipped := []byte(token.AccessToken)
		mid := len(flipped) / 2
		if flipped[mid] == 'a' {
			flipped[mid] = 'b'
		} else {
			flipped[mid] = 'a'
		}

		_, err = svc.Authenticate(context.Background(), string(flipped))
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("rejects a token for a deleted user", func(t *testing.T) {
		svc, directory, _ := newTestAuthService(t)
		registered := register(t, svc, "alice@example.com", "secret1")

		token, err := svc.Login(context.Background(), "alice@example.com", "secret1")
		require.NoError(t, err)

		require.NoError(t, directory.Delete(context.Background(), registered.ID))

		_, err = svc.Authenticate(context.Background(), token.AccessToken)
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestAuthService_RequireActive(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)

	active := model.User{ID: "u1", IsActive: true}
	passed, err := svc.RequireActive(active)
	require.NoError(t, err)
	require.Equal(t, active, passed)

	_, err = svc.RequireActive(model.User{ID: "u2", IsActive: false})
	require.ErrorIs(t, err, model.ErrInactiveAccount)
}

func TestAuthService_UpdateSelf(t *testing.T) {
	t.Parallel()

	t.Run("applies only the supplied fields", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		user := register(t, svc, "alice@example.com", "secret1")

		name := "Alice L."
		updated, err := svc.UpdateSelf(context.Background(), user, model.UserUpdate{FullName: &name})
		require.NoError(t, err)

		require.Equal(t, "Alice L.", updated.FullName)
		require.Equal(t, "alice@example.com", updated.Email)
		require.True(t, updated.IsActive)
	})

	t.Run("empty update returns the user without a write", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		user := register(t, svc, "alice@example.com", "secret1")

		updated, err := svc.UpdateSelf(context.Background(), user, model.UserUpdate{})
		require.NoError(t, err)
		require.Equal(t, user, updated)
		require.Equal(t, user.UpdatedAt, updated.UpdatedAt)
	})

	t.Run("email collision with another user", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		alice := register(t, svc, "alice@example.com", "secret1")
		register(t, svc, "bob@example.com", "secret2")

		taken := "bob@example.com"
		_, err := svc.UpdateSelf(context.Background(), alice, model.UserUpdate{Email: &taken})
		require.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("re-submitting the own email is not a collision", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		alice := register(t, svc, "alice@example.com", "secret1")

		same := "alice@example.com"
		updated, err := svc.UpdateSelf(context.Background(), alice, model.UserUpdate{Email: &same})
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", updated.Email)
	})

	t.Run("rejects an invalid role", func(t *testing.T) {
		svc, _, _ := newTestAuthService(t)
		alice := register(t, svc, "alice@example.com", "secret1")

		bad := "owner"
		_, err := svc.UpdateSelf(context.Background(), alice, model.UserUpdate{Role: &bad})
		require.Error(t, err)
	})
}
