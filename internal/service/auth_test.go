package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

func TestAuthService_Setup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	required, err := env.auth.IsSetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)

	resp, err := env.auth.Setup(ctx, SetupRequest{
		Email:       "Admin@Example.com",
		Password:    "supersecret",
		DisplayName: "Admin",
	}, ClientInfo{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	assert.Equal(t, "admin@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	_, err = env.auth.Setup(ctx, SetupRequest{Email: "b@example.com", Password: "supersecret"}, ClientInfo{})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyConfigured))
}

func TestAuthService_Setup_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Setup(context.Background(), SetupRequest{Email: "not-an-email", Password: "short"}, ClientInfo{})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "player@example.com", false)

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Email: "player@example.com", Password: "nope"})
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.auth.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever"})
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
	})

	t.Run("success", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, LoginRequest{Email: "PLAYER@example.com", Password: "correct horse battery"})
		require.NoError(t, err)
		assert.False(t, resp.User.IsAdmin())

		claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
		assert.Equal(t, resp.SessionID, claims.SessionID)
		assert.False(t, claims.IsAdmin)
	})
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "player@example.com", false)

	login, err := env.auth.Login(ctx, LoginRequest{Email: "player@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, login.SessionID, refreshed.SessionID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = env.auth.RefreshTokens(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTokenExpired))
}

func TestAuthService_LogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "player@example.com", false)

	login, err := env.auth.Login(ctx, LoginRequest{Email: "player@example.com", Password: "correct horse battery"})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, login.SessionID))

	_, err = env.auth.VerifyAccessToken(ctx, login.AccessToken)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
}

func TestAuthService_VerifyAccessToken_Garbage(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
}

func TestAuthService_CreateUser_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "dup@example.com", false)

	_, err := env.auth.CreateUser(context.Background(), CreateUserRequest{Email: "DUP@example.com", Password: "longenough"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestAuthService_Login_RehashesStalePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "player@example.com", false)

	stronger := auth.PasswordParams{Memory: 2048, Iterations: 2, Parallelism: 1}
	svc := NewAuthService(env.store, env.sessions, env.tokens, auth.NewPasswordHasher(stronger), nil)

	_, err := svc.Login(ctx, LoginRequest{Email: "player@example.com", Password: testPassword})
	require.NoError(t, err)

	stored, err := env.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, user.PasswordHash, stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "$m=2048,t=2,p=1$")

	// The new hash is current, so a second login leaves it alone.
	_, err = svc.Login(ctx, LoginRequest{Email: "player@example.com", Password: testPassword})
	require.NoError(t, err)
	again, err := env.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.PasswordHash, again.PasswordHash)
}
