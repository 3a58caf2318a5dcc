package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/service"
)

var hexToken64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

type authFixture struct {
	userRepo    *MockUserRepository
	refreshRepo *MockRefreshTokenRepository
	txManager   *MockTransaction
	rateLimiter *MockRateLimitCache
	events      *MockEventPublisher
	svc         *service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	f := &authFixture{
		userRepo:    new(MockUserRepository),
		refreshRepo: new(MockRefreshTokenRepository),
		txManager:   new(MockTransaction),
		rateLimiter: new(MockRateLimitCache),
		events:      new(MockEventPublisher),
	}
	f.svc = service.NewAuthService(
		f.userRepo,
		f.refreshRepo,
		service.NewTokenService(testSigningSecret, 15*time.Minute),
		f.txManager,
		f.rateLimiter,
		f.events,
		service.LockoutConfig{MaxAttempts: 5, Duration: 15 * time.Minute},
		7*24*time.Hour,
		testLogger(),
	)
	return f
}

func newPasswordUser(t *testing.T, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	role, err := domain.NewRole("member", "")
	require.NoError(t, err)

	user := domain.NewUser("alice@example.com", string(hash), "Alice", *role)
	user.PullEvents()
	return user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	req := domain.LoginRequest{Email: "alice@example.com", Password: "correct horse"}

	t.Run("success issues token pair and resets lockout", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, req.Password)

		f.rateLimiter.On("Get", ctx, "lockout:alice@example.com").Return(int64(0), nil)
		f.rateLimiter.On("Reset", ctx, "lockout:alice@example.com").Return(nil)
		f.userRepo.On("FindByEmail", ctx, req.Email).Return(user, nil)
		f.refreshRepo.On("Create", ctx, mock.AnythingOfType("*domain.RefreshToken")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return()

		pair, err := f.svc.Login(ctx, req, "192.0.2.1", "test-agent")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Regexp(t, hexToken64, pair.RefreshToken)
		assert.Greater(t, pair.ExpiresIn, int64(0))

		f.rateLimiter.AssertCalled(t, "Reset", ctx, "lockout:alice@example.com")

		events := f.events.PublishedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventUserLoggedIn, events[0].EventName())
	})

	t.Run("wrong password is generic and counted", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, req.Password)

		f.rateLimiter.On("Get", ctx, mock.Anything).Return(int64(2), nil)
		f.rateLimiter.On("Increment", ctx, "lockout:alice@example.com", 15*time.Minute).Return(int64(3), nil)
		f.userRepo.On("FindByEmail", ctx, req.Email).Return(user, nil)

		_, err := f.svc.Login(ctx, domain.LoginRequest{Email: req.Email, Password: "wrong"}, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
		f.rateLimiter.AssertCalled(t, "Increment", ctx, "lockout:alice@example.com", 15*time.Minute)
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		f := newAuthFixture(t)

		f.rateLimiter.On("Get", ctx, mock.Anything).Return(int64(0), nil)
		f.rateLimiter.On("Increment", ctx, mock.Anything, mock.Anything).Return(int64(1), nil)
		f.userRepo.On("FindByEmail", ctx, req.Email).Return(nil, apperror.NotFound("user", req.Email))

		_, err := f.svc.Login(ctx, req, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
	})

	t.Run("locked account rejected before password check", func(t *testing.T) {
		f := newAuthFixture(t)

		f.rateLimiter.On("Get", ctx, mock.Anything).Return(int64(5), nil)

		_, err := f.svc.Login(ctx, req, "", "")
		assertCode(t, err, apperror.CodeTooManyRequests)
		f.userRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("inactive account rejected", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, req.Password)
		user.IsActive = false

		f.rateLimiter.On("Get", ctx, mock.Anything).Return(int64(0), nil)
		f.userRepo.On("FindByEmail", ctx, req.Email).Return(user, nil)

		_, err := f.svc.Login(ctx, req, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
	})

	t.Run("oauth-only account cannot use password login", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, req.Password)
		user.PasswordHash = ""

		f.rateLimiter.On("Get", ctx, mock.Anything).Return(int64(0), nil)
		f.userRepo.On("FindByEmail", ctx, req.Email).Return(user, nil)

		_, err := f.svc.Login(ctx, req, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("active token rotates into a linked successor", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, "pw")

		old, err := domain.NewRefreshToken(user.ID, time.Hour, "old-agent", "192.0.2.1")
		require.NoError(t, err)

		var successorToken string
		f.refreshRepo.On("FindByToken", ctx, old.Token).Return(old, nil)
		f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		f.txManager.On("WithTransaction", ctx, mock.Anything).Return(nil)
		f.refreshRepo.On("CreateTx", ctx, mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).
			Run(func(args mock.Arguments) {
				successorToken = args.Get(2).(*domain.RefreshToken).Token
			}).Return(nil)
		f.refreshRepo.On("RevokeTx", ctx, mock.Anything, old.Token, mock.AnythingOfType("*string")).Return(int64(1), nil)

		pair, err := f.svc.Refresh(ctx, old.Token, "192.0.2.2", "new-agent")
		require.NoError(t, err)
		assert.Regexp(t, hexToken64, pair.RefreshToken)
		assert.NotEqual(t, old.Token, pair.RefreshToken)
		assert.Equal(t, successorToken, pair.RefreshToken)

		// The predecessor's revocation points at the successor.
		revokeCall := f.refreshRepo.Calls[len(f.refreshRepo.Calls)-1]
		require.Equal(t, "RevokeTx", revokeCall.Method)
		replacedBy := revokeCall.Arguments.Get(3).(*string)
		require.NotNil(t, replacedBy)
		assert.Equal(t, successorToken, *replacedBy)

		// The access token carries the user's current roles.
		tokenSvc := service.NewTokenService(testSigningSecret, 15*time.Minute)
		claims, err := tokenSvc.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.RoleNames(), claims.Roles)
	})

	t.Run("unknown token is generic unauthorized", func(t *testing.T) {
		f := newAuthFixture(t)

		f.refreshRepo.On("FindByToken", ctx, "deadbeef").Return(nil, apperror.NotFound("refresh_token", "presented value"))

		_, err := f.svc.Refresh(ctx, "deadbeef", "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
		f.refreshRepo.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, mock.Anything)
	})

	t.Run("revoked token reuse revokes the whole family", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := newPasswordUser(t, "pw").ID

		revoked, err := domain.NewRefreshToken(userID, time.Hour, "", "")
		require.NoError(t, err)
		require.NoError(t, revoked.Revoke(nil))

		f.refreshRepo.On("FindByToken", ctx, revoked.Token).Return(revoked, nil)
		f.refreshRepo.On("RevokeAllForUser", ctx, userID).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return()

		_, err = f.svc.Refresh(ctx, revoked.Token, "192.0.2.9", "agent")
		assertCode(t, err, apperror.CodeUnauthorized)

		f.refreshRepo.AssertCalled(t, "RevokeAllForUser", ctx, userID)
		events := f.events.PublishedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTokenReuseDetected, events[0].EventName())
	})

	t.Run("expired token is rejected without family revocation", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := newPasswordUser(t, "pw").ID

		expired, err := domain.NewRefreshToken(userID, -time.Minute, "", "")
		require.NoError(t, err)

		f.refreshRepo.On("FindByToken", ctx, expired.Token).Return(expired, nil)

		_, err = f.svc.Refresh(ctx, expired.Token, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
		f.refreshRepo.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, mock.Anything)
	})

	t.Run("lost rotation race is treated as reuse", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, "pw")

		active, err := domain.NewRefreshToken(user.ID, time.Hour, "", "")
		require.NoError(t, err)

		f.refreshRepo.On("FindByToken", ctx, active.Token).Return(active, nil)
		f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		f.txManager.On("WithTransaction", ctx, mock.Anything).Return(nil)
		f.refreshRepo.On("CreateTx", ctx, mock.Anything, mock.Anything).Return(nil)
		// Zero rows updated: a concurrent rotation already revoked the token.
		f.refreshRepo.On("RevokeTx", ctx, mock.Anything, active.Token, mock.Anything).Return(int64(0), nil)
		f.refreshRepo.On("RevokeAllForUser", ctx, user.ID).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return()

		_, err = f.svc.Refresh(ctx, active.Token, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
		f.refreshRepo.AssertCalled(t, "RevokeAllForUser", ctx, user.ID)
	})

	t.Run("inactive user cannot refresh", func(t *testing.T) {
		f := newAuthFixture(t)
		user := newPasswordUser(t, "pw")
		user.IsActive = false

		active, err := domain.NewRefreshToken(user.ID, time.Hour, "", "")
		require.NoError(t, err)

		f.refreshRepo.On("FindByToken", ctx, active.Token).Return(active, nil)
		f.userRepo.On("FindByID", ctx, user.ID).Return(user, nil)

		_, err = f.svc.Refresh(ctx, active.Token, "", "")
		assertCode(t, err, apperror.CodeUnauthorized)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("active token is revoked", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := newPasswordUser(t, "pw").ID

		active, err := domain.NewRefreshToken(userID, time.Hour, "", "")
		require.NoError(t, err)

		f.refreshRepo.On("FindByToken", ctx, active.Token).Return(active, nil)
		f.refreshRepo.On("Revoke", ctx, active.Token, (*string)(nil)).Return(int64(1), nil)
		f.events.On("Publish", ctx, mock.Anything).Return()

		require.NoError(t, f.svc.Logout(ctx, active.Token))
		f.refreshRepo.AssertCalled(t, "Revoke", ctx, active.Token, (*string)(nil))
	})

	t.Run("unknown token succeeds silently", func(t *testing.T) {
		f := newAuthFixture(t)

		f.refreshRepo.On("FindByToken", ctx, "unknown").Return(nil, apperror.NotFound("refresh_token", "presented value"))

		require.NoError(t, f.svc.Logout(ctx, "unknown"))
		f.refreshRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already revoked token succeeds silently", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := newPasswordUser(t, "pw").ID

		revoked, err := domain.NewRefreshToken(userID, time.Hour, "", "")
		require.NoError(t, err)
		require.NoError(t, revoked.Revoke(nil))

		f.refreshRepo.On("FindByToken", ctx, revoked.Token).Return(revoked, nil)

		require.NoError(t, f.svc.Logout(ctx, revoked.Token))
		f.refreshRepo.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_LogoutAll(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	userID := newPasswordUser(t, "pw").ID

	f.refreshRepo.On("RevokeAllForUser", ctx, userID).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return()

	require.NoError(t, f.svc.LogoutAll(ctx, userID))

	events := f.events.PublishedEvents()
	require.Len(t, events, 1)
	logout, ok := events[0].(domain.UserLoggedOutEvent)
	require.True(t, ok)
	assert.True(t, logout.AllDevices)
}
