package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/andrewhigh08/access-service/internal/adapter/cache/redis"
	postgresrepo "github.com/andrewhigh08/access-service/internal/adapter/repository/postgres"
	"github.com/andrewhigh08/access-service/internal/config"
	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/eventbus"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/service"
)

// services bundles the fully wired service layer for flow tests.
// services собирает полностью связанный сервисный слой для сквозных тестов.
type services struct {
	auth   *service.AuthService
	token  *service.TokenService
	access *service.AccessService
	users  *service.UserService
	roles  *service.RoleService
	audit  *service.AuditService
	seeder *service.Seeder
}

func wireServices(tc *TestContainers) *services {
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	userRepo := postgresrepo.NewUserRepository(tc.DB)
	roleRepo := postgresrepo.NewRoleRepository(tc.DB)
	permRepo := postgresrepo.NewPermissionRepository(tc.DB)
	refreshRepo := postgresrepo.NewRefreshTokenRepository(tc.DB)
	oauthRepo := postgresrepo.NewOAuthConnectionRepository(tc.DB)
	auditRepo := postgresrepo.NewAuditLogRepository(tc.DB)
	txManager := postgresrepo.NewTransactionManager(tc.DB)

	permissionCache := rediscache.NewPermissionCache(tc.Redis)
	rateLimitCache := rediscache.NewRateLimitCache(tc.Redis)

	bus := eventbus.New(log, 5*time.Second)
	audit := service.NewAuditService(auditRepo, log)
	bus.SubscribeAll("audit_trail", audit.HandleEvent)

	token := service.NewTokenService("integration-test-secret-32-bytes!!", 15*time.Minute)
	access := service.NewAccessService(roleRepo, permRepo, permissionCache, 5*time.Minute, log)
	auth := service.NewAuthService(
		userRepo, refreshRepo, token, txManager, rateLimitCache, bus,
		service.LockoutConfig{MaxAttempts: 5, Duration: 15 * time.Minute},
		7*24*time.Hour,
		log,
	)
	users := service.NewUserService(userRepo, roleRepo, permRepo, oauthRepo, txManager, access, bus, log)
	roles := service.NewRoleService(roleRepo, permRepo, access, log)
	seeder := service.NewSeeder(userRepo, roleRepo, permRepo, txManager, config.SeedConfig{
		AdminEmail:    "admin@example.com",
		AdminPassword: "Adm1n!ChangeMe",
		AdminFullName: "Administrator",
	}, log)

	return &services{
		auth:   auth,
		token:  token,
		access: access,
		users:  users,
		roles:  roles,
		audit:  audit,
		seeder: seeder,
	}
}

func TestIntegration_AccessFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	tc, err := SetupTestContainers(ctx)
	require.NoError(t, err)
	defer tc.Teardown(ctx)

	require.NoError(t, tc.RunMigrations())

	svc := wireServices(tc)
	require.NoError(t, svc.seeder.Seed(ctx))

	const password = "Vg7!plumTree"

	t.Run("register login and resolve permissions", func(t *testing.T) {
		user, err := svc.users.Register(ctx, domain.RegisterUserRequest{
			Email:    "alice@example.com",
			Password: password,
			FullName: "Alice",
		})
		require.NoError(t, err)
		assert.True(t, user.HasRole(domain.DefaultRoleMember))

		pair, err := svc.auth.Login(ctx, domain.LoginRequest{
			Email:    "alice@example.com",
			Password: password,
		}, "127.0.0.1", "integration/1.0")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.Len(t, pair.RefreshToken, 64)

		claims, err := svc.token.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.UserID)
		assert.Contains(t, claims.Roles, domain.DefaultRoleMember)

		// The seeded member role carries users:read.
		allowed, err := svc.access.UserHasPermission(ctx, user.ID, "users:read")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.access.UserHasPermission(ctx, user.ID, "roles:write")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("role assignment takes effect without re-login", func(t *testing.T) {
		user, err := svc.users.Register(ctx, domain.RegisterUserRequest{
			Email:    "bob@example.com",
			Password: password,
			FullName: "Bob",
		})
		require.NoError(t, err)

		// Warm the permission cache with the pre-assignment set.
		allowed, err := svc.access.UserHasPermission(ctx, user.ID, "roles:write")
		require.NoError(t, err)
		require.False(t, allowed)

		require.NoError(t, svc.users.AssignRole(ctx, user.ID, domain.SystemRoleAdmin, user.ID))

		// The mutation must have invalidated the cached set: the wildcard
		// from the admin role answers immediately.
		allowed, err = svc.access.UserHasPermission(ctx, user.ID, "roles:write")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("refresh rotation and reuse detection", func(t *testing.T) {
		_, err := svc.users.Register(ctx, domain.RegisterUserRequest{
			Email:    "carol@example.com",
			Password: password,
			FullName: "Carol",
		})
		require.NoError(t, err)

		pair, err := svc.auth.Login(ctx, domain.LoginRequest{
			Email:    "carol@example.com",
			Password: password,
		}, "127.0.0.1", "integration/1.0")
		require.NoError(t, err)

		rotated, err := svc.auth.Refresh(ctx, pair.RefreshToken, "127.0.0.1", "integration/1.0")
		require.NoError(t, err)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// Replaying the consumed token is treated as theft: the whole
		// family dies, including the freshly issued successor.
		_, err = svc.auth.Refresh(ctx, pair.RefreshToken, "127.0.0.1", "integration/1.0")
		require.Error(t, err)

		_, err = svc.auth.Refresh(ctx, rotated.RefreshToken, "127.0.0.1", "integration/1.0")
		require.Error(t, err)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		pair, err := svc.auth.Login(ctx, domain.LoginRequest{
			Email:    "alice@example.com",
			Password: password,
		}, "127.0.0.1", "integration/1.0")
		require.NoError(t, err)

		require.NoError(t, svc.auth.Logout(ctx, pair.RefreshToken))
		require.NoError(t, svc.auth.Logout(ctx, pair.RefreshToken))
		require.NoError(t, svc.auth.Logout(ctx, "0000000000000000000000000000000000000000000000000000000000000000"))

		_, err = svc.auth.Refresh(ctx, pair.RefreshToken, "127.0.0.1", "integration/1.0")
		require.Error(t, err)
	})

	t.Run("role lifecycle invalidates member permissions", func(t *testing.T) {
		actor, err := svc.users.Register(ctx, domain.RegisterUserRequest{
			Email:    "erin@example.com",
			Password: password,
			FullName: "Erin",
		})
		require.NoError(t, err)

		role, err := svc.roles.CreateRole(ctx, domain.CreateRoleRequest{
			Name:        "auditor",
			Description: "read-only audit access",
			Permissions: []string{"audit:read"},
		}, actor.ID)
		require.NoError(t, err)

		require.NoError(t, svc.users.AssignRole(ctx, actor.ID, "auditor", actor.ID))

		allowed, err := svc.access.UserHasPermission(ctx, actor.ID, "audit:read")
		require.NoError(t, err)
		require.True(t, allowed)

		require.NoError(t, svc.roles.DeleteRole(ctx, role.ID, actor.ID))

		allowed, err = svc.access.UserHasPermission(ctx, actor.ID, "audit:read")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("domain events land in the audit trail", func(t *testing.T) {
		user, err := svc.users.Register(ctx, domain.RegisterUserRequest{
			Email:    "dave@example.com",
			Password: password,
			FullName: "Dave",
		})
		require.NoError(t, err)

		// Dispatch is asynchronous and best-effort, so poll.
		assert.Eventually(t, func() bool {
			logs, err := svc.audit.GetUserAuditLogs(ctx, user.ID, 10)
			if err != nil {
				return false
			}
			for _, entry := range logs {
				if entry.Action == domain.EventUserRegistered {
					return true
				}
			}
			return false
		}, 10*time.Second, 100*time.Millisecond)
	})
}
