// Package integration contains container-backed end-to-end tests.
// Пакет integration содержит сквозные тесты на контейнерах.
package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/andrewhigh08/access-service/internal/domain"
)

// TestContainers holds references to test containers
type TestContainers struct {
	PostgresContainer testcontainers.Container
	RedisContainer    testcontainers.Container
	DB                *gorm.DB
	Redis             *redis.Client
}

// SetupTestContainers starts PostgreSQL and Redis containers for integration testing
func SetupTestContainers(ctx context.Context) (*TestContainers, error) {
	tc := &TestContainers{}

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "access_test_db",
				"POSTGRES_USER":     "access_user",
				"POSTGRES_PASSWORD": "access_password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}
	tc.PostgresContainer = pgContainer

	// Get PostgreSQL connection details
	pgHost, err := pgContainer.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres host: %w", err)
	}
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres port: %w", err)
	}

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("host=%s port=%s user=access_user password=access_password dbname=access_test_db sslmode=disable", pgHost, pgPort.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	tc.DB = db

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}
	tc.RedisContainer = redisContainer

	// Get Redis connection details
	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get redis host: %w", err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get redis port: %w", err)
	}

	// Connect to Redis
	tc.Redis = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})

	// Verify Redis connection
	if err := tc.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return tc, nil
}

// Teardown stops and removes all containers
func (tc *TestContainers) Teardown(ctx context.Context) error {
	var errs []error

	if tc.Redis != nil {
		if err := tc.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	if tc.PostgresContainer != nil {
		if err := tc.PostgresContainer.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate postgres container: %w", err))
		}
	}

	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to terminate redis container: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("teardown errors: %v", errs)
	}

	return nil
}

// RunMigrations runs database migrations for testing. The same AutoMigrate
// set the server runs at startup, so the schema under test matches production.
// RunMigrations выполняет миграции БД для тестов. Тот же набор AutoMigrate,
// что сервер выполняет при старте, поэтому схема в тестах совпадает с боевой.
func (tc *TestContainers) RunMigrations() error {
	return tc.DB.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.RefreshToken{},
		&domain.OAuthConnection{},
		&domain.AuditLog{},
	)
}

// CleanupData removes all data from tables (for test isolation)
func (tc *TestContainers) CleanupData() error {
	for _, table := range []string{
		"audit_logs",
		"refresh_tokens",
		"oauth_connections",
		"user_roles",
		"user_permissions",
		"role_permissions",
		"users",
		"roles",
		"permissions",
	} {
		if err := tc.DB.Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			return err
		}
	}
	if err := tc.Redis.FlushDB(context.Background()).Err(); err != nil {
		return err
	}
	return nil
}
