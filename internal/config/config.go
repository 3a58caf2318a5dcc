// Package config provides application configuration management.
// Пакет config обеспечивает управление конфигурацией приложения.
//
// Configuration is loaded from environment variables and optional .env file
// with validation at startup. Uses cleanenv for type-safe configuration.
// Конфигурация загружается из переменных окружения и опционального .env файла
// с валидацией при запуске. Использует cleanenv для типобезопасной конфигурации.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration.
// Config содержит всю конфигурацию приложения.
type Config struct {
	Server    ServerConfig    `yaml:"server"`                                      // HTTP server settings / Настройки HTTP сервера
	Database  DatabaseConfig  `yaml:"database"`                                    // PostgreSQL connection / Подключение к PostgreSQL
	Redis     RedisConfig     `yaml:"redis"`                                       // Redis connection / Подключение к Redis
	Token     TokenConfig     `yaml:"token"`                                       // Access and refresh token settings / Настройки access и refresh токенов
	Cache     CacheConfig     `yaml:"cache"`                                       // Permission cache settings / Настройки кэша разрешений
	Telemetry TelemetryConfig `yaml:"telemetry"`                                   // OpenTelemetry settings / Настройки OpenTelemetry
	Lockout   LockoutConfig   `yaml:"lockout"`                                     // Account lockout settings / Настройки блокировки аккаунта
	Seed      SeedConfig      `yaml:"seed"`                                        // Startup seeding settings / Настройки начального заполнения
	DevMode   bool            `env:"DEV_MODE" env-default:"true" yaml:"dev_mode"`  // Development mode / Режим разработки
}

// ServerConfig contains HTTP server configuration.
// ServerConfig содержит конфигурацию HTTP сервера.
type ServerConfig struct {
	Port string `env:"SERVER_PORT" env-default:"8080" yaml:"port"` // Server port / Порт сервера
}

// DatabaseConfig contains PostgreSQL connection settings.
// DatabaseConfig содержит настройки подключения к PostgreSQL.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost" yaml:"host"`                  // Database host / Хост БД
	Port     string `env:"DB_PORT" env-default:"5432" yaml:"port"`                       // Database port / Порт БД
	User     string `env:"DB_USER" env-default:"access_user" yaml:"user"`                // Database user / Пользователь БД
	Password string `env:"DB_PASSWORD" env-default:"access_password" yaml:"password"`    // Database password / Пароль БД
	DBName   string `env:"DB_NAME" env-default:"access_db" yaml:"dbname"`                // Database name / Имя БД
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable" yaml:"sslmode"`              // SSL mode / Режим SSL
}

// RedisConfig contains Redis connection settings.
// RedisConfig содержит настройки подключения к Redis.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost" yaml:"host"` // Redis host / Хост Redis
	Port     string `env:"REDIS_PORT" env-default:"6379" yaml:"port"`      // Redis port / Порт Redis
	Password string `env:"REDIS_PASSWORD" env-default:"" yaml:"password"`  // Redis password / Пароль Redis
	DB       int    `env:"REDIS_DB" env-default:"0" yaml:"db"`             // Redis database number / Номер БД Redis
}

// TokenConfig contains token issuing configuration. TTLs are configured in
// milliseconds; the signing secret is read once at startup and never changes
// while the process runs.
// TokenConfig содержит конфигурацию выпуска токенов. TTL задаются в
// миллисекундах; секрет подписи читается один раз при запуске и не меняется
// во время работы процесса.
type TokenConfig struct {
	Secret            string `env:"TOKEN_SECRET" env-default:"your-secret-key-change-in-production" yaml:"secret"` // HMAC signing secret / HMAC-секрет подписи
	AccessTokenTTLMs  int64  `env:"ACCESS_TOKEN_TTL_MS" env-default:"900000" yaml:"access_token_ttl_ms"`           // Access token TTL, ms (default 15m) / TTL access-токена, мс (по умолчанию 15м)
	RefreshTokenTTLMs int64  `env:"REFRESH_TOKEN_TTL_MS" env-default:"604800000" yaml:"refresh_token_ttl_ms"`      // Refresh token TTL, ms (default 7d) / TTL refresh-токена, мс (по умолчанию 7д)
}

// AccessTokenTTL returns the access token lifetime as a duration.
// AccessTokenTTL возвращает срок жизни access-токена как длительность.
func (c *TokenConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMs) * time.Millisecond
}

// RefreshTokenTTL returns the refresh token lifetime as a duration.
// RefreshTokenTTL возвращает срок жизни refresh-токена как длительность.
func (c *TokenConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLMs) * time.Millisecond
}

// CacheConfig contains permission cache configuration.
// CacheConfig содержит конфигурацию кэша разрешений.
type CacheConfig struct {
	PermissionTTLSeconds int `env:"PERMISSION_CACHE_TTL_SECONDS" env-default:"300" yaml:"permission_ttl_seconds"` // Effective set TTL / TTL эффективного набора
}

// PermissionTTL returns the permission cache TTL as a duration.
// PermissionTTL возвращает TTL кэша разрешений как длительность.
func (c *CacheConfig) PermissionTTL() time.Duration {
	return time.Duration(c.PermissionTTLSeconds) * time.Second
}

// LockoutConfig contains account lockout configuration.
// LockoutConfig содержит конфигурацию блокировки аккаунта.
type LockoutConfig struct {
	MaxAttempts     int `env:"LOCKOUT_MAX_ATTEMPTS" env-default:"5" yaml:"max_attempts"`          // Max failed attempts / Макс. неудачных попыток
	LockoutDuration int `env:"LOCKOUT_DURATION_MINUTES" env-default:"15" yaml:"lockout_duration"` // Lockout duration in minutes / Длительность блокировки в минутах
}

// SeedConfig contains startup seeding configuration for the protected system
// role and the initial administrator account.
// SeedConfig содержит конфигурацию начального заполнения для защищённой
// системной роли и первоначальной учётной записи администратора.
type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL" env-default:"admin@example.com" yaml:"admin_email"`       // Initial admin email / Email первоначального администратора
	AdminPassword string `env:"SEED_ADMIN_PASSWORD" env-default:"ChangeMe123!" yaml:"admin_password"`      // Initial admin password / Пароль первоначального администратора
	AdminFullName string `env:"SEED_ADMIN_FULL_NAME" env-default:"Administrator" yaml:"admin_full_name"`   // Initial admin name / Имя первоначального администратора
}

// TelemetryConfig contains OpenTelemetry configuration.
// TelemetryConfig содержит конфигурацию OpenTelemetry.
type TelemetryConfig struct {
	Enabled      bool   `env:"OTEL_ENABLED" env-default:"false" yaml:"enabled"`                    // Enable telemetry / Включить телеметрию
	OTLPEndpoint string `env:"OTEL_ENDPOINT" env-default:"localhost:4317" yaml:"otlp_endpoint"`    // OTLP endpoint / OTLP эндпоинт
	ServiceName  string `env:"OTEL_SERVICE_NAME" env-default:"access-service" yaml:"service_name"` // Service name / Имя сервиса
	Environment  string `env:"OTEL_ENVIRONMENT" env-default:"development" yaml:"environment"`      // Environment / Окружение
}

// DSN returns the PostgreSQL connection string.
// DSN возвращает строку подключения к PostgreSQL.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Load loads configuration from environment variables and optional .env file.
// Load загружает конфигурацию из переменных окружения и опционального .env файла.
//
// Configuration priority (highest to lowest):
// Приоритет конфигурации (от высшего к низшему):
//  1. Environment variables / Переменные окружения
//  2. .env file (if exists) / .env файл (если существует)
//  3. Default values / Значения по умолчанию
//
// Returns an error if required configuration is missing or invalid.
// Возвращает ошибку, если обязательная конфигурация отсутствует или некорректна.
func Load() (*Config, error) {
	var cfg Config

	// Try to load .env file if it exists (optional)
	// Пытаемся загрузить .env файл, если он существует (опционально)
	envFile := ".env"
	if _, err := os.Stat(envFile); err == nil {
		if err := cleanenv.ReadConfig(envFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	} else {
		// No .env file, read from environment only
		// Нет .env файла, читаем только из окружения
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
	}

	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
// MustLoad загружает конфигурацию и паникует при ошибке.
//
// Use this in main() when configuration is critical for startup.
// Используйте в main(), когда конфигурация критична для запуска.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// GetDescription returns a description of all configuration parameters.
// GetDescription возвращает описание всех параметров конфигурации.
//
// Useful for generating help text or documentation.
// Полезно для генерации справочного текста или документации.
func GetDescription() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}
