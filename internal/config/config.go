package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Geocoder     GeocoderConfig
	Location     LocationConfig
	Assignment   AssignmentConfig
	Notification NotificationConfig
	AIValidator  AIValidatorConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// GeocoderConfig configures the external reverse-geocoding collaborator.
type GeocoderConfig struct {
	BaseURL         string
	TimeoutSeconds  int
	CacheTTLMinutes int
}

// LocationConfig tunes the local geospatial index.
type LocationConfig struct {
	IndexRadiusKm float64
}

// AssignmentConfig holds assignment policy switches.
type AssignmentConfig struct {
	AllowCrossStateFallback bool
}

// NotificationConfig holds notification collaborator endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// AIValidatorConfig configures the report-validation collaborator.
type AIValidatorConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	radius, err := strconv.ParseFloat(getEnv("LOCATION_INDEX_RADIUS_KM", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCATION_INDEX_RADIUS_KM: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civic-issue-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Geocoder: GeocoderConfig{
			BaseURL:         getEnv("GEOCODER_BASE_URL", ""),
			TimeoutSeconds:  getEnvAsInt("GEOCODER_TIMEOUT_SECONDS", 5),
			CacheTTLMinutes: getEnvAsInt("GEOCODER_CACHE_TTL_MINUTES", 1440),
		},
		Location: LocationConfig{
			IndexRadiusKm: radius,
		},
		Assignment: AssignmentConfig{
			AllowCrossStateFallback: getEnvAsBool("ASSIGN_ALLOW_CROSS_STATE_FALLBACK", true),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		AIValidator: AIValidatorConfig{
			BaseURL:        getEnv("AI_VALIDATOR_BASE_URL", ""),
			TimeoutSeconds: getEnvAsInt("AI_VALIDATOR_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the geocoder call timeout.
func (g GeocoderConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Timeout returns the validation call timeout.
func (a AIValidatorConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// CacheTTL returns the TTL for cached geocoding responses.
func (g GeocoderConfig) CacheTTL() time.Duration {
	if g.CacheTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(g.CacheTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
