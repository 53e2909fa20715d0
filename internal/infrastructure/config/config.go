package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage and cache backend names.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	HTTP     HTTPSettings
	Auth     AuthSettings
	Log      LogSettings
	Database DatabaseSettings
	Storage  StorageSettings
	Cache    CacheSettings
	PhoneAPI PhoneAPISettings
	Audit    AuditSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
	LoginURL    string // Where unauthenticated history requests are redirected. Empty means 401.
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RunMigrations   bool
}

type StorageSettings struct {
	Backend string
}

type CacheSettings struct {
	Backend      string
	RedisURL     string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TTL          time.Duration
	MaxEntries   int // Capacity of the in-memory backend
}

type PhoneAPISettings struct {
	BaseURL string
	Timeout time.Duration
}

type AuditSettings struct {
	Enabled   bool
	QueueSize int
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "phonecheck"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health", "/metrics"}),
			LoginURL:    strings.TrimSpace(os.Getenv("AUTH_LOGIN_URL")),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "phonecheck"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			RunMigrations:   getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Storage: StorageSettings{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		},
		Cache: CacheSettings{
			Backend:      strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
			RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TTL:          getEnvAsDuration("CACHE_TTL", 24*time.Hour),
			MaxEntries:   getEnvAsInt("CACHE_MAX_ENTRIES", 10000),
		},
		PhoneAPI: PhoneAPISettings{
			BaseURL: strings.TrimSpace(os.Getenv("PHONE_API_URL")),
			Timeout: getEnvAsDuration("PHONE_API_TIMEOUT", 10*time.Second),
		},
		Audit: AuditSettings{
			Enabled:   getEnvAsBool("AUDIT_ENABLED", true),
			QueueSize: getEnvAsInt("AUDIT_QUEUE_SIZE", 256),
		},
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first inconsistency in the configuration.
func (c AppConfig) Validate() error {
	if c.PhoneAPI.BaseURL == "" {
		return errors.New("invalid config: PHONE_API_URL is required")
	}
	if c.PhoneAPI.Timeout <= 0 {
		return errors.New("invalid config: PHONE_API_TIMEOUT must be greater than 0")
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid config: STORAGE_BACKEND %q must be %q or %q", c.Storage.Backend, BackendPostgres, BackendMemory)
	}

	switch c.Cache.Backend {
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("invalid config: REDIS_URL is required when CACHE_BACKEND=redis")
		}
	case BackendMemory:
		if c.Cache.MaxEntries <= 0 {
			return errors.New("invalid config: CACHE_MAX_ENTRIES must be greater than 0")
		}
	default:
		return fmt.Errorf("invalid config: CACHE_BACKEND %q must be %q or %q", c.Cache.Backend, BackendRedis, BackendMemory)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("invalid config: CACHE_TTL must be greater than 0")
	}

	if c.Audit.Enabled && c.Audit.QueueSize <= 0 {
		return errors.New("invalid config: AUDIT_QUEUE_SIZE must be greater than 0")
	}

	if c.Auth.Enabled {
		if c.Auth.IssuerURI == "" {
			return errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if c.Auth.JWKSetURI == "" {
			return errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
