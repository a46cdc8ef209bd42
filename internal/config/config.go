package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client.
type Config struct {
	App     AppConfig
	API     APIConfig
	Storage StorageConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Polling PollingConfig
	Tickets TicketsConfig
	Locale  LocaleConfig
}

// AppConfig controls the local console server.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// APIConfig points at the MiniTicker backend.
type APIConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// StorageConfig selects where the session and preferences are persisted.
type StorageConfig struct {
	Backend string
	Path    string
	Secret  string
}

// RedisConfig holds Redis connection values for the redis storage backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Output string
}

// PollingConfig defines refresh intervals for live views.
type PollingConfig struct {
	ActivitySeconds  int
	DashboardSeconds int
}

// TicketsConfig tunes the ticket list.
type TicketsConfig struct {
	PageSize int
}

// LocaleConfig controls how localized backend timestamps are interpreted.
type LocaleConfig struct {
	Timezone string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "miniticker"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "8090"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		API: APIConfig{
			BaseURL:        getEnv("API_BASE_URL", "http://localhost:5000"),
			TimeoutSeconds: getEnvAsInt("API_TIMEOUT_SECONDS", 20),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "file"),
			Path:    getEnv("STORAGE_PATH", defaultStoragePath()),
			Secret:  os.Getenv("STORAGE_SECRET"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "miniticker:"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Output: getEnv("LOG_OUTPUT", "stderr"),
		},
		Polling: PollingConfig{
			ActivitySeconds:  getEnvAsInt("ACTIVITY_POLL_SECONDS", 30),
			DashboardSeconds: getEnvAsInt("DASHBOARD_REFRESH_SECONDS", 0),
		},
		Tickets: TicketsConfig{
			PageSize: getEnvAsInt("TICKETS_PAGE_SIZE", 12),
		},
		Locale: LocaleConfig{
			Timezone: getEnv("TIMEZONE", "Local"),
		},
	}

	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "redis" {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", cfg.Storage.Backend)
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

// Timeout returns the per-call timeout for backend requests.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// ActivityInterval returns the activity feed polling interval.
func (p PollingConfig) ActivityInterval() time.Duration {
	if p.ActivitySeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.ActivitySeconds) * time.Second
}

// DashboardInterval returns the dashboard auto-refresh interval; zero disables it.
func (p PollingConfig) DashboardInterval() time.Duration {
	if p.DashboardSeconds <= 0 {
		return 0
	}
	return time.Duration(p.DashboardSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to time.Local.
func (l LocaleConfig) Location() *time.Location {
	if l.Timezone == "" || l.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".miniticker.json"
	}
	return filepath.Join(dir, "miniticker", "session.json")
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
