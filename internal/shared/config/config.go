package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	EventStore   EventStoreConfig
	Auth         AuthConfig
	Crisis       CrisisConfig
	Notification NotificationConfig
	EHR          EHRConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// EventStoreConfig holds configuration for the clinical event stream (EventStoreDB).
type EventStoreConfig struct {
	// Host is the EventStoreDB server hostname
	Host string
	// Port is the gRPC port (default 2113)
	Port int
	// Insecure disables TLS (for development)
	Insecure bool
	// Username for authentication (optional)
	Username string
	// Password for authentication (optional)
	Password string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// CrisisConfig holds tunables for the crisis detection core.
type CrisisConfig struct {
	// AlertDedupWindow is the time window within which repeated qualifying
	// detections for the same user collapse into one alert
	AlertDedupWindow time.Duration
	// StepTimeout bounds each escalation pipeline I/O step
	StepTimeout time.Duration
	// HistoryWindow is how far back crisis alerts count toward historical risk
	HistoryWindow time.Duration
	// MoodSampleLimit is the number of recent mood samples read per analysis
	MoodSampleLimit int
}

// NotificationConfig holds notification service configuration.
type NotificationConfig struct {
	Workers       int
	BufferSize    int
	RetryAttempts int
	RetryDelay    time.Duration
}

// EHRConfig holds configuration for the legacy clinic system adapter.
type EHRConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	PollInterval time.Duration
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "mindhaven"),
			Password: getEnv("DB_PASSWORD", "mindhaven"),
			Database: getEnv("DB_NAME", "mindhaven"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		EventStore: EventStoreConfig{
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			Issuer:    getEnv("JWT_ISSUER", "mindhaven"),
		},
		Crisis: CrisisConfig{
			AlertDedupWindow: getEnvDuration("CRISIS_ALERT_DEDUP_WINDOW", 15*time.Minute),
			StepTimeout:      getEnvDuration("CRISIS_STEP_TIMEOUT", 5*time.Second),
			HistoryWindow:    getEnvDuration("CRISIS_HISTORY_WINDOW", 30*24*time.Hour),
			MoodSampleLimit:  getEnvInt("CRISIS_MOOD_SAMPLE_LIMIT", 10),
		},
		Notification: NotificationConfig{
			Workers:       getEnvInt("NOTIFY_WORKERS", 4),
			BufferSize:    getEnvInt("NOTIFY_BUFFER_SIZE", 1000),
			RetryAttempts: getEnvInt("NOTIFY_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("NOTIFY_RETRY_DELAY", 30*time.Second),
		},
		EHR: EHRConfig{
			Enabled:      getEnvBool("EHR_ENABLED", false),
			Host:         getEnv("EHR_HOST", "localhost"),
			Port:         getEnvInt("EHR_PORT", 1433),
			User:         getEnv("EHR_USER", ""),
			Password:     getEnv("EHR_PASSWORD", ""),
			Database:     getEnv("EHR_DATABASE", "clinic"),
			SSLMode:      getEnv("EHR_SSLMODE", "disable"),
			PollInterval: getEnvDuration("EHR_POLL_INTERVAL", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
