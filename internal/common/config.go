package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Redis    RedisConfig
	Poller   PollerConfig
	OAuth    OAuthConfig
	LLM      LLMConfig
	ERP      ERPConfig
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds the HTTP admin surface configuration.
type ServerConfig struct {
	Addr string
}

// RedisConfig holds the notification stream configuration.
type RedisConfig struct {
	URL    string
	Stream string
}

// PollerConfig holds mailbox polling configuration.
type PollerConfig struct {
	Interval     time.Duration
	InitialDelay time.Duration
	Window       time.Duration // candidate-selection lookback
	MaxMessages  int
}

// OAuthConfig holds the client credentials used to refresh mailbox tokens.
type OAuthConfig struct {
	GoogleClientID        string
	GoogleClientSecret    string
	MicrosoftClientID     string
	MicrosoftClientSecret string
}

// LLMConfig holds LLM call behavior. Timeout is an explicit knob rather than
// relying on provider-client defaults.
type LLMConfig struct {
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// ERPConfig holds ERP call behavior.
type ERPConfig struct {
	Timeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Redis: RedisConfig{
			URL:    getEnv("REDIS_URL", ""),
			Stream: getEnv("NOTIFICATIONS_STREAM", "notifications"),
		},
		Poller: PollerConfig{
			Interval:     getEnvAsDuration("POLL_INTERVAL", 5*time.Minute),
			InitialDelay: getEnvAsDuration("POLL_INITIAL_DELAY", 5*time.Second),
			Window:       getEnvAsDuration("POLL_WINDOW", 24*time.Hour),
			MaxMessages:  getEnvAsInt("POLL_MAX_MESSAGES", 20),
		},
		OAuth: OAuthConfig{
			GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
			MicrosoftClientID:     getEnv("MICROSOFT_CLIENT_ID", ""),
			MicrosoftClientSecret: getEnv("MICROSOFT_CLIENT_SECRET", ""),
		},
		LLM: LLMConfig{
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 2000),
		},
		ERP: ERPConfig{
			Timeout: getEnvAsDuration("ERP_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
