// Package config loads server settings from the environment and an optional .env file
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds all server settings
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Match   MatchConfig

	// AdminKeyHash is the bcrypt hash of the admin key. Empty leaves admin endpoints open.
	AdminKeyHash string
	// QuestionsFile optionally replaces the default question catalog at startup
	QuestionsFile string
	LogLevel      slog.Level
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// StorageConfig selects and addresses the storage backend
type StorageConfig struct {
	Type        string
	RedisURL    string
	DatabaseURL string
}

// MatchConfig holds batch matching behavior
type MatchConfig struct {
	// Interval between automatic batch passes; zero disables them
	Interval              time.Duration
	ReleasePartnerOnLeave bool
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file. With no files given,
// a missing ./.env is ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from environment variables only
func FromEnv() (*Config, error) {
	port, err := getIntEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("HOST", ""),
			Port:               port,
			CORSAllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
			ShutdownTimeout:    getDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Type:        strings.ToLower(getEnv("STORAGE_TYPE", StorageMemory)),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Match: MatchConfig{
			Interval:              getDurationEnv("MATCH_INTERVAL", 0),
			ReleasePartnerOnLeave: getBoolEnv("RELEASE_PARTNER_ON_LEAVE", false),
		},
		AdminKeyHash:  getEnv("ADMIN_KEY_HASH", ""),
		QuestionsFile: getEnv("QUESTIONS_FILE", ""),
		LogLevel:      getLevelEnv("LOG_LEVEL", slog.LevelInfo),
	}

	switch cfg.Storage.Type {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if cfg.Storage.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required when STORAGE_TYPE=%s", StoragePostgres)
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or postgres", cfg.Storage.Type)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Server.Port)
	}

	return cfg, nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", key, value)
	}
	return intValue, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getDurationEnv accepts Go durations ("90s", "5m") or a bare number of seconds
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

func getLevelEnv(key string, defaultValue slog.Level) slog.Level {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return defaultValue
	}
	return level
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
