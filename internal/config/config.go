package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port               string
	BaseURL            string // Public URL used in feed links; derived from the request when empty
	AllowedOrigins     []string
	LogLevel           string
	Environment        string
	DatabaseURL        string
	DatabaseReadURL    string // Read replica URL for SELECT queries
	RedisURL           string
	JWTSecret          string
	YouTubeAPIKey      string
	YouTubeAccessToken string
	DefaultChannels    []string
	PublishRatePerMin  int
	PublishBurst       int
	ArchiveEnabled     bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		BaseURL:            strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		AllowedOrigins:     parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseReadURL:    getEnv("DATABASE_READ_URL", getEnv("DATABASE_URL", "")), // Falls back to write DB if not set
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
		YouTubeAccessToken: getEnv("YOUTUBE_ACCESS_TOKEN", ""),
		DefaultChannels:    parseList(getEnv("DEFAULT_CHANNELS", "Imagine Dragons")),
		PublishRatePerMin:  getIntEnv("PUBLISH_RATE_PER_MINUTE", 30),
		PublishBurst:       getIntEnv("PUBLISH_BURST", 5),
		ArchiveEnabled:     getBoolEnv("ARCHIVE_ENABLED", true),
	}, nil
}

// IsDevelopment reports whether the service runs in a development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "local"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseList parses a comma-separated value into a slice
func parseList(value string) []string {
	if value == "" {
		return []string{}
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
