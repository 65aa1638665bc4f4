package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Reviewer
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	Model           string
	ReviewerTimeout time.Duration
	ReviewSpecFile  string
	// Database; the in-memory store is used when empty
	DatabaseURL   string
	RunMigrations bool
	MigrationsDir string
	// GitHub access. GitHubToken takes precedence over the token file.
	GitHubToken      string
	GitHubTokenFile  string
	GitHubAPIBase    string
	GitHubRawBase    string
	GitHubTimeout    time.Duration
	FetchConcurrency int
	// Logging
	LogLevel  string
	LogFormat string
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "*"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		Model:            getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		ReviewerTimeout:  getEnvDurationDefault("REVIEWER_TIMEOUT", 90*time.Second),
		ReviewSpecFile:   getEnvDefault("REVIEW_SPEC_FILE", "./prompts/review.yaml"),
		DatabaseURL:      os.Getenv("DB_URL"),
		RunMigrations:    getEnvBoolDefault("RUN_MIGRATIONS", true),
		MigrationsDir:    getEnvDefault("MIGRATIONS_DIR", "./migrations"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		GitHubTokenFile:  getEnvDefault("GITHUB_TOKEN_FILE", "data/github_token.json"),
		GitHubAPIBase:    os.Getenv("GITHUB_API_BASE"),
		GitHubRawBase:    os.Getenv("GITHUB_RAW_BASE"),
		GitHubTimeout:    getEnvDurationDefault("GITHUB_TIMEOUT", 20*time.Second),
		FetchConcurrency: getEnvIntDefault("FETCH_CONCURRENCY", 4),
		LogLevel:         getEnvDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvDefault("LOG_FORMAT", "json"),
	}
}

func getEnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("45s") or a bare number of seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
