package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// Sessions
	SessionSecret string

	// GCP
	GCPProjectID             string
	GCPRegion                string
	FirestoreCredentialsFile string

	// Vertex AI / Claude
	ClaudeModel      string
	MaxTokens        int
	Temperature      float64
	VertexEndpoint   string // optional override, defaults to the regional endpoint
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RequestTimeout   time.Duration

	// Context store
	CacheTTL      time.Duration
	HistoryWindow int

	// Workers
	UsageWorkers int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                     getEnvOrDefault("PORT", "8080"),
		Env:                      getEnvOrDefault("ENV", "development"),
		RedisURL:                 mustGetEnv("REDIS_URL"),
		SessionSecret:            mustGetEnv("SESSION_SECRET"),
		GCPProjectID:             mustGetEnv("GCP_PROJECT_ID"),
		GCPRegion:                getEnvOrDefault("GCP_REGION", "us-central1"),
		FirestoreCredentialsFile: getEnvOrDefault("FIRESTORE_CREDENTIALS_FILE", ""),

		ClaudeModel:      getEnvOrDefault("CLAUDE_MODEL", "claude-3-5-sonnet@20240620"),
		MaxTokens:        getEnvAsIntOrDefault("MAX_TOKENS", 4096),
		Temperature:      getEnvAsFloatOrDefault("TEMPERATURE", 0.7),
		VertexEndpoint:   getEnvOrDefault("VERTEX_ENDPOINT", ""),
		RetryMaxAttempts: getEnvAsIntOrDefault("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   time.Duration(getEnvAsIntOrDefault("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		RetryMaxDelay:    time.Duration(getEnvAsIntOrDefault("RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
		RequestTimeout:   time.Duration(getEnvAsIntOrDefault("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
		CacheTTL:         time.Duration(getEnvAsIntOrDefault("CACHE_TTL_SECONDS", 300)) * time.Second,
		HistoryWindow:    getEnvAsIntOrDefault("HISTORY_WINDOW", 10),
		UsageWorkers:     getEnvAsIntOrDefault("USAGE_WORKERS", 2),
		FrontendURL:      getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

// Validate rejects out-of-range values before anything starts talking to the
// network. Bad generation parameters would otherwise surface as provider
// errors on the first chat turn.
func (c *Config) Validate() error {
	if c.MaxTokens < 1 || c.MaxTokens > 8192 {
		return fmt.Errorf("MAX_TOKENS must be in 1..8192, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("TEMPERATURE must be in 0..1, got %g", c.Temperature)
	}
	if c.RetryMaxAttempts < 1 || c.RetryMaxAttempts > 10 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be in 1..10, got %d", c.RetryMaxAttempts)
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("RETRY_BASE_DELAY_MS must be positive, got %v", c.RetryBaseDelay)
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("RETRY_MAX_DELAY_MS must be >= RETRY_BASE_DELAY_MS")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %v", c.RequestTimeout)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %v", c.CacheTTL)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("HISTORY_WINDOW must be at least 1, got %d", c.HistoryWindow)
	}
	if c.UsageWorkers < 1 {
		return fmt.Errorf("USAGE_WORKERS must be at least 1, got %d", c.UsageWorkers)
	}
	return nil
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
