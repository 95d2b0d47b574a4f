package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "census"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string
	Mode        string // api | worker | batch | all

	// Database
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// LLM (OpenRouter)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	LLMModel          string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMTimeoutSec     int
	LLMMaxRetries     int

	// Worker
	WorkerID        string
	WorkerMax       int
	WorkerQueueSize int
	WorkerMaxRetry  int
	SubmitRate      int

	// Survey protection (per-host rate limiting)
	SurveyMaxConcurrent int
	SurveyPerHostRPS    int
	SurveyBurstSize     int
	SurveyDebounceMin   int

	// Cache
	MetadataTTLHour int

	// Batch (CSV mode)
	BatchInputPath   string
	BatchOutputPath  string
	BatchConcurrency int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		Mode:        getEnv("CENSUS_MODE", "all"),

		// Database
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "portal_census"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// LLM
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:          getEnv("LLM_MODEL", "google/gemini-2.0-flash-001"),
		LLMMaxTokens:      getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", 0.1),
		LLMTimeoutSec:     getEnvInt("LLM_TIMEOUT_SEC", 90),
		LLMMaxRetries:     getEnvInt("LLM_MAX_RETRIES", 3),

		// Worker
		WorkerID:        getEnv("WORKER_ID", generateWorkerID()),
		WorkerMax:       getEnvInt("WORKER_MAX", 16),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 2000),
		WorkerMaxRetry:  getEnvInt("WORKER_MAX_RETRY", 3),
		SubmitRate:      getEnvInt("WORKER_SUBMIT_RATE", 200),

		// Survey protection
		SurveyMaxConcurrent: getEnvInt("SURVEY_MAX_CONCURRENT", 64),
		SurveyPerHostRPS:    getEnvInt("SURVEY_PER_HOST_RPS", 2),
		SurveyBurstSize:     getEnvInt("SURVEY_BURST_SIZE", 4),
		SurveyDebounceMin:   getEnvInt("SURVEY_DEBOUNCE_MIN", 10),

		// Cache
		MetadataTTLHour: getEnvInt("METADATA_TTL_HOUR", 24),

		// Batch
		BatchInputPath:   getEnv("BATCH_INPUT", "portals.csv"),
		BatchOutputPath:  getEnv("BATCH_OUTPUT", "census_results.csv"),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 8),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

// MetadataTTL returns the survey metadata cache TTL.
func (c *Config) MetadataTTL() time.Duration {
	return time.Duration(c.MetadataTTLHour) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
