package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by COACHMIND_ENV (or .env by default),
// then the matching .secret sidecar if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("COACHMIND_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be populated.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	return intEnv("SERVER_PORT", 8080)
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// OllamaHost returns the local Ollama endpoint. Empty disables the backend.
func OllamaHost() string {
	return os.Getenv("OLLAMA_HOST")
}

// MockLLM enables the scripted in-process backend, for local runs without keys.
func MockLLM() bool {
	v, _ := strconv.ParseBool(os.Getenv("MOCK_LLM"))
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// SummarizerSchedule is a standard five-field cron expression, evaluated in UTC.
func SummarizerSchedule() string {
	s := os.Getenv("SUMMARIZER_SCHEDULE")
	if s == "" {
		return "0 3 * * *"
	}
	return s
}

func SummarizerConcurrency() int {
	return intEnv("SUMMARIZER_CONCURRENCY", 4)
}

func ContextTokenBudget() int {
	return intEnv("CONTEXT_TOKEN_BUDGET", 2000)
}

func ContextFetchLimit() int {
	return intEnv("CONTEXT_FETCH_LIMIT", 20)
}

// SecondaryFetchTimeout bounds each secondary context fetch. Accepts Go
// duration syntax, e.g. "2s".
func SecondaryFetchTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SECONDARY_FETCH_TIMEOUT"))
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// ExtractionWindow is how many trailing messages are mined after each turn.
func ExtractionWindow() int {
	return intEnv("EXTRACTION_WINDOW", 6)
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
