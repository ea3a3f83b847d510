package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by NUMEN_ENV (or .env by default), then the
// matching .secret sidecar if it exists. Everything else is a flat env var
// read through the getters below.
func Load() error {
	envFile := os.Getenv("NUMEN_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the process env still applies.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// StorageDriver selects the storage backend: postgres or sqlite.
// Defaults to postgres when DATABASE_URL is set, sqlite otherwise.
func StorageDriver() string {
	if d := os.Getenv("STORAGE_DRIVER"); d != "" {
		return d
	}
	if DatabaseURL() != "" {
		return "postgres"
	}
	return "sqlite"
}

func SQLitePath() string {
	p := os.Getenv("SQLITE_PATH")
	if p == "" {
		return "numen.db"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingProvider returns the configured embedding provider.
// Valid values: openai, mock. Defaults to openai.
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// KernelConfigDir is the directory of YAML kernel files seeded at startup.
// Empty means only the built-in default kernel is seeded.
func KernelConfigDir() string {
	return os.Getenv("KERNEL_CONFIG_DIR")
}

// SummaryQueueSize bounds the async summary publisher queue.
func SummaryQueueSize() int {
	n, err := strconv.Atoi(os.Getenv("SUMMARY_QUEUE_SIZE"))
	if err != nil || n <= 0 {
		return 256
	}
	return n
}

// RateLimitRPS returns requests per second per client IP. Defaults to 100.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst defaults to 20.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error). Defaults to info.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
