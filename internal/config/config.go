package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cvjob-dk/cvjob-backend/internal/common"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	LLM        LLMConfig
	Generation GenerationConfig
	Uploads    UploadsConfig
}

type ServerConfig struct {
	Addr         string
	AllowOrigins []string
}

type DatabaseConfig struct {
	DSN string
}

type LLMConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

// GenerationConfig tunes the cover-letter workflow.
type GenerationConfig struct {
	// Timeout bounds a single AI generation call.
	Timeout time.Duration
	// RetryGeneration enables automatic retry of the AI call itself.
	// Off by default: a generation is expensive and the user can retry
	// manually from the error toast.
	RetryGeneration bool
	MaxRetries      int
	InitialDelay    time.Duration
	DefaultLocale   string
}

type UploadsConfig struct {
	Dir string
}

// Load reads configuration from the environment. A missing .env file is
// fine; real deployments set the variables directly.
func Load(logger *slog.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn("config.dotenv_missing", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Addr:         getEnv("ADDR", ":8080"),
			AllowOrigins: splitEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_URL", ""),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gemini-2.5-flash"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.4),
		},
		Generation: GenerationConfig{
			Timeout:         getEnvAsDuration("GENERATION_TIMEOUT", 45*time.Second),
			RetryGeneration: getEnvAsBool("GENERATION_RETRY", false),
			MaxRetries:      getEnvAsInt("GENERATION_MAX_RETRIES", 3),
			InitialDelay:    getEnvAsDuration("GENERATION_RETRY_DELAY", time.Second),
			DefaultLocale:   getEnv("GENERATION_LOCALE", "da"),
		},
		Uploads: UploadsConfig{
			Dir: getEnv("UPLOADS_DIR", "./uploads"),
		},
	}
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return common.NewAppError(common.KindValidation, "DATABASE_URL is required", common.ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return common.NewAppError(common.KindValidation, "GEMINI_API_KEY is required", common.ErrInvalidInput)
	}
	if c.Generation.Timeout <= 0 {
		return common.NewAppError(common.KindValidation, "GENERATION_TIMEOUT must be positive", common.ErrInvalidInput)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
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
