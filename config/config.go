package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Forms    FormsConfig
	App      AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	SpoolDir       string
	CookieSecure   bool
}

// BackendConfig points at the catalog API the web client talks to.
type BackendConfig struct {
	BaseURL      string
	FilesBaseURL string
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// FirebaseConfig is optional; without credentials Google tokens are passed through unverified.
type FirebaseConfig struct {
	CredentialsPath string
}

type FormsConfig struct {
	MaxAttachments    int
	MinDescriptionLen int
	RedirectDelay     time.Duration
	IdleTTL           time.Duration
	SweepSchedule     string
	CategoriesFile    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			SpoolDir:       getEnv("SPOOL_DIR", os.TempDir()),
			CookieSecure:   getEnv("COOKIE_SECURE", "false") == "true",
		},
		Backend: BackendConfig{
			BaseURL:      getEnv("BACKEND_URL", "http://localhost:3333"),
			FilesBaseURL: getEnv("BACKEND_FILES_URL", "http://localhost:3333"),
			Timeout:      getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
			RatePerSec:   getEnvAsFloat("BACKEND_RATE_PER_SEC", 20),
			Burst:        getEnvAsInt("BACKEND_BURST", 10),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			SessionTTL: getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Forms: FormsConfig{
			MaxAttachments:    getEnvAsInt("FORM_MAX_ATTACHMENTS", 6),
			MinDescriptionLen: getEnvAsInt("FORM_MIN_DESCRIPTION_LEN", 10),
			RedirectDelay:     getEnvAsDuration("FORM_REDIRECT_DELAY", 1500*time.Millisecond),
			IdleTTL:           getEnvAsDuration("FORM_IDLE_TTL", 2*time.Hour),
			SweepSchedule:     getEnv("FORM_SWEEP_SCHEDULE", "@every 5m"),
			CategoriesFile:    getEnv("CATEGORIES_FILE", ""),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Forms.MaxAttachments <= 0 {
		return fmt.Errorf("FORM_MAX_ATTACHMENTS must be positive")
	}

	if c.Forms.MinDescriptionLen < 0 {
		return fmt.Errorf("FORM_MIN_DESCRIPTION_LEN must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
