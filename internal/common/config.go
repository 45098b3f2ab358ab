package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lexakit/lexa/constants"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Providers ProviderConfig
	Defaults  ExtractionDefaults
	Uploads   UploadConfig
	Jobs      JobConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds token signing and user bootstrap configuration
type AuthConfig struct {
	SecretKey     string
	Algorithm     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

// ProviderConfig holds per-provider credentials and endpoints
type ProviderConfig struct {
	OpenAIAPIKey  string
	GeminiAPIKey  string
	OllamaBaseURL string
	EdgeBaseURL   string
	EdgeAccountID string
	EdgeAPIToken  string
	Timeout       time.Duration
}

// ExtractionDefaults holds defaults applied when a request omits a field
type ExtractionDefaults struct {
	ModelID          string
	Temperature      float64
	MaxCharBuffer    int
	ExtractionPasses int
	MaxTokens        int
}

// UploadConfig holds file upload configuration
type UploadConfig struct {
	UploadsDir        string
	OutputsDir        string
	MaxFileSizeMB     int64
	AllowedExtensions []string
}

// JobConfig holds worker pool and retention configuration
type JobConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Retention time.Duration
	StoreDSN  string // empty = in-memory; "sqlite:<path>" or "postgres://..."
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// LoadConfig loads configuration from the environment, reading .env first
// when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("API_ADDR", ":8000"),
			ReadTimeout:     getEnvAsDuration("API_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("API_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("API_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			SecretKey:     getEnv("API_SECRET_KEY", "change-this-in-production"),
			Algorithm:     getEnv("API_ALGORITHM", "HS256"),
			TokenTTL:      getEnvAsDuration("API_ACCESS_TOKEN_TTL", 30*time.Minute),
			AdminUsername: getEnv("API_ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("API_ADMIN_PASSWORD", "admin"),
		},
		Providers: ProviderConfig{
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EdgeBaseURL:   getEnv("EDGE_BASE_URL", "https://api.cloudflare.com/client/v4/accounts"),
			EdgeAccountID: getEnv("EDGE_ACCOUNT_ID", ""),
			EdgeAPIToken:  getEnv("EDGE_API_TOKEN", ""),
			Timeout:       getEnvAsDuration("BACKEND_TIMEOUT", 180*time.Second),
		},
		Defaults: ExtractionDefaults{
			ModelID:          getEnv("DEFAULT_MODEL_ID", "gemini-2.5-flash"),
			Temperature:      getEnvAsFloat64("DEFAULT_TEMPERATURE", 0.3),
			MaxCharBuffer:    getEnvAsInt("DEFAULT_MAX_CHAR_BUFFER", 1000),
			ExtractionPasses: getEnvAsInt("DEFAULT_EXTRACTION_PASSES", 1),
			MaxTokens:        getEnvAsInt("DEFAULT_MAX_TOKENS", 2048),
		},
		Uploads: UploadConfig{
			UploadsDir:        getEnv("UPLOADS_DIR", "uploads"),
			OutputsDir:        getEnv("OUTPUTS_DIR", "outputs"),
			MaxFileSizeMB:     int64(getEnvAsInt("MAX_FILE_SIZE_MB", 50)),
			AllowedExtensions: getEnvAsList("ALLOWED_FILE_EXTENSIONS", constants.DefaultAllowedExtensions),
		},
		Jobs: JobConfig{
			Workers:   getEnvAsInt("MAX_CONCURRENT_EXTRACTIONS", 5),
			QueueSize: getEnvAsInt("EXTRACTION_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("EXTRACTION_TIMEOUT", 300*time.Second),
			Retention: getEnvAsDuration("JOB_RETENTION", 7*24*time.Hour),
			StoreDSN:  getEnv("JOB_STORE_DSN", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),
			AllowedMethods: getEnvAsList("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE"}),
			AllowedHeaders: getEnvAsList("ALLOWED_HEADERS", []string{"*"}),
		},
	}
}

// MaxFileSizeBytes returns the upload size cap in bytes.
func (u UploadConfig) MaxFileSizeBytes() int64 {
	return u.MaxFileSizeMB * 1024 * 1024
}

// APIKeyForProvider returns the configured credential for a provider tag,
// or "" when none is set.
func (p ProviderConfig) APIKeyForProvider(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return p.OpenAIAPIKey
	case "gemini":
		return p.GeminiAPIKey
	case "edge-inference":
		return p.EdgeAPIToken
	default:
		return ""
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return NewAppError("CONFIG_ERROR", "API_SECRET_KEY is required", ErrInvalidInput)
	}
	if c.Auth.Algorithm != "HS256" && c.Auth.Algorithm != "HS384" && c.Auth.Algorithm != "HS512" {
		return NewAppError("CONFIG_ERROR", "API_ALGORITHM must be one of HS256, HS384, HS512", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "API_ADDR is required", ErrInvalidInput)
	}
	if c.Jobs.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CONCURRENT_EXTRACTIONS must be positive", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
