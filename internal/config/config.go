package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int

	// Connection acquisition budget used by database.Connector.
	ConnectAttempts       int
	ConnectRetryDelay     time.Duration
	ConnectAttemptTimeout time.Duration
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the blob backend.
// Backend is either "minio" or "local"; LocalDir is only used by the local backend.
type StorageConfig struct {
	Backend  string
	LocalDir string
}

// SummarizerConfig holds the inference endpoint address and generation options.
type SummarizerConfig struct {
	URL           string
	Model         string
	MaxInputChars int
	Threads       int
	NumPredict    int
	NumCtx        int
	Temperature   float64
	TopP          float64
	Timeout       time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	WebDir         string
	MaxUploadBytes int
	Database       DatabaseConfig
	Storage        StorageConfig
	MinIO          MinIOConfig
	Summarizer     SummarizerConfig
}

// Location resolves Timezone, falling back to UTC when it is unset or unknown.
func (c *AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		WebDir:         getEnv("WEB_DIR", ""),
		MaxUploadBytes: getEnvInt("MAX_UPLOAD_BYTES", 50*1024*1024),
		Database: DatabaseConfig{
			Host:                  getEnv("DB_HOST", ""),
			Port:                  getEnv("DB_PORT", "5432"),
			User:                  getEnv("DB_USER", ""),
			Password:              getEnv("DB_PASSWORD", ""),
			Name:                  getEnv("DB_NAME", ""),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:          getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:          getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec:    getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnectAttempts:       getEnvInt("DB_CONNECT_ATTEMPTS", 30),
			ConnectRetryDelay:     getEnvDuration("DB_CONNECT_RETRY_DELAY", time.Second),
			ConnectAttemptTimeout: getEnvDuration("DB_CONNECT_ATTEMPT_TIMEOUT", 5*time.Second),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "minio"),
			LocalDir: getEnv("UPLOAD_DIR", "/app/data/uploads"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Summarizer: SummarizerConfig{
			URL:           getEnv("OLLAMA_URL", "http://ollama:11434"),
			Model:         getEnv("OLLAMA_MODEL", "qwen2.5:0.5b-instruct"),
			MaxInputChars: getEnvInt("MAX_INPUT_CHARS", 20000),
			Threads:       getEnvInt("OLLAMA_THREADS", 2),
			NumPredict:    getEnvInt("OLLAMA_NUM_PREDICT", 80),
			NumCtx:        getEnvInt("OLLAMA_NUM_CTX", 1024),
			Temperature:   getEnvFloat("OLLAMA_TEMPERATURE", 0.2),
			TopP:          getEnvFloat("OLLAMA_TOP_P", 0.9),
			Timeout:       getEnvDuration("OLLAMA_TIMEOUT", 120*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("1s", "250ms").
func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}
