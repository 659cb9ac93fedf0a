package common

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Parser   ParserConfig
	Batch    BatchConfig
	Export   ExportConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	MaxUploadBytes int64
	UploadDir      string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Lang             string
	TessdataDir      string
	PSMs             []int
	Timeout          time.Duration
	Retries          int
	Preprocess       bool
	HeicConverter    string
	MaxPages         int
	ArtifactCacheDir string
}

// ParserConfig holds field extraction and review thresholds
type ParserConfig struct {
	DefaultVAT       float64
	MinCompleteness  int
	MinOCRConfidence float32
}

// BatchConfig holds worker pool configuration
type BatchConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// ExportConfig holds report output configuration
type ExportConfig struct {
	Dir string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config.dotenv.failed", "err", err)
	}

	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:invoices.db?_pragma=busy_timeout(5000)"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MIN_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 20)) << 20,
			UploadDir:      getEnv("UPLOAD_DIR", os.TempDir()),
		},
		OCR: OCRConfig{
			Lang:             getEnv("OCR_LANG", "eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			PSMs:             getEnvAsIntList("OCR_PSMS", []int{6, 3}),
			Timeout:          getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
			Retries:          getEnvAsInt("OCR_RETRIES", 1),
			Preprocess:       getEnvAsBool("OCR_PREPROCESS", true),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			MaxPages:         getEnvAsInt("OCR_MAX_PAGES", 0),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		Parser: ParserConfig{
			DefaultVAT:       getEnvAsPercent("PARSER_DEFAULT_VAT", 10),
			MinCompleteness:  getEnvAsInt("MIN_COMPLETENESS", 75),
			MinOCRConfidence: getEnvAsFloat32("MIN_OCR_CONFIDENCE", 0.6),
		},
		Batch: BatchConfig{
			Workers:    getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize:  getEnvAsInt("BATCH_QUEUE_SIZE", 256),
			JobTimeout: getEnvAsDuration("BATCH_JOB_TIMEOUT", 3*time.Minute),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "."),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

// getEnvAsPercent accepts "10", "10%" or "7.5%".
func getEnvAsPercent(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
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

// getEnvAsIntList parses a comma-separated list such as "6,3". Any bad entry
// makes the whole value fall back to the default.
func getEnvAsIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Parser.DefaultVAT < 0 || c.Parser.DefaultVAT > 100 {
		return NewAppError("CONFIG_ERROR", "PARSER_DEFAULT_VAT must be between 0 and 100", ErrInvalidInput)
	}
	if c.Parser.MinCompleteness < 0 || c.Parser.MinCompleteness > 100 {
		return NewAppError("CONFIG_ERROR", "MIN_COMPLETENESS must be between 0 and 100", ErrInvalidInput)
	}
	for _, psm := range c.OCR.PSMs {
		if psm < 0 || psm > 13 {
			return NewAppError("CONFIG_ERROR", "OCR_PSMS entries must be between 0 and 13", ErrInvalidInput)
		}
	}
	return nil
}
