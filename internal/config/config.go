package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Classification defaults
	Tolerance        float64
	NeutralThreshold float64
	UnexpectedTopN   int
	BrandPalette     palette.Palette
	WrongPalette     palette.Palette

	// Reports
	ReportDBPath string
	// ReportDir is where the CLI writes markdown reports; empty means stdout
	ReportDir string

	// Optional Azure Blob Storage credentials
	AzureAccountName string
	AzureAccountKey  string

	// AllowLocalSources lets API callers read file paths and capture displays
	AllowLocalSources bool

	OCRLanguage string
	Workers     int
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// MatchOptions returns the classification options configured for this process
func (c *Config) MatchOptions() matcher.Options {
	return matcher.Options{
		Tolerance:        c.Tolerance,
		NeutralThreshold: c.NeutralThreshold,
		TopN:             c.UnexpectedTopN,
	}
}

// HasAzure reports whether blob storage credentials are configured
func (c *Config) HasAzure() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

// LoadFromEnv reads a .env file when present, then the process environment
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithError(err).Warn("Error loading .env file, using environment only")
	}
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		Tolerance:          parseFloatOrDefault("COLOR_TOLERANCE", matcher.DefaultTolerance),
		NeutralThreshold:   parseFloatOrDefault("NEUTRAL_THRESHOLD", matcher.DefaultNeutralThreshold),
		UnexpectedTopN:     int(parseIntOrDefault("UNEXPECTED_TOP_N", matcher.DefaultTopN)),
		ReportDBPath:       getEnvOrDefault("REPORT_DB_PATH", "reports.db"),
		ReportDir:          strings.TrimSpace(os.Getenv("REPORT_DIR")),
		AzureAccountName:   strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
		AzureAccountKey:    strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
		OCRLanguage:        getEnvOrDefault("OCR_LANGUAGE", "eng"),
		AllowLocalSources:  parseBoolOrDefault("ALLOW_LOCAL_SOURCES", false),
		Workers:            int(parseIntOrDefault("WORKERS", 0)),
	}

	var err error
	if cfg.BrandPalette, err = palette.Parse(getEnvOrDefault("BRAND_PALETTE", palette.DefaultBrandSpec)); err != nil {
		return nil, fmt.Errorf("invalid BRAND_PALETTE: %w", err)
	}
	if cfg.WrongPalette, err = palette.Parse(getEnvOrDefault("WRONG_PALETTE", palette.DefaultWrongSpec)); err != nil {
		return nil, fmt.Errorf("invalid WRONG_PALETTE: %w", err)
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout)
	}
	if err := cfg.MatchOptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid classification settings: %w", err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("WORKERS must be >= 0 (got %d)", cfg.Workers)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
