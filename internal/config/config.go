/**
 * Configuration for the BOLL capture worker
 *
 * Loads configuration from environment variables (optionally seeded from .env)
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// StartDelay is the fixed warm-up between page load and the first capture.
const StartDelay = 5 * time.Second

// Region is a clip rectangle in page pixel coordinates
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Config holds worker configuration
type Config struct {
	// Browser configuration
	TargetURL         string
	Headless          bool
	UserDataDir       string
	NavigationTimeout time.Duration

	// Capture configuration
	CaptureInterval     time.Duration
	CaptureRegion       Region
	DebugImagePath      string
	StaleFrameThreshold int

	// Indicator configuration
	AutoEnableIndicator  bool
	IndicatorRetryCycles int

	// OCR configuration
	ColorOCR       bool
	OCRLanguage    string
	TessdataPrefix string
	OCRWorkers     int

	// Optional outputs
	RedisURL       string
	RedisKeyPrefix string
	FeedAddr       string

	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	region, err := ParseRegion(getEnvOrDefault("CAPTURE_REGION", "15,260,400,50"))
	if err != nil {
		return nil, fmt.Errorf("CAPTURE_REGION: %w", err)
	}

	cfg := &Config{
		TargetURL:            getEnvOrDefault("TARGET_URL", "https://www.binance.com/zh-CN/futures/BTCUSDT"),
		Headless:             getEnvAsBoolOrDefault("HEADLESS", true),
		UserDataDir:          getEnvOrDefault("CHROME_USER_DATA_DIR", "chrome"),
		NavigationTimeout:    getEnvAsMillisOrDefault("NAVIGATION_TIMEOUT_MS", 90000),
		CaptureInterval:      getEnvAsMillisOrDefault("CAPTURE_INTERVAL_MS", 1000),
		CaptureRegion:        region,
		DebugImagePath:       getEnvOrDefault("DEBUG_IMAGE_PATH", "1.png"),
		StaleFrameThreshold:  getEnvAsIntOrDefault("STALE_FRAME_THRESHOLD", 30),
		AutoEnableIndicator:  getEnvAsBoolOrDefault("AUTO_ENABLE_INDICATOR", true),
		IndicatorRetryCycles: getEnvAsIntOrDefault("INDICATOR_RETRY_CYCLES", 5),
		ColorOCR:             getEnvAsBoolOrDefault("COLOR_OCR", true),
		OCRLanguage:          getEnvOrDefault("OCR_LANGUAGE", "eng"),
		TessdataPrefix:       getEnvOrDefault("TESSDATA_PREFIX", ""),
		OCRWorkers:           getEnvAsIntOrDefault("OCR_WORKERS", 3),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		RedisKeyPrefix:       getEnvOrDefault("REDIS_KEY_PREFIX", "boll"),
		FeedAddr:             getEnvOrDefault("FEED_ADDR", ""),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("TARGET_URL is required")
	}

	if c.CaptureInterval < 0 {
		return fmt.Errorf("CAPTURE_INTERVAL_MS must not be negative, got %d", c.CaptureInterval.Milliseconds())
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("NAVIGATION_TIMEOUT_MS must be positive, got %d", c.NavigationTimeout.Milliseconds())
	}

	if c.CaptureRegion.Width <= 0 || c.CaptureRegion.Height <= 0 {
		return fmt.Errorf("CAPTURE_REGION must have positive size, got %s", c.CaptureRegion)
	}

	if c.DebugImagePath == "" {
		return fmt.Errorf("DEBUG_IMAGE_PATH is required")
	}

	if c.OCRWorkers < 1 || c.OCRWorkers > 16 {
		return fmt.Errorf("OCR_WORKERS must be between 1 and 16, got %d", c.OCRWorkers)
	}

	if c.StaleFrameThreshold < 1 {
		return fmt.Errorf("STALE_FRAME_THRESHOLD must be at least 1, got %d", c.StaleFrameThreshold)
	}

	if c.IndicatorRetryCycles < 0 {
		return fmt.Errorf("INDICATOR_RETRY_CYCLES must not be negative, got %d", c.IndicatorRetryCycles)
	}

	if c.RedisURL != "" && c.RedisKeyPrefix == "" {
		return fmt.Errorf("REDIS_KEY_PREFIX is required when REDIS_URL is set")
	}

	return nil
}

// ParseRegion parses "x,y,width,height"
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("expected x,y,width,height, got %q", s)
	}

	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Region{}, fmt.Errorf("invalid region component %q: %w", p, err)
		}
		values[i] = v
	}

	return Region{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsMillisOrDefault reads an integer millisecond value as a duration
func getEnvAsMillisOrDefault(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsIntOrDefault(key, defaultMillis)) * time.Millisecond
}

// getEnvAsBoolOrDefault accepts only the exact strings "true" and "false";
// anything else keeps the default, so HEADLESS=0 still runs headless.
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}
