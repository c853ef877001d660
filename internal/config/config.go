package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
)

// Config holds the process-level settings: where state lives and where the
// observability endpoints listen. Detection thresholds are separate; see
// DetectionSettings.
type Config struct {
	Host string
	Port string

	// DatabasePath selects the sqlite store; empty runs in memory
	DatabasePath string

	ShutdownTimeout time.Duration
}

// ListenAddress returns the host:port for the metrics and event endpoints
func (c *Config) ListenAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// LoadFromEnv reads the process configuration, preferring a local .env file
// when one exists
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// No .env is fine; fall through to the process environment
		logger.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		Host:            getEnvOrDefault("HOST", "0.0.0.0"),
		Port:            getEnvOrDefault("PORT", "9090"),
		DatabasePath:    getEnvOrDefault("CORRUPTION_DB_PATH", ""),
		ShutdownTimeout: parseDurationOrDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0 (got %s)", cfg.ShutdownTimeout)
	}
	return cfg, nil
}

// DetectionSettings builds the corruption settings from the environment on
// top of the documented defaults. Validation stays with the settings type.
func DetectionSettings() scoring.CorruptionSettings {
	s := scoring.DefaultCorruptionSettings()

	s.CorruptionScoreThreshold = parseFloatOrDefault("CORRUPTION_SCORE_THRESHOLD", s.CorruptionScoreThreshold)
	s.AutoDiscardThreshold = parseFloatOrDefault("AUTO_DISCARD_THRESHOLD", s.AutoDiscardThreshold)
	s.CriticalScoreThreshold = parseFloatOrDefault("CRITICAL_SCORE_THRESHOLD", s.CriticalScoreThreshold)
	s.FastWeight = parseFloatOrDefault("FAST_WEIGHT", s.FastWeight)
	s.HeavyWeight = parseFloatOrDefault("HEAVY_WEIGHT", s.HeavyWeight)
	s.HeavyDetectionEnabled = parseBoolOrDefault("HEAVY_DETECTION_ENABLED", s.HeavyDetectionEnabled)
	s.RetryEnabled = parseBoolOrDefault("RETRY_ENABLED", s.RetryEnabled)
	s.MaxRetries = parseIntOrDefault("MAX_RETRIES", s.MaxRetries)
	s.RetryDelay = parseDurationOrDefault("RETRY_DELAY", s.RetryDelay)
	s.DegradedConsecutiveThreshold = parseIntOrDefault("DEGRADED_CONSECUTIVE_THRESHOLD", s.DegradedConsecutiveThreshold)
	s.DegradedTimeWindow = parseDurationOrDefault("DEGRADED_TIME_WINDOW", s.DegradedTimeWindow)
	s.DegradedFailurePercentage = parseFloatOrDefault("DEGRADED_FAILURE_PERCENTAGE", s.DegradedFailurePercentage)
	s.DegradedMinSampleSize = parseIntOrDefault("DEGRADED_MIN_SAMPLE_SIZE", s.DegradedMinSampleSize)
	s.HeavyDetectionTimeout = parseDurationOrDefault("HEAVY_DETECTION_TIMEOUT", s.HeavyDetectionTimeout)

	return s
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

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
