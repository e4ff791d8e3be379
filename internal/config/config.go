package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// DataPaths is the ordered list of directories probed for the input
	// CSV files. The first directory containing a parseable file wins.
	DataPaths          []string
	EnvDataFile        string
	OccurrenceDataFile string

	// RiskRulesFile optionally overrides the embedded scoring table.
	RiskRulesFile string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// ScatterSampleLimit caps the number of background points returned by
	// the scatter endpoint.
	ScatterSampleLimit int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sampleLimit, err := parsePositiveInt("SCATTER_SAMPLE_LIMIT", 5000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataPaths:          parsePaths(envOrDefault("DATA_PATHS", ".,/data,/var/lib/redtide")),
		EnvDataFile:        envOrDefault("ENV_DATA_FILE", "tongyeong_lite.csv"),
		OccurrenceDataFile: envOrDefault("OCCURRENCE_DATA_FILE", "redtide_occurrences.csv"),
		RiskRulesFile:      os.Getenv("RISK_RULES_FILE"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		ScatterSampleLimit: sampleLimit,
	}

	if len(cfg.DataPaths) == 0 {
		return nil, errors.New("DATA_PATHS is required")
	}
	if cfg.EnvDataFile == "" {
		return nil, errors.New("ENV_DATA_FILE is required")
	}
	if cfg.OccurrenceDataFile == "" {
		return nil, errors.New("OCCURRENCE_DATA_FILE is required")
	}

	return cfg, nil
}

// envOrDefault returns the environment value for key, or fallback when unset.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parsePaths splits a comma-separated directory list, dropping empty entries.
func parsePaths(raw string) []string {
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
