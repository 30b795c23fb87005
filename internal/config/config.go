package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tracelens/trace-diag/internal/models"
)

// Config captures the settings required to boot the diagnostics service.
type Config struct {
	Server   ServerConfig           `yaml:"server"`
	Storage  StorageConfig          `yaml:"storage"`
	Cache    CacheConfig            `yaml:"cache"`
	Logging  LoggingConfig          `yaml:"logging"`
	Analysis models.AnalysisOptions `yaml:"analysis"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StorageConfig controls the report history database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls memoization of reports for identical uploads.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	ReportTTL time.Duration `yaml:"reportTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment
// overrides, then validates it. Invalid analysis options fail here,
// never mid-run.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TRACE_DIAG_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{Path: "trace-diag.db"},
		Cache: CacheConfig{
			Enabled:   false,
			ReportTTL: 5 * time.Minute,
		},
		Logging:  LoggingConfig{Level: "info", JSON: false},
		Analysis: models.DefaultAnalysisOptions(),
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRACE_DIAG_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRACE_DIAG_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("TRACE_DIAG_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TRACE_DIAG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRACE_DIAG_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TRACE_DIAG_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("TRACE_DIAG_CACHE_REPORT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReportTTL = d
		}
	}
	if v := os.Getenv("TRACE_DIAG_MAX_LATENCY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxLatencyMs = ms
		}
	}
	if v := os.Getenv("TRACE_DIAG_CORRELATION_SLACK_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.CorrelationSlackMs = ms
		}
	}
	if v := os.Getenv("TRACE_DIAG_SIGNALING_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.SignalingWindowMs = ms
		}
	}
	if v := os.Getenv("TRACE_DIAG_API_PATH_PATTERNS"); v != "" {
		cfg.Analysis.APIPathPatterns = splitAndTrim(v)
	}
	if v := os.Getenv("TRACE_DIAG_AUTH_HEADER_NAMES"); v != "" {
		cfg.Analysis.AuthHeaderNames = splitAndTrim(v)
	}
	if v := os.Getenv("TRACE_DIAG_EXPIRY_QUERY_PARAM"); v != "" {
		cfg.Analysis.ExpiryQueryParam = v
	}
	if v := os.Getenv("TRACE_DIAG_MAX_SKIP_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.MaxSkipRate = rate
		}
	}
	if v := os.Getenv("TRACE_DIAG_PARALLEL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.ParallelThreshold = n
		}
	}
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
