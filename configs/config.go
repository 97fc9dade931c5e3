package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileConfig defines the structure loaded from the optional YAML
// configuration file. Only settings that are awkward to pass through MCP
// host environment blocks live here; everything else is env-only.
type FileConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	LogFile string `yaml:"log_file"`
}

// Config holds the final application configuration, merged from environment
// variables (prefix "FINPULSE_") and the optional YAML file. Environment
// variables win over file values, file values win over defaults.
type Config struct {
	// Config file path (loaded first from env). Empty means no file.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// APIKey authenticates against the upstream API. Deliberately not
	// required here: a missing key must not prevent the server from starting
	// and listing tools, only from invoking them.
	APIKey string `envconfig:"API_KEY"`

	// BaseURL is the upstream API root including the versioned prefix.
	BaseURL string `envconfig:"BASE_URL" default:"https://api.finpulse.io/api/v1"`

	HTTPClientTimeout time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`

	// ListenAddr and AdminAddr are used in SSE mode only.
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8080"`
	AdminAddr       string        `envconfig:"ADMIN_ADDR" default:":8081"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// LogFile redirects diagnostics to a file. Empty logs to stderr, which
	// is safe in both transports; stdout is reserved for the protocol.
	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	OtelExporterOtlpEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from environment variables, then merges in the
// YAML file when FINPULSE_CONFIG_FILE points at one. A configured file that
// cannot be read or parsed is a hard error; no file configured is not.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("finpulse", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.ConfigFilePath == "" {
		return &cfg, nil
	}

	yamlFile, err := os.ReadFile(cfg.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", cfg.ConfigFilePath, err)
	}
	var fileCfg FileConfig
	if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", cfg.ConfigFilePath, err)
	}
	slog.Debug("Loaded configuration from file.", "path", cfg.ConfigFilePath)

	// Environment variables keep precedence over file values, so a field is
	// taken from the file only when its variable is unset.
	if fileCfg.APIKey != "" && !envSet("API_KEY") {
		cfg.APIKey = fileCfg.APIKey
	}
	if fileCfg.BaseURL != "" && !envSet("BASE_URL") {
		cfg.BaseURL = fileCfg.BaseURL
	}
	if fileCfg.LogFile != "" && !envSet("LOG_FILE") {
		cfg.LogFile = fileCfg.LogFile
	}

	return &cfg, nil
}

// envSet reports whether the prefixed or bare form of an envconfig key is
// present in the environment, mirroring envconfig's own lookup order.
func envSet(name string) bool {
	if _, ok := os.LookupEnv("FINPULSE_" + name); ok {
		return true
	}
	_, ok := os.LookupEnv(name)
	return ok
}
