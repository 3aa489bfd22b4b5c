package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "labpulse/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. LABPULSE_SERVER_PORT.
const EnvPrefix = "LABPULSE"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// RequestTimeout bounds a single API request, reloads included.
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/labpulse.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// AnalysisConfig controls ingestion and aggregation.
type AnalysisConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"data/input"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/reports"`
	// Workers bounds concurrent file parsing. Zero means one per CPU.
	Workers       int           `yaml:"workers" envconfig:"WORKERS" default:"0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"15m"`
	CacheSize     int           `yaml:"cache_size" envconfig:"CACHE_SIZE" default:"256"`
	WatchInputs   bool          `yaml:"watch_inputs" envconfig:"WATCH_INPUTS" default:"true"`
	WatchDebounce time.Duration `yaml:"watch_debounce" envconfig:"WATCH_DEBOUNCE" default:"500ms"`
	LoadOnStart   bool          `yaml:"load_on_start" envconfig:"LOAD_ON_START" default:"true"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"labpulse"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED" default:"false"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogOutputs = []string{"console", "file", "both"}
)

// Load loads configuration from an optional .env file, environment
// variables and an optional YAML file. Environment variables win over the
// file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apierrors.NewConfigError("failed to load .env", err)
	}

	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apierrors.NewConfigError("failed to load config from env", err)
	}

	if configFile := getConfigFilePath(); configFile != "" {
		fileConfig, err := loadFromFile(configFile, cfg)
		if err != nil {
			return nil, apierrors.NewConfigError("failed to load config from file", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, apierrors.NewConfigError("config validation failed", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file on top of base, so keys
// missing from the file keep the base value.
func loadFromFile(filePath string, base Config) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := base
	cfg.Security.AllowedOrigins = slices.Clone(base.Security.AllowedOrigins)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// pick returns the env value when its variable is set and the file value
// otherwise.
func pick[T any](key string, envValue, fileValue T) T {
	if _, set := os.LookupEnv(EnvPrefix + "_" + key); set {
		return envValue
	}
	return fileValue
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	out := envConfig

	out.Server.Port = pick("SERVER_PORT", envConfig.Server.Port, fileConfig.Server.Port)
	out.Server.ReadTimeout = pick("SERVER_READ_TIMEOUT", envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	out.Server.WriteTimeout = pick("SERVER_WRITE_TIMEOUT", envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	out.Server.IdleTimeout = pick("SERVER_IDLE_TIMEOUT", envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout)
	out.Server.MaxHeaderBytes = pick("SERVER_MAX_HEADER_BYTES", envConfig.Server.MaxHeaderBytes, fileConfig.Server.MaxHeaderBytes)
	out.Server.ShutdownTimeout = pick("SERVER_SHUTDOWN_TIMEOUT", envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)
	out.Server.RequestTimeout = pick("SERVER_REQUEST_TIMEOUT", envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout)

	out.Security.AllowedOrigins = pick("SECURITY_ALLOWED_ORIGINS", envConfig.Security.AllowedOrigins, fileConfig.Security.AllowedOrigins)
	out.Security.EnableCORS = pick("SECURITY_ENABLE_CORS", envConfig.Security.EnableCORS, fileConfig.Security.EnableCORS)
	out.Security.RateLimit.Enabled = pick("SECURITY_RATE_LIMIT_ENABLED", envConfig.Security.RateLimit.Enabled, fileConfig.Security.RateLimit.Enabled)
	out.Security.RateLimit.RPS = pick("SECURITY_RATE_LIMIT_RPS", envConfig.Security.RateLimit.RPS, fileConfig.Security.RateLimit.RPS)
	out.Security.RateLimit.Burst = pick("SECURITY_RATE_LIMIT_BURST", envConfig.Security.RateLimit.Burst, fileConfig.Security.RateLimit.Burst)

	out.Logging.Level = pick("LOGGING_LEVEL", envConfig.Logging.Level, fileConfig.Logging.Level)
	out.Logging.Format = pick("LOGGING_FORMAT", envConfig.Logging.Format, fileConfig.Logging.Format)
	out.Logging.Output = pick("LOGGING_OUTPUT", envConfig.Logging.Output, fileConfig.Logging.Output)
	out.Logging.FilePath = pick("LOGGING_FILE_PATH", envConfig.Logging.FilePath, fileConfig.Logging.FilePath)
	out.Logging.Development = pick("LOGGING_DEVELOPMENT", envConfig.Logging.Development, fileConfig.Logging.Development)

	out.Analysis.InputDir = pick("ANALYSIS_INPUT_DIR", envConfig.Analysis.InputDir, fileConfig.Analysis.InputDir)
	out.Analysis.OutputDir = pick("ANALYSIS_OUTPUT_DIR", envConfig.Analysis.OutputDir, fileConfig.Analysis.OutputDir)
	out.Analysis.Workers = pick("ANALYSIS_WORKERS", envConfig.Analysis.Workers, fileConfig.Analysis.Workers)
	out.Analysis.CacheTTL = pick("ANALYSIS_CACHE_TTL", envConfig.Analysis.CacheTTL, fileConfig.Analysis.CacheTTL)
	out.Analysis.CacheSize = pick("ANALYSIS_CACHE_SIZE", envConfig.Analysis.CacheSize, fileConfig.Analysis.CacheSize)
	out.Analysis.WatchInputs = pick("ANALYSIS_WATCH_INPUTS", envConfig.Analysis.WatchInputs, fileConfig.Analysis.WatchInputs)
	out.Analysis.WatchDebounce = pick("ANALYSIS_WATCH_DEBOUNCE", envConfig.Analysis.WatchDebounce, fileConfig.Analysis.WatchDebounce)
	out.Analysis.LoadOnStart = pick("ANALYSIS_LOAD_ON_START", envConfig.Analysis.LoadOnStart, fileConfig.Analysis.LoadOnStart)

	out.Telemetry.ServiceName = pick("TELEMETRY_SERVICE_NAME", envConfig.Telemetry.ServiceName, fileConfig.Telemetry.ServiceName)
	out.Telemetry.TracingEnabled = pick("TELEMETRY_TRACING_ENABLED", envConfig.Telemetry.TracingEnabled, fileConfig.Telemetry.TracingEnabled)
	out.Telemetry.MetricsEnabled = pick("TELEMETRY_METRICS_ENABLED", envConfig.Telemetry.MetricsEnabled, fileConfig.Telemetry.MetricsEnabled)

	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalidf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return invalidf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return invalidf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return invalidf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return invalidf("rate limit rps and burst must be positive")
	}

	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return invalidf("invalid log level: %q", c.Logging.Level)
	}

	if !slices.Contains(validLogOutputs, c.Logging.Output) {
		return invalidf("invalid log output: %q", c.Logging.Output)
	}

	// Logs are always structured
	c.Logging.Format = "json"

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/labpulse.log"
	}

	if c.Analysis.InputDir == "" {
		return invalidf("analysis input directory must be set")
	}

	if c.Analysis.Workers < 0 {
		return invalidf("analysis workers must not be negative")
	}

	if c.Analysis.CacheSize < 0 {
		return invalidf("analysis cache size must not be negative")
	}

	if c.Analysis.CacheTTL <= 0 {
		return invalidf("analysis cache ttl must be positive")
	}

	if c.Analysis.WatchInputs && c.Analysis.WatchDebounce <= 0 {
		return invalidf("watch debounce must be positive")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/labpulse.log",
		},
		Analysis: AnalysisConfig{
			InputDir:      "data/input",
			OutputDir:     "data/reports",
			CacheTTL:      15 * time.Minute,
			CacheSize:     256,
			WatchInputs:   true,
			WatchDebounce: 500 * time.Millisecond,
			LoadOnStart:   true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "labpulse",
			MetricsEnabled: true,
		},
	}
}

// invalidf reports a configuration value that fails validation.
func invalidf(format string, args ...any) error {
	return apierrors.NewAppValidationError(fmt.Sprintf(format, args...))
}
