package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// UnassignedScopePolicy decides what an identity with neither admin rights
// nor an assigned customer code may select.
type UnassignedScopePolicy string

const (
	// ScopeFullDirectory shows the unfiltered directory.
	ScopeFullDirectory UnassignedScopePolicy = "full-directory"
	// ScopeEmpty shows nothing.
	ScopeEmpty UnassignedScopePolicy = "empty"
)

// Config holds all application configuration
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Directory  DirectoryConfig  `yaml:"directory"`
	Batch      BatchConfig      `yaml:"batch"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// ExtractionConfig holds extraction-service configuration
type ExtractionConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // 0 keeps the transport default
}

// DirectoryConfig holds directory-service configuration
type DirectoryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BatchConfig holds orchestrator behavior flags
type BatchConfig struct {
	DefaultCustomerCode           string                `yaml:"default_customer_code"`
	SupportsDefaultCustomerBranch bool                  `yaml:"supports_default_customer_branch"`
	UnassignedScopePolicy         UnassignedScopePolicy `yaml:"unassigned_scope_policy"`
	MinInterval                   time.Duration         `yaml:"min_interval"`
}

// ServerConfig holds listener addresses for pobatchd
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
	// SessionIdle evicts workbenches unused for this long; 0 keeps them.
	SessionIdle time.Duration `yaml:"session_idle"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{BaseURL: "http://localhost:5000"},
		Directory:  DirectoryConfig{BaseURL: "http://localhost:5000", Timeout: 10 * time.Second},
		Batch: BatchConfig{
			DefaultCustomerCode:           "DEFAULT",
			SupportsDefaultCustomerBranch: true,
			UnassignedScopePolicy:         ScopeFullDirectory,
		},
		Server: ServerConfig{HTTPAddr: ":8080", GRPCAddr: ":9090", SessionIdle: 30 * time.Minute},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := defaultConfig()
	mergeWithEnv(cfg)
	return cfg
}

// LoadConfigFile reads a YAML file, then lets environment variables override it.
// An empty path behaves like LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, WrapError(err, "parse config file")
		}
	}
	mergeWithEnv(cfg)
	return cfg, nil
}

func mergeWithEnv(cfg *Config) {
	cfg.Extraction.BaseURL = getEnv("EXTRACTION_BASE_URL", cfg.Extraction.BaseURL)
	cfg.Extraction.Timeout = getEnvAsDuration("EXTRACTION_TIMEOUT", cfg.Extraction.Timeout)
	cfg.Directory.BaseURL = getEnv("DIRECTORY_BASE_URL", cfg.Directory.BaseURL)
	cfg.Directory.Timeout = getEnvAsDuration("DIRECTORY_TIMEOUT", cfg.Directory.Timeout)
	cfg.Batch.DefaultCustomerCode = getEnv("DEFAULT_CUSTOMER_CODE", cfg.Batch.DefaultCustomerCode)
	cfg.Batch.SupportsDefaultCustomerBranch = getEnvAsBool("SUPPORTS_DEFAULT_CUSTOMER_BRANCH", cfg.Batch.SupportsDefaultCustomerBranch)
	cfg.Batch.UnassignedScopePolicy = UnassignedScopePolicy(getEnv("UNASSIGNED_SCOPE_POLICY", string(cfg.Batch.UnassignedScopePolicy)))
	cfg.Batch.MinInterval = getEnvAsDuration("EXTRACTION_MIN_INTERVAL", cfg.Batch.MinInterval)
	cfg.Server.HTTPAddr = getEnv("HTTP_ADDR", cfg.Server.HTTPAddr)
	cfg.Server.GRPCAddr = getEnv("GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.SessionIdle = getEnvAsDuration("SESSION_IDLE_TIMEOUT", cfg.Server.SessionIdle)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("extraction.base_url", c.Extraction.BaseURL, Required, HTTPURL).
		Field("directory.base_url", c.Directory.BaseURL, Required, HTTPURL).
		Field("batch.default_customer_code", c.Batch.DefaultCustomerCode, Required).
		Field("batch.unassigned_scope_policy", string(c.Batch.UnassignedScopePolicy), OneOf(string(ScopeFullDirectory), string(ScopeEmpty)))
	if c.Server.SessionIdle < 0 {
		v.Add(ValidationError{Field: "server.session_idle", Value: c.Server.SessionIdle, Message: "must not be negative"})
	}
	if c.Batch.MinInterval < 0 {
		v.Add(ValidationError{Field: "batch.min_interval", Value: c.Batch.MinInterval, Message: "must not be negative"})
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// TrimmedBaseURL strips a trailing slash so paths can be appended.
func TrimmedBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
