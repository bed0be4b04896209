package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	defaultFetchTimeout   = 10 * time.Second
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `env:"PORT"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    time.Duration `env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT"`
	EnableRequestLogging bool
	RateLimitRPS         float64 `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       int     `env:"RATE_LIMIT_BURST"`
	LogLevel             string  `env:"LOG_LEVEL"`
	Bootstrap            Bootstrap
}

// Bootstrap selects where catalina.properties is read from.
type Bootstrap struct {
	// ConfigURL is tried first when set.
	ConfigURL string `env:"CATALINA_CONFIG"`
	// BaseDir holds conf/catalina.properties; HomeDir and then the working
	// directory are used when it is empty.
	BaseDir string `env:"CATALINA_BASE"`
	HomeDir string `env:"CATALINA_HOME"`
	// ExportEnv mirrors loaded properties into the OS environment.
	ExportEnv    bool          `env:"CATALINA_EXPORT_ENV"`
	FetchTimeout time.Duration `env:"CATALINA_CONFIG_TIMEOUT"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Bootstrap            yamlBootstrap `yaml:"bootstrap"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// yamlBootstrap represents the bootstrap section in YAML.
type yamlBootstrap struct {
	ConfigURL    string `yaml:"config_url"`
	BaseDir      string `yaml:"base_dir"`
	HomeDir      string `yaml:"home_dir"`
	ExportEnv    *bool  `yaml:"export_env"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
	ConfigURL      *string
	BaseDir        *string
	HomeDir        *string
	ExportEnv      *bool
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		Bootstrap: Bootstrap{
			FetchTimeout: defaultFetchTimeout,
		},
	}
}

// applyEnvConfig parses environment variables and applies every variable that
// is set to a non-blank value, including explicit zeros.
func applyEnvConfig(cfg *Config) error {
	var envCfg Config
	if err := env.Parse(&envCfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}

	overrides := []struct {
		key   string
		apply func()
	}{
		{"PORT", func() { cfg.Port = envCfg.Port }},
		{"SHUTDOWN_GRACE_PERIOD", func() { cfg.ShutdownGracePeriod = envCfg.ShutdownGracePeriod }},
		{"READ_HEADER_TIMEOUT", func() { cfg.ReadHeaderTimeout = envCfg.ReadHeaderTimeout }},
		{"WRITE_TIMEOUT", func() { cfg.WriteTimeout = envCfg.WriteTimeout }},
		{"IDLE_TIMEOUT", func() { cfg.IdleTimeout = envCfg.IdleTimeout }},
		{"RATE_LIMIT_RPS", func() { cfg.RateLimitRPS = envCfg.RateLimitRPS }},
		{"RATE_LIMIT_BURST", func() { cfg.RateLimitBurst = envCfg.RateLimitBurst }},
		{"LOG_LEVEL", func() { cfg.LogLevel = envCfg.LogLevel }},
		{"CATALINA_CONFIG", func() { cfg.Bootstrap.ConfigURL = envCfg.Bootstrap.ConfigURL }},
		{"CATALINA_BASE", func() { cfg.Bootstrap.BaseDir = envCfg.Bootstrap.BaseDir }},
		{"CATALINA_HOME", func() { cfg.Bootstrap.HomeDir = envCfg.Bootstrap.HomeDir }},
		{"CATALINA_EXPORT_ENV", func() { cfg.Bootstrap.ExportEnv = envCfg.Bootstrap.ExportEnv }},
		{"CATALINA_CONFIG_TIMEOUT", func() { cfg.Bootstrap.FetchTimeout = envCfg.Bootstrap.FetchTimeout }},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(value) != "" {
			o.apply()
		}
	}
	return nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"bootstrap.fetch_timeout", yamlCfg.Bootstrap.FetchTimeout, &cfg.Bootstrap.FetchTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		*d.field = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.Bootstrap.ConfigURL != "" {
		cfg.Bootstrap.ConfigURL = yamlCfg.Bootstrap.ConfigURL
	}

	if yamlCfg.Bootstrap.BaseDir != "" {
		cfg.Bootstrap.BaseDir = yamlCfg.Bootstrap.BaseDir
	}

	if yamlCfg.Bootstrap.HomeDir != "" {
		cfg.Bootstrap.HomeDir = yamlCfg.Bootstrap.HomeDir
	}

	if yamlCfg.Bootstrap.ExportEnv != nil {
		cfg.Bootstrap.ExportEnv = *yamlCfg.Bootstrap.ExportEnv
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.ConfigURL != nil && *overrides.ConfigURL != "" {
		cfg.Bootstrap.ConfigURL = *overrides.ConfigURL
	}

	if overrides.BaseDir != nil && *overrides.BaseDir != "" {
		cfg.Bootstrap.BaseDir = *overrides.BaseDir
	}

	if overrides.HomeDir != nil && *overrides.HomeDir != "" {
		cfg.Bootstrap.HomeDir = *overrides.HomeDir
	}

	if overrides.ExportEnv != nil {
		cfg.Bootstrap.ExportEnv = *overrides.ExportEnv
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.Bootstrap.FetchTimeout <= 0 {
		return fmt.Errorf("CATALINA_CONFIG_TIMEOUT must be > 0")
	}
	return nil
}
