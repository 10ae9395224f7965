package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the bridge process configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	WHMCS    WHMCSConfig    `yaml:"whmcs"`
	Sync     SyncConfig     `yaml:"sync"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432" validate:"min=1,max=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"billing_bridge" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

// WHMCSConfig contains the billing system API endpoint and transport settings
type WHMCSConfig struct {
	URL           string `yaml:"url"`
	Identifier    string `yaml:"identifier"`
	Secret        string `yaml:"secret"`
	SkipTLSVerify bool   `yaml:"skip_tls_verify"`

	// DirectIP connects to this address instead of resolving the URL host.
	DirectIP string `yaml:"direct_ip" validate:"omitempty,ip"`

	// VirtualHost is sent as the Host header when the URL host is an IP literal.
	VirtualHost string `yaml:"virtual_host"`

	Timeout           time.Duration `yaml:"timeout" default:"30s"`
	MaxRedirects      int           `yaml:"max_redirects" default:"3" validate:"min=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" default:"10" validate:"gte=0"`
	Burst             int           `yaml:"burst" default:"5" validate:"gte=0"`
}

// SyncConfig contains reconciliation settings
type SyncConfig struct {
	AutoCreateUsers   bool          `yaml:"auto_create_users" default:"true"`
	DefaultGroupID    int64         `yaml:"default_group_id" default:"2" validate:"gt=0"`
	PageSize          int           `yaml:"page_size" default:"100" validate:"min=1,max=1000"`
	MaxPages          int           `yaml:"max_pages" default:"1000" validate:"min=1"`
	Interval          time.Duration `yaml:"interval"`
	RunTimeout        time.Duration `yaml:"run_timeout" default:"30m"`
	SyncOnLogin       bool          `yaml:"sync_on_login" default:"true"`
	AutoCreateOnLogin bool          `yaml:"auto_create_on_login" default:"true"`
}

// AuthConfig contains operator token settings. An empty secret disables operator auth.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load reads the YAML file at configPath, expands ${VAR} references from the
// environment, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes configuration from raw YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
