package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (ECOSCAN_SERVER_PORT, ...)
const EnvPrefix = "ECOSCAN"

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `mapstructure:"port"`
		StaticDir string `mapstructure:"static_dir"`
		Debug     bool   `mapstructure:"debug"`
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	ML ml.Config `mapstructure:"ml"`

	// Backend points at a remote vision backend. When URL is empty the configured
	// ML model is used in process.
	Backend struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`

	Upload struct {
		MaxBytes int64 `mapstructure:"max_bytes"`
	} `mapstructure:"upload"`

	Logging LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "")
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.debug", false)
	v.SetDefault("database.path", "ecoscan.db")
	v.SetDefault("ml.type", "local")
	v.SetDefault("ml.google.project_id", "")
	v.SetDefault("ml.google.location", "")
	v.SetDefault("ml.google.credentials_file", "")
	v.SetDefault("ml.google.model", "")
	v.SetDefault("ml.gemini.api_key", "")
	v.SetDefault("ml.gemini.model", "")
	v.SetDefault("ml.local.seed", 0)
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.timeout", 60*time.Second)
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// NewViper returns a viper instance carrying the defaults and ECOSCAN_* environment
// overrides, with no config file read yet
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from a YAML or JSON file, with ECOSCAN_* environment
// overrides. An empty path loads defaults and environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := NewViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks required values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is not set in config file")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}

// GetConfigPath returns the path to the configuration file, or "" when none exists
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Then try config directory, then the current directory
	for _, candidate := range []string{
		filepath.Join("config", "config.yaml"),
		filepath.Join("config", "config.json"),
		"config.yaml",
		"config.json",
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
