package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Data       DataConfig       `mapstructure:"data" yaml:"data"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DataConfig holds dataset intake settings. DefaultFile, when set and
// present on disk, is loaded as the monitoring dataset at startup.
type DataConfig struct {
	DefaultFile string `mapstructure:"default_file" yaml:"default_file"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// ThresholdsConfig holds the initial alert limits. They seed the in-memory
// ThresholdConfig once at startup; later edits happen through the API only.
type ThresholdsConfig struct {
	Rain float64 `mapstructure:"rain" yaml:"rain"`
	Disp float64 `mapstructure:"disp" yaml:"disp"`
	Pore float64 `mapstructure:"pore" yaml:"pore"`
}

// LoadConfig loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Env vars use the GEOVIZ prefix
// with underscores, e.g. GEOVIZ_SERVER_PORT.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GEOVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("data.default_file", "geotech_data.csv")
	v.SetDefault("data.max_upload_mb", 16)
	v.SetDefault("thresholds.rain", 30.0)
	v.SetDefault("thresholds.disp", 8.0)
	v.SetDefault("thresholds.pore", 60.0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("geoviz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Missing file is fine; env and defaults still apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
// Threshold limits are intentionally unconstrained: any real number is a
// legal alert limit, including negatives.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Data.MaxUploadMB <= 0 {
		return fmt.Errorf("data.max_upload_mb must be positive, got %d", c.Data.MaxUploadMB)
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
