// Package config loads configuration for the LicenseCore tools and demo
// server from environment variables with an optional YAML file overlay.
// The library core takes no configuration from the environment; everything
// here feeds the binaries under cmd/.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/Vlad-tdk/LicenseCore/internal/hwid"
)

// EnvPrefix namespaces every environment variable, e.g. LICENSECORE_SERVER_PORT.
const EnvPrefix = "LICENSECORE"

// Config is the complete tool configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	License  LicenseConfig  `yaml:"license" envconfig:"LICENSE"`
	Hardware HardwareConfig `yaml:"hardware" envconfig:"HARDWARE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig configures the demo HTTP server.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig bounds request rates on the demo server.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LicenseConfig carries the signing secret and validation mode. The secret
// is read from the environment or a file, never logged.
type LicenseConfig struct {
	Secret     string `yaml:"-" envconfig:"SECRET"`
	SecretFile string `yaml:"secret_file" envconfig:"SECRET_FILE"`
	Strict     bool   `yaml:"strict" envconfig:"STRICT" default:"false"`
}

// HardwareConfig mirrors hwid.Config for the environment/YAML surface.
type HardwareConfig struct {
	UseCPUID             bool          `yaml:"use_cpu_id" envconfig:"USE_CPU_ID" default:"true"`
	UseMACAddress        bool          `yaml:"use_mac_address" envconfig:"USE_MAC_ADDRESS" default:"true"`
	UseVolumeSerial      bool          `yaml:"use_volume_serial" envconfig:"USE_VOLUME_SERIAL" default:"true"`
	UseMotherboardSerial bool          `yaml:"use_motherboard_serial" envconfig:"USE_MOTHERBOARD_SERIAL" default:"false"`
	CacheTTL             time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL" default:"5m"`
	EnableCaching        bool          `yaml:"enable_caching" envconfig:"ENABLE_CACHING" default:"true"`
	ThreadSafeCache      bool          `yaml:"thread_safe_cache" envconfig:"THREAD_SAFE_CACHE" default:"true"`
}

// LoggingConfig configures the slog JSON logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/licensecore.log"`
}

// Load reads configuration from the environment, then overlays values from
// the YAML file at path when it exists. Pass an empty path to skip the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := loadFile(path, &cfg); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.resolveSecret(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolveSecret reads the secret file when no inline secret was supplied.
func (c *Config) resolveSecret() error {
	if c.License.Secret != "" || c.License.SecretFile == "" {
		return nil
	}
	data, err := os.ReadFile(c.License.SecretFile)
	if err != nil {
		return fmt.Errorf("read secret file: %w", err)
	}
	c.License.Secret = string(data)
	return nil
}

// HardwareBuilderConfig converts the configuration into the hwid form.
func (c *Config) HardwareBuilderConfig() hwid.Config {
	return hwid.Config{
		UseCPUID:             c.Hardware.UseCPUID,
		UseMACAddress:        c.Hardware.UseMACAddress,
		UseVolumeSerial:      c.Hardware.UseVolumeSerial,
		UseMotherboardSerial: c.Hardware.UseMotherboardSerial,
		CacheTTL:             c.Hardware.CacheTTL,
		EnableCaching:        c.Hardware.EnableCaching,
		ThreadSafeCache:      c.Hardware.ThreadSafeCache,
	}
}
