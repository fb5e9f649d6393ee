package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".browserfarm"
	envPrefix  = "BF"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Hub       HubConfig       `mapstructure:"hub"`
	Tunnel    TunnelConfig    `mapstructure:"tunnel"`
	Session   SessionConfig   `mapstructure:"session"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Sessions  LedgerConfig    `mapstructure:"sessions"`
	Log       LogConfig       `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Username       string        `mapstructure:"username"`
	AccessKey      string        `mapstructure:"access_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type HubConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	BindAddress string `mapstructure:"bind_address"`
}

type TunnelConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Binary          string        `mapstructure:"binary"`
	LocalIdentifier string        `mapstructure:"local_identifier"`
	ForceLocal      bool          `mapstructure:"force_local"`
	ReadyTimeout    time.Duration `mapstructure:"ready_timeout"`
	Args            []string      `mapstructure:"args"`
}

type SessionConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	OpeningTimeout time.Duration `mapstructure:"opening_timeout"`
	WorkingTimeout time.Duration `mapstructure:"working_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollAttempts   int           `mapstructure:"poll_attempts"`
}

type AdmissionConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	ErrMissingCredentials = errors.New("farm credentials are not configured (api.username, api.access_key)")
)

func setDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault("api.base_url", "https://api.browserstack.com/4")
	v.SetDefault("api.username", "")
	v.SetDefault("api.access_key", "")
	v.SetDefault("api.request_timeout", "30s")

	v.SetDefault("hub.host", "localhost")
	v.SetDefault("hub.port", 1000)
	v.SetDefault("hub.bind_address", "127.0.0.1")

	v.SetDefault("tunnel.enabled", false)
	v.SetDefault("tunnel.binary", "BrowserStackLocal")
	v.SetDefault("tunnel.local_identifier", "")
	v.SetDefault("tunnel.force_local", false)
	v.SetDefault("tunnel.ready_timeout", "30s")
	v.SetDefault("tunnel.args", []string{})

	v.SetDefault("session.max_attempts", 3)
	v.SetDefault("session.opening_timeout", "60s")
	v.SetDefault("session.working_timeout", "30m")
	v.SetDefault("session.poll_interval", "10s")
	v.SetDefault("session.poll_attempts", 30)

	v.SetDefault("admission.interval", "30s")
	v.SetDefault("admission.max_attempts", 20)

	v.SetDefault("sessions.path", filepath.Join(homeDir, configDir, "sessions.toml"))

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load reads ~/.browserfarm/config.toml (or configFile when set) and BF_*
// environment overrides into v, then decodes the result.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	setDefaults(v, homeDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks shape only. Credentials are checked by RequireCredentials
// because commands such as version never reach the farm.
func (c Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if c.Hub.Port < 0 || c.Hub.Port > 65535 {
		return fmt.Errorf("invalid hub.port %d", c.Hub.Port)
	}
	if strings.TrimSpace(c.Hub.Host) == "" {
		return errors.New("hub.host is required")
	}
	if c.Session.MaxAttempts < 1 {
		return fmt.Errorf("session.max_attempts must be at least 1, got %d", c.Session.MaxAttempts)
	}
	if c.Session.OpeningTimeout <= 0 {
		return errors.New("session.opening_timeout must be positive")
	}
	if c.Session.PollAttempts < 1 {
		return fmt.Errorf("session.poll_attempts must be at least 1, got %d", c.Session.PollAttempts)
	}
	if c.Admission.MaxAttempts < 1 {
		return fmt.Errorf("admission.max_attempts must be at least 1, got %d", c.Admission.MaxAttempts)
	}
	if c.Tunnel.Enabled && strings.TrimSpace(c.Tunnel.Binary) == "" {
		return errors.New("tunnel.binary is required when the tunnel is enabled")
	}

	return nil
}

func (c Config) RequireCredentials() error {
	if strings.TrimSpace(c.API.Username) == "" || strings.TrimSpace(c.API.AccessKey) == "" {
		return ErrMissingCredentials
	}
	return nil
}
