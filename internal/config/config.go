package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jask/tariffdesk/internal/log"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
}

// APIConfig points the TUI at the tariff backend.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	TokenEnv string        `mapstructure:"token_env"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Locale         string `mapstructure:"locale"`
	Timezone       string `mapstructure:"timezone"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	ToastSeconds   int    `mapstructure:"toast_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ServerConfig is read by tariffd only.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AMQPConfig enables save-event publishing when URL is set.
type AMQPConfig struct {
	URL        string `mapstructure:"url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// Location resolves the UI timezone, falling back to local time.
func (u UIConfig) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Token returns the API bearer token from the configured env var.
func (a APIConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Path returns the config file location. Env override uses TARIFFDESK_CONFIG.
func Path() string {
	if p := os.Getenv("TARIFFDESK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "tariffdesk", "config.toml")
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", "8s")
	v.SetDefault("api.token_env", "TARIFFDESK_API_TOKEN")
	v.SetDefault("ui.locale", "es")
	v.SetDefault("ui.timezone", "America/Argentina/Buenos_Aires")
	v.SetDefault("ui.currency_symbol", "$")
	v.SetDefault("ui.toast_seconds", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(home, ".local", "state", "tariffdesk", "tariffdesk.log"))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "tariffdesk", "tariffdesk.db"))
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "tariffdesk")
	v.SetDefault("amqp.routing_key", "tariffs.updated")
}

// Load reads configuration from .env, file and env. Env var overrides use
// prefix TARIFFDESK_.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	if cfgPath := os.Getenv("TARIFFDESK_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tariffdesk"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TARIFFDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate checks the settings both binaries depend on.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.UI.ToastSeconds < 0 {
		errs = append(errs, errors.New("ui.toast_seconds must not be negative"))
	}
	if c.AMQP.URL != "" {
		u, err := url.Parse(c.AMQP.URL)
		if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			errs = append(errs, fmt.Errorf("amqp.url must use amqp:// or amqps://"))
		}
		if c.AMQP.Exchange == "" {
			errs = append(errs, errors.New("amqp.exchange is required when amqp.url is set"))
		}
	}
	return errors.Join(errs...)
}

// Save writes the provided config to disk, creating the config directory if
// needed. Tokens are never written; they stay in the env or secrets store.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.token_env", cfg.API.TokenEnv)
	v.Set("ui.locale", cfg.UI.Locale)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.toast_seconds", cfg.UI.ToastSeconds)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("database.path", cfg.Database.Path)
	v.Set("amqp.url", cfg.AMQP.URL)
	v.Set("amqp.exchange", cfg.AMQP.Exchange)
	v.Set("amqp.routing_key", cfg.AMQP.RoutingKey)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
