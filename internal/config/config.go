// Package config resolves settings from defaults, an optional YAML file,
// a .env file and TRIAGE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "TRIAGE"

// DefaultSQLitePath is the database file used when the sqlite driver is
// selected without a DSN. Postgres has no default and must be configured.
const DefaultSQLitePath = "data/triage.db"

type Config struct {
	HTTP      HTTP      `mapstructure:"http" yaml:"http"`
	Store     Store     `mapstructure:"store" yaml:"store"`
	Tokenizer string    `mapstructure:"tokenizer" yaml:"tokenizer"`
	RateLimit RateLimit `mapstructure:"ratelimit" yaml:"ratelimit"`
	Report    Report    `mapstructure:"report" yaml:"report"`
	Telegram  Telegram  `mapstructure:"telegram" yaml:"telegram"`
	Log       Log       `mapstructure:"log" yaml:"log"`
}

type HTTP struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type Store struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type RateLimit struct {
	RPS   float64 `mapstructure:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" yaml:"burst"`
}

type Report struct {
	FontPath string `mapstructure:"font_path" yaml:"font_path"`
}

type Telegram struct {
	Token   string `mapstructure:"token" yaml:"token"`
	ChatID  int64  `mapstructure:"chat_id" yaml:"chat_id"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)
	v.SetDefault("http.max_body_bytes", 64<<10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("tokenizer", "words")
	v.SetDefault("ratelimit.rps", 2.0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("report.font_path", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("log.level", "info")
}

// Bind prepares v with defaults and environment binding. cfgFile may be
// empty, in which case $HOME/.triage/config.yaml is used if it exists.
func Bind(v *viper.Viper, cfgFile string) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".triage"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names used by earlier deployments.
	_ = v.BindEnv("store.dsn", EnvPrefix+"_STORE_DSN", "DATABASE_URL")
	_ = v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", EnvPrefix+"_TELEGRAM_CHAT_ID", "DOCTOR_CHAT_ID")
}

// Load reads .env, the config file and the environment into a Config.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	Bind(v, cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "sqlite" && cfg.Store.DSN == "" {
		cfg.Store.DSN = DefaultSQLitePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	driver := strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if driver == "postgres" && c.Store.DSN == "" {
		errs = append(errs, errors.New("store.dsn is required for postgres"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	if c.RateLimit.RPS <= 0 {
		errs = append(errs, errors.New("ratelimit.rps must be positive"))
	}
	if c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("ratelimit.burst must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// TelegramEnabled reports whether alerts and report delivery are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// YAML renders the effective configuration with the bot token redacted.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.Telegram.Token != "" {
		out.Telegram.Token = "********"
	}
	return yaml.Marshal(out)
}
