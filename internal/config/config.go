package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TUTORFIND_REDIS_URL.
const EnvPrefix = "TUTORFIND"

// Config is the main application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Search SearchConfig `mapstructure:"search"`
	Source SourceConfig `mapstructure:"source"`
	Redis  RedisConfig  `mapstructure:"redis"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Server ServerConfig `mapstructure:"server"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type SearchConfig struct {
	NearLocation  string        `mapstructure:"near_location"`
	TextDebounce  time.Duration `mapstructure:"text_debounce"`
	RangeDebounce time.Duration `mapstructure:"range_debounce"`
}

// SourceConfig selects where listings come from. Kinds is an ordered list of
// sample, file, rest, html.
type SourceConfig struct {
	Kinds   []string `mapstructure:"kinds"`
	File    string   `mapstructure:"file"`
	RESTURL string   `mapstructure:"rest_url"`
	HTMLURL string   `mapstructure:"html_url"`
}

// RedisConfig is optional; an empty URL disables caching and preferences.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	ProxyURL   string        `mapstructure:"proxy_url"`
	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type NotifyConfig struct {
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat_id"`
	DiscordWebhook string `mapstructure:"discord_webhook"`
}

var defaults = map[string]any{
	"log.level":             "info",
	"log.format":            "console",
	"search.near_location":  "New York",
	"search.text_debounce":  "300ms",
	"search.range_debounce": "500ms",
	"source.kinds":          []string{"sample"},
	"source.file":           "",
	"source.rest_url":       "",
	"source.html_url":       "",
	"redis.url":             "",
	"redis.ttl":             "1h",
	"http.proxy_url":        "",
	"http.min_delay":        "200ms",
	"http.max_delay":        "1s",
	"http.max_retries":      3,
	"http.timeout":          "30s",
	"server.addr":           ":8080",
	"server.cors_origins":   []string{},

	"notify.telegram_token":   "",
	"notify.telegram_chat_id": "",
	"notify.discord_webhook":  "",
}

// Load reads .env (best effort), an optional YAML config file and
// TUTORFIND_* environment overrides, in increasing precedence.
// An empty path searches ./config.yaml and ./configs/config.yaml.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", describe(path), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Source.Kinds = splitList(cfg.Source.Kinds)
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if len(c.Source.Kinds) == 0 {
		return errors.New("source.kinds is empty")
	}
	for _, kind := range c.Source.Kinds {
		switch kind {
		case "sample":
		case "file":
			if c.Source.File == "" {
				return errors.New("source.file is required for the file source")
			}
		case "rest":
			if c.Source.RESTURL == "" {
				return errors.New("source.rest_url is required for the rest source")
			}
		case "html":
			if c.Source.HTMLURL == "" {
				return errors.New("source.html_url is required for the html source")
			}
		default:
			return fmt.Errorf("unknown source kind %q", kind)
		}
	}
	if c.Search.TextDebounce < 0 || c.Search.RangeDebounce < 0 {
		return errors.New("debounce delays must not be negative")
	}
	if c.HTTP.MaxDelay < c.HTTP.MinDelay {
		return errors.New("http.max_delay must be >= http.min_delay")
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func describe(path string) string {
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			return "config.yaml in " + wd
		}
		return "config.yaml"
	}
	return path
}
