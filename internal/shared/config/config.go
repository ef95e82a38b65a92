package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	TelegramBotToken      string        `koanf:"telegram_bot_token"`
	TelegramAPIURL        string        `koanf:"telegram_api_url"`
	TelegramWebhookURL    string        `koanf:"telegram_webhook_url"`
	TelegramWebhookSecret string        `koanf:"telegram_webhook_secret"`
	ChannelID             string        `koanf:"channel_id"`
	AdminUserID           int64         `koanf:"admin_user_id"`
	ReportHour            int           `koanf:"report_hour"`
	ReportMinute          int           `koanf:"report_minute"`
	ReportTimezone        string        `koanf:"report_timezone"`
	HistoryPageSize       int           `koanf:"history_page_size"`
	RecencyWindow         time.Duration `koanf:"recency_window"`
	HistoryBufferSize     int           `koanf:"history_buffer_size"`
	LedgerRetention       time.Duration `koanf:"ledger_retention"`
	ManualRateInterval    time.Duration `koanf:"manual_rate_interval"`
	HTTPPort              string        `koanf:"http_port"`
	AppEnv                AppEnv        `koanf:"app_env"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// .env only fills variables that are not already set in the process environment
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, oops.With("context", "loading .env file").Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	defaults := map[string]any{
		"telegram_api_url":     "https://api.telegram.org",
		"report_hour":          10,
		"report_minute":        0,
		"report_timezone":      "Local",
		"history_page_size":    100,
		"recency_window":       "24h",
		"history_buffer_size":  1000,
		"ledger_retention":     "0s",
		"manual_rate_interval": "10s",
		"http_port":            "8080",
		"app_env":              "production",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if env, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = env
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return errors.ErrMissingBotToken
	}
	if c.ChannelID == "" {
		return errors.ErrMissingChannel
	}
	if c.AdminUserID == 0 {
		return errors.ErrMissingAdmin
	}
	if c.ReportHour < 0 || c.ReportHour > 23 || c.ReportMinute < 0 || c.ReportMinute > 59 {
		return oops.With("report_hour", c.ReportHour, "report_minute", c.ReportMinute).Wrap(errors.ErrInvalidReportTime)
	}
	if c.HistoryPageSize <= 0 {
		return oops.With("history_page_size", c.HistoryPageSize).Wrap(errors.ErrInvalidPageSize)
	}
	if c.RecencyWindow <= 0 {
		return oops.With("recency_window", c.RecencyWindow).Wrap(errors.ErrInvalidWindow)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the time zone the daily report is scheduled in.
func (c *Config) Location() (*time.Location, error) {
	if c.ReportTimezone == "" || c.ReportTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return nil, oops.With("report_timezone", c.ReportTimezone, "context", "loading report time zone").Wrap(err)
	}
	return loc, nil
}

// Debug reports whether verbose logging should be enabled.
func (c *Config) Debug() bool {
	return c.AppEnv == AppEnvLocal || c.AppEnv == AppEnvDevelopment
}
