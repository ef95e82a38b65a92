package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reshetovitsme/channel-digest/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "@bed_for_cat")
	t.Setenv("ADMIN_USER_ID", "42")
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramBotToken)
	assert.Equal(t, "@bed_for_cat", cfg.ChannelID)
	assert.Equal(t, int64(42), cfg.AdminUserID)
	assert.Equal(t, 10, cfg.ReportHour)
	assert.Equal(t, 0, cfg.ReportMinute)
	assert.Equal(t, 100, cfg.HistoryPageSize)
	assert.Equal(t, 24*time.Hour, cfg.RecencyWindow)
	assert.Equal(t, 1000, cfg.HistoryBufferSize)
	assert.Equal(t, time.Duration(0), cfg.LedgerRetention)
	assert.Equal(t, 10*time.Second, cfg.ManualRateInterval)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
	assert.False(t, cfg.Debug())
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setRequiredEnv(t)

	yamlConfig := "report_hour: 9\nreport_minute: 30\nhistory_page_size: 50\nrecency_window: 12h\napp_env: development\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlConfig), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.ReportHour)
	assert.Equal(t, 30, cfg.ReportMinute)
	assert.Equal(t, 50, cfg.HistoryPageSize)
	assert.Equal(t, 12*time.Hour, cfg.RecencyWindow)
	assert.Equal(t, AppEnvDevelopment, cfg.AppEnv)
	assert.True(t, cfg.Debug())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setRequiredEnv(t)
	t.Setenv("REPORT_HOUR", "7")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"report_hour": 9}`), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ReportHour)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr error
	}{
		{name: "bot token", unset: "TELEGRAM_BOT_TOKEN", wantErr: errors.ErrMissingBotToken},
		{name: "channel", unset: "CHANNEL_ID", wantErr: errors.ErrMissingChannel},
		{name: "admin", unset: "ADMIN_USER_ID", wantErr: errors.ErrMissingAdmin},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")

			_, err := Load()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TelegramBotToken: "token",
			ChannelID:        "@channel",
			AdminUserID:      1,
			ReportHour:       10,
			HistoryPageSize:  100,
			RecencyWindow:    24 * time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "hour out of range", mutate: func(c *Config) { c.ReportHour = 24 }, wantErr: errors.ErrInvalidReportTime},
		{name: "negative minute", mutate: func(c *Config) { c.ReportMinute = -1 }, wantErr: errors.ErrInvalidReportTime},
		{name: "zero page size", mutate: func(c *Config) { c.HistoryPageSize = 0 }, wantErr: errors.ErrInvalidPageSize},
		{name: "zero window", mutate: func(c *Config) { c.RecencyWindow = 0 }, wantErr: errors.ErrInvalidWindow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{ReportTimezone: "Europe/Moscow"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())

	cfg.ReportTimezone = ""
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.ReportTimezone = "Nowhere/Invalid"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestParseAppEnv(t *testing.T) {
	env, err := ParseAppEnv("TESTING")
	require.NoError(t, err)
	assert.Equal(t, AppEnvTesting, env)

	_, err = ParseAppEnv("staging")
	assert.ErrorIs(t, err, ErrInvalidAppEnv)
}
