package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "./horoscopes", cfg.HoroscopesDir)
	assert.Empty(t, cfg.HoroscopeDBPath)
	assert.Equal(t, "* * * * *", cfg.ScheduleSpec)
	assert.Equal(t, 4, cfg.DeliveryWorkers)
	assert.Equal(t, 256, cfg.DeliveryQueue)
	assert.InDelta(t, 25.0, cfg.SendRate, 1e-9)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 60*time.Second, cfg.NatalTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CLOCK_TZ", "Europe/Moscow")
	t.Setenv("DELIVERY_WORKERS", "8")
	t.Setenv("NATAL_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", cfg.ClockTZ)
	assert.Equal(t, 8, cfg.DeliveryWorkers)
	assert.Equal(t, 90*time.Second, cfg.NatalTimeout)
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	assert.Error(t, err, "empty")

	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	_, err = Load()
	assert.Error(t, err, "unset")
}
