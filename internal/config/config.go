package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics

	HoroscopesDir   string `envconfig:"HOROSCOPES_DIR" default:"./horoscopes"`
	HoroscopeDBPath string `envconfig:"HOROSCOPE_DB_PATH"` // empty: read text files directly
	ClockTZ         string `envconfig:"CLOCK_TZ"`          // empty: process local time

	ScheduleSpec    string  `envconfig:"SCHEDULE_SPEC" default:"* * * * *"`
	DeliveryWorkers int     `envconfig:"DELIVERY_WORKERS" default:"4"`
	DeliveryQueue   int     `envconfig:"DELIVERY_QUEUE" default:"256"`
	SendRate        float64 `envconfig:"SEND_RATE" default:"25"` // messages per second, 0 = unlimited

	GeminiAPIKey string        `envconfig:"GEMINI_API_KEY"` // empty disables /natal
	GeminiModel  string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	NatalTimeout time.Duration `envconfig:"NATAL_TIMEOUT" default:"60s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if strings.TrimSpace(cfg.BotToken) == "" {
		return cfg, errors.New("BOT_TOKEN is empty")
	}
	return cfg, nil
}
