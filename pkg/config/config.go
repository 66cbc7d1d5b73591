package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP listen address, e.g. ":8080"
	Address string `env:"ADDRESS" envDefault:":8080"`

	// Bearer key required for /list and /delete
	APIKey string `env:"API_KEY"`

	// Telegram bot token; when empty the webhook endpoint answers 404
	BotToken string `env:"TG_BOT_TOKEN"`

	// Optional webhook secret checked against X-Telegram-Bot-Api-Secret-Token
	WebhookSecret string `env:"TG_SECRET_TOKEN"`

	// Directory for the file-backed store; empty selects the in-memory
	// store (non-persistent)
	DataDir string `env:"DATA_DIR"`

	// Debug lowers the log level to debug
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
