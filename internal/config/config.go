package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field maps 1:1 to a documented env var.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`

	// Remote transfer service — the source of truth for transfer state
	TransferAPIURL     string `mapstructure:"TRANSFER_API_URL"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`

	// Directory / catalog collaborators (read-only lookups)
	DirectoryAPIURL string `mapstructure:"DIRECTORY_API_URL"`

	// Redis — lookup cache + notification queue
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Notifications
	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("WORKER_POOL_SIZE", 3)
	viper.SetDefault("TRANSFER_API_URL", "http://localhost:9000/logistics/warehouse")
	viper.SetDefault("DIRECTORY_API_URL", "http://localhost:9000")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("NOTIFY_WEBHOOK_URL", "")

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
