package config

import (
	"StickyBus/internal/sticky"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the daemon.
type Config struct {
	AppEnv   string
	LogLevel string

	BusName         string
	DuplicatePolicy sticky.DuplicatePolicy

	MetricsAddr string

	// Optional persistence. EncryptionKey requires DatabaseURL.
	DatabaseURL   string
	DBMaxConns    int32
	EncryptionKey string

	// Optional Telegram relay. Both must be set to enable it.
	TelegramToken  string
	TelegramChatID int64
	TelegramSilent bool
}

// bindings maps viper keys to environment variable names.
var bindings = map[string]string{
	"app.env":                 "APP_ENV",
	"log.level":               "LOG_LEVEL",
	"sticky.bus_name":         "STICKY_BUS_NAME",
	"sticky.duplicate_policy": "STICKY_DUPLICATE_POLICY",
	"metrics.addr":            "METRICS_ADDR",
	"database.url":            "DATABASE_URL",
	"database.max_conns":      "DATABASE_MAX_CONNS",
	"encryption.key":          "ENCRYPTION_KEY",
	"telegram.token":          "TELEGRAM_TOKEN",
	"telegram.chat_id":        "TELEGRAM_CHAT_ID",
	"telegram.silent":         "TELEGRAM_SILENT",
}

// Load reads an optional .env file into the process environment and then
// builds the configuration from environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper builds and validates the configuration using v.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("sticky.bus_name", "default")
	v.SetDefault("sticky.duplicate_policy", string(sticky.PolicyReplace))
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("database.max_conns", 4)

	policy, err := sticky.ParseDuplicatePolicy(v.GetString("sticky.duplicate_policy"))
	if err != nil {
		return nil, fmt.Errorf("STICKY_DUPLICATE_POLICY: %w", err)
	}

	cfg := Config{
		AppEnv:          v.GetString("app.env"),
		LogLevel:        v.GetString("log.level"),
		BusName:         v.GetString("sticky.bus_name"),
		DuplicatePolicy: policy,
		MetricsAddr:     v.GetString("metrics.addr"),
		DatabaseURL:     v.GetString("database.url"),
		DBMaxConns:      v.GetInt32("database.max_conns"),
		EncryptionKey:   v.GetString("encryption.key"),
		TelegramToken:   v.GetString("telegram.token"),
		TelegramChatID:  v.GetInt64("telegram.chat_id"),
		TelegramSilent:  v.GetBool("telegram.silent"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules.
func (c *Config) Validate() error {
	if c.BusName == "" {
		return errors.New("STICKY_BUS_NAME must not be empty")
	}
	if c.MetricsAddr == "" {
		return errors.New("METRICS_ADDR must not be empty")
	}

	if c.EncryptionKey != "" {
		if c.DatabaseURL == "" {
			return errors.New("ENCRYPTION_KEY is set but DATABASE_URL is not")
		}
		if len(c.EncryptionKey) != 64 {
			return fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(c.EncryptionKey))
		}
		if _, err := hex.DecodeString(c.EncryptionKey); err != nil {
			return fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
		}
	}

	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// DevMode reports whether human-readable logging should be used.
func (c *Config) DevMode() bool {
	return c.AppEnv == "dev"
}

// PersistenceEnabled reports whether a database was configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// RelayEnabled reports whether the Telegram relay was configured.
func (c *Config) RelayEnabled() bool {
	return c.TelegramToken != ""
}
