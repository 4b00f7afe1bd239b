package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the catalog backend settings.
type Config struct {
	AppPort       string
	PublicBaseURL string

	ProductsFile string
	UploadsDir   string
	MaxUploadMB  int

	SheetID        string
	SheetFormat    string
	SheetExportURL string

	SyncWebhookURL    string
	RabbitMQURL       string
	OutboxDriver      string
	OutboxDSN         string
	SyncRetrySchedule string
	SyncMaxAttempts   int

	HTTPClientTimeout time.Duration

	LogMode string
	LogFile string
}

// SheetSourceEnabled reports whether a spreadsheet source is configured.
func (c *Config) SheetSourceEnabled() bool {
	return c.SheetID != ""
}

// OutboxEnabled reports whether failed syncs are persisted for retry.
func (c *Config) OutboxEnabled() bool {
	return c.OutboxDSN != ""
}

// MaxUploadBytes is the request body limit derived from MaxUploadMB.
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":4000")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:4000")
	v.SetDefault("PRODUCTS_FILE", "data/products.json")
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("SHEET_ID", "")
	v.SetDefault("SHEET_FORMAT", "csv")
	v.SetDefault("SHEET_EXPORT_URL", "https://docs.google.com/spreadsheets/d/%s/export?format=%s")
	v.SetDefault("SYNC_WEBHOOK_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("OUTBOX_DRIVER", "sqlite")
	v.SetDefault("OUTBOX_DSN", "data/outbox.db")
	v.SetDefault("SYNC_RETRY_SCHEDULE", "@every 1m")
	v.SetDefault("SYNC_MAX_ATTEMPTS", 10)
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_FILE", "")
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // load .env if it exists

	v := viper.New()
	setDefaults(v)
	// An empty OUTBOX_DSN or RABBITMQ_URL switches the feature off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		PublicBaseURL:     strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		ProductsFile:      v.GetString("PRODUCTS_FILE"),
		UploadsDir:        v.GetString("UPLOADS_DIR"),
		MaxUploadMB:       v.GetInt("MAX_UPLOAD_MB"),
		SheetID:           strings.TrimSpace(v.GetString("SHEET_ID")),
		SheetFormat:       strings.ToLower(strings.TrimSpace(v.GetString("SHEET_FORMAT"))),
		SheetExportURL:    v.GetString("SHEET_EXPORT_URL"),
		SyncWebhookURL:    strings.TrimSpace(v.GetString("SYNC_WEBHOOK_URL")),
		RabbitMQURL:       strings.TrimSpace(v.GetString("RABBITMQ_URL")),
		OutboxDriver:      strings.ToLower(v.GetString("OUTBOX_DRIVER")),
		OutboxDSN:         strings.TrimSpace(v.GetString("OUTBOX_DSN")),
		SyncRetrySchedule: v.GetString("SYNC_RETRY_SCHEDULE"),
		SyncMaxAttempts:   v.GetInt("SYNC_MAX_ATTEMPTS"),
		HTTPClientTimeout: v.GetDuration("HTTP_CLIENT_TIMEOUT"),
		LogMode:           v.GetString("LOG_MODE"),
		LogFile:           v.GetString("LOG_FILE"),
	}

	if cfg.AppPort != "" && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProductsFile == "" {
		return fmt.Errorf("PRODUCTS_FILE must not be empty")
	}
	if c.UploadsDir == "" {
		return fmt.Errorf("UPLOADS_DIR must not be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.SheetFormat != "csv" && c.SheetFormat != "xlsx" {
		return fmt.Errorf("SHEET_FORMAT must be csv or xlsx, got %q", c.SheetFormat)
	}
	if c.OutboxDriver != "sqlite" && c.OutboxDriver != "postgres" {
		return fmt.Errorf("OUTBOX_DRIVER must be sqlite or postgres, got %q", c.OutboxDriver)
	}
	if c.HTTPClientTimeout <= 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT must be positive")
	}
	return nil
}
